package normalize

import (
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/store"
)

// Settings reads the settings singleton.
func Settings(r store.Record) models.Settings {
	return models.Settings{
		ID:              str(r, "id"),
		InstitutionName: str(r, "institution_name"),
		Address:         str(r, "address"),
		ContactNumber:   str(r, "contact_number"),
		LogoURL:         str(r, "logo_url"),
		Branches:        stringList(r, "available_branches"),
		Semesters:       stringList(r, "available_semesters"),
		Sessions:        stringList(r, "available_sessions"),
	}
}

// SettingsRecord writes the settings columns, without the id.
func SettingsRecord(s models.Settings) store.Record {
	return store.Record{
		"institution_name":    s.InstitutionName,
		"address":             s.Address,
		"contact_number":      s.ContactNumber,
		"logo_url":            s.LogoURL,
		"available_branches":  nonNil(s.Branches),
		"available_semesters": nonNil(s.Semesters),
		"available_sessions":  nonNil(s.Sessions),
	}
}

// Course reads a course without its heads.
func Course(r store.Record) models.Course {
	return models.Course{
		ID:          str(r, "id"),
		Name:        str(r, "course_name"),
		Frequency:   models.Frequency(str(r, "frequency")),
		TotalAmount: amount(r, "total_amount"),
		Heads:       []models.FeeHead{},
	}
}

// CourseRecord writes the course columns, without the id.
func CourseRecord(c models.Course) store.Record {
	return store.Record{
		"course_name":  c.Name,
		"frequency":    string(c.Frequency),
		"total_amount": c.TotalAmount,
	}
}

// FeeHead reads a fee head.
func FeeHead(r store.Record) models.FeeHead {
	return models.FeeHead{
		ID:       str(r, "id"),
		CourseID: str(r, "course_id"),
		Name:     str(r, "name"),
		Amount:   amount(r, "amount"),
		Category: models.HeadCategory(str(r, "type")),
	}
}

// FeeHeadRecord writes a fee head owned by courseID.
func FeeHeadRecord(courseID string, h models.FeeHead) store.Record {
	rec := store.Record{
		"course_id": courseID,
		"name":      h.Name,
		"amount":    h.Amount,
		"type":      string(h.Category),
	}
	if h.ID != "" {
		rec["id"] = h.ID
	}
	return rec
}

// Student reads a student.
func Student(r store.Record) models.Student {
	return models.Student{
		ID:             str(r, "id"),
		Name:           str(r, "name"),
		ParentName:     str(r, "parent_name"),
		RollNumber:     str(r, "roll_number"),
		CourseID:       str(r, "course_id"),
		Branch:         str(r, "branch"),
		Semester:       str(r, "semester"),
		SessionID:      str(r, "session_id"),
		Email:          str(r, "email"),
		Phone:          str(r, "phone"),
		EnrollmentDate: date(r, "enrollment_date"),
	}
}

// StudentRecord writes the student columns, without the id.
func StudentRecord(s models.Student) store.Record {
	return store.Record{
		"name":            s.Name,
		"parent_name":     s.ParentName,
		"roll_number":     s.RollNumber,
		"course_id":       nullable(s.CourseID),
		"branch":          s.Branch,
		"semester":        s.Semester,
		"session_id":      s.SessionID,
		"email":           s.Email,
		"phone":           s.Phone,
		"enrollment_date": nullable(s.EnrollmentDate),
	}
}

// Payment reads a payment row or a payment snapshot held by a pending change.
func Payment(r store.Record) models.Payment {
	return models.Payment{
		ID:            str(r, "id"),
		StudentID:     str(r, "student_id"),
		Amount:        amount(r, "amount"),
		Date:          date(r, "date"),
		Time:          str(r, "time"),
		PaymentMethod: models.PaymentMethod(str(r, "payment_method")),
		ReceiptNumber: str(r, "receipt_number"),
		FeeHeadIDs:    stringList(r, "fee_head_ids"),
		SessionID:     str(r, "session_id"),
		CollectedBy:   str(r, "collected_by"),
		EditedBy:      str(r, "edited_by"),
		IsEdited:      boolean(r, "is_edited"),
		TransactionID: str(r, "transaction_id"),
		UPIID:         str(r, "upi_id"),
		BankAccount:   str(r, "bank_account"),
		Remarks:       str(r, "remarks"),
	}
}

// PaymentRecord writes the payment columns, without the id.
func PaymentRecord(p models.Payment) store.Record {
	return store.Record{
		"student_id":     p.StudentID,
		"amount":         p.Amount,
		"date":           p.Date,
		"time":           p.Time,
		"payment_method": string(p.PaymentMethod),
		"receipt_number": p.ReceiptNumber,
		"fee_head_ids":   nonNil(p.FeeHeadIDs),
		"session_id":     p.SessionID,
		"collected_by":   p.CollectedBy,
		"edited_by":      nullable(p.EditedBy),
		"is_edited":      p.IsEdited,
		"transaction_id": nullable(p.TransactionID),
		"upi_id":         nullable(p.UPIID),
		"bank_account":   nullable(p.BankAccount),
		"remarks":        nullable(p.Remarks),
	}
}

// paymentSnapshot is the JSON-safe form of a payment kept in pending changes.
func paymentSnapshot(p models.Payment) map[string]any {
	snap := map[string]any{
		"id":             p.ID,
		"student_id":     p.StudentID,
		"amount":         p.Amount.String(),
		"date":           p.Date,
		"time":           p.Time,
		"payment_method": string(p.PaymentMethod),
		"receipt_number": p.ReceiptNumber,
		"fee_head_ids":   nonNil(p.FeeHeadIDs),
		"session_id":     p.SessionID,
		"collected_by":   p.CollectedBy,
		"is_edited":      p.IsEdited,
		"transaction_id": p.TransactionID,
		"upi_id":         p.UPIID,
		"bank_account":   p.BankAccount,
		"remarks":        p.Remarks,
	}
	if p.EditedBy != "" {
		snap["edited_by"] = p.EditedBy
	}
	return snap
}

// PaymentPatch extracts the editable payment fields present in r.
func PaymentPatch(r store.Record) models.PaymentPatch {
	var patch models.PaymentPatch
	if has(r, "amount") {
		a := amount(r, "amount")
		patch.Amount = &a
	}
	if has(r, "payment_method") {
		m := models.PaymentMethod(str(r, "payment_method"))
		patch.PaymentMethod = &m
	}
	if has(r, "transaction_id") {
		s := str(r, "transaction_id")
		patch.TransactionID = &s
	}
	if has(r, "upi_id") {
		s := str(r, "upi_id")
		patch.UPIID = &s
	}
	if has(r, "bank_account") {
		s := str(r, "bank_account")
		patch.BankAccount = &s
	}
	if has(r, "date") {
		s := date(r, "date")
		patch.Date = &s
	}
	if has(r, "remarks") {
		s := str(r, "remarks")
		patch.Remarks = &s
	}
	if has(r, "fee_head_ids") {
		patch.FeeHeadIDs = stringList(r, "fee_head_ids")
	}
	if has(r, "session_id") {
		s := str(r, "session_id")
		patch.SessionID = &s
	}
	return patch
}

// PaymentPatchRecord writes the columns changed by patch.
func PaymentPatchRecord(patch models.PaymentPatch) store.Record {
	rec := store.Record{}
	if patch.Amount != nil {
		rec["amount"] = *patch.Amount
	}
	if patch.PaymentMethod != nil {
		rec["payment_method"] = string(*patch.PaymentMethod)
	}
	if patch.TransactionID != nil {
		rec["transaction_id"] = nullable(*patch.TransactionID)
	}
	if patch.UPIID != nil {
		rec["upi_id"] = nullable(*patch.UPIID)
	}
	if patch.BankAccount != nil {
		rec["bank_account"] = nullable(*patch.BankAccount)
	}
	if patch.Date != nil {
		rec["date"] = *patch.Date
	}
	if patch.Remarks != nil {
		rec["remarks"] = nullable(*patch.Remarks)
	}
	if patch.FeeHeadIDs != nil {
		rec["fee_head_ids"] = patch.FeeHeadIDs
	}
	if patch.SessionID != nil {
		rec["session_id"] = *patch.SessionID
	}
	return rec
}

// Accountant reads an accountant, including its stored password.
func Accountant(r store.Record) models.Accountant {
	return models.Accountant{
		ID:       str(r, "id"),
		Name:     str(r, "name"),
		UserID:   str(r, "user_id"),
		Password: str(r, "password"),
	}
}

// AccountantRecord writes the accountant columns, without the id.
func AccountantRecord(a models.Accountant) store.Record {
	return store.Record{
		"name":     a.Name,
		"user_id":  a.UserID,
		"password": a.Password,
	}
}

// Notification reads a notification.
func Notification(r store.Record) models.Notification {
	n := models.Notification{
		ID:      str(r, "id"),
		Message: str(r, "message"),
		Type:    models.NotificationType(str(r, "type")),
		Read:    boolean(r, "is_read"),
	}
	if !n.Read {
		if v, ok := r["read"].(bool); ok {
			n.Read = v
		}
	}
	n.CreatedAt = timestamp(r, "created_at")
	if n.CreatedAt == "" {
		n.CreatedAt = timestamp(r, "timestamp")
	}
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	return n
}

// NotificationRecord writes the notification columns, without the id.
func NotificationRecord(n models.Notification) store.Record {
	return store.Record{
		"message": n.Message,
		"type":    string(n.Type),
		"is_read": n.Read,
	}
}

// PendingChange reads a pending change. Patch holds exactly the editable
// fields present in the stored new data.
func PendingChange(r store.Record) models.PendingChange {
	oldData := object(r, "old_data")
	newData := object(r, "new_data")
	status := models.ChangeStatus(str(r, "status"))
	if status == "" {
		status = models.StatusPending
	}
	return models.PendingChange{
		ID:          str(r, "id"),
		PaymentID:   str(r, "payment_id"),
		RequestedBy: str(r, "requested_by"),
		OldData:     Payment(oldData),
		NewData:     Payment(newData),
		Status:      status,
		RequestedAt: timestamp(r, "requested_at"),
		Patch:       PaymentPatch(newData),
	}
}

// PendingChangeRecord writes a pending change with full old and new payment snapshots.
func PendingChangeRecord(c models.PendingChange) store.Record {
	return store.Record{
		"payment_id":   c.PaymentID,
		"requested_by": c.RequestedBy,
		"old_data":     paymentSnapshot(c.OldData),
		"new_data":     paymentSnapshot(c.NewData),
		"status":       string(c.Status),
		"requested_at": nullable(c.RequestedAt),
	}
}
