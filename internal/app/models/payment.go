package models

import "github.com/shopspring/decimal"

// Payment is one recorded fee payment. Date is an ISO date (YYYY-MM-DD).
type Payment struct {
	ID            string          `json:"id"`
	StudentID     string          `json:"studentId"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	ReceiptNumber string          `json:"receiptNumber"`
	FeeHeadIDs    []string        `json:"feeHeadIds"`
	SessionID     string          `json:"sessionId"`
	CollectedBy   string          `json:"collectedBy"`
	EditedBy      string          `json:"editedBy,omitempty"`
	IsEdited      bool            `json:"isEdited"`
	TransactionID string          `json:"transactionId,omitempty"`
	UPIID         string          `json:"upiId,omitempty"`
	BankAccount   string          `json:"bankAccount,omitempty"`
	Remarks       string          `json:"remarks,omitempty"`
}

// PaymentPatch holds the editable payment fields present in a change.
// A nil field is left untouched.
type PaymentPatch struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod *PaymentMethod   `json:"paymentMethod,omitempty"`
	TransactionID *string          `json:"transactionId,omitempty"`
	UPIID         *string          `json:"upiId,omitempty"`
	BankAccount   *string          `json:"bankAccount,omitempty"`
	Date          *string          `json:"date,omitempty"`
	Remarks       *string          `json:"remarks,omitempty"`
	FeeHeadIDs    []string         `json:"feeHeadIds,omitempty"`
	SessionID     *string          `json:"sessionId,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PaymentPatch) Empty() bool {
	return p.Amount == nil && p.PaymentMethod == nil && p.TransactionID == nil &&
		p.UPIID == nil && p.BankAccount == nil && p.Date == nil && p.Remarks == nil &&
		p.FeeHeadIDs == nil && p.SessionID == nil
}

// Apply returns a copy of pay with the patch applied.
func (p PaymentPatch) Apply(pay Payment) Payment {
	if p.Amount != nil {
		pay.Amount = *p.Amount
	}
	if p.PaymentMethod != nil {
		pay.PaymentMethod = *p.PaymentMethod
	}
	if p.TransactionID != nil {
		pay.TransactionID = *p.TransactionID
	}
	if p.UPIID != nil {
		pay.UPIID = *p.UPIID
	}
	if p.BankAccount != nil {
		pay.BankAccount = *p.BankAccount
	}
	if p.Date != nil {
		pay.Date = *p.Date
	}
	if p.Remarks != nil {
		pay.Remarks = *p.Remarks
	}
	if p.FeeHeadIDs != nil {
		pay.FeeHeadIDs = append([]string(nil), p.FeeHeadIDs...)
	}
	if p.SessionID != nil {
		pay.SessionID = *p.SessionID
	}
	return pay
}

// PendingChange is an accountant's proposed edit awaiting admin review.
type PendingChange struct {
	ID          string       `json:"id"`
	PaymentID   string       `json:"paymentId"`
	RequestedBy string       `json:"requestedBy"`
	OldData     Payment      `json:"oldData"`
	NewData     Payment      `json:"newData"`
	Status      ChangeStatus `json:"status"`
	RequestedAt string       `json:"requestedAt"`
	// Patch holds exactly the editable fields present in the stored new data.
	Patch PaymentPatch `json:"-"`
}
