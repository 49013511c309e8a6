package dto

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/edupay/internal/app/models"
)

// FeeHeadRequest is one line of a fee structure
type FeeHeadRequest struct {
	Name   string              `json:"name" binding:"required" example:"Tuition Fee"`
	Amount decimal.Decimal     `json:"amount" swaggertype:"string" example:"60000"`
	Type   models.HeadCategory `json:"type" binding:"required,oneof=Base One-Time Optional" example:"Base"`
}

// CourseRequest creates or replaces a fee structure
type CourseRequest struct {
	Name      string           `json:"name" binding:"required" example:"B.Tech Computer Science"`
	Frequency models.Frequency `json:"frequency" binding:"required,oneof=Annual Semester Monthly" example:"Semester"`
	Heads     []FeeHeadRequest `json:"heads" binding:"required,min=1,dive"`
}

// StudentRequest creates or replaces a student
type StudentRequest struct {
	Name           string `json:"name" binding:"required" example:"Aarav Sharma"`
	ParentName     string `json:"parentName"`
	RollNumber     string `json:"rollNumber" example:"CS-01"`
	CourseID       string `json:"courseId" binding:"required"`
	Branch         string `json:"branch"`
	Semester       string `json:"semester"`
	SessionID      string `json:"sessionId" example:"2024-25"`
	Email          string `json:"email" binding:"omitempty,email"`
	Phone          string `json:"phone"`
	EnrollmentDate string `json:"enrollmentDate" binding:"omitempty,datetime=2006-01-02" example:"2024-07-01"`
}

// Student converts the request into a student record
func (r StudentRequest) Student() models.Student {
	return models.Student{
		Name:           r.Name,
		ParentName:     r.ParentName,
		RollNumber:     r.RollNumber,
		CourseID:       r.CourseID,
		Branch:         r.Branch,
		Semester:       r.Semester,
		SessionID:      r.SessionID,
		Email:          r.Email,
		Phone:          r.Phone,
		EnrollmentDate: r.EnrollmentDate,
	}
}

// CreatePaymentRequest records a new payment
type CreatePaymentRequest struct {
	StudentID     string               `json:"studentId" binding:"required"`
	Amount        decimal.Decimal      `json:"amount" swaggertype:"string" example:"45000"`
	Date          string               `json:"date" binding:"omitempty,datetime=2006-01-02" example:"2024-08-01"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required" example:"UPI"`
	FeeHeadIDs    []string             `json:"feeHeadIds"`
	SessionID     string               `json:"sessionId"`
	TransactionID string               `json:"transactionId" example:"TXN123"`
	UPIID         string               `json:"upiId"`
	BankAccount   string               `json:"bankAccount"`
	Remarks       string               `json:"remarks"`
}

// UpdatePaymentRequest changes the fields that are present
type UpdatePaymentRequest = models.PaymentPatch

// UpdateProfileRequest changes the institution profile
type UpdateProfileRequest struct {
	InstitutionName string `json:"institutionName" binding:"required" example:"Digital Communique Academy"`
	Address         string `json:"address"`
	ContactNumber   string `json:"contactNumber"`
}

// ListItemRequest adds or removes one value of a settings list
type ListItemRequest struct {
	Value string `json:"value" binding:"required" example:"2025-26"`
}

// AccountantRequest creates or updates an accountant. Password may be
// omitted on update.
type AccountantRequest struct {
	Name     string `json:"name" binding:"required" example:"Priya Nair"`
	UserID   string `json:"userId" binding:"required" example:"priya"`
	Password string `json:"password"`
}
