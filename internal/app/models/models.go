package models

// Role is the role of an authenticated principal.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleAccountant Role = "Accountant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAccountant
}

// Frequency is the billing frequency of a course.
type Frequency string

const (
	FrequencyAnnual   Frequency = "Annual"
	FrequencySemester Frequency = "Semester"
	FrequencyMonthly  Frequency = "Monthly"
)

// Valid reports whether f is a known billing frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyAnnual, FrequencySemester, FrequencyMonthly:
		return true
	}
	return false
}

// HeadCategory classifies a fee head.
type HeadCategory string

const (
	CategoryBase     HeadCategory = "Base"
	CategoryOneTime  HeadCategory = "One-Time"
	CategoryOptional HeadCategory = "Optional"
)

// Valid reports whether c is a known category.
func (c HeadCategory) Valid() bool {
	switch c {
	case CategoryBase, CategoryOneTime, CategoryOptional:
		return true
	}
	return false
}

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodUPI  PaymentMethod = "UPI"
	MethodCash PaymentMethod = "Cash"
	MethodBank PaymentMethod = "Bank Transfer"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodUPI, MethodCash, MethodBank:
		return true
	}
	return false
}

// ChangeStatus is the lifecycle state of a pending change.
type ChangeStatus string

const (
	StatusPending  ChangeStatus = "Pending"
	StatusApproved ChangeStatus = "Approved"
	StatusRejected ChangeStatus = "Rejected"
)

// NotificationType is the severity of a notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "Info"
	NotificationWarning NotificationType = "Warning"
	NotificationAlert   NotificationType = "Alert"
)

// UnassignedCourse is shown for students whose course no longer exists.
const UnassignedCourse = "Unassigned"
