package models

// Accountant is a stored principal with the Accountant role.
// Password holds a bcrypt hash; rows created before hashing may hold plaintext.
type Accountant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	UserID   string `json:"userId"`
	Password string `json:"-"`
}

// Notification is an informational message shown in the console.
type Notification struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt string           `json:"createdAt,omitempty"`
}

// Session is the identity carried by an authenticated request.
type Session struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the session has direct-write privilege.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
