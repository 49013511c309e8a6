// Package auth resolves principals, verifies credentials and manages session
// tokens.
package auth

import (
	"github.com/yigit/edupay/internal/app/models"
	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
)

// Principal is anyone who can log in: the configured administrator or a
// stored accountant.
type Principal struct {
	Name    string
	LoginID string
	Role    models.Role
	// Credential is a bcrypt hash, or plaintext for legacy accountant rows.
	Credential string
}

// Verify checks password against the principal's credential.
func (p Principal) Verify(password string) bool {
	return pkgauth.VerifyStored(p.Credential, password)
}

// Session returns the session established by this principal.
func (p Principal) Session() models.Session {
	return models.Session{Name: p.Name, UserID: p.LoginID, Role: p.Role}
}

// NewAdminPrincipal hashes the configured administrator password.
func NewAdminPrincipal(loginID, password, name string) (Principal, error) {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		Name:       name,
		LoginID:    loginID,
		Role:       models.RoleAdmin,
		Credential: hash,
	}, nil
}

// AccountantPrincipal adapts a stored accountant.
func AccountantPrincipal(a models.Accountant) Principal {
	return Principal{
		Name:       a.Name,
		LoginID:    a.UserID,
		Role:       models.RoleAccountant,
		Credential: a.Password,
	}
}
