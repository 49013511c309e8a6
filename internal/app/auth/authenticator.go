package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
	"github.com/yigit/edupay/internal/pkg/logger"
)

// LoginResult is a successful login.
type LoginResult struct {
	Session   models.Session
	Token     string
	ExpiresAt time.Time
}

// Authenticator implements LoggedOut -> LoggedIn(Admin|Accountant) -> LoggedOut.
type Authenticator struct {
	admin   Principal
	state   *state.Store
	tokens  *pkgauth.JWTService
	revoked *Denylist
	log     zerolog.Logger
}

// NewAuthenticator creates an authenticator. Accountants are read from the
// current snapshot on every login.
func NewAuthenticator(admin Principal, st *state.Store, tokens *pkgauth.JWTService) *Authenticator {
	return &Authenticator{
		admin:   admin,
		state:   st,
		tokens:  tokens,
		revoked: NewDenylist(),
		log:     logger.Component("auth"),
	}
}

// principal matches the credential pair against the administrator first,
// then accountants by exact login id. An accountant sharing the
// administrator's login id is still reachable with its own password.
func (a *Authenticator) principal(loginID, password string) (Principal, bool) {
	if loginID == a.admin.LoginID && a.admin.Verify(password) {
		return a.admin, true
	}
	if acc, ok := a.state.Current().AccountantByLogin(loginID); ok {
		if p := AccountantPrincipal(acc); p.Verify(password) {
			return p, true
		}
	}
	return Principal{}, false
}

// Login verifies credentials and issues a session token. Any failure is
// apperrors.ErrInvalidCredentials.
func (a *Authenticator) Login(loginID, password string) (*LoginResult, error) {
	p, ok := a.principal(loginID, password)
	if !ok {
		a.log.Info().Str("loginId", loginID).Msg("Login rejected")
		return nil, apperrors.ErrInvalidCredentials
	}

	session := p.Session()
	token, expiresAt, err := a.tokens.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("issuing session token: %w", err)
	}

	a.log.Info().Str("userId", session.UserID).Str("role", string(session.Role)).Msg("Login succeeded")
	return &LoginResult{Session: session, Token: token, ExpiresAt: expiresAt}, nil
}

// Restore returns the session carried by token. The store is not consulted,
// so a deleted accountant stays logged in until logout or expiry.
func (a *Authenticator) Restore(token string) (models.Session, error) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		if errors.Is(err, pkgauth.ErrExpiredToken) {
			return models.Session{}, apperrors.ErrTokenExpired
		}
		return models.Session{}, fmt.Errorf("%w: %v", apperrors.ErrTokenInvalid, err)
	}
	if a.revoked.Revoked(claims.ID) {
		return models.Session{}, apperrors.ErrTokenRevoked
	}
	return claims.Session(), nil
}

// Logout revokes token. Invalid or expired tokens are already unusable, so
// logout never fails.
func (a *Authenticator) Logout(token string) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return
	}
	expiresAt := time.Now()
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	a.revoked.Revoke(claims.ID, expiresAt)
	a.log.Info().Str("userId", claims.UserID).Msg("Logged out")
}
