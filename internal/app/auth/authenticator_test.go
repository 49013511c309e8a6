package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/edupay/internal/app/models"
	"github.com/yigit/edupay/internal/app/state"
	"github.com/yigit/edupay/internal/pkg/apperrors"
	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
	"github.com/yigit/edupay/internal/store"
	"github.com/yigit/edupay/internal/store/memstore"
	"golang.org/x/crypto/bcrypt"
)

func newAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	pkgauth.BcryptCost = bcrypt.MinCost
	ctx := context.Background()

	ms := memstore.New()
	hash, err := pkgauth.HashPassword("pass123")
	require.NoError(t, err)
	_, err = ms.Insert(ctx, store.TableAccountants, store.Record{"name": "Ravi Kumar", "user_id": "ravi", "password": hash})
	require.NoError(t, err)
	_, err = ms.Insert(ctx, store.TableAccountants, store.Record{"name": "Legacy Clerk", "user_id": "legacy", "password": "plain"})
	require.NoError(t, err)
	_, err = ms.Insert(ctx, store.TableAccountants, store.Record{"name": "Front Desk", "user_id": "admin", "password": "desk-pass"})
	require.NoError(t, err)

	st := state.NewStore()
	require.NoError(t, state.NewRefresher(ms, st, time.Second).Refresh(ctx))

	admin, err := NewAdminPrincipal("admin", "12345", "Super Admin")
	require.NoError(t, err)
	tokens := pkgauth.NewJWTService(pkgauth.JWTConfig{SecretKey: "test", TokenExp: time.Hour, TokenIssuer: "edupay.test"})
	return NewAuthenticator(admin, st, tokens)
}

func TestLoginAsAdmin(t *testing.T) {
	a := newAuthenticator(t)

	res, err := a.Login("admin", "12345")
	require.NoError(t, err)
	assert.Equal(t, models.Session{Name: "Super Admin", UserID: "admin", Role: models.RoleAdmin}, res.Session)

	restored, err := a.Restore(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session, restored)
}

func TestLoginAsAccountant(t *testing.T) {
	a := newAuthenticator(t)

	res, err := a.Login("ravi", "pass123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAccountant, res.Session.Role)
	assert.Equal(t, "Ravi Kumar", res.Session.Name)

	res, err = a.Login("legacy", "plain")
	require.NoError(t, err)
	assert.Equal(t, "legacy", res.Session.UserID)
}

func TestLoginFallsThroughToAccountantSharingAdminID(t *testing.T) {
	a := newAuthenticator(t)

	res, err := a.Login("admin", "desk-pass")
	require.NoError(t, err)
	assert.Equal(t, models.Session{Name: "Front Desk", UserID: "admin", Role: models.RoleAccountant}, res.Session)

	res, err = a.Login("admin", "12345")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.Session.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	a := newAuthenticator(t)

	for _, c := range []struct{ id, pw string }{
		{"admin", "wrong"},
		{"ravi", "PASS123"},
		{"Ravi", "pass123"},
		{"nobody", "pass123"},
		{"", ""},
	} {
		res, err := a.Login(c.id, c.pw)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "login %q", c.id)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newAuthenticator(t)
	res, err := a.Login("ravi", "pass123")
	require.NoError(t, err)

	a.Logout(res.Token)

	_, err = a.Restore(res.Token)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestRestoreRejectsGarbage(t *testing.T) {
	a := newAuthenticator(t)
	_, err := a.Restore("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestDenylistForgetsExpiredEntries(t *testing.T) {
	d := NewDenylist()
	now := time.Now()
	d.now = func() time.Time { return now }

	d.Revoke("old", now.Add(-time.Second))
	d.Revoke("new", now.Add(time.Minute))

	assert.False(t, d.Revoked("old"))
	assert.True(t, d.Revoked("new"))
	assert.NotContains(t, d.entries, "old")
}
