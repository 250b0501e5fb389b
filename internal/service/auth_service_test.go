package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthEnv(t *testing.T) (*fixture, AuthService) {
	f := newFixture(t)
	tokens := NewTokenManager("test-secret", time.Hour)
	return f, NewAuthService(f.users, tokens, session.NewMemoryRevoker(), f.policy)
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	f, svc := newAuthEnv(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", sess.User.Email)
	assert.Equal(t, model.RoleUser, sess.User.Role)
	assert.EqualValues(t, 3600, sess.ExpiresIn)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	login, err := svc.Login(ctx, LoginRequest{Email: "ANA@example.com", Password: "secret1"})
	require.NoError(t, err)

	identity, claims, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, identity.UserID)
	assert.NotEmpty(t, claims.ID)

	// role changes are picked up from the database, not the token
	user, err := f.users.GetByID(ctx, identity.UserID)
	require.NoError(t, err)
	user.Role = model.RoleModerator
	require.NoError(t, f.users.Update(ctx, user))
	identity, _, err = svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsStaff())
}

func TestAuthenticateRejectsBlockedAndRevoked(t *testing.T) {
	f, svc := newAuthEnv(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterRequest{Name: "Ion", Email: "ion@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, claims, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	_, _, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	login, err := svc.Login(ctx, LoginRequest{Email: "ion@example.com", Password: "secret1"})
	require.NoError(t, err)
	user, err := f.users.GetByEmail(ctx, "ion@example.com")
	require.NoError(t, err)
	user.IsBlocked = true
	user.BlockedReason = "fraudă"
	require.NoError(t, f.users.Update(ctx, user))

	_, _, err = svc.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "fraudă")

	_, err = svc.Login(ctx, LoginRequest{Email: "ion@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSuperAdminResolvedFromAllowlist(t *testing.T) {
	_, svc := newAuthEnv(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, RegisterRequest{Name: "Owner", Email: "OWNER@naturalia.ro", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, sess.User.IsSuperAdmin)
	assert.Equal(t, model.RoleUser, sess.User.Role)

	identity, _, err := svc.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())
	assert.Equal(t, "super-admin", identity.Class())
}
