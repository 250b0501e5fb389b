package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateUserGuards(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit, f.tx, f.policy)
	ctx := context.Background()

	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	owner := f.user(t, superAdminEmail, model.RoleUser)
	customer := f.user(t, "ana@example.com", model.RoleUser)
	mod := f.user(t, "mod@example.com", model.RoleModerator)

	require.True(t, owner.SuperAdmin)
	require.True(t, owner.IsAdmin())

	// super admin targets are immutable, whoever asks
	for _, caller := range []Identity{admin, owner} {
		_, err := svc.UpdateUser(ctx, caller, owner.UserID, UpdateUserRequest{Role: ptr(model.RoleUser)})
		assert.ErrorIs(t, err, ErrForbidden)
		_, err = svc.RevokeRole(ctx, caller, owner.UserID)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	// self modification is a validation error
	_, err := svc.UpdateUser(ctx, admin, admin.UserID, UpdateUserRequest{IsBlocked: ptr(true)})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.RevokeRole(ctx, admin, admin.UserID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateUser(ctx, admin, uuid.New(), UpdateUserRequest{Role: ptr(model.RoleAdmin)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateUser(ctx, mod, customer.UserID, UpdateUserRequest{Role: ptr(model.RoleAdmin)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateUser(ctx, admin, customer.UserID, UpdateUserRequest{Role: ptr("root")})
	assert.ErrorIs(t, err, ErrValidation)
}

// The super admin guard runs before the self guard, so a super admin acting
// on their own account gets 403 rather than 400.
func TestUpdateUserSuperAdminSelfIsForbidden(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit, f.tx, f.policy)
	ctx := context.Background()
	owner := f.user(t, superAdminEmail, model.RoleAdmin)

	_, err := svc.UpdateUser(ctx, owner, owner.UserID, UpdateUserRequest{IsBlocked: ptr(true)})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = svc.RevokeRole(ctx, owner, owner.UserID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrValidation)

	logs, _, err := f.audit.List(ctx, repository.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestUpdateUserRoleAndBlock(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit, f.tx, f.policy)
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	customer := f.user(t, "ana@example.com", model.RoleUser)

	res, err := svc.UpdateUser(ctx, admin, customer.UserID, UpdateUserRequest{Role: ptr(model.RoleModerator)})
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, res.Role)

	res, err = svc.UpdateUser(ctx, admin, customer.UserID, UpdateUserRequest{IsBlocked: ptr(true), BlockedReason: ptr("spam")})
	require.NoError(t, err)
	assert.True(t, res.IsBlocked)
	assert.Equal(t, "spam", res.BlockedReason)

	res, err = svc.UpdateUser(ctx, admin, customer.UserID, UpdateUserRequest{IsBlocked: ptr(false)})
	require.NoError(t, err)
	assert.False(t, res.IsBlocked)
	assert.Empty(t, res.BlockedReason)

	res, err = svc.RevokeRole(ctx, admin, customer.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, res.Role)

	logs, total, err := f.audit.List(ctx, repository.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	actions := map[string]int{}
	for _, l := range logs {
		actions[l.Action]++
	}
	assert.Equal(t, 3, actions[model.ActionUpdateUser])
	assert.Equal(t, 1, actions[model.ActionRevokeRole])
}

func TestListUsersMarksSuperAdmins(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.audit, f.tx, f.policy)
	ctx := context.Background()
	admin := f.user(t, "admin@example.com", model.RoleAdmin)
	f.user(t, superAdminEmail, model.RoleUser)

	users, total, err := svc.ListUsers(ctx, admin, UserQuery{Search: "owner"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.True(t, users[0].IsSuperAdmin)

	_, _, err = svc.ListUsers(ctx, f.user(t, "mod@example.com", model.RoleModerator), UserQuery{})
	assert.ErrorIs(t, err, ErrForbidden)
}
