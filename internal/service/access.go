package service

import (
	"strings"

	"storefront/internal/model"

	"github.com/google/uuid"
)

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	UserID     uuid.UUID
	Email      string
	Name       string
	Role       string
	SuperAdmin bool
}

// IsStaff reports moderator, admin or super admin callers.
func (i Identity) IsStaff() bool {
	return i.SuperAdmin || i.Role == model.RoleModerator || i.Role == model.RoleAdmin
}

// IsAdmin reports admin or super admin callers.
func (i Identity) IsAdmin() bool {
	return i.SuperAdmin || i.Role == model.RoleAdmin
}

// Class names the caller tier: user, moderator, admin or super-admin.
func (i Identity) Class() string {
	if i.SuperAdmin {
		return "super-admin"
	}
	return i.Role
}

// AccessPolicy resolves identities against the super admin allowlist.
// The allowlist is configuration, never persisted on the user row.
type AccessPolicy struct {
	superAdmins map[string]struct{}
}

func NewAccessPolicy(superAdminEmails []string) *AccessPolicy {
	set := make(map[string]struct{}, len(superAdminEmails))
	for _, email := range superAdminEmails {
		if email = normalizeEmail(email); email != "" {
			set[email] = struct{}{}
		}
	}
	return &AccessPolicy{superAdmins: set}
}

func (p *AccessPolicy) IsSuperAdmin(email string) bool {
	if p == nil {
		return false
	}
	_, ok := p.superAdmins[normalizeEmail(email)]
	return ok
}

// Resolve builds the Identity of a stored user.
func (p *AccessPolicy) Resolve(u *model.User) Identity {
	return Identity{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		SuperAdmin: p.IsSuperAdmin(u.Email),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
