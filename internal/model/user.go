package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether r is a stored role value.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

// Account providers
const (
	ProviderCredentials = "credentials"
	ProviderOAuth       = "oauth"
)

// User represents a storefront account. Super admin status is not stored
// here; it is derived from the configured allowlist at request time.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name          string    `gorm:"type:varchar(255)" json:"name"`
	Password      string    `gorm:"type:varchar(255)" json:"-"` // empty for oauth accounts
	Role          string    `gorm:"type:varchar(20);not null;index" json:"role"`
	IsBlocked     bool      `gorm:"not null" json:"isBlocked"`
	BlockedReason string    `gorm:"type:varchar(500)" json:"blockedReason,omitempty"`
	Provider      string    `gorm:"type:varchar(20);not null" json:"provider"`
	Image         string    `gorm:"type:varchar(500)" json:"image,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}
