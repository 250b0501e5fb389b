package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateCategory    = "CREATE_CATEGORY"
	ActionUpdateCategory    = "UPDATE_CATEGORY"
	ActionDeleteCategory    = "DELETE_CATEGORY"
	ActionCreateProduct     = "CREATE_PRODUCT"
	ActionUpdateProduct     = "UPDATE_PRODUCT"
	ActionDeleteProduct     = "DELETE_PRODUCT"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"
	ActionAdjustStock       = "ADJUST_STOCK"

	// Account administration
	ActionUpdateUser = "UPDATE_USER"
	ActionRevokeRole = "REVOKE_ROLE"

	ActionSendBroadcast = "SEND_BROADCAST"
)

// AuditLog tracks Who, What, and When for back-office changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"userId"` // nil for system actions
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entityId"`
	EntityName string     `gorm:"type:varchar(255)" json:"entityName,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
