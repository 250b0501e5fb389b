package repository

import (
	"context"
	"encoding/json"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	Record(ctx context.Context, actorID uuid.UUID, action, entityID, entityName string, details interface{}) error
	List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error)
}

// AuditFilter narrows the audit log listing. Zero values match everything.
type AuditFilter struct {
	Action   string
	EntityID string
	UserID   *uuid.UUID
	Page     int
	Limit    int
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

// Record builds an AuditLog with details serialized to JSON and stores it.
func (r *auditRepository) Record(ctx context.Context, actorID uuid.UUID, action, entityID, entityName string, details interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if actorID != uuid.Nil {
		entry.UserID = &actorID
	}
	return r.Log(ctx, entry)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]model.AuditLog, int64, error) {
	matching := func(db *gorm.DB) *gorm.DB {
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.EntityID != "" {
			db = db.Where("entity_id = ?", filter.EntityID)
		}
		if filter.UserID != nil {
			db = db.Where("user_id = ?", *filter.UserID)
		}
		return db
	}

	var total int64
	if err := GetDB(ctx, r.db).Model(&model.AuditLog{}).Scopes(matching).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	var logs []model.AuditLog
	err := GetDB(ctx, r.db).Scopes(matching).Preload("User").
		Order("created_at desc").Order("id").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
