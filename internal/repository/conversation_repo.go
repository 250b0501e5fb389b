package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationFilter narrows a conversation listing
type ConversationFilter struct {
	UserID      *uuid.UUID
	Status      string
	UnreadAdmin bool
	Page        int
	Limit       int
}

type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	FindByIDWithMessages(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	List(ctx context.Context, filter ConversationFilter) ([]model.Conversation, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ClearUnread(ctx context.Context, id uuid.UUID, staffSide bool) error
	CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnreadForStaff(ctx context.Context) (int64, error)

	CreateMessage(ctx context.Context, message *model.Message) error
	FindMessage(ctx context.Context, conversationID, messageID uuid.UUID) (*model.Message, error)
	UpdateMessage(ctx context.Context, message *model.Message) error
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	return GetDB(ctx, r.db).Omit("User", "Messages").Create(conversation).Error
}

func (r *conversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	if err := GetDB(ctx, r.db).First(&conversation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) FindByIDWithMessages(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	err := GetDB(ctx, r.db).
		Preload("User").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Preload("Messages.Sender").
		First(&conversation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) List(ctx context.Context, filter ConversationFilter) ([]model.Conversation, int64, error) {
	var conversations []model.Conversation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Conversation{})
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.UnreadAdmin {
		db = db.Where("unread_admin = ?", true)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("User").Order("updated_at desc").Offset(offset).Limit(filter.Limit).Find(&conversations).Error; err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}

// UpdateFields writes the given columns; gorm also bumps updated_at.
func (r *conversationRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := GetDB(ctx, r.db).Model(&model.Conversation{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearUnread resets one side's read marker without touching updated_at.
func (r *conversationRepository) ClearUnread(ctx context.Context, id uuid.UUID, staffSide bool) error {
	column := "unread_user"
	if staffSide {
		column = "unread_admin"
	}
	return GetDB(ctx, r.db).Model(&model.Conversation{}).Where("id = ?", id).UpdateColumn(column, false).Error
}

func (r *conversationRepository) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Conversation{}).
		Where("user_id = ? AND unread_user = ?", userID, true).Count(&count).Error
	return count, err
}

func (r *conversationRepository) CountUnreadForStaff(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Conversation{}).
		Where("unread_admin = ?", true).Count(&count).Error
	return count, err
}

func (r *conversationRepository) CreateMessage(ctx context.Context, message *model.Message) error {
	return GetDB(ctx, r.db).Omit("Sender").Create(message).Error
}

func (r *conversationRepository) FindMessage(ctx context.Context, conversationID, messageID uuid.UUID) (*model.Message, error) {
	var message model.Message
	if err := GetDB(ctx, r.db).First(&message, "id = ? AND conversation_id = ?", messageID, conversationID).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *conversationRepository) UpdateMessage(ctx context.Context, message *model.Message) error {
	return GetDB(ctx, r.db).Omit("Sender").Save(message).Error
}

func (r *conversationRepository) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", messageID).Delete(&model.Message{}).Error
}
