package repository

import (
	"context"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TestimonialRepository interface {
	Create(ctx context.Context, t *model.Testimonial) error
	Update(ctx context.Context, t *model.Testimonial) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Testimonial, error)
	List(ctx context.Context, visibleOnly bool) ([]model.Testimonial, error)
}

type testimonialRepository struct {
	db *gorm.DB
}

func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	return GetDB(ctx, r.db).Create(t).Error
}

func (r *testimonialRepository) Update(ctx context.Context, t *model.Testimonial) error {
	return GetDB(ctx, r.db).Save(t).Error
}

func (r *testimonialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Testimonial{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *testimonialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := GetDB(ctx, r.db).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *testimonialRepository) List(ctx context.Context, visibleOnly bool) ([]model.Testimonial, error) {
	var list []model.Testimonial
	db := GetDB(ctx, r.db)
	if visibleOnly {
		db = db.Where("is_visible = ?", true)
	}
	if err := db.Order("sort_order asc").Order("created_at desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

type EmailTemplateRepository interface {
	Create(ctx context.Context, t *model.EmailTemplate) error
	Update(ctx context.Context, t *model.EmailTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error)
	List(ctx context.Context) ([]model.EmailTemplate, error)
}

type emailTemplateRepository struct {
	db *gorm.DB
}

func NewEmailTemplateRepository(db *gorm.DB) EmailTemplateRepository {
	return &emailTemplateRepository{db: db}
}

func (r *emailTemplateRepository) Create(ctx context.Context, t *model.EmailTemplate) error {
	return GetDB(ctx, r.db).Create(t).Error
}

func (r *emailTemplateRepository) Update(ctx context.Context, t *model.EmailTemplate) error {
	return GetDB(ctx, r.db).Save(t).Error
}

func (r *emailTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.EmailTemplate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *emailTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	if err := GetDB(ctx, r.db).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *emailTemplateRepository) List(ctx context.Context) ([]model.EmailTemplate, error) {
	var list []model.EmailTemplate
	if err := GetDB(ctx, r.db).Order("name asc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// EmailStats aggregates all broadcast batches
type EmailStats struct {
	TotalBatches int64 `json:"totalBatches"`
	TotalSent    int64 `json:"totalSent"`
	TotalFailed  int64 `json:"totalFailed"`
}

type EmailLogRepository interface {
	Create(ctx context.Context, log *model.EmailLog) error
	List(ctx context.Context, page, limit int) ([]model.EmailLog, int64, error)
	Stats(ctx context.Context) (EmailStats, error)
}

type emailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Create(ctx context.Context, log *model.EmailLog) error {
	return GetDB(ctx, r.db).Create(log).Error
}

func (r *emailLogRepository) List(ctx context.Context, page, limit int) ([]model.EmailLog, int64, error) {
	var logs []model.EmailLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.EmailLog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *emailLogRepository) Stats(ctx context.Context) (EmailStats, error) {
	var stats EmailStats
	err := GetDB(ctx, r.db).Model(&model.EmailLog{}).
		Select("COUNT(*) AS total_batches, COALESCE(SUM(sent_count), 0) AS total_sent, COALESCE(SUM(failed_count), 0) AS total_failed").
		Scan(&stats).Error
	return stats, err
}

type NewsletterRepository interface {
	Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, page, limit int) ([]model.NewsletterSubscriber, int64, error)
	ListActiveEmails(ctx context.Context) ([]string, error)
	CountActive(ctx context.Context) (int64, error)
}

type newsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

// Subscribe inserts email or reactivates an existing subscription.
func (r *newsletterRepository) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	sub := &model.NewsletterSubscriber{Email: email, IsActive: true}
	err := GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"is_active":       true,
			"unsubscribed_at": nil,
			"updated_at":      time.Now(),
		}),
	}).Create(sub).Error
	if err != nil {
		return nil, err
	}
	var stored model.NewsletterSubscriber
	if err := GetDB(ctx, r.db).First(&stored, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *newsletterRepository) Unsubscribe(ctx context.Context, email string) error {
	now := time.Now()
	res := GetDB(ctx, r.db).Model(&model.NewsletterSubscriber{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Updates(map[string]interface{}{"is_active": false, "unsubscribed_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *newsletterRepository) List(ctx context.Context, page, limit int) ([]model.NewsletterSubscriber, int64, error) {
	var subs []model.NewsletterSubscriber
	var total int64

	db := GetDB(ctx, r.db).Model(&model.NewsletterSubscriber{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *newsletterRepository) ListActiveEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := GetDB(ctx, r.db).Model(&model.NewsletterSubscriber{}).
		Where("is_active = ?", true).Order("email").Pluck("email", &emails).Error
	return emails, err
}

func (r *newsletterRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.NewsletterSubscriber{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
