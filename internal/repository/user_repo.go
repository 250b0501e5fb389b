package repository

import (
	"context"
	"strings"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	ListEmailsByRoles(ctx context.Context, roles []string) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "LOWER(email) = ?", strings.ToLower(email)).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db).Model(&model.User{})
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		db = db.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

// ListEmailsByRoles returns the addresses of non-blocked users holding any of roles
func (r *userRepository) ListEmailsByRoles(ctx context.Context, roles []string) ([]string, error) {
	var emails []string
	db := GetDB(ctx, r.db).Model(&model.User{}).Where("is_blocked = ?", false)
	if len(roles) > 0 {
		db = db.Where("role IN ?", roles)
	}
	if err := db.Order("email").Pluck("email", &emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}
