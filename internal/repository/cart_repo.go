package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error)
	Create(ctx context.Context, item *model.CartItem) error
	Update(ctx context.Context, item *model.CartItem) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ClearByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DetachProduct(ctx context.Context, productID uuid.UUID) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListByUserForUpdate locks the user's cart rows so a second checkout of the
// same cart waits and then finds them gone.
func (r *cartRepository) ListByUserForUpdate(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindByID only returns items owned by userID.
func (r *cartRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	if err := GetDB(ctx, r.db).First(&item, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	if err := GetDB(ctx, r.db).First(&item, "user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) Create(ctx context.Context, item *model.CartItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *cartRepository) Update(ctx context.Context, item *model.CartItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *cartRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ? AND user_id = ?", id, userID).Delete(&model.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cartRepository) ClearByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}

// DetachProduct keeps the snapshot rows of a removed product but drops the reference.
func (r *cartRepository) DetachProduct(ctx context.Context, productID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.CartItem{}).
		Where("product_id = ?", productID).
		Update("product_id", nil).Error
}
