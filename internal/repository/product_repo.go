package repository

import (
	"context"
	"strings"

	"storefront/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductFilter narrows the catalog listing
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
	InStock    bool
	Page       int
	Limit      int
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySlug(ctx context.Context, slug string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	RecordMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
	ListLowStock(ctx context.Context, threshold, limit int) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Preload("Category").Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if filter.CategoryID != nil {
		db = db.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.InStock {
		db = db.Where("stock > 0")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Category").Order("name asc").Offset(offset).Limit(filter.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock subtracts quantity only while stock >= quantity and
// returns ErrStockConflict when no row matched.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	res := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockConflict
	}
	return nil
}

func (r *productRepository) RecordMovement(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *productRepository) ListMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("product_id = ?", productID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ListLowStock returns products with stock at or below threshold,
// emptiest first.
func (r *productRepository) ListLowStock(ctx context.Context, threshold, limit int) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).Where("stock <= ?", threshold).
		Order("stock asc").Order("name asc").Limit(limit).Find(&products).Error
	return products, err
}
