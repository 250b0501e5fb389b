package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountOrdersByStatus(ctx context.Context, from, to time.Time) ([]model.StatusCount, error)
	Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]model.ProductRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountOrdersByStatus(ctx context.Context, from, to time.Time) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	return counts, nil
}

// Revenue sums order totals, leaving cancelled orders out.
func (r *statisticsRepository) Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Value decimal.Decimal
	}
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Select("COALESCE(SUM(total), 0) AS value").
		Where("created_at >= ? AND created_at < ? AND status <> ?", from, to, model.OrderStatusCancelled).
		Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return result.Value, nil
}

// TopProducts ranks products by units taken out of stock by orders.
func (r *statisticsRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]model.ProductRanking, error) {
	var rankings []model.ProductRanking
	if err := GetDB(ctx, r.db).Table("stock_movements").
		Select("products.id AS product_id, products.name AS product_name, -SUM(stock_movements.quantity_changed) AS units_sold").
		Joins("JOIN products ON products.id = stock_movements.product_id").
		Where("stock_movements.reason = ? AND stock_movements.created_at >= ? AND stock_movements.created_at < ?",
			model.StockReasonOrder, from, to).
		Group("products.id, products.name").
		Order("units_sold DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	return rankings, nil
}
