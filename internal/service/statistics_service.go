package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	lowStockThreshold = 5
	reportTopProducts = 5
	reportMaxRange    = 366 * 24 * time.Hour
)

type StatisticsService interface {
	SalesReport(ctx context.Context, actor Identity, from, to time.Time) (*model.SalesReport, error)
}

type statisticsService struct {
	stats    repository.StatisticsRepository
	products repository.ProductRepository
}

func NewStatisticsService(stats repository.StatisticsRepository, products repository.ProductRepository) StatisticsService {
	return &statisticsService{stats: stats, products: products}
}

// SalesReport summarises orders created in [from, to) for the staff dashboard.
func (s *statisticsService) SalesReport(ctx context.Context, actor Identity, from, to time.Time) (*model.SalesReport, error) {
	if !actor.IsStaff() {
		return nil, forbidden("Acces interzis")
	}
	if !to.After(from) {
		return nil, invalid("Intervalul de timp nu este valid")
	}
	if to.Sub(from) > reportMaxRange {
		return nil, invalid("Intervalul poate avea cel mult un an")
	}

	report := &model.SalesReport{
		From:           from,
		To:             to,
		OrdersByStatus: make(map[string]int64, len(model.OrderStatuses)),
		AverageOrder:   decimal.Zero,
	}
	for _, status := range model.OrderStatuses {
		report.OrdersByStatus[status] = 0
	}

	counts, err := s.stats.CountOrdersByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var billable int64
	for _, c := range counts {
		report.OrdersByStatus[c.Status] = c.Count
		report.OrderCount += c.Count
		if c.Status != model.OrderStatusCancelled {
			billable += c.Count
		}
	}

	if report.Revenue, err = s.stats.Revenue(ctx, from, to); err != nil {
		return nil, err
	}
	if billable > 0 {
		report.AverageOrder = report.Revenue.Div(decimal.NewFromInt(billable)).Round(2)
	}

	if report.TopProducts, err = s.stats.TopProducts(ctx, from, to, reportTopProducts); err != nil {
		return nil, err
	}
	if report.LowStock, err = s.products.ListLowStock(ctx, lowStockThreshold, 20); err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}
	return report, nil
}
