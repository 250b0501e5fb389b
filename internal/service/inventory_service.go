package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// DTOs
type AdjustStockRequest struct {
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

type InventoryService interface {
	AdjustStock(ctx context.Context, actor Identity, productID uuid.UUID, req AdjustStockRequest) (*model.Product, error)
	Movements(ctx context.Context, actor Identity, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
}

func NewInventoryService(products repository.ProductRepository, audit repository.AuditRepository, txManager repository.TransactionManager) InventoryService {
	return &inventoryService{products: products, audit: audit, txManager: txManager}
}

// AdjustStock applies a relative stock correction (deliveries, spoilage,
// recounts). Stock never goes below zero.
func (s *inventoryService) AdjustStock(ctx context.Context, actor Identity, productID uuid.UUID, req AdjustStockRequest) (*model.Product, error) {
	if !actor.IsStaff() {
		return nil, forbidden("Doar echipa poate modifica stocul")
	}
	if req.Delta == 0 {
		return nil, invalid("Modificarea de stoc nu poate fi zero")
	}
	note := strings.TrimSpace(req.Note)
	if len(note) > 255 {
		return nil, invalid("Nota poate avea cel mult 255 de caractere")
	}

	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.products.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Produsul nu a fost găsit")
			}
			return fmt.Errorf("database error: %w", err)
		}
		if product.Stock+req.Delta < 0 {
			return invalid(fmt.Sprintf("Stocul nu poate deveni negativ (stoc curent: %d)", product.Stock))
		}

		previous := product.Stock
		product.Stock += req.Delta
		if err := s.products.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		if err := s.products.RecordMovement(txCtx, &model.StockMovement{
			ProductID:       product.ID,
			Reason:          model.StockReasonAdjustment,
			QuantityChanged: req.Delta,
			StockAfter:      product.Stock,
			Note:            note,
		}); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionAdjustStock, product.ID.String(), product.Name,
			map[string]interface{}{"from": previous, "to": product.Stock, "note": note})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *inventoryService) Movements(ctx context.Context, actor Identity, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, forbidden("Acces interzis")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if repository.IsNotFound(err) {
			return nil, 0, notFound("Produsul nu a fost găsit")
		}
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.products.ListMovements(ctx, productID, page, limit)
}
