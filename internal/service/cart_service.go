package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartLineResponse struct {
	model.CartItem
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Count int                `json:"count"`
	Totals
}

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error)
	Add(ctx context.Context, userID uuid.UUID, req AddToCartRequest) (*CartResponse, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartResponse, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	carts     repository.CartRepository
	products  repository.ProductRepository
	txManager repository.TransactionManager
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, txManager repository.TransactionManager) CartService {
	return &cartService{carts: carts, products: products, txManager: txManager}
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	res := &CartResponse{Items: make([]CartLineResponse, 0, len(items))}
	lines := make([]model.OrderLine, 0, len(items))
	for _, item := range items {
		res.Items = append(res.Items, CartLineResponse{CartItem: item, LineTotal: item.LineTotal()})
		res.Count += item.Quantity
		lines = append(lines, model.OrderLine{Price: item.Price, Quantity: item.Quantity})
	}
	res.Totals = computeTotals(lines)
	if len(items) == 0 {
		res.ShippingCost = decimal.Zero
		res.Total = decimal.Zero
	}
	return res, nil
}

// Add snapshots the product into the cart. A product already in the cart
// has its quantity increased in place.
func (s *cartService) Add(ctx context.Context, userID uuid.UUID, req AddToCartRequest) (*CartResponse, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, invalid("Cantitatea trebuie să fie pozitivă")
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.products.FindByID(txCtx, req.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Produsul nu a fost găsit")
			}
			return fmt.Errorf("database error: %w", err)
		}

		item, err := s.carts.FindByUserAndProduct(txCtx, userID, product.ID)
		if err != nil && !repository.IsNotFound(err) {
			return fmt.Errorf("database error: %w", err)
		}
		if item == nil {
			item = &model.CartItem{UserID: userID, ProductID: &product.ID}
		}

		quantity := item.Quantity + req.Quantity
		if quantity > product.Stock {
			return invalid(fmt.Sprintf("Stoc insuficient pentru %s: disponibil %d", product.Name, product.Stock))
		}

		item.ProductName = product.Name
		item.ProductImage = product.Image
		item.Price = product.Price
		item.Unit = product.Unit
		item.Quantity = quantity

		if item.ID == uuid.Nil {
			return s.carts.Create(txCtx, item)
		}
		return s.carts.Update(txCtx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartResponse, error) {
	if quantity <= 0 {
		return s.Remove(ctx, userID, itemID)
	}

	item, err := s.carts.FindByID(ctx, userID, itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Produsul nu există în coș")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if item.ProductID != nil {
		product, err := s.products.FindByID(ctx, *item.ProductID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if product != nil && quantity > product.Stock {
			return nil, invalid(fmt.Sprintf("Stoc insuficient pentru %s: disponibil %d", product.Name, product.Stock))
		}
	}

	item.Quantity = quantity
	if err := s.carts.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *cartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error) {
	if err := s.carts.Delete(ctx, userID, itemID); err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Produsul nu există în coș")
		}
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.carts.ClearByUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
