package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs
type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
	Order int    `json:"order"`
}

type ProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
	Unit        string          `json:"unit" binding:"required,oneof=kg g buc l"`
	CategoryID  *uuid.UUID      `json:"categoryId"`
	Image       string          `json:"image"`
}

type ProductQuery struct {
	CategorySlug string
	Search       string
	InStock      bool
	Page         int
	Limit        int
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, slug string) (*model.Category, error)
	CreateCategory(ctx context.Context, actor Identity, req CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, actor Identity, id uuid.UUID, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor Identity, id uuid.UUID) error

	ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, slugOrID string) (*model.Product, error)
	CreateProduct(ctx context.Context, actor Identity, req ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor Identity, id uuid.UUID, req ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor Identity, id uuid.UUID) error
}

type catalogService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	carts      repository.CartRepository
	audit      repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewCatalogService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		categories: categories,
		products:   products,
		carts:      carts,
		audit:      audit,
		txManager:  txManager,
	}
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

func (s *catalogService) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Categoria nu a fost găsită")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, actor Identity, req CategoryRequest) (*model.Category, error) {
	category := &model.Category{}
	if err := s.applyCategory(ctx, category, req); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categories.Create(txCtx, category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionCreateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, actor Identity, id uuid.UUID, req CategoryRequest) (*model.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Categoria nu a fost găsită")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if err := s.applyCategory(ctx, category, req); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.categories.Update(txCtx, category); err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionUpdateCategory, category.ID.String(), category.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *catalogService) applyCategory(ctx context.Context, category *model.Category, req CategoryRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return invalid("Numele categoriei este obligatoriu")
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return invalid("Slug-ul categoriei nu este valid")
	}
	if existing, err := s.categories.FindBySlug(ctx, slug); err == nil && existing.ID != category.ID {
		return invalid("Există deja o categorie cu slug-ul " + slug)
	} else if err != nil && !repository.IsNotFound(err) {
		return fmt.Errorf("database error: %w", err)
	}

	category.Name = name
	category.Slug = slug
	category.Image = strings.TrimSpace(req.Image)
	category.SortOrder = req.Order
	return nil
}

// DeleteCategory refuses to remove a category that still has products.
func (s *catalogService) DeleteCategory(ctx context.Context, actor Identity, id uuid.UUID) error {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Categoria nu a fost găsită")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		count, err := s.products.CountByCategory(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		if count > 0 {
			return invalid(fmt.Sprintf("Categoria are %d produse asociate și nu poate fi ștearsă", count))
		}
		if err := s.categories.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionDeleteCategory, category.ID.String(), category.Name, map[string]bool{"deleted": true})
	})
}

func (s *catalogService) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	filter := repository.ProductFilter{
		Search:  strings.TrimSpace(q.Search),
		InStock: q.InStock,
		Page:    q.Page,
		Limit:   q.Limit,
	}
	if q.CategorySlug != "" {
		category, err := s.categories.FindBySlug(ctx, q.CategorySlug)
		if err != nil {
			if repository.IsNotFound(err) {
				return []model.Product{}, 0, nil
			}
			return nil, 0, fmt.Errorf("database error: %w", err)
		}
		filter.CategoryID = &category.ID
	}
	return s.products.List(ctx, filter)
}

// GetProduct accepts either a slug or a product id.
func (s *catalogService) GetProduct(ctx context.Context, slugOrID string) (*model.Product, error) {
	var (
		product *model.Product
		err     error
	)
	if id, parseErr := uuid.Parse(slugOrID); parseErr == nil {
		product, err = s.products.FindByID(ctx, id)
	} else {
		product, err = s.products.FindBySlug(ctx, slugOrID)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Produsul nu a fost găsit")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, actor Identity, req ProductRequest) (*model.Product, error) {
	product := &model.Product{}
	if err := s.applyProduct(ctx, product, req); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.products.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if product.Stock > 0 {
			if err := s.products.RecordMovement(txCtx, &model.StockMovement{
				ProductID:       product.ID,
				Reason:          model.StockReasonAdjustment,
				QuantityChanged: product.Stock,
				StockAfter:      product.Stock,
			}); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, actor Identity, id uuid.UUID, req ProductRequest) (*model.Product, error) {
	var product *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		product, err = s.products.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Produsul nu a fost găsit")
			}
			return fmt.Errorf("database error: %w", err)
		}
		previousStock := product.Stock
		if err := s.applyProduct(txCtx, product, req); err != nil {
			return err
		}
		if err := s.products.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if delta := product.Stock - previousStock; delta != 0 {
			if err := s.products.RecordMovement(txCtx, &model.StockMovement{
				ProductID:       product.ID,
				Reason:          model.StockReasonAdjustment,
				QuantityChanged: delta,
				StockAfter:      product.Stock,
			}); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) applyProduct(ctx context.Context, product *model.Product, req ProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return invalid("Numele produsului este obligatoriu")
	}
	if req.Price.IsNegative() {
		return invalid("Prețul nu poate fi negativ")
	}
	if req.Stock < 0 {
		return invalid("Stocul nu poate fi negativ")
	}
	if !model.ValidUnit(req.Unit) {
		return invalid("Unitatea de măsură trebuie să fie kg, g, buc sau l")
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return invalid("Slug-ul produsului nu este valid")
	}
	if existing, err := s.products.FindBySlug(ctx, slug); err == nil && existing.ID != product.ID {
		return invalid("Există deja un produs cu slug-ul " + slug)
	} else if err != nil && !repository.IsNotFound(err) {
		return fmt.Errorf("database error: %w", err)
	}
	if req.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *req.CategoryID); err != nil {
			if repository.IsNotFound(err) {
				return invalid("Categoria selectată nu există")
			}
			return fmt.Errorf("database error: %w", err)
		}
	}

	product.Name = name
	product.Slug = slug
	product.Description = strings.TrimSpace(req.Description)
	product.Price = req.Price.Round(2)
	product.Stock = req.Stock
	product.Unit = req.Unit
	product.CategoryID = req.CategoryID
	product.Category = nil
	product.Image = strings.TrimSpace(req.Image)
	return nil
}

// DeleteProduct removes the product and detaches it from carts; existing
// cart lines keep their snapshot and orders keep their frozen lines.
func (s *catalogService) DeleteProduct(ctx context.Context, actor Identity, id uuid.UUID) error {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Produsul nu a fost găsit")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.carts.DetachProduct(txCtx, id); err != nil {
			return fmt.Errorf("failed to detach product from carts: %w", err)
		}
		if err := s.products.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionDeleteProduct, product.ID.String(), product.Name, map[string]bool{"deleted": true})
	})
}
