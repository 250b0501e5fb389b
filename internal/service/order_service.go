package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"storefront/internal/logging"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

const notifyTimeout = 10 * time.Second

// DTOs
type CheckoutRequest struct {
	FullName      string `json:"fullName"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"paymentMethod"`
	PayPalOrderID string `json:"paypalOrderId"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderQuery struct {
	Status string
	Page   int
	Limit  int
}

type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*model.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	GetMine(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error)

	List(ctx context.Context, q OrderQuery) ([]model.Order, int64, error)
	Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, actor Identity, orderID uuid.UUID, status string) (*model.Order, error)
	Export(ctx context.Context, status string, w io.Writer) error
}

type orderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	products  repository.ProductRepository
	audit     repository.AuditRepository
	txManager repository.TransactionManager
	notifier  notify.Notifier
	metrics   *metrics.Metrics
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	audit repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notify.Notifier,
	m *metrics.Metrics,
) OrderService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &orderService{
		orders:    orders,
		carts:     carts,
		products:  products,
		audit:     audit,
		txManager: txManager,
		notifier:  notifier,
		metrics:   m,
	}
}

func (req CheckoutRequest) normalize() (CheckoutRequest, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.Notes = strings.TrimSpace(req.Notes)
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.PayPalOrderID = strings.TrimSpace(req.PayPalOrderID)

	if req.FullName == "" || req.Phone == "" || req.Address == "" || req.City == "" {
		return req, invalid("Completați numele, telefonul, adresa și orașul pentru livrare")
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentCash
	}
	if !model.ValidPaymentMethod(req.PaymentMethod) {
		return req, invalid("Metoda de plată nu este validă")
	}
	if req.PaymentMethod == model.PaymentPayPal && req.PayPalOrderID == "" {
		return req, invalid("Plata PayPal nu a fost confirmată")
	}
	return req, nil
}

// PlaceOrder turns the user's cart into a pending order. Stock is locked
// and re-checked inside the transaction, the decrement is conditional, and
// nothing is written when any line fails.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*model.Order, error) {
	req, err := req.normalize()
	if err != nil {
		s.metrics.CheckoutFailed("validation")
		return nil, err
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		items, err := s.carts.ListByUserForUpdate(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		products, err := s.lockProducts(txCtx, items)
		if err != nil {
			return err
		}

		lines := make([]model.OrderLine, 0, len(items))
		for _, item := range items {
			if item.ProductID != nil {
				product, ok := products[*item.ProductID]
				if !ok {
					return &InsufficientStockError{ProductID: *item.ProductID, ProductName: item.ProductName, Requested: item.Quantity}
				}
				if item.Quantity > product.Stock {
					return &InsufficientStockError{
						ProductID:   product.ID,
						ProductName: product.Name,
						Requested:   item.Quantity,
						Available:   product.Stock,
					}
				}
			}
			lines = append(lines, model.OrderLine{
				ProductID: item.ProductID,
				Name:      item.ProductName,
				Image:     item.ProductImage,
				Price:     item.Price,
				Unit:      item.Unit,
				Quantity:  item.Quantity,
			})
		}

		totals := computeTotals(lines)
		order = &model.Order{
			ID:              uuid.New(),
			UserID:          userID,
			Items:           lines,
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.ShippingCost,
			Total:           totals.Total,
			PaymentMethod:   req.PaymentMethod,
			PayPalOrderID:   req.PayPalOrderID,
			ShippingAddress: req.Address + ", " + req.City,
			FullName:        req.FullName,
			Phone:           req.Phone,
			Address:         req.Address,
			City:            req.City,
			Notes:           req.Notes,
			Status:          model.OrderStatusPending,
		}
		if err := s.orders.Create(txCtx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for _, item := range items {
			if item.ProductID == nil {
				continue
			}
			product := products[*item.ProductID]
			if err := s.products.DecrementStock(txCtx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrStockConflict) {
					return &InsufficientStockError{
						ProductID:   product.ID,
						ProductName: product.Name,
						Requested:   item.Quantity,
						Available:   product.Stock,
					}
				}
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			product.Stock -= item.Quantity
			if err := s.products.RecordMovement(txCtx, &model.StockMovement{
				ProductID:       product.ID,
				OrderID:         &order.ID,
				Reason:          model.StockReasonOrder,
				QuantityChanged: -item.Quantity,
				StockAfter:      product.Stock,
			}); err != nil {
				return fmt.Errorf("failed to record stock movement: %w", err)
			}
		}

		cleared, err := s.carts.ClearByUser(txCtx, userID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		// Another checkout converted this cart first.
		if cleared != int64(len(items)) {
			return ErrEmptyCart
		}
		return nil
	})
	if err != nil {
		s.metrics.CheckoutFailed(checkoutFailureReason(err))
		return nil, err
	}

	s.metrics.OrderPlaced(order.PaymentMethod)
	logging.FromContext(ctx).InfoContext(ctx, "order placed",
		"order_id", order.ID, "user_id", userID, "total", order.Total.StringFixed(2), "payment_method", order.PaymentMethod)
	go s.notifyOrderPlaced(context.WithoutCancel(ctx), order)
	return order, nil
}

// lockProducts loads every referenced product FOR UPDATE in id order so
// concurrent checkouts acquire row locks in the same sequence.
func (s *orderService) lockProducts(ctx context.Context, items []model.CartItem) (map[uuid.UUID]*model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil {
			ids = append(ids, *item.ProductID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	products := make(map[uuid.UUID]*model.Product, len(ids))
	for _, id := range ids {
		if _, seen := products[id]; seen {
			continue
		}
		product, err := s.products.FindByIDForUpdate(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to lock product: %w", err)
		}
		products[id] = product
	}
	return products, nil
}

func (s *orderService) notifyOrderPlaced(ctx context.Context, order *model.Order) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	count := 0
	for _, l := range order.Items {
		count += l.Quantity
	}
	event := notify.OrderEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		FullName:      order.FullName,
		City:          order.City,
		PaymentMethod: order.PaymentMethod,
		ItemCount:     count,
		Total:         order.Total,
		CreatedAt:     order.CreatedAt,
	}
	if err := s.notifier.OrderPlaced(ctx, event); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "order notification failed", "order_id", order.ID, "error", err)
	}
}

func checkoutFailureReason(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return "stock"
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, _, err := s.orders.List(ctx, repository.OrderFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	for i := range orders {
		orders[i].User = nil
		fillTotals(&orders[i])
	}
	return orders, nil
}

// GetMine hides orders of other users behind NotFound.
func (s *orderService) GetMine(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, notFound("Comanda nu a fost găsită")
	}
	order.User = nil
	return order, nil
}

func (s *orderService) List(ctx context.Context, q OrderQuery) ([]model.Order, int64, error) {
	if q.Status != "" && !model.ValidOrderStatus(q.Status) {
		return nil, 0, invalid("Statusul comenzii nu este valid")
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{Status: q.Status, Page: q.Page, Limit: q.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	for i := range orders {
		fillTotals(&orders[i])
	}
	return orders, total, nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Comanda nu a fost găsită")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	fillTotals(order)
	return order, nil
}

// UpdateStatus accepts any stored status from any other one.
func (s *orderService) UpdateStatus(ctx context.Context, actor Identity, orderID uuid.UUID, status string) (*model.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !model.ValidOrderStatus(status) {
		return nil, invalid("Statusul comenzii nu este valid")
	}

	var previous string
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return notFound("Comanda nu a fost găsită")
			}
			return fmt.Errorf("database error: %w", err)
		}
		previous = order.Status
		if err := s.orders.UpdateStatus(txCtx, orderID, status); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		return s.audit.Record(txCtx, actor.UserID, model.ActionUpdateOrderStatus, orderID.String(), order.FullName,
			map[string]string{"from": previous, "to": status})
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).InfoContext(ctx, "order status changed", "order_id", orderID, "from", previous, "to", status, "actor", actor.UserID)
	return s.Get(ctx, orderID)
}

// fillTotals recomputes missing monetary fields from the lines for display.
// Stored values are never overwritten.
func fillTotals(order *model.Order) {
	if !order.Subtotal.IsZero() || !order.Total.IsZero() {
		return
	}
	totals := computeTotals(order.Items)
	order.Subtotal = totals.Subtotal
	if order.ShippingCost.IsZero() {
		order.ShippingCost = totals.ShippingCost
	}
	order.Total = order.Subtotal.Add(order.ShippingCost)
}

var exportHeaders = []string{
	"ID", "Data", "Client", "Telefon", "Adresă", "Oraș", "Produse",
	"Subtotal", "Transport", "Total", "Plată", "Status",
}

// Export writes the orders with the given status (all when empty) as an
// xlsx workbook.
func (s *orderService) Export(ctx context.Context, status string, w io.Writer) error {
	if status != "" && !model.ValidOrderStatus(status) {
		return invalid("Statusul comenzii nu este valid")
	}
	orders, _, err := s.orders.List(ctx, repository.OrderFilter{Status: status})
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Comenzi")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for i := range orders {
		order := &orders[i]
		fillTotals(order)

		products := make([]string, 0, len(order.Items))
		for _, l := range order.Items {
			products = append(products, fmt.Sprintf("%s x%d", l.Name, l.Quantity))
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(order.ID.String())
		row.AddCell().SetValue(order.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetValue(order.FullName)
		row.AddCell().SetValue(order.Phone)
		row.AddCell().SetValue(order.Address)
		row.AddCell().SetValue(order.City)
		row.AddCell().SetValue(strings.Join(products, "; "))
		setMoney(row.AddCell(), order.Subtotal)
		setMoney(row.AddCell(), order.ShippingCost)
		setMoney(row.AddCell(), order.Total)
		row.AddCell().SetValue(order.PaymentMethod)
		row.AddCell().SetValue(order.Status)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setMoney(cell *xlsx.Cell, v decimal.Decimal) {
	cell.SetFloat(v.Round(2).InexactFloat64())
}
