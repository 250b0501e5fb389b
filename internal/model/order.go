package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CartItem is one line of a user's cart. Product fields are copied at add
// time so the cart still renders after the product is edited or removed.
type CartItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product" json:"userId"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_cart_user_product" json:"productId"`
	ProductName  string          `gorm:"type:varchar(255);not null" json:"productName"`
	ProductImage string          `gorm:"type:varchar(500)" json:"productImage"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Unit         string          `gorm:"type:varchar(10);not null" json:"unit"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// LineTotal is price multiplied by quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Payment methods
const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentPayPal = "paypal"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentPayPal
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses lists the stored order states in display order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is a stored order state.
func ValidOrderStatus(s string) bool {
	for _, status := range OrderStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// OrderLine is the frozen copy of a cart line stored inside an Order
type OrderLine struct {
	ProductID *uuid.UUID      `json:"productId,omitempty"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Unit      string          `json:"unit"`
	Quantity  int             `json:"quantity"`
}

// Order is immutable after creation except for Status and timestamps
type Order struct {
	ID              uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                      `gorm:"type:uuid;not null;index" json:"userId"`
	User            *User                          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items           datatypes.JSONSlice[OrderLine] `json:"items"`
	Subtotal        decimal.Decimal                `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	ShippingCost    decimal.Decimal                `gorm:"type:numeric(12,2);not null" json:"shippingCost"`
	Total           decimal.Decimal                `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMethod   string                         `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	PayPalOrderID   string                         `gorm:"column:paypal_order_id;type:varchar(100)" json:"paypalOrderId,omitempty"`
	ShippingAddress string                         `gorm:"type:varchar(500);not null" json:"shippingAddress"`
	FullName        string                         `gorm:"type:varchar(255);not null" json:"fullName"`
	Phone           string                         `gorm:"type:varchar(50);not null" json:"phone"`
	Address         string                         `gorm:"type:varchar(500);not null" json:"address"`
	City            string                         `gorm:"type:varchar(255);not null" json:"city"`
	Notes           string                         `gorm:"type:text" json:"notes,omitempty"`
	Status          string                         `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt       time.Time                      `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time                      `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}
