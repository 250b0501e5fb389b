package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product units
const (
	UnitKilogram = "kg"
	UnitGram     = "g"
	UnitPiece    = "buc"
	UnitLiter    = "l"
)

// ValidUnit reports whether u is a sellable unit.
func ValidUnit(u string) bool {
	switch u {
	case UnitKilogram, UnitGram, UnitPiece, UnitLiter:
		return true
	}
	return false
}

// Category groups products on the storefront
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Image     string    `gorm:"type:varchar(500)" json:"image"`
	SortOrder int       `gorm:"not null" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Product represents a sellable item of the catalog
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	Unit        string          `gorm:"type:varchar(10);not null" json:"unit"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"categoryId"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Image       string          `gorm:"type:varchar(500)" json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Stock movement reasons
const (
	StockReasonOrder      = "ORDER"
	StockReasonAdjustment = "ADJUSTMENT"
)

// StockMovement records every stock change of a product
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"productId"`
	OrderID         *uuid.UUID `gorm:"type:uuid;index" json:"orderId"` // nil for manual adjustments
	Reason          string     `gorm:"type:varchar(20);not null" json:"reason"`
	QuantityChanged int        `gorm:"not null" json:"quantityChanged"`
	StockAfter      int        `gorm:"not null" json:"stockAfter"`
	Note            string     `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
