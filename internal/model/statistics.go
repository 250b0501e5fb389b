package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesReport aggregates orders placed within [From, To)
type SalesReport struct {
	From           time.Time        `json:"from"`
	To             time.Time        `json:"to"`
	OrderCount     int64            `json:"orderCount"`
	OrdersByStatus map[string]int64 `json:"ordersByStatus"`
	Revenue        decimal.Decimal  `json:"revenue"` // cancelled orders excluded
	AverageOrder   decimal.Decimal  `json:"averageOrder"`
	TopProducts    []ProductRanking `json:"topProducts"`
	LowStock       []Product        `json:"lowStock"`
}

// StatusCount is the number of orders in one status
type StatusCount struct {
	Status string
	Count  int64
}

// ProductRanking is a product ranked by units sold
type ProductRanking struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	UnitsSold   int64     `json:"unitsSold"`
}
