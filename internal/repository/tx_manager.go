package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// ErrStockConflict is returned when a conditional stock decrement matched no row.
var ErrStockConflict = errors.New("stock changed concurrently")

// TransactionManager manages database transactions via context injection.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

// RunInTx runs fn inside a transaction. A ctx that already carries a
// transaction joins it instead of opening a new one.
func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

// IsNotFound reports whether err is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
