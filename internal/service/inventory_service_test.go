package service

import (
	"context"
	"testing"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryService_AdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewInventoryService(f.products, f.audit, f.tx)
	mod := f.user(t, "mod@naturalia.ro", model.RoleModerator)
	client := f.user(t, "client@example.com", model.RoleUser)
	p := f.product(t, "Miere de salcâm", "45.00", 3)

	_, err := svc.AdjustStock(ctx, client, p.ID, AdjustStockRequest{Delta: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AdjustStock(ctx, mod, p.ID, AdjustStockRequest{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AdjustStock(ctx, mod, p.ID, AdjustStockRequest{Delta: -4})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 3, f.stock(t, p.ID))

	updated, err := svc.AdjustStock(ctx, mod, p.ID, AdjustStockRequest{Delta: 10, Note: " livrare furnizor "})
	require.NoError(t, err)
	assert.Equal(t, 13, updated.Stock)
	assert.Equal(t, 13, f.stock(t, p.ID))

	_, err = svc.AdjustStock(ctx, mod, p.ID, AdjustStockRequest{Delta: -2, Note: "borcane sparte"})
	require.NoError(t, err)

	movements, total, err := svc.Movements(ctx, mod, p.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	byNote := map[string]model.StockMovement{}
	for _, m := range movements {
		byNote[m.Note] = m
	}
	assert.Equal(t, 10, byNote["livrare furnizor"].QuantityChanged)
	assert.Equal(t, -2, byNote["borcane sparte"].QuantityChanged)
	assert.Equal(t, 11, byNote["borcane sparte"].StockAfter)

	logs, _, err := f.audit.List(ctx, repository.AuditFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.ActionAdjustStock, logs[0].Action)

	_, err = svc.AdjustStock(ctx, mod, uuid.New(), AdjustStockRequest{Delta: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = svc.Movements(ctx, mod, uuid.New(), 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}
