package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatisticsService_SalesReport(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()
	svc := NewStatisticsService(repository.NewStatisticsRepository(env.db), env.products)

	admin := env.user(t, "admin@naturalia.ro", model.RoleAdmin)
	client := env.user(t, "client@example.com", model.RoleUser)
	honey := env.product(t, "Miere de tei", "45.00", 10)
	pollen := env.product(t, "Polen crud", "600.00", 3)

	env.add(t, client, honey, 2)
	first, err := env.orders.PlaceOrder(ctx, client.UserID, validCheckout)
	require.NoError(t, err)

	env.add(t, client, pollen, 1)
	second, err := env.orders.PlaceOrder(ctx, client.UserID, validCheckout)
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(ctx, admin, second.ID, model.OrderStatusCancelled)
	require.NoError(t, err)

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	_, err = svc.SalesReport(ctx, client, from, to)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SalesReport(ctx, admin, to, from)
	assert.ErrorIs(t, err, ErrValidation)

	report, err := svc.SalesReport(ctx, admin, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.OrderCount)
	assert.EqualValues(t, 1, report.OrdersByStatus[model.OrderStatusPending])
	assert.EqualValues(t, 1, report.OrdersByStatus[model.OrderStatusCancelled])
	assert.EqualValues(t, 0, report.OrdersByStatus[model.OrderStatusShipped])
	assert.True(t, report.Revenue.Equal(first.Total), "revenue %s", report.Revenue)
	assert.True(t, report.AverageOrder.Equal(first.Total))

	require.Len(t, report.TopProducts, 2)
	units := map[string]int64{}
	for _, r := range report.TopProducts {
		units[r.ProductName] = r.UnitsSold
	}
	assert.EqualValues(t, 2, units["Miere de tei"])
	assert.EqualValues(t, 1, units["Polen crud"])

	require.Len(t, report.LowStock, 1)
	assert.Equal(t, pollen.ID, report.LowStock[0].ID)

	empty, err := svc.SalesReport(ctx, admin, to, to.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, empty.OrderCount)
	assert.True(t, empty.Revenue.IsZero())
	assert.Empty(t, empty.TopProducts)
}

func TestAuditService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewAuditService(f.audit)
	admin := f.user(t, "admin@naturalia.ro", model.RoleAdmin)
	mod := f.user(t, "mod@naturalia.ro", model.RoleModerator)

	require.NoError(t, f.audit.Record(ctx, mod.UserID, model.ActionCreateProduct, "p-1", "Miere", map[string]string{"price": "45.00"}))
	require.NoError(t, f.audit.Record(ctx, uuid.Nil, model.ActionSendBroadcast, "log-1", "Oferta", nil))

	_, _, err := svc.List(ctx, mod, AuditQuery{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrForbidden)

	logs, total, err := svc.List(ctx, admin, AuditQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	byAction := map[string]AuditLogResponse{}
	for _, l := range logs {
		byAction[l.Action] = l
	}
	assert.Equal(t, "mod@naturalia.ro", byAction[model.ActionCreateProduct].UserEmail)
	assert.JSONEq(t, `{"price":"45.00"}`, byAction[model.ActionCreateProduct].Details)
	assert.Equal(t, "system", byAction[model.ActionSendBroadcast].UserEmail)
	assert.Empty(t, byAction[model.ActionSendBroadcast].UserID)

	filtered, total, err := svc.List(ctx, admin, AuditQuery{Action: "create_product"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, filtered, 1)
	assert.Equal(t, "p-1", filtered[0].EntityID)

	_, total, err = svc.List(ctx, admin, AuditQuery{EntityID: "missing"})
	require.NoError(t, err)
	assert.Zero(t, total)
}
