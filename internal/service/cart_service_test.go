package service

import (
	"context"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddIncrementsInPlace(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.products, f.tx)
	ctx := context.Background()
	buyer := f.user(t, "ana@example.com", model.RoleUser)
	honey := f.product(t, "Miere de tei", "45.50", 5)

	_, err := svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: honey.ID, Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: honey.ID})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 3, cart.Count)
	assert.Equal(t, "136.50", cart.Subtotal.StringFixed(2))
	assert.True(t, cart.ShippingCost.Equal(decimal.NewFromInt(100)))

	_, err = svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: honey.ID, Quantity: 3})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartKeepsSnapshotAfterProductEdit(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.products, f.tx)
	ctx := context.Background()
	buyer := f.user(t, "ana@example.com", model.RoleUser)
	honey := f.product(t, "Miere de tei", "45.50", 5)

	_, err := svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: honey.ID, Quantity: 1})
	require.NoError(t, err)

	honey.Name = "Miere de tei 2026"
	honey.Price = decimal.NewFromInt(60)
	require.NoError(t, f.products.Update(ctx, honey))

	cart, err := svc.Get(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Miere de tei", cart.Items[0].ProductName)
	assert.Equal(t, "45.50", cart.Items[0].Price.StringFixed(2))
}

func TestCartItemsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.products, f.tx)
	ctx := context.Background()
	owner := f.user(t, "ana@example.com", model.RoleUser)
	stranger := f.user(t, "ion@example.com", model.RoleUser)
	tea := f.product(t, "Ceai de tei", "12", 10)

	cart, err := svc.Add(ctx, owner.UserID, AddToCartRequest{ProductID: tea.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	_, err = svc.UpdateQuantity(ctx, stranger.UserID, itemID, 4)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Remove(ctx, stranger.UserID, itemID)
	assert.ErrorIs(t, err, ErrNotFound)

	cart, err = svc.UpdateQuantity(ctx, owner.UserID, itemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	_, err = svc.UpdateQuantity(ctx, owner.UserID, itemID, 11)
	assert.ErrorIs(t, err, ErrValidation)

	cart, err = svc.UpdateQuantity(ctx, owner.UserID, itemID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestCartClear(t *testing.T) {
	f := newFixture(t)
	svc := NewCartService(f.carts, f.products, f.tx)
	ctx := context.Background()
	buyer := f.user(t, "ana@example.com", model.RoleUser)

	_, err := svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: f.product(t, "Ceai", "12", 10).ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(ctx, buyer.UserID, AddToCartRequest{ProductID: f.product(t, "Polen", "25", 10).ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, buyer.UserID))
	cart, err := svc.Get(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
