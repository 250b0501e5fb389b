package repository_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/database/dbtest"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo repository.ProductRepository, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:  "Miere de salcâm",
		Slug:  "miere-" + uuid.NewString()[:8],
		Price: decimal.RequireFromString("45.50"),
		Stock: stock,
		Unit:  model.UnitKilogram,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestDecrementStockIsConditional(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, 3)

	require.NoError(t, repo.DecrementStock(ctx, p.ID, 2))
	err := repo.DecrementStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, repository.ErrStockConflict)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewProductRepository(db)
	tm := repository.NewTransactionManager(db)
	ctx := context.Background()
	p := seedProduct(t, repo, 5)

	boom := errors.New("boom")
	err := tm.RunInTx(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.DecrementStock(txCtx, p.ID, 5))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestRunInTxJoinsOuterTransaction(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewProductRepository(db)
	tm := repository.NewTransactionManager(db)
	ctx := context.Background()
	p := seedProduct(t, repo, 5)

	err := tm.RunInTx(ctx, func(outer context.Context) error {
		if err := tm.RunInTx(outer, func(inner context.Context) error {
			return repo.DecrementStock(inner, p.ID, 1)
		}); err != nil {
			return err
		}
		return errors.New("abort outer")
	})
	require.Error(t, err)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock, "inner work must roll back with the outer transaction")
}

func TestCartDetachProductKeepsSnapshot(t *testing.T) {
	db := dbtest.New(t)
	products := repository.NewProductRepository(db)
	carts := repository.NewCartRepository(db)
	ctx := context.Background()
	p := seedProduct(t, products, 4)
	userID := uuid.New()

	item := &model.CartItem{
		UserID:      userID,
		ProductID:   &p.ID,
		ProductName: p.Name,
		Price:       p.Price,
		Unit:        p.Unit,
		Quantity:    2,
	}
	require.NoError(t, carts.Create(ctx, item))
	require.NoError(t, carts.DetachProduct(ctx, p.ID))

	items, err := carts.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ProductID)
	assert.Equal(t, "Miere de salcâm", items[0].ProductName)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("45.50")))
}

func TestCartListForUpdateAndClearCount(t *testing.T) {
	db := dbtest.New(t)
	products := repository.NewProductRepository(db)
	carts := repository.NewCartRepository(db)
	tx := repository.NewTransactionManager(db)
	ctx := context.Background()
	p := seedProduct(t, products, 4)
	userID := uuid.New()
	require.NoError(t, carts.Create(ctx, &model.CartItem{UserID: userID, ProductID: &p.ID, ProductName: p.Name, Price: p.Price, Unit: p.Unit, Quantity: 1}))

	err := tx.RunInTx(ctx, func(txCtx context.Context) error {
		items, err := carts.ListByUserForUpdate(txCtx, userID)
		require.NoError(t, err)
		require.Len(t, items, 1)

		cleared, err := carts.ClearByUser(txCtx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), cleared)

		cleared, err = carts.ClearByUser(txCtx, userID)
		require.NoError(t, err)
		assert.Zero(t, cleared)
		return nil
	})
	require.NoError(t, err)
}

func TestCartDeleteOtherUsersItemIsNotFound(t *testing.T) {
	db := dbtest.New(t)
	carts := repository.NewCartRepository(db)
	ctx := context.Background()

	item := &model.CartItem{UserID: uuid.New(), ProductName: "Ceai", Price: decimal.NewFromInt(10), Unit: model.UnitPiece, Quantity: 1}
	require.NoError(t, carts.Create(ctx, item))

	err := carts.Delete(ctx, uuid.New(), item.ID)
	assert.True(t, repository.IsNotFound(err))
}

func TestNewsletterSubscribeIsIdempotent(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewNewsletterRepository(db)
	ctx := context.Background()

	first, err := repo.Subscribe(ctx, "Ana@Example.com")
	require.NoError(t, err)
	require.NoError(t, repo.Unsubscribe(ctx, "ana@example.com"))

	second, err := repo.Subscribe(ctx, "ana@example.com ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.IsActive)
	assert.Nil(t, second.UnsubscribedAt)

	emails, err := repo.ListActiveEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, emails)
}

func TestEmailLogStats(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewEmailLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.EmailLog{Subject: "a", Audience: model.AudienceAll, RecipientCount: 3, SentCount: 2, FailedCount: 1, Status: model.EmailStatusPartial}))
	require.NoError(t, repo.Create(ctx, &model.EmailLog{Subject: "b", Audience: model.AudienceAll, RecipientCount: 4, SentCount: 4, Status: model.EmailStatusSent}))

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.EmailStats{TotalBatches: 2, TotalSent: 6, TotalFailed: 1}, stats)
}

func TestConversationClearUnreadKeepsUpdatedAt(t *testing.T) {
	db := dbtest.New(t)
	repo := repository.NewConversationRepository(db)
	ctx := context.Background()

	conv := &model.Conversation{UserID: uuid.New(), Subject: "Livrare", Status: model.ConversationOpen, UnreadAdmin: true}
	require.NoError(t, repo.Create(ctx, conv))
	before, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)

	require.NoError(t, repo.ClearUnread(ctx, conv.ID, true))

	after, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, after.UnreadAdmin)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}
