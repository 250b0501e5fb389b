package service

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/database/dbtest"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db            *gorm.DB
	tx            repository.TransactionManager
	users         repository.UserRepository
	categories    repository.CategoryRepository
	products      repository.ProductRepository
	carts         repository.CartRepository
	orders        repository.OrderRepository
	conversations repository.ConversationRepository
	audit         repository.AuditRepository
	policy        *AccessPolicy
}

const superAdminEmail = "owner@naturalia.ro"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	return &fixture{
		db:            db,
		tx:            repository.NewTransactionManager(db),
		users:         repository.NewUserRepository(db),
		categories:    repository.NewCategoryRepository(db),
		products:      repository.NewProductRepository(db),
		carts:         repository.NewCartRepository(db),
		orders:        repository.NewOrderRepository(db),
		conversations: repository.NewConversationRepository(db),
		audit:         repository.NewAuditRepository(db),
		policy:        NewAccessPolicy([]string{superAdminEmail}),
	}
}

func (f *fixture) user(t *testing.T, email, role string) Identity {
	t.Helper()
	u := &model.User{Email: email, Name: email, Role: role, Provider: model.ProviderCredentials}
	require.NoError(t, f.users.Create(context.Background(), u))
	return f.policy.Resolve(u)
}

func (f *fixture) product(t *testing.T, name, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:  name,
		Slug:  Slugify(name) + "-" + uuid.NewString()[:6],
		Price: decimal.RequireFromString(price),
		Stock: stock,
		Unit:  model.UnitPiece,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

// recordingNotifier captures events for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	orders   []notify.OrderEvent
	messages []notify.MessageEvent
	err      error
	done     chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 16)}
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, e notify.OrderEvent) error {
	n.mu.Lock()
	n.orders = append(n.orders, e)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *recordingNotifier) MessagePosted(_ context.Context, e notify.MessageEvent) error {
	n.mu.Lock()
	n.messages = append(n.messages, e)
	n.mu.Unlock()
	n.done <- struct{}{}
	return n.err
}

func (n *recordingNotifier) orderCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

func (n *recordingNotifier) messageCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}
