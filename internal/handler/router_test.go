package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"storefront/internal/database/dbtest"
	"storefront/internal/mailer"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/ratelimit"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	users  repository.UserRepository
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Details    map[string]any  `json:"details"`
}

type memoryStore struct {
	objects map[string][]byte
}

func (s *memoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *memoryStore) URL(key string) string { return "http://cdn.test/" + key }

func newTestServer(t *testing.T, mutate func(*RouterConfig)) *testServer {
	t.Helper()
	db := dbtest.New(t)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)
	m := metrics.New()

	policy := service.NewAccessPolicy([]string{"owner@naturalia.ro"})
	auth := service.NewAuthService(userRepo, service.NewTokenManager("test-secret", time.Hour), session.NewMemoryRevoker(), policy)

	cfg := RouterConfig{
		Services: Services{
			Auth:     auth,
			Catalog:  service.NewCatalogService(repository.NewCategoryRepository(db), productRepo, cartRepo, auditRepo, txManager),
			Cart:     service.NewCartService(cartRepo, productRepo, txManager),
			Orders:   service.NewOrderService(repository.NewOrderRepository(db), cartRepo, productRepo, auditRepo, txManager, nil, m),
			Messages: service.NewMessageService(repository.NewConversationRepository(db), txManager, nil, m),
			Users:    service.NewUserService(userRepo, auditRepo, txManager, policy),
			Emails: service.NewEmailService(
				repository.NewEmailTemplateRepository(db),
				repository.NewEmailLogRepository(db),
				repository.NewNewsletterRepository(db),
				userRepo, auditRepo, mailer.NewLogMailer(slog.New(slog.NewTextHandler(io.Discard, nil))), m,
			),
			Testimonials: service.NewTestimonialService(repository.NewTestimonialRepository(db)),
			Inventory:    service.NewInventoryService(productRepo, auditRepo, txManager),
			Statistics:   service.NewStatisticsService(repository.NewStatisticsRepository(db), productRepo),
			Audit:        service.NewAuditService(auditRepo),
		},
		Guard:   middleware.NewAuthenticator(auth, false),
		Metrics: m,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testServer{router: NewRouter(cfg), db: db, users: userRepo}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

// account registers email and sets its role, returning a session token.
func (s *testServer) account(t *testing.T, email, role string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": email, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session service.SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))

	if role != model.RoleUser {
		u, err := s.users.GetByEmail(context.Background(), email)
		require.NoError(t, err)
		u.Role = role
		require.NoError(t, s.users.Update(context.Background(), u))
	}
	return session.Token
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, nil)
	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CheckoutFlow(t *testing.T) {
	s := newTestServer(t, nil)
	client := s.account(t, "client@example.com", model.RoleUser)
	mod := s.account(t, "mod@naturalia.ro", model.RoleModerator)

	w, _ := s.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	productBody := map[string]any{"name": "Miere de salcâm", "price": "45.00", "stock": 2, "unit": "buc"}
	w, _ = s.do(t, http.MethodPost, "/api/admin/products", client, productBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/admin/products", mod, productBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product model.Product
	require.NoError(t, json.Unmarshal(env.Data, &product))

	w, _ = s.do(t, http.MethodGet, "/api/products/"+product.Slug, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/cart", client, map[string]any{"productId": product.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A jar breaks in the warehouse before checkout.
	w, _ = s.do(t, http.MethodPost, "/api/admin/products/"+product.ID.String()+"/stock", mod, map[string]any{"delta": -1, "note": "borcan spart"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	checkout := map[string]string{"fullName": "Ana Popescu", "phone": "0722000000", "address": "Str. Florilor 3", "city": "Cluj"}
	w, env = s.do(t, http.MethodPost, "/api/orders", client, checkout)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "error", env.Status)
	assert.EqualValues(t, 2, env.Details["requested"])
	assert.EqualValues(t, 1, env.Details["available"])

	w, _ = s.do(t, http.MethodPost, "/api/admin/products/"+product.ID.String()+"/stock", mod, map[string]any{"delta": 5})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/orders", client, checkout)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order model.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, model.OrderStatusPending, order.Status)

	w, env = s.do(t, http.MethodGet, "/api/cart", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cart service.CartResponse
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	assert.Empty(t, cart.Items)

	w, _ = s.do(t, http.MethodPatch, "/api/admin/orders/"+order.ID.String(), mod, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodGet, "/api/admin/orders/export", mod, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	w, _ = s.do(t, http.MethodGet, "/api/admin/statistics", client, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, env = s.do(t, http.MethodGet, "/api/admin/statistics", mod, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report model.SalesReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.EqualValues(t, 1, report.OrderCount)
	assert.EqualValues(t, 1, report.OrdersByStatus[model.OrderStatusShipped])

	w, _ = s.do(t, http.MethodGet, "/api/admin/statistics?from=2024-13-01", mod, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/admin/products/"+product.ID.String()+"/movements", mod, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 3, page.Total)
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	mod := s.account(t, "mod@naturalia.ro", model.RoleModerator)
	admin := s.account(t, "admin@naturalia.ro", model.RoleAdmin)
	owner := s.account(t, "owner@naturalia.ro", model.RoleAdmin)

	for _, path := range []string{"/api/admin/users", "/api/admin/audit-logs", "/api/admin/emails/templates"} {
		w, _ := s.do(t, http.MethodGet, path, mod, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		w, _ = s.do(t, http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w, _ := s.do(t, http.MethodGet, "/api/admin/emails/send", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/admin/emails/send", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_NewsletterAndTestimonials(t *testing.T) {
	s := newTestServer(t, nil)
	mod := s.account(t, "mod@naturalia.ro", model.RoleModerator)

	w, _ := s.do(t, http.MethodPost, "/api/newsletter/subscribe", "", map[string]string{"email": "Fan@Example.com"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodPost, "/api/newsletter/subscribe", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/admin/testimonials", mod, map[string]any{"name": "Maria", "content": "Miere excelentă", "rating": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, env := s.do(t, http.MethodGet, "/api/testimonials", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Testimonial
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)
}

func TestRouter_CheckoutRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	limiter, err := ratelimit.NewFixedWindowLimiter(rdb, "checkout", 1, time.Minute)
	require.NoError(t, err)

	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.CheckoutLimit = ratelimit.Middleware(limiter, middleware.UserKey)
	})
	client := s.account(t, "client@example.com", model.RoleUser)

	w, _ := s.do(t, http.MethodPost, "/api/orders", client, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/orders", client, map[string]string{})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Other routes are not limited.
	w, _ = s.do(t, http.MethodGet, "/api/orders", client, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Upload(t *testing.T) {
	upload := func(s *testServer, token, contentType string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="miere.png"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, _ = part.Write([]byte("\x89PNG fake image"))
		require.NoError(t, mw.WriteField("folder", "products"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/admin/uploads", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	disabled := newTestServer(t, nil)
	mod := disabled.account(t, "mod@naturalia.ro", model.RoleModerator)
	assert.Equal(t, http.StatusServiceUnavailable, upload(disabled, mod, "image/png").Code)

	store := &memoryStore{objects: map[string][]byte{}}
	s := newTestServer(t, func(cfg *RouterConfig) { cfg.Store = store })
	mod = s.account(t, "mod@naturalia.ro", model.RoleModerator)
	client := s.account(t, "client@example.com", model.RoleUser)

	assert.Equal(t, http.StatusForbidden, upload(s, client, "image/png").Code)
	assert.Equal(t, http.StatusBadRequest, upload(s, mod, "application/pdf").Code)

	w := upload(s, mod, "image/png")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res UploadResponse
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, strings.HasPrefix(res.Key, "products/"))
	assert.Equal(t, "http://cdn.test/"+res.Key, res.URL)
	assert.Len(t, store.objects, 1)
}

func TestStaffSocketAuthorizer(t *testing.T) {
	s := newTestServer(t, nil)
	client := s.account(t, "client@example.com", model.RoleUser)
	mod := s.account(t, "mod@naturalia.ro", model.RoleModerator)

	db := s.db
	auth := service.NewAuthService(repository.NewUserRepository(db), service.NewTokenManager("test-secret", time.Hour),
		session.NewMemoryRevoker(), service.NewAccessPolicy(nil))
	authorize := staffSocketAuthorizer(auth)

	status, err := authorize(context.Background(), "garbage")
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, err = authorize(context.Background(), client)
	assert.Error(t, err)
	assert.Equal(t, http.StatusForbidden, status)

	status, err = authorize(context.Background(), mod)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

var _ storage.ObjectStore = (*memoryStore)(nil)
