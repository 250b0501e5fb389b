package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, limit int) (*FixedWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	l, err := NewFixedWindowLimiter(client, "test", limit, time.Minute)
	require.NoError(t, err)
	return l, mr
}

func TestFixedWindowLimiter(t *testing.T) {
	l, _ := newLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.Allow(ctx, "user:2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")
}

func TestFixedWindowLimiterNextWindow(t *testing.T) {
	l, _ := newLimiter(t, 1)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestFixedWindowLimiterFailsOpen(t *testing.T) {
	l, mr := newLimiter(t, 1)
	mr.Close()
	ok, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestNewFixedWindowLimiterValidation(t *testing.T) {
	_, err := NewFixedWindowLimiter(nil, "x", 1, time.Second)
	assert.Error(t, err)
	_, err = NewFixedWindowLimiter(redis.NewClient(&redis.Options{}), "x", 0, time.Second)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := newLimiter(t, 1)

	r := gin.New()
	r.POST("/api/orders", Middleware(l, nil), func(c *gin.Context) { c.Status(http.StatusCreated) })

	do := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}
	assert.Equal(t, http.StatusCreated, do().Code)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestMiddlewareNilLimiterPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Middleware(nil, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
