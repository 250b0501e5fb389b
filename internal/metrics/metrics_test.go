package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.RequestTotal.WithLabelValues("GET", "/api/orders/:id", "204")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "storefront_http_requests_total"))
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.OrderPlaced("cash")
	m.OrderPlaced("cash")
	m.CheckoutFailed("stock")
	m.EmailsDelivered(2, 1)
	m.MessagePosted(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("cash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckoutFailures.WithLabelValues("stock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesPosted.WithLabelValues("staff")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced("card")
		m.CheckoutFailed("validation")
		m.EmailsDelivered(1, 0)
		m.MessagePosted(false)
	})
}
