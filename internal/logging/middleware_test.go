package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLog())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c.Request.Context()))
	})
	return r
}

func TestRequestIDPropagatesIncomingHeader(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", rec.Body.String())
}

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	r := newRouter()
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := rec.Header().Get(RequestIDHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, id, rec.Body.String())
}

func TestRequestLogWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", &buf)

	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "http request", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "/ping", line["route"])
	assert.EqualValues(t, 200, line["status"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(nil))
}
