package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c, func(_ context.Context, token string) (int, error) {
			if token != "staff" {
				return http.StatusForbidden, errors.New("not staff")
			}
			return 0, nil
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHubBroadcastsToStaff(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=staff"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Publish([]byte(`{"type":"order.placed"}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"order.placed"}`, string(msg))
}

func TestHubRejectsNonStaff(t *testing.T) {
	hub := NewHub(nil)
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=customer"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPublishDoesNotBlockWhenQueueFull(t *testing.T) {
	hub := NewHub(nil)
	var err error
	for i := 0; i < cap(hub.broadcast)+1; i++ {
		err = hub.Publish([]byte("x"))
	}
	assert.ErrorIs(t, err, ErrHubFull)
}

func TestHubStoppedDoesNotBlockConnections(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	srv := newTestServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=staff"
	live, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer live.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// the live client is closed and its read pump returns without a receiver
	_ = live.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = live.ReadMessage()
	assert.Error(t, err)

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.Len())
}
