package chatpoll

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type msg struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func TestTick_ReplacesOnlyWhenLonger(t *testing.T) {
	ctx := context.Background()
	responses := [][]msg{
		{{ID: "1", Content: "salut"}, {ID: "2", Content: "bună ziua"}},
		{{ID: "1", Content: "salut (editat)"}, {ID: "2", Content: "bună ziua"}},
		{{ID: "1", Content: "salut (editat)"}},
		{{ID: "1", Content: "salut (editat)"}, {ID: "2", Content: "bună ziua"}, {ID: "3", Content: "mulțumesc"}},
	}
	call := 0
	var changes int
	p := &Poller[msg]{
		Fetch: func(context.Context) ([]msg, error) {
			r := responses[call]
			call++
			return r, nil
		},
		OnChange: func([]msg) { changes++ },
	}
	p.Seed([]msg{{ID: "1", Content: "salut"}})

	assert.True(t, p.Tick(ctx))
	assert.Len(t, p.Messages(), 2)

	// Same count with an edit: not picked up.
	assert.False(t, p.Tick(ctx))
	assert.Equal(t, "salut", p.Messages()[0].Content)

	// Shorter after a delete: held list kept.
	assert.False(t, p.Tick(ctx))
	assert.Len(t, p.Messages(), 2)

	assert.True(t, p.Tick(ctx))
	require.Len(t, p.Messages(), 3)
	assert.Equal(t, "salut (editat)", p.Messages()[0].Content)
	assert.Equal(t, 2, changes)
}

func TestTick_SwallowsErrors(t *testing.T) {
	var logs bytes.Buffer
	p := &Poller[msg]{
		Fetch:  func(context.Context) ([]msg, error) { return nil, errors.New("connection refused") },
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	}
	p.Seed([]msg{{ID: "1"}})

	assert.False(t, p.Tick(context.Background()))
	assert.Len(t, p.Messages(), 1)
	assert.Contains(t, logs.String(), "connection refused")
}

func TestRun_StopsOnCancel(t *testing.T) {
	var calls, inFlight, maxInFlight atomic.Int32
	p := &Poller[msg]{
		Interval: 5 * time.Millisecond,
		Fetch: func(context.Context) ([]msg, error) {
			n := inFlight.Add(1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			time.Sleep(8 * time.Millisecond)
			inFlight.Add(-1)
			calls.Add(1)
			return []msg{{ID: "1"}}, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	assert.EqualValues(t, 1, maxInFlight.Load())
	assert.Len(t, p.Messages(), 1)
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","status_code":401,"error":"Autentificare necesară"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","status_code":200,"data":{"id":"c1","messages":[{"id":"m1","content":"salut"},{"id":"m2","content":"da"}]}}`))
	}))
	defer srv.Close()

	messages, err := HTTPFetch[msg](srv.Client(), srv.URL, "tok")(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[1].ID)

	_, err = HTTPFetch[msg](nil, srv.URL, "wrong")(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Autentificare necesară")
}
