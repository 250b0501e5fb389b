// Package chatpoll keeps a local copy of a conversation fresh by refetching
// it on a fixed interval.
//
// The held list is replaced wholesale only when the fetched list is longer.
// An edit or a delete that leaves the count unchanged stays invisible until
// the next count change.
package chatpoll

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultInterval = 5 * time.Second

// Poller refetches a message list every Interval. Fetch runs on the Run
// goroutine, so there is never more than one request in flight; ticks that
// fire while a fetch is running are dropped.
type Poller[T any] struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) ([]T, error)
	OnChange func(messages []T)
	Logger   *slog.Logger

	mu   sync.RWMutex
	held []T
}

// Seed sets the list the poller compares against, e.g. the result of the
// first page load.
func (p *Poller[T]) Seed(messages []T) {
	p.mu.Lock()
	p.held = messages
	p.mu.Unlock()
}

// Messages returns the currently held list.
func (p *Poller[T]) Messages() []T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.held
}

// Run polls until ctx is cancelled. Fetch errors are logged and never
// returned.
func (p *Poller[T]) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick performs one fetch and reports whether the held list was replaced.
func (p *Poller[T]) Tick(ctx context.Context) bool {
	fetched, err := p.Fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger().WarnContext(ctx, "chat poll failed", "error", err)
		}
		return false
	}

	p.mu.Lock()
	if len(fetched) <= len(p.held) {
		p.mu.Unlock()
		return false
	}
	p.held = fetched
	p.mu.Unlock()

	if p.OnChange != nil {
		p.OnChange(fetched)
	}
	return true
}

func (p *Poller[T]) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
