package memory

import (
	"context"
	"sync"
	"time"

	"staybook/internal/app/policies"
)

// PropertyLocker serializes submits within a single process. It mirrors the
// redis implementation for deployments without redis.
type PropertyLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

func NewPropertyLocker() *PropertyLocker {
	return &PropertyLocker{locks: make(map[string]time.Time)}
}

func (l *PropertyLocker) Acquire(ctx context.Context, propertyID string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if deadline, ok := l.locks[propertyID]; ok && now.Before(deadline) {
		return nil, policies.ErrLockHeld
	}
	l.locks[propertyID] = now.Add(ttl)

	var once sync.Once
	release := func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.locks, propertyID)
			l.mu.Unlock()
		})
		return nil
	}
	return release, nil
}

var _ policies.PropertyLocker = (*PropertyLocker)(nil)
