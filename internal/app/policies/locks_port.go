package policies

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned when another submit currently holds the property lock.
var ErrLockHeld = errors.New("policies: property lock held")

// PropertyLocker serializes submit transitions per property across processes.
// The schedule version CAS remains the authoritative overlap guard; the lock
// only narrows the race window under contention.
type PropertyLocker interface {
	// Acquire takes an advisory lock keyed by property id. The returned
	// release function is safe to call once; the lock self-expires after ttl.
	Acquire(ctx context.Context, propertyID string, ttl time.Duration) (release func(context.Context) error, err error)
}
