package scheduling

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrLockNotAcquired = errors.New("slot lock not acquired")

// Locker guards the critical section around a slot's availability flag.
// Reserve, release, and cancellation all funnel through the same per-slot
// lock so a cancellation and a racing reservation are mutually exclusive.
//
// Implementations may refuse rather than wait: the Redis locker fails a
// contended acquisition with ErrLockNotAcquired instead of blocking, so
// under that locker a losing booker can see ErrLockNotAcquired (retry
// shortly) where the local mutex locker would make it wait and lose with
// ErrSlotUnavailable. Either way the conditional flip in the store admits
// exactly one winner.
type Locker interface {
	WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error
}

type localLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*sync.Mutex
}

// NewLocalLocker returns a per-slot mutex locker for single-process
// deployments. Multi-process deployments use the Redis locker instead.
func NewLocalLocker() Locker {
	return &localLocker{slots: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *localLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.slots[slotID]
	if !ok {
		m = &sync.Mutex{}
		l.slots[slotID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
