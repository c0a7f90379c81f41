// Package locks serializes dossier generations per chantier.
package locks

import (
	"context"
	"errors"
	"sync"
)

// ErrLocked is returned when the key is already held.
var ErrLocked = errors.New("a generation is already running for this chantier")

// Locker hands out non-blocking try-locks. The returned release func must be
// called exactly once; wrap it in a deferred call.
type Locker interface {
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// MemoryLocker locks within one process.
type MemoryLocker struct {
	held sync.Map
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string) (func(), error) {
	if _, loaded := l.held.LoadOrStore(key, struct{}{}); loaded {
		return nil, ErrLocked
	}
	var once sync.Once
	return func() { once.Do(func() { l.held.Delete(key) }) }, nil
}
