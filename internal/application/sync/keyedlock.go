package sync

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedLock provides per-tenant mutual exclusion for sync sessions. A
// second trigger for a tenant whose session is active must be rejected
// immediately, never queued, so TryLock is the only acquisition path.
type KeyedLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

// NewKeyedLock creates an empty keyed lock
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{held: make(map[uuid.UUID]struct{})}
}

// TryLock acquires the lock for the key if it is free. Returns false
// without blocking when the key is already held.
func (l *KeyedLock) TryLock(key uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Unlock releases the lock for the key
func (l *KeyedLock) Unlock(key uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

// IsLocked reports whether the key is currently held
func (l *KeyedLock) IsLocked(key uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}
