package sync

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeyedLock_TryLock(t *testing.T) {
	lock := NewKeyedLock()
	a := uuid.New()
	b := uuid.New()

	assert.True(t, lock.TryLock(a))
	assert.False(t, lock.TryLock(a), "second acquisition for same key must be rejected")
	assert.True(t, lock.TryLock(b), "different keys are independent")

	assert.True(t, lock.IsLocked(a))
	lock.Unlock(a)
	assert.False(t, lock.IsLocked(a))
	assert.True(t, lock.TryLock(a))
}

func TestKeyedLock_ConcurrentSingleWinner(t *testing.T) {
	lock := NewKeyedLock()
	key := uuid.New()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lock.TryLock(key) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one goroutine may hold the lock")
}
