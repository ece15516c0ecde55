package sim

import (
	"hash/fnv"
	"sync"
)

// KeyLocks is an advisory lock set keyed by hashed identifiers. It
// guarantees at most one in-flight tick per (account, strategy) key even
// when timers overlap.
type KeyLocks struct {
	mu   sync.Mutex
	held map[uint64]struct{}
}

// NewKeyLocks creates an empty lock set.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{held: make(map[uint64]struct{})}
}

func lockKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))

	return h.Sum64()
}

// TryAcquire takes the lock for key if free and reports whether it did.
func (l *KeyLocks) TryAcquire(key string) bool {
	k := lockKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.held[k]; taken {
		return false
	}

	l.held[k] = struct{}{}

	return true
}

// Release frees the lock for key. Releasing an unheld key is a no-op.
func (l *KeyLocks) Release(key string) {
	k := lockKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, k)
}
