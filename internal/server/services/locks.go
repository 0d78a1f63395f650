package services

import "sync"

// keyedLocker is a non-blocking mutex per key. Keys are released by Unlock
// and hold no memory while unlocked.
type keyedLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{held: make(map[string]struct{})}
}

// TryLock acquires key and reports whether it was free.
func (l *keyedLocker) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

func (l *keyedLocker) Unlock(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}
