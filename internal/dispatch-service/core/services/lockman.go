package services

import "sync"

// LockTable hands out one mutex per order id, created lazily. It is the
// only exclusion primitive in the service: accept, lifecycle transitions
// and expiry all serialize through the same per-order lock.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *LockTable) Get(orderID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[orderID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[orderID] = l
	}
	return l
}

// Evict drops the lock for an order that reached a terminal state. A late
// timer firing after eviction just gets a fresh lock and no-ops on the
// already-resolved order, so eviction is safe without refcounting.
func (t *LockTable) Evict(orderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locks, orderID)
}

// Len reports the number of live locks, for tests and the overview.
func (t *LockTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
