package infrastructure

import "sync"

// TenantLocker serializes session-state transitions per tenant. A
// ConfirmScan and a CheckHealth for the same tenant are applied in order;
// unrelated tenants never contend on each other's lock.
type TenantLocker struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewTenantLocker() *TenantLocker {
	return &TenantLocker{
		locks: make(map[int]*sync.Mutex),
	}
}

func (l *TenantLocker) lockFor(tenantID int) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, exists := l.locks[tenantID]
	if !exists {
		m = &sync.Mutex{}
		l.locks[tenantID] = m
	}
	return m
}

func (l *TenantLocker) Lock(tenantID int) {
	l.lockFor(tenantID).Lock()
}

func (l *TenantLocker) Unlock(tenantID int) {
	l.lockFor(tenantID).Unlock()
}
