package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryAccountLocker is a process local AccountLocker. A held lock is
// reported as an error rather than waited on.
type MemoryAccountLocker struct {
	mu    sync.Mutex
	locks map[string]accountLease
	seq   uint64
	nowFn func() time.Time
}

// accountLease ties a held lock to the handle that acquired it.
type accountLease struct {
	token uint64
	until time.Time
}

func NewMemoryAccountLocker() *MemoryAccountLocker {
	return &MemoryAccountLocker{
		locks: make(map[string]accountLease),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryAccountLocker) Acquire(_ context.Context, accountID string, ttl time.Duration) (LockHandle, error) {
	if l == nil {
		return nil, fmt.Errorf("core: account locker is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("core: account id is required for lock acquisition")
	}
	if ttl <= 0 {
		ttl = defaultAccountLockTTL
	}

	now := l.nowFn()
	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, ok := l.locks[accountID]; ok && now.Before(lease.until) {
		return nil, fmt.Errorf("core: disbursement lock already held for account %q", accountID)
	}
	l.seq++
	l.locks[accountID] = accountLease{token: l.seq, until: now.Add(ttl)}
	return &memoryLockHandle{locker: l, accountID: accountID, token: l.seq}, nil
}

type memoryLockHandle struct {
	locker    *MemoryAccountLocker
	accountID string
	token     uint64
	once      sync.Once
}

func (h *memoryLockHandle) Unlock(_ context.Context) error {
	if h == nil || h.locker == nil {
		return nil
	}
	h.once.Do(func() {
		h.locker.mu.Lock()
		defer h.locker.mu.Unlock()
		// an expired handle must not release a lease taken over by another caller
		if lease, ok := h.locker.locks[h.accountID]; ok && lease.token == h.token {
			delete(h.locker.locks, h.accountID)
		}
	})
	return nil
}
