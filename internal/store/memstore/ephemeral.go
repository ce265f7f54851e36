package memstore

import (
	"context"
	"sync"
	"time"
)

// Ephemeral stands in for Redis when REDIS_ADDR is empty: token denylist and locks.
type Ephemeral struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	locks   map[string]time.Time
	now     func() time.Time
}

// NewEphemeral creates an empty denylist and lock table
func NewEphemeral() *Ephemeral {
	return &Ephemeral{
		revoked: make(map[string]time.Time),
		locks:   make(map[string]time.Time),
		now:     time.Now,
	}
}

func (e *Ephemeral) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.revoked[tokenID] = e.now().Add(ttl)
	return nil
}

func (e *Ephemeral) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	until, ok := e.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if e.now().After(until) {
		delete(e.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (e *Ephemeral) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if until, ok := e.locks[lockKey]; ok && e.now().Before(until) {
		return false, nil
	}
	e.locks[lockKey] = e.now().Add(ttl)
	return true, nil
}

func (e *Ephemeral) ReleaseLock(ctx context.Context, lockKey string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, lockKey)
	return nil
}
