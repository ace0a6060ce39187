package cart

import (
	"context"
	"errors"
	"sync"
)

// ErrCacheMiss is returned when no snapshot is cached for a cart.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores cart snapshots keyed by cart ID. Implementations must
// return isolated copies: a snapshot obtained from Get must not observe
// later Set calls.
type Cache interface {
	Get(ctx context.Context, cartID string) (*Snapshot, error)
	Set(ctx context.Context, cartID string, snap *Snapshot) error
	Delete(ctx context.Context, cartID string) error
}

// MemoryCache is a process-local Cache used in tests and single-instance
// deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Snapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Snapshot)}
}

func (m *MemoryCache) Get(_ context.Context, cartID string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.entries[cartID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return snap.Clone(), nil
}

func (m *MemoryCache) Set(_ context.Context, cartID string, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cartID] = snap.Clone()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cartID)
	return nil
}
