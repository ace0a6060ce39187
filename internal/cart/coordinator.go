package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dkralj/storefront/internal/medusa"
)

// Fetcher retrieves the authoritative cart from the commerce backend.
type Fetcher interface {
	RetrieveCart(ctx context.Context, cartID string) (*medusa.Cart, error)
}

// Patch applies a speculative local edit to a cached snapshot.
type Patch func(*Snapshot)

// MutationFunc performs the actual backend mutation.
type MutationFunc func(ctx context.Context) error

// Coordinator wraps cart-mutating backend calls with optimistic cache
// updates. Each cached cart moves through an explicit cycle:
//
//	clean -> pending(snapshot) -> clean
//
// Before a mutation is sent, any background cache refresh for the cart is
// canceled, the current cache entry is snapshotted, and the patch is
// applied locally. On success the cache entry is invalidated so the next
// read fetches the authoritative cart; on failure the snapshot is restored
// with its aggregate quantity recomputed from the restored items.
//
// There is no mutual exclusion between two concurrent mutations of the
// same cart; the last rollback wins. Correctness relies on invalidation
// eventually fetching the authoritative value.
type Coordinator struct {
	cache   Cache
	fetcher Fetcher
	logger  *slog.Logger

	mu        sync.Mutex
	refreshes map[string]*refreshHandle
}

type refreshHandle struct {
	cancel context.CancelFunc
}

func NewCoordinator(cache Cache, fetcher Fetcher, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		cache:     cache,
		fetcher:   fetcher,
		logger:    logger.With("component", "cart"),
		refreshes: make(map[string]*refreshHandle),
	}
}

// Mutate runs one optimistic mutation cycle for the cart.
// The returned error is the backend's; the cache is consistent either way.
func (c *Coordinator) Mutate(ctx context.Context, cartID string, patch Patch, send MutationFunc) error {
	// Phase 1: cancel any in-flight refresh so the snapshot is taken from
	// the latest settled cache state, then patch speculatively.
	c.cancelRefresh(cartID)

	snapshot, err := c.cache.Get(ctx, cartID)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		return fmt.Errorf("failed to snapshot cart cache: %w", err)
	}

	if snapshot != nil && patch != nil {
		patched := snapshot.Clone()
		patch(patched)
		if err := c.cache.Set(ctx, cartID, patched); err != nil {
			c.logger.WarnContext(ctx, "Failed to apply speculative cart update", "cart_id", cartID, "error", err)
		}
	}

	// Phase 2: the backend call.
	if err := send(ctx); err != nil {
		// Phase 3a: roll back. The aggregate quantity is recomputed from
		// the restored item list, never taken from a stale counter.
		if snapshot != nil {
			snapshot.Quantity = TotalQuantity(snapshot.Cart)
			if restoreErr := c.cache.Set(ctx, cartID, snapshot); restoreErr != nil {
				c.logger.ErrorContext(ctx, "Failed to restore cart snapshot", "cart_id", cartID, "error", restoreErr)
			}
		}
		return err
	}

	// Phase 3b: confirmed. Drop the speculative entry so the next read
	// fetches the authoritative cart.
	if err := c.cache.Delete(ctx, cartID); err != nil {
		c.logger.WarnContext(ctx, "Failed to invalidate cart cache", "cart_id", cartID, "error", err)
	}
	return nil
}

// Refresh fetches the authoritative cart into the cache. It is cancelable
// by a concurrent mutation; a canceled refresh is not an error.
func (c *Coordinator) Refresh(ctx context.Context, cartID string) (*Snapshot, error) {
	refreshCtx, cancel := context.WithCancel(ctx)
	handle := &refreshHandle{cancel: cancel}
	c.mu.Lock()
	if prev, ok := c.refreshes[cartID]; ok {
		prev.cancel()
	}
	c.refreshes[cartID] = handle
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.refreshes[cartID] == handle {
			delete(c.refreshes, cartID)
		}
		c.mu.Unlock()
		cancel()
	}()

	remote, err := c.fetcher.RetrieveCart(refreshCtx, cartID)
	if err != nil {
		if errors.Is(refreshCtx.Err(), context.Canceled) && ctx.Err() == nil {
			return nil, nil
		}
		return nil, err
	}

	snap := NewSnapshot(remote)
	if err := c.cache.Set(ctx, cartID, snap); err != nil {
		return nil, fmt.Errorf("failed to cache refreshed cart: %w", err)
	}
	return snap, nil
}

// Load returns the cached snapshot, refreshing from the backend on a miss.
func (c *Coordinator) Load(ctx context.Context, cartID string) (*Snapshot, error) {
	snap, err := c.cache.Get(ctx, cartID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return nil, err
	}
	return c.Refresh(ctx, cartID)
}

// Invalidate drops the cached snapshot so the next read refetches.
func (c *Coordinator) Invalidate(ctx context.Context, cartID string) error {
	c.cancelRefresh(cartID)
	return c.cache.Delete(ctx, cartID)
}

func (c *Coordinator) cancelRefresh(cartID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handle, ok := c.refreshes[cartID]; ok {
		handle.cancel()
		delete(c.refreshes, cartID)
	}
}

// UpdateItemQuantity is the speculative patch for a quantity change: the
// item's quantity is replaced and the aggregate adjusted by the delta.
func UpdateItemQuantity(lineID string, quantity int) Patch {
	return func(s *Snapshot) {
		if s.Cart == nil {
			return
		}
		for i := range s.Cart.Items {
			if s.Cart.Items[i].ID == lineID {
				delta := quantity - s.Cart.Items[i].Quantity
				s.Cart.Items[i].Quantity = quantity
				s.Quantity = max(0, s.Quantity+delta)
				return
			}
		}
	}
}

// RemoveItem is the speculative patch for a line item removal.
func RemoveItem(lineID string) Patch {
	return func(s *Snapshot) {
		if s.Cart == nil {
			return
		}
		items := s.Cart.Items[:0]
		for _, item := range s.Cart.Items {
			if item.ID == lineID {
				s.Quantity = max(0, s.Quantity-item.Quantity)
				continue
			}
			items = append(items, item)
		}
		s.Cart.Items = items
	}
}

// AdjustQuantity is the speculative patch for an addition where the new
// line items are not known locally yet; only the aggregate moves.
func AdjustQuantity(delta int) Patch {
	return func(s *Snapshot) {
		s.Quantity = max(0, s.Quantity+delta)
	}
}
