// Package cart keeps a local, speculative mirror of the remote cart and
// coordinates optimistic mutations against it. The remote cart is always
// the source of truth; the cache only bridges the gap between a user
// action and the backend's confirmation.
package cart

import (
	"github.com/dkralj/storefront/internal/medusa"
)

// Snapshot is one cached cart state: the mirrored cart plus the aggregate
// item quantity shown in the header badge.
type Snapshot struct {
	Cart     *medusa.Cart `json:"cart"`
	Quantity int          `json:"quantity"`
}

// NewSnapshot builds a snapshot from an authoritative cart, deriving the
// aggregate quantity from the item list.
func NewSnapshot(c *medusa.Cart) *Snapshot {
	return &Snapshot{Cart: c, Quantity: TotalQuantity(c)}
}

// TotalQuantity sums the per-item quantities of a cart. This is the only
// sanctioned way to derive the aggregate after a rollback; trusting a
// previously adjusted counter reintroduces drift.
func TotalQuantity(c *medusa.Cart) int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Clone returns a deep copy so a held snapshot cannot alias later cache
// patches.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	clone := &Snapshot{Quantity: s.Quantity}
	if s.Cart != nil {
		cartCopy := *s.Cart
		cartCopy.Items = append([]medusa.CartLineItem(nil), s.Cart.Items...)
		cartCopy.Promotions = append([]medusa.Promotion(nil), s.Cart.Promotions...)
		clone.Cart = &cartCopy
	}
	return clone
}
