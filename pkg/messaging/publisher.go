package messaging

import (
	"context"
)

// OrdersStream holds all order lifecycle events; OrdersPlacedSubject is
// the subject order placements are published on.
const (
	OrdersStream        = "ORDERS"
	OrdersPlacedSubject = "orders.placed"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
