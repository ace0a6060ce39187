package events

import (
	"encoding/json"
	"time"

	"github.com/dkralj/storefront/pkg/messaging"
)

// OrderPlacedEvent is published after the commerce backend confirms an order.
// OrderID is the backend's opaque order identifier; the notification service
// fetches the full order on consumption, so the payload stays minimal.
type OrderPlacedEvent struct {
	OrderID  string    `json:"order_id"`
	Email    string    `json:"email"`
	PlacedAt time.Time `json:"placed_at"`
}

func (o OrderPlacedEvent) Subject() string {
	return messaging.OrdersPlacedSubject
}

func (o OrderPlacedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}
