package webmcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/dkralj/storefront/internal/cart"
	"github.com/dkralj/storefront/internal/medusa"
	"github.com/dkralj/storefront/pkg/messaging"
	"github.com/dkralj/storefront/pkg/messaging/events"
)

const (
	CodeCompleteFailed = "COMPLETE_FAILED"
	CodeCartRejected   = "CART_REJECTED"
)

// CheckoutBackend is the slice of the commerce backend the checkout tool calls.
type CheckoutBackend interface {
	CompleteCart(ctx context.Context, cartID string) (*medusa.OrderResult, error)
}

// CheckoutTools places the order for the caller's cart. On success the cart
// snapshot is invalidated and an order placement event is published; a
// publish failure never fails the checkout.
type CheckoutTools struct {
	backend     CheckoutBackend
	coordinator *cart.Coordinator
	publisher   messaging.Publisher
	resolveCart CartIDResolver
	logger      *slog.Logger
}

func NewCheckoutTools(backend CheckoutBackend, coordinator *cart.Coordinator,
	publisher messaging.Publisher, resolver CartIDResolver, logger *slog.Logger) *CheckoutTools {
	return &CheckoutTools{
		backend:     backend,
		coordinator: coordinator,
		publisher:   publisher,
		resolveCart: resolver,
		logger:      logger.With("component", "webmcp"),
	}
}

// Tools returns the checkout tool set for registration.
func (t *CheckoutTools) Tools() []Tool {
	return []Tool{
		{
			Name:        "checkout.complete",
			Description: "Complete the cart and place the order",
			Handler:     t.complete,
		},
	}
}

func (t *CheckoutTools) complete(ctx context.Context, params Params) Result {
	cartID := resolveCartID(ctx, params, t.resolveCart)
	if cartID == "" {
		return Fail(CodeCartMissing, "No active cart found")
	}

	result, err := t.backend.CompleteCart(ctx, cartID)
	if err != nil {
		t.logger.WarnContext(ctx, "Tool call failed", "tool", "checkout.complete", "cart_id", cartID, "error", err)
		return Fail(CodeCompleteFailed, "Failed to complete cart")
	}
	if result.Type != "order" || result.Order == nil {
		message := result.Error
		if message == "" {
			message = "Cart could not be completed"
		}
		return Fail(CodeCartRejected, message)
	}

	if err := t.coordinator.Invalidate(ctx, cartID); err != nil {
		t.logger.WarnContext(ctx, "Failed to drop cart snapshot after checkout", "cart_id", cartID, "error", err)
	}

	event := events.OrderPlacedEvent{
		OrderID:  result.Order.ID,
		Email:    result.Order.Email,
		PlacedAt: time.Now().UTC(),
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish order placement event", "order_id", result.Order.ID, "error", err)
	}

	return OkMeta(result.Order, map[string]any{"order_id": result.Order.ID})
}
