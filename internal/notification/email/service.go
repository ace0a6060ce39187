package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkralj/storefront/internal/medusa"
	"github.com/dkralj/storefront/pkg/messaging/events"
)

// OrderFetcher retrieves the enriched order from the commerce backend.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*medusa.Order, error)
}

// Service turns an order placement event into an order confirmation email.
type Service struct {
	backend OrderFetcher
	mailer  Mailer
	logger  *slog.Logger
}

func NewService(backend OrderFetcher, mailer Mailer, logger *slog.Logger) *Service {
	return &Service{
		backend: backend,
		mailer:  mailer,
		logger:  logger.With("component", "email"),
	}
}

// Handle fetches the placed order and dispatches the confirmation email.
// The event payload is minimal; totals, addresses and line items come from
// the backend at consumption time.
func (s *Service) Handle(ctx context.Context, event events.OrderPlacedEvent) error {
	order, err := s.backend.GetOrder(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch order %s: %w", event.OrderID, err)
	}

	recipient := order.Email
	if recipient == "" {
		recipient = event.Email
	}
	if recipient == "" {
		s.logger.WarnContext(ctx, "Order has no recipient email, skipping", "order_id", event.OrderID)
		return nil
	}

	msg := Message{
		Template: TemplateOrderPlaced,
		To:       recipient,
		Data:     BuildOrderPayload(order),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation for %s: %w", event.OrderID, err)
	}
	s.logger.InfoContext(ctx, "Order confirmation sent", "order_id", event.OrderID, "to", recipient)
	return nil
}
