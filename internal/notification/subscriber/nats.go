// Package subscriber consumes order placement events from JetStream and
// hands them to the email service.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dkralj/storefront/pkg/config"
	"github.com/dkralj/storefront/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// Handler processes one decoded order placement event. A returned error
// triggers redelivery via Nak.
type Handler interface {
	Handle(ctx context.Context, event events.OrderPlacedEvent) error
}

// ackableMsg is the slice of jetstream.Msg the message loop needs.
type ackableMsg interface {
	Data() []byte
	Ack() error
	Nak() error
}

// Start initializes the JetStream consumer and runs the worker goroutines
// until the context is canceled.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, handler Handler, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(gCtx, consumer, subscriberCfg.Timeout, subscriberCfg.Interval, handler, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages from the JetStream consumer and processes them.
func runWorker(ctx context.Context, consumer jetstream.Consumer, timeout, interval time.Duration, handler Handler, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			// ctx was cancelled or timed out (e.g., application shutdown)
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				// if the error is a timeout, we can just continue to the next iteration
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, handler, logger)
			}
		}
	}
}

// handleMessage decodes and dispatches a single message. Decode failures
// and handler errors are Nak'ed for redelivery; the stream owns retry and
// at-least-once semantics.
func handleMessage(ctx context.Context, msg ackableMsg, handler Handler, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	var event events.OrderPlacedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error("failed to unmarshal message", "error", err)
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	logger.Info("received order placed event",
		slog.String("order_id", event.OrderID),
		slog.String("placed_at", event.PlacedAt.Format(time.RFC3339)))

	if err := handler.Handle(ctx, event); err != nil {
		logger.Error("failed to process order placed event", "order_id", event.OrderID, "error", err)
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}
