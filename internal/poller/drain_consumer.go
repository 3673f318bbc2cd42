package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type CartDrainer interface {
	DrainCart(ctx context.Context, orderID string) error
}

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// DrainConsumer removes settled SKUs from carts when OrderCreated events
// arrive. Drains that fail here are retried by the outbox recovery tick.
type DrainConsumer struct {
	drainer CartDrainer
	reader  MessageReader
	logger  *zap.Logger
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewDrainConsumer(drainer CartDrainer, reader MessageReader, logger *zap.Logger) *DrainConsumer {
	return &DrainConsumer{drainer: drainer, reader: reader, logger: logger}
}

func (c *DrainConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *DrainConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *DrainConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		return
	}

	if err := c.handleMessage(ctx, m); err != nil {
		c.logger.Warn("cart drain failed",
			zap.String("key", string(m.Key)),
			zap.Int64("offset", m.Offset),
			zap.Error(err))
	}
}

func (c *DrainConsumer) handleMessage(ctx context.Context, m kafka.Message) error {
	if eventType := header(m, "event_type"); eventType != "" && eventType != domain.EventOrderCreated {
		return nil
	}

	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("parse order event: %w", err)
	}
	if event.OrderID == "" {
		return errors.New("order event without order_id")
	}
	if !event.DrainCart {
		return nil
	}

	return c.drainer.DrainCart(ctx, event.OrderID)
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
