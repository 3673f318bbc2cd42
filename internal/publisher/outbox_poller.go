package publisher

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order/repository"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	eventBatchSize = 100
	drainBatchSize = 50
)

type EventStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
	PendingDrains(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Order, error)
}

type CartDrainer interface {
	DrainCart(ctx context.Context, orderID string) error
}

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller relays outbox rows to Kafka and finishes cart drains that
// were left pending for longer than drainGrace.
type OutboxPoller struct {
	eventTick    time.Duration
	recoveryTick time.Duration
	drainGrace   time.Duration
	repo         EventStore
	drainer      CartDrainer
	writer       MessageWriter
	logger       *zap.Logger
	now          func() time.Time
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(repo EventStore, drainer CartDrainer, writer MessageWriter, drainGrace time.Duration, logger *zap.Logger) *OutboxPoller {
	return &OutboxPoller{
		eventTick:    time.Second,
		recoveryTick: 30 * time.Second,
		drainGrace:   drainGrace,
		repo:         repo,
		drainer:      drainer,
		writer:       writer,
		logger:       logger,
		now:          time.Now,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverPendingDrains(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, eventBatchSize)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.logger.Error("failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err))
			// keep per-aggregate order: later events wait for the next tick
			return
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			p.logger.Error("failed to mark event as processed",
				zap.Int64("event_id", event.ID),
				zap.Error(err))
		}
	}
}

func (p *OutboxPoller) recoverPendingDrains(ctx context.Context) {
	orders, err := p.repo.PendingDrains(ctx, p.now().Add(-p.drainGrace), drainBatchSize)
	if err != nil {
		p.logger.Error("failed to get pending cart drains", zap.Error(err))
		return
	}

	for _, order := range orders {
		if err := p.drainer.DrainCart(ctx, order.ID); err != nil {
			p.logger.Warn("cart drain recovery failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
			continue
		}
		p.logger.Info("cart drain recovered", zap.String("order_id", order.ID))
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *repository.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
