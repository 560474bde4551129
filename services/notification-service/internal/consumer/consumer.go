package consumer

import (
	"context"
	"log/slog"
	"time"

	"github.com/minerva-salon/salonbook/libs/kafkax"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/codes"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// Reader is satisfied by *kafka.Reader.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Inbox dedupes deliveries by event id.
type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Consumer struct {
	reader  Reader
	logger  *slog.Logger
	inbox   Inbox
	metrics *metrics.Metrics
	handler Handler
	backoff time.Duration
}

type Config struct {
	Brokers string
	GroupID string
	Topics  []string
}

func New(logger *slog.Logger, inbox Inbox, m *metrics.Metrics, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kafkax.SplitBrokers(cfg.Brokers),
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return NewWithReader(reader, logger, inbox, m, handler)
}

func NewWithReader(reader Reader, logger *slog.Logger, inbox Inbox, m *metrics.Metrics, handler Handler) *Consumer {
	return &Consumer{
		reader:  reader,
		logger:  logger,
		inbox:   inbox,
		metrics: m,
		handler: handler,
		backoff: time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	ctx, span := kafkax.StartConsumeSpan(ctx, msg)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)
	ok, err := c.inbox.Record(ctx, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.ErrorContext(ctx, "inbox record failed", "err", err, "event_id", meta.EventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inbox")
		c.metrics.ObserveConsumed(meta.EventType, "error")
		return
	}
	if !ok {
		c.logger.InfoContext(ctx, "duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		c.metrics.ObserveConsumed(meta.EventType, "duplicate")
		return
	}

	if err := c.handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "handler error", "err", err, "event_id", meta.EventID, "event_type", meta.EventType)
		span.RecordError(err)
		span.SetStatus(codes.Error, "handler")
		c.metrics.ObserveConsumed(meta.EventType, "error")
		if err := c.inbox.Forget(ctx, meta.EventID); err != nil {
			c.logger.ErrorContext(ctx, "inbox forget failed", "err", err, "event_id", meta.EventID)
		}
		return
	}
	c.metrics.ObserveConsumed(meta.EventType, "processed")
}
