// Package notify hands post-commit events to background workers so booking responses never wait
// on email, Kafka or the outbox.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/minerva-salon/salonbook/services/booking-service/internal/metrics"
)

var (
	ErrQueueFull   = errors.New("notification queue full")
	ErrQueueClosed = errors.New("notification queue closed")
)

// Message is one event to dispatch.
type Message struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       any
}

type Handler interface {
	Handle(ctx context.Context, msg Message) error
}

type HandlerFunc func(ctx context.Context, msg Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg Message) error { return f(ctx, msg) }

type QueueConfig struct {
	Size           int
	Workers        int
	HandlerTimeout time.Duration
}

type job struct {
	ctx context.Context
	msg Message
}

// Queue is a bounded buffer drained by a fixed worker pool. Enqueue never blocks.
type Queue struct {
	handler Handler
	logger  *slog.Logger
	metrics *metrics.Metrics
	cfg     QueueConfig

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

func NewQueue(handler Handler, logger *slog.Logger, m *metrics.Metrics, cfg QueueConfig) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		handler: handler,
		logger:  logger,
		metrics: m,
		cfg:     cfg,
		jobs:    make(chan job, cfg.Size),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue schedules msg. The request context is detached so cancellation of the HTTP request
// does not cancel delivery; trace values are kept.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
		q.metrics.ObserveNotification(msg.EventType, "queued")
		q.metrics.SetQueueDepth(len(q.jobs))
		return nil
	default:
		q.metrics.ObserveNotification(msg.EventType, "dropped")
		return ErrQueueFull
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for j := range q.jobs {
		q.metrics.SetQueueDepth(len(q.jobs))
		q.run(j)
	}
}

func (q *Queue) run(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, q.cfg.HandlerTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			q.metrics.ObserveNotification(j.msg.EventType, "failed")
			q.logger.Error("notification handler panic", "event_type", j.msg.EventType, "aggregate_id", j.msg.AggregateID, "panic", rec)
		}
	}()

	if err := q.handler.Handle(ctx, j.msg); err != nil {
		q.metrics.ObserveNotification(j.msg.EventType, "failed")
		q.logger.Error("notification dispatch failed", "event_type", j.msg.EventType, "aggregate_id", j.msg.AggregateID, "err", err)
		return
	}
	q.metrics.ObserveNotification(j.msg.EventType, "dispatched")
}

// Close stops accepting messages and waits for queued ones until ctx expires.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
