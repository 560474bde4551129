// Package processor turns booking events into customer and salon notifications.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/minerva-salon/salonbook/libs/db"
	"github.com/minerva-salon/salonbook/libs/events"
	"github.com/minerva-salon/salonbook/libs/kafkax"
	"github.com/minerva-salon/salonbook/libs/mailer"
	"github.com/minerva-salon/salonbook/libs/outbox"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/metrics"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/sms"
	"github.com/minerva-salon/salonbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"golang.org/x/time/rate"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type Config struct {
	Brand         mailer.Branding
	SalonEmail    string
	EmailProvider string
	// SendsPerSecond throttles provider calls. Zero means unlimited.
	SendsPerSecond float64
	Burst          int
	// FailSuffix marks recipients whose sends fail on purpose, for end-to-end tests.
	FailSuffix string
}

type Processor struct {
	conn          db.Conn
	notifications *storage.Repository
	outbox        *outbox.Repository
	email         mailer.Sender
	sms           sms.Sender
	limiter       *rate.Limiter
	cfg           Config
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
}

// New builds a processor. smsSender may be nil to disable SMS confirmations.
func New(conn db.Conn, email mailer.Sender, smsSender sms.Sender, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.SendsPerSecond > 0 {
		limit = rate.Limit(cfg.SendsPerSecond)
	}
	if cfg.EmailProvider == "" {
		cfg.EmailProvider = "email"
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Processor{
		conn:          conn,
		notifications: storage.NewRepository(),
		outbox:        outbox.NewRepository(),
		email:         email,
		sms:           smsSender,
		limiter:       rate.NewLimiter(limit, cfg.Burst),
		cfg:           cfg,
		metrics:       m,
		logger:        logger,
		now:           time.Now,
	}
}

type result struct {
	channel   string
	recipient string
	subject   string
	provider  string
	err       error
}

// Handle sends every notification msg implies and records each outcome along with a
// notification.sent.v1 or notification.failed.v1 outbox event. Undecodable events are dropped.
func (p *Processor) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	payload, err := events.Decode(meta.EventType, msg.Value)
	if err != nil {
		p.logger.ErrorContext(ctx, "dropping undecodable event", "err", err, "event_id", meta.EventID)
		return nil
	}
	emails, err := mailer.Compose(p.cfg.Brand, p.cfg.SalonEmail, meta.EventType, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "dropping event without template", "err", err, "event_type", meta.EventType)
		return nil
	}

	aggregateID := string(msg.Key)
	var results []result
	for _, m := range emails {
		results = append(results, p.sendEmail(ctx, m))
	}

	if appt, ok := payload.(*events.Appointment); ok {
		aggregateID = appt.AppointmentID
		if meta.EventType == events.AppointmentConfirmed && p.sms != nil && appt.Customer.Phone != "" {
			results = append(results, p.sendSMS(ctx, appt))
		}
	}

	if err := p.record(ctx, aggregateID, meta.EventType, results); err != nil {
		return fmt.Errorf("record notifications: %w", err)
	}
	return nil
}

func (p *Processor) simulatedFailure(recipient string) bool {
	return p.cfg.FailSuffix != "" && strings.HasSuffix(recipient, p.cfg.FailSuffix)
}

func (p *Processor) sendEmail(ctx context.Context, m mailer.Message) result {
	r := result{channel: ChannelEmail, recipient: m.To, subject: m.Subject, provider: p.cfg.EmailProvider}
	switch {
	case p.simulatedFailure(m.To):
		r.err = fmt.Errorf("simulated failure")
	default:
		if r.err = p.limiter.Wait(ctx); r.err == nil {
			r.err = p.email.Send(ctx, m)
		}
	}
	p.observe(ctx, r)
	return r
}

func (p *Processor) sendSMS(ctx context.Context, a *events.Appointment) result {
	b := mailer.BookingFromEvent(*a)
	salon := p.cfg.Brand.SalonName
	if salon == "" {
		salon = "MINERVA"
	}
	body := sms.ConfirmationText(salon, b.Service, b.Date, b.Time, mailer.ReferenceCode(b.AppointmentID))

	r := result{channel: ChannelSMS, recipient: a.Customer.Phone, provider: p.sms.ProviderID()}
	switch {
	case p.simulatedFailure(a.Customer.Phone):
		r.err = fmt.Errorf("simulated failure")
	default:
		if r.err = p.limiter.Wait(ctx); r.err == nil {
			r.err = p.sms.Send(ctx, a.Customer.Phone, body)
		}
	}
	p.observe(ctx, r)
	return r
}

func (p *Processor) observe(ctx context.Context, r result) {
	if r.err != nil {
		p.metrics.ObserveSend(r.channel, storage.StatusFailed)
		p.logger.ErrorContext(ctx, "notification send failed", "channel", r.channel, "recipient", r.recipient, "err", r.err)
		return
	}
	p.metrics.ObserveSend(r.channel, storage.StatusSent)
	p.logger.InfoContext(ctx, "notification sent", "channel", r.channel, "recipient", r.recipient)
}

func (p *Processor) record(ctx context.Context, aggregateID, eventType string, results []result) error {
	if len(results) == 0 {
		return nil
	}
	at := p.now().UTC().Format(time.RFC3339)
	return db.InTx(ctx, p.conn, func(tx pgx.Tx) error {
		for _, r := range results {
			n := storage.Notification{
				AggregateID: aggregateID,
				EventType:   eventType,
				Channel:     r.channel,
				Recipient:   r.recipient,
				Subject:     r.subject,
				Status:      storage.StatusSent,
			}
			outcome := events.NotificationSent
			res := events.NotificationResult{
				AggregateID: aggregateID,
				EventType:   eventType,
				Channel:     r.channel,
				Recipient:   r.recipient,
				ProviderID:  r.provider,
				At:          at,
			}
			if r.err != nil {
				n.Status = storage.StatusFailed
				n.ErrorReason = r.err.Error()
				outcome = events.NotificationFailed
				res.Error = r.err.Error()
			}
			if err := p.notifications.Insert(ctx, tx, n); err != nil {
				return err
			}
			evt, err := outbox.NewEvent("notification", aggregateID, outcome, res)
			if err != nil {
				return err
			}
			if err := p.outbox.Insert(ctx, tx, evt); err != nil {
				return err
			}
		}
		return nil
	})
}
