package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/minerva-salon/salonbook/libs/db"
	"github.com/minerva-salon/salonbook/libs/events"
	"github.com/minerva-salon/salonbook/libs/mailer"
	"github.com/minerva-salon/salonbook/libs/outbox"
)

// OutboxHandler writes the event to outbox_events; the outbox publisher relays it to Kafka and
// notification-service sends the emails.
type OutboxHandler struct {
	conn db.Querier
	repo *outbox.Repository
}

func NewOutboxHandler(conn db.Querier, repo *outbox.Repository) *OutboxHandler {
	return &OutboxHandler{conn: conn, repo: repo}
}

func (h *OutboxHandler) Handle(ctx context.Context, msg Message) error {
	evt, err := outbox.NewEvent(msg.AggregateType, msg.AggregateID, msg.EventType, msg.Payload)
	if err != nil {
		return err
	}
	if err := h.repo.Insert(ctx, h.conn, evt); err != nil {
		return fmt.Errorf("insert outbox event %s: %w", msg.EventType, err)
	}
	return nil
}

// MailHandler sends emails in process. Used when no database or Kafka is configured.
type MailHandler struct {
	sender     mailer.Sender
	brand      mailer.Branding
	salonEmail string
	logger     *slog.Logger
}

func NewMailHandler(sender mailer.Sender, brand mailer.Branding, salonEmail string, logger *slog.Logger) *MailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailHandler{sender: sender, brand: brand, salonEmail: salonEmail, logger: logger}
}

func (h *MailHandler) Handle(ctx context.Context, msg Message) error {
	payload := msg.Payload
	switch p := payload.(type) {
	case events.Appointment:
		payload = &p
	case events.Contact:
		payload = &p
	}

	msgs, err := mailer.Compose(h.brand, h.salonEmail, msg.EventType, payload)
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range msgs {
		if err := h.sender.Send(ctx, m); err != nil {
			errs = append(errs, fmt.Errorf("send %q to %s: %w", m.Subject, m.To, err))
			continue
		}
		h.logger.Info("email sent", "event_type", msg.EventType, "aggregate_id", msg.AggregateID, "to", m.To)
	}
	return errors.Join(errs...)
}
