package storage

import (
	"context"

	"github.com/minerva-salon/salonbook/libs/db"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Notification struct {
	AggregateID string
	EventType   string
	Channel     string
	Recipient   string
	Subject     string
	Status      string
	ErrorReason string
}

type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert writes n using q so it can share a transaction with the outbox event.
func (r *Repository) Insert(ctx context.Context, q db.Querier, n Notification) error {
	_, err := q.Exec(ctx, `
		INSERT INTO notifications (aggregate_id, event_type, channel, recipient, subject, status, error_reason)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, n.AggregateID, n.EventType, n.Channel, n.Recipient, n.Subject, n.Status, n.ErrorReason)
	return err
}
