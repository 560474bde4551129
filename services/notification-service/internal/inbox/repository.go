package inbox

import (
	"context"

	"github.com/minerva-salon/salonbook/libs/db"
)

// Repository records consumed event ids so Kafka redeliveries are processed once per consumer.
type Repository struct {
	conn     db.Querier
	consumer string
}

func NewRepository(conn db.Querier, consumer string) *Repository {
	return &Repository{conn: conn, consumer: consumer}
}

// Record returns false when eventID was already recorded for this consumer.
func (r *Repository) Record(ctx context.Context, eventID string, eventType string) (bool, error) {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO inbox_events (consumer, event_id, event_type)
		VALUES ($1, $2, $3)
	`, r.consumer, eventID, eventType)
	if err == nil {
		return true, nil
	}
	if db.HasCode(err, db.CodeUniqueViolation) {
		return false, nil
	}
	return false, err
}

// Forget removes eventID so a failed event can be redelivered and retried.
func (r *Repository) Forget(ctx context.Context, eventID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM inbox_events WHERE consumer = $1 AND event_id = $2`, r.consumer, eventID)
	return err
}
