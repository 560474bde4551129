package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/minerva-salon/salonbook/libs/db"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/ledger"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

// BookingRepository is the Postgres appointment ledger.
//
// Reserve takes a transaction-scoped advisory lock on (service, date) before the overlap check so
// concurrent reservations for the same calendar queue up instead of racing. The
// appointments_no_overlap exclusion constraint still backs the check.
type BookingRepository struct {
	conn db.Conn
}

func NewBookingRepository(conn db.Conn) *BookingRepository {
	return &BookingRepository{conn: conn}
}

const appointmentColumns = `id::text, service_id::text, to_char(appointment_date, 'YYYY-MM-DD'), start_time, end_time,
	customer_first, customer_last, customer_phone, customer_email, COALESCE(notes, ''), status, source,
	created_at, cancelled_at, COALESCE(cancellation_reason, '')`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&a.ID,
		&a.ServiceID,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.Customer.FirstName,
		&a.Customer.LastName,
		&a.Customer.Phone,
		&a.Customer.Email,
		&a.Notes,
		&a.Status,
		&a.Source,
		&a.CreatedAt,
		&cancelledAt,
		&a.CancelReason,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	a.CancelledAt = cancelledAt
	return a, nil
}

func (r *BookingRepository) Occupied(ctx context.Context, serviceID, date string) ([]model.Interval, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT start_minute, end_minute
		FROM appointments
		WHERE service_id = $1
			AND appointment_date = $2::date
			AND status <> 'cancelled'
		ORDER BY start_minute ASC
	`, serviceID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []model.Interval
	for rows.Next() {
		var iv model.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *BookingRepository) Reserve(ctx context.Context, res ledger.Reservation) (model.Appointment, bool, error) {
	appt := res.Appointment
	want, err := ledger.IntervalOf(appt)
	if err != nil {
		return model.Appointment{}, false, err
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	var (
		out      model.Appointment
		replayed bool
	)
	err = db.InTx(ctx, r.conn, func(tx pgx.Tx) error {
		if res.IdempotencyKey != "" {
			existingID, err := r.lockIdempotencyKey(ctx, tx, res.IdempotencyKey)
			if err != nil {
				return fmt.Errorf("lock idempotency key: %w", err)
			}
			if existingID != "" {
				out, err = scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, existingID))
				if err != nil {
					return fmt.Errorf("load replayed appointment: %w", err)
				}
				replayed = true
				return nil
			}
		}

		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, appt.ServiceID+"|"+appt.Date); err != nil {
			return fmt.Errorf("lock calendar: %w", err)
		}

		var taken bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM appointments
				WHERE service_id = $1
					AND appointment_date = $2::date
					AND status <> 'cancelled'
					AND start_minute < $4
					AND $3 < end_minute
			)
		`, appt.ServiceID, appt.Date, want.Start, want.End).Scan(&taken); err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if taken {
			return ledger.ErrSlotTaken
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO appointments
				(id, service_id, appointment_date, start_time, end_time, start_minute, end_minute,
				 customer_first, customer_last, customer_phone, customer_email, notes, status, source)
			VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14)
			RETURNING created_at
		`, appt.ID, appt.ServiceID, appt.Date, appt.StartTime, appt.EndTime, want.Start, want.End,
			appt.Customer.FirstName, appt.Customer.LastName, appt.Customer.Phone, appt.Customer.Email,
			appt.Notes, appt.Status, appt.Source).Scan(&appt.CreatedAt); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}

		if res.IdempotencyKey != "" {
			if _, err := tx.Exec(ctx, `
				UPDATE booking_idempotency_keys
				SET appointment_id = $2, updated_at = now()
				WHERE idempotency_key = $1
			`, res.IdempotencyKey, appt.ID); err != nil {
				return fmt.Errorf("finalize idempotency key: %w", err)
			}
		}
		out = appt
		return nil
	})
	switch {
	case err == nil:
		return out, replayed, nil
	case errors.Is(err, ledger.ErrSlotTaken), IsConflict(err):
		return model.Appointment{}, false, ledger.ErrSlotTaken
	case IsRetryable(err):
		return model.Appointment{}, false, fmt.Errorf("%w: %v", ledger.ErrTransient, err)
	default:
		return model.Appointment{}, false, err
	}
}

// lockIdempotencyKey row-locks the key, creating it if needed, and returns the appointment it
// already points at, if any.
func (r *BookingRepository) lockIdempotencyKey(ctx context.Context, tx pgx.Tx, key string) (string, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (idempotency_key)
		VALUES ($1)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key); err != nil {
		return "", err
	}

	var appointmentID string
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(appointment_id::text, '')
		FROM booking_idempotency_keys
		WHERE idempotency_key = $1
		FOR UPDATE
	`, key).Scan(&appointmentID)
	return appointmentID, err
}

func (r *BookingRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	if !validUUID(id) {
		return model.Appointment{}, ledger.ErrNotFound
	}
	a, err := scanAppointment(r.conn.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) {
			return model.Appointment{}, ledger.ErrNotFound
		}
		return model.Appointment{}, fmt.Errorf("select appointment: %w", err)
	}
	return a, nil
}

func (r *BookingRepository) ByIdempotencyKey(ctx context.Context, key string) (model.Appointment, error) {
	a, err := scanAppointment(r.conn.QueryRow(ctx, `SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = (SELECT appointment_id FROM booking_idempotency_keys WHERE idempotency_key = $1)
	`, key))
	if err != nil {
		if IsNotFound(err) {
			return model.Appointment{}, ledger.ErrNotFound
		}
		return model.Appointment{}, fmt.Errorf("select appointment by idempotency key: %w", err)
	}
	return a, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, id, reason string) (model.Appointment, error) {
	if !validUUID(id) {
		return model.Appointment{}, ledger.ErrNotFound
	}
	a, err := scanAppointment(r.conn.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = NULLIF($2, '')
		WHERE id = $1 AND status <> 'cancelled'
		RETURNING `+appointmentColumns, id, reason))
	if err == nil {
		return a, nil
	}
	if !IsNotFound(err) {
		return model.Appointment{}, fmt.Errorf("cancel appointment: %w", err)
	}

	existing, getErr := r.Get(ctx, id)
	if getErr != nil {
		return model.Appointment{}, getErr
	}
	return existing, ledger.ErrAlreadyCancelled
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ ledger.Ledger = (*BookingRepository)(nil)
