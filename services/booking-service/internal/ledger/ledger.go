// Package ledger is the appointment ledger: the only place appointments are written.
package ledger

import (
	"context"
	"errors"

	"github.com/minerva-salon/salonbook/services/booking-service/internal/clock"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

var (
	ErrSlotTaken        = errors.New("this time slot is no longer available, please choose another time")
	ErrNotFound         = errors.New("appointment not found")
	ErrAlreadyCancelled = errors.New("appointment already cancelled")

	// ErrTransient marks an aborted reservation that is safe to retry.
	ErrTransient = errors.New("transient ledger failure")
)

// Reservation is a request to commit one appointment. A non-empty IdempotencyKey that was
// already committed replays the stored appointment.
type Reservation struct {
	Appointment    model.Appointment
	IdempotencyKey string
}

type Ledger interface {
	// Occupied lists the [start, end) minute intervals of pending and confirmed appointments.
	Occupied(ctx context.Context, serviceID, date string) ([]model.Interval, error)
	// Reserve checks for an overlapping appointment of the same service and date and inserts
	// the new one as a single atomic unit. It returns ErrSlotTaken on overlap.
	Reserve(ctx context.Context, r Reservation) (appt model.Appointment, replayed bool, err error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	// ByIdempotencyKey returns the appointment committed under key, or ErrNotFound.
	ByIdempotencyKey(ctx context.Context, key string) (model.Appointment, error)
	Cancel(ctx context.Context, id, reason string) (model.Appointment, error)
}

// IntervalOf converts an appointment's wall-clock times to minutes.
func IntervalOf(a model.Appointment) (model.Interval, error) {
	start, err := clock.ToMinutes(a.StartTime)
	if err != nil {
		return model.Interval{}, err
	}
	end, err := clock.ToMinutes(a.EndTime)
	if err != nil {
		return model.Interval{}, err
	}
	return model.Interval{Start: start, End: end}, nil
}
