package model

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"

	DefaultSource = "booking-page"
)

type Customer struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// Appointment holds wall-clock times ("HH:MM") on a calendar date in the business timezone.
// EndTime is fixed at creation and never recomputed from the service duration.
type Appointment struct {
	ID           string
	ServiceID    string
	Date         string
	StartTime    string
	EndTime      string
	Customer     Customer
	Notes        string
	Status       string
	Source       string
	CreatedAt    time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// Occupies reports whether the appointment blocks its interval.
func (a Appointment) Occupies() bool {
	return a.Status != StatusCancelled
}

// AppointmentDetails is an appointment joined with its service, as returned by lookups.
type AppointmentDetails struct {
	Appointment
	ServiceSlug     string
	ServiceName     string
	DurationMinutes int
}
