// Package events holds the payloads exchanged between services over the outbox and Kafka.
// The Kafka topic of each event equals its type.
package events

import (
	"encoding/json"
	"fmt"
)

const (
	AppointmentConfirmed = "appointment.confirmed.v1"
	AppointmentCancelled = "appointment.cancelled.v1"
	ContactSubmitted     = "contact.submitted.v1"
	NotificationSent     = "notification.sent.v1"
	NotificationFailed   = "notification.failed.v1"
)

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// Appointment is the payload of appointment.confirmed.v1 and appointment.cancelled.v1.
type Appointment struct {
	AppointmentID   string   `json:"appointment_id"`
	ServiceSlug     string   `json:"service_slug"`
	ServiceName     string   `json:"service_name"`
	DurationMinutes int      `json:"duration_minutes"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	DisplayDate     string   `json:"display_date"`
	DisplayTime     string   `json:"display_time"`
	Customer        Customer `json:"customer"`
	Notes           string   `json:"notes,omitempty"`
	Source          string   `json:"source"`
	Status          string   `json:"status"`
	CancelReason    string   `json:"cancel_reason,omitempty"`
}

type Contact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

type NotificationResult struct {
	AggregateID string `json:"aggregate_id"`
	EventType   string `json:"event_type"`
	Channel     string `json:"channel"`
	Recipient   string `json:"recipient"`
	ProviderID  string `json:"provider_id,omitempty"`
	Error       string `json:"error_reason,omitempty"`
	At          string `json:"at"`
}

// Decode unmarshals raw into the payload type registered for eventType.
func Decode(eventType string, raw []byte) (any, error) {
	var v any
	switch eventType {
	case AppointmentConfirmed, AppointmentCancelled:
		v = &Appointment{}
	case ContactSubmitted:
		v = &Contact{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return v, nil
}
