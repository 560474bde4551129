package booking

import (
	"net/mail"
	"strings"

	"github.com/minerva-salon/salonbook/services/booking-service/internal/clock"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

const (
	minPhoneLength = 10
	maxNotesLength = 1000
	maxFieldLength = 100
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

// Request is a booking as submitted by a client.
type Request struct {
	Service        string
	Date           string
	Time           string
	Customer       model.Customer
	Notes          string
	Source         string
	IdempotencyKey string
}

func (r Request) normalized() Request {
	r.Service = strings.TrimSpace(r.Service)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Customer.FirstName = strings.TrimSpace(r.Customer.FirstName)
	r.Customer.LastName = strings.TrimSpace(r.Customer.LastName)
	r.Customer.Phone = strings.TrimSpace(r.Customer.Phone)
	r.Customer.Email = strings.TrimSpace(r.Customer.Email)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Source = strings.TrimSpace(r.Source)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
	if r.Source == "" {
		r.Source = model.DefaultSource
	}
	return r
}

// Validate checks the shape of a request without touching storage.
func Validate(r Request) error {
	r = r.normalized()
	verr := &ValidationError{}

	if r.Service == "" {
		verr.add("service", "Service is required")
	}
	if _, err := clock.ParseDate(r.Date, nil); err != nil {
		verr.add("date", "Invalid date format")
	}
	if _, err := clock.ToMinutes(r.Time); err != nil {
		verr.add("time", "Invalid time format")
	}
	if r.Customer.FirstName == "" {
		verr.add("customer.firstName", "First name is required")
	} else if len(r.Customer.FirstName) > maxFieldLength {
		verr.add("customer.firstName", "First name is too long")
	}
	if r.Customer.LastName == "" {
		verr.add("customer.lastName", "Last name is required")
	} else if len(r.Customer.LastName) > maxFieldLength {
		verr.add("customer.lastName", "Last name is too long")
	}
	if len(r.Customer.Phone) < minPhoneLength {
		verr.add("customer.phone", "Valid phone number is required")
	}
	if !ValidEmail(r.Customer.Email) {
		verr.add("customer.email", "Valid email is required")
	}
	if len(r.Notes) > maxNotesLength {
		verr.add("notes", "Notes are too long")
	}
	if len(r.Source) > maxFieldLength {
		verr.add("source", "Source is too long")
	}
	return verr.orNil()
}

// ValidEmail accepts a bare address such as "ada@example.com".
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
