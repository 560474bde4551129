package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/minerva-salon/salonbook/libs/events"
	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/booking"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/notify"
)

type contactRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (c contactRequest) validate() []booking.FieldError {
	var errs []booking.FieldError
	if c.Name == "" {
		errs = append(errs, booking.FieldError{Field: "name", Message: "Name is required"})
	}
	if !booking.ValidEmail(c.Email) {
		errs = append(errs, booking.FieldError{Field: "email", Message: "Valid email is required"})
	}
	switch {
	case len(c.Phone) < 7:
		errs = append(errs, booking.FieldError{Field: "phone", Message: "Phone number must be at least 7 digits"})
	case len(c.Phone) > 13:
		errs = append(errs, booking.FieldError{Field: "phone", Message: "Phone number must be at most 13 digits"})
	case strings.Trim(c.Phone, "0123456789") != "":
		errs = append(errs, booking.FieldError{Field: "phone", Message: "Phone number can only contain digits"})
	}
	if c.Category == "" {
		errs = append(errs, booking.FieldError{Field: "category", Message: "Category is required"})
	}
	if len(c.Message) < 10 {
		errs = append(errs, booking.FieldError{Field: "message", Message: "Message must be at least 10 characters long"})
	}
	return errs
}

func (a *API) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, validationBody{
			Error:   "Validation failed",
			Details: []booking.FieldError{{Field: "body", Message: err.Error()}},
		})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Category = strings.TrimSpace(req.Category)
	req.Message = strings.TrimSpace(req.Message)

	if errs := req.validate(); len(errs) > 0 {
		httpx.WriteJSON(w, http.StatusBadRequest, validationBody{Error: "Validation failed", Details: errs})
		return
	}

	if a.dispatcher != nil {
		err := a.dispatcher.Enqueue(r.Context(), notify.Message{
			AggregateType: "contact",
			AggregateID:   uuid.NewString(),
			EventType:     events.ContactSubmitted,
			Payload: events.Contact{
				Name:     req.Name,
				Email:    req.Email,
				Phone:    req.Phone,
				Category: req.Category,
				Message:  req.Message,
			},
		})
		if err != nil {
			a.logger.ErrorContext(r.Context(), "contact dispatch failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to send message. Please try again later.")
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Thank you for reaching out. We'll respond shortly.",
	})
}
