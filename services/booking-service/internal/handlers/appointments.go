package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/availability"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/booking"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/model"
)

type customerBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type createAppointmentRequest struct {
	Service  string       `json:"service"`
	Date     string       `json:"date"`
	Time     string       `json:"time"`
	Duration *int         `json:"duration,omitempty"` // accepted for compatibility, the service duration wins
	Customer customerBody `json:"customer"`
	Notes    string       `json:"notes,omitempty"`
	Source   string       `json:"source,omitempty"`
}

type createdAppointment struct {
	ID      string `json:"id"`
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

type createAppointmentResponse struct {
	Success     bool               `json:"success"`
	Appointment createdAppointment `json:"appointment"`
	Message     string             `json:"message"`
}

type slotTakenResponse struct {
	Error          string   `json:"error"`
	AvailableSlots []string `json:"availableSlots,omitempty"`
}

func (a *API) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, validationBody{
			Error:   "Validation failed",
			Details: []booking.FieldError{{Field: "body", Message: err.Error()}},
		})
		return
	}

	res, err := a.manager.Book(r.Context(), booking.Request{
		Service: req.Service,
		Date:    req.Date,
		Time:    req.Time,
		Customer: model.Customer{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Phone:     req.Customer.Phone,
			Email:     req.Customer.Email,
		},
		Notes:          req.Notes,
		Source:         req.Source,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		if errors.Is(err, booking.ErrSlotTaken) {
			a.writeSlotTaken(w, r, strings.TrimSpace(req.Date), strings.TrimSpace(req.Service))
			return
		}
		a.writeDomainError(r.Context(), w, err, "create appointment")
		return
	}

	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	appt := res.Appointment
	httpx.WriteJSON(w, http.StatusCreated, createAppointmentResponse{
		Success: true,
		Appointment: createdAppointment{
			ID:      appt.ID,
			Service: appt.ServiceName,
			Date:    appt.Date,
			Time:    appt.StartTime,
			Status:  appt.Status,
		},
		Message: "Appointment booked successfully! Check your email for confirmation.",
	})
}

// writeSlotTaken answers 409 with a freshly computed list of open start times.
func (a *API) writeSlotTaken(w http.ResponseWriter, r *http.Request, date, service string) {
	body := slotTakenResponse{Error: booking.ErrSlotTaken.Error()}
	slots, err := a.calc.ComputeSlots(r.Context(), date, service, a.now())
	if err != nil {
		a.logger.WarnContext(r.Context(), "refresh slots after conflict failed", "err", err)
	} else {
		body.AvailableSlots = availability.AvailableTimes(slots)
	}
	httpx.WriteJSON(w, http.StatusConflict, body)
}

type appointmentView struct {
	ID           string       `json:"id"`
	Service      string       `json:"service"`
	Date         string       `json:"date"`
	StartTime    string       `json:"startTime"`
	EndTime      string       `json:"endTime"`
	Customer     customerBody `json:"customer"`
	Notes        string       `json:"notes,omitempty"`
	Status       string       `json:"status"`
	Source       string       `json:"source"`
	CreatedAt    string       `json:"createdAt"`
	CancelledAt  string       `json:"cancelledAt,omitempty"`
	CancelReason string       `json:"cancelReason,omitempty"`
}

func viewOf(d model.AppointmentDetails) appointmentView {
	v := appointmentView{
		ID:        d.ID,
		Service:   d.ServiceName,
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Customer: customerBody{
			FirstName: d.Customer.FirstName,
			LastName:  d.Customer.LastName,
			Phone:     d.Customer.Phone,
			Email:     d.Customer.Email,
		},
		Notes:        d.Notes,
		Status:       d.Status,
		Source:       d.Source,
		CreatedAt:    d.CreatedAt.UTC().Format(time.RFC3339),
		CancelReason: d.CancelReason,
	}
	if d.CancelledAt != nil {
		v.CancelledAt = d.CancelledAt.UTC().Format(time.RFC3339)
	}
	return v
}

func (a *API) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := a.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeDomainError(r.Context(), w, err, "get appointment")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointment": viewOf(appt)})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (a *API) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	appt, err := a.manager.Cancel(r.Context(), r.PathValue("id"), strings.TrimSpace(req.Reason))
	if err != nil {
		a.writeDomainError(r.Context(), w, err, "cancel appointment")
		return
	}
	a.logger.InfoContext(r.Context(), "appointment cancelled", "appointment_id", appt.ID, "by", r.Header.Get("X-User-Id"))
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointment": viewOf(appt)})
}
