package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/availability"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/booking"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/metrics"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/schedule"
)

// API serves the public booking endpoints and the admin cancel endpoint.
type API struct {
	calc       *availability.Calculator
	manager    *booking.Manager
	store      schedule.Store
	dispatcher booking.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

type Config struct {
	Calculator *availability.Calculator
	Manager    *booking.Manager
	Store      schedule.Store
	Dispatcher booking.Dispatcher
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

func NewAPI(cfg Config) *API {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &API{
		calc:       cfg.Calculator,
		manager:    cfg.Manager,
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
}

// Register mounts public routes on mux. admin wraps the admin routes, typically with JWT checks;
// when admin is nil the admin routes are not mounted.
func (a *API) Register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/availability", a.Availability)
	mux.HandleFunc("GET /api/services", a.Services)
	mux.HandleFunc("POST /api/appointments", a.CreateAppointment)
	mux.HandleFunc("GET /api/appointments/{id}", a.GetAppointment)
	mux.HandleFunc("POST /api/contact", a.Contact)
	if admin == nil {
		return
	}
	mux.Handle("POST /api/admin/appointments/{id}/cancel", admin(http.HandlerFunc(a.CancelAppointment)))
}

type validationBody struct {
	Error   string               `json:"error"`
	Details []booking.FieldError `json:"details"`
}

// writeDomainError maps booking errors to status codes. Unknown errors are logged and hidden.
func (a *API) writeDomainError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteJSON(w, http.StatusBadRequest, validationBody{Error: "Validation failed", Details: verr.Fields})
	case errors.Is(err, booking.ErrServiceNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Service not found")
	case errors.Is(err, booking.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, booking.ErrAlreadyCancelled):
		httpx.WriteError(w, http.StatusConflict, "Appointment already cancelled")
	case errors.Is(err, booking.ErrIdempotencyKeyReused):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different booking")
	case errors.Is(err, booking.ErrSlotTaken):
		httpx.WriteError(w, http.StatusConflict, booking.ErrSlotTaken.Error())
	default:
		a.logger.ErrorContext(ctx, op+" failed", "err", err, "request_id", httpx.RequestIDFromContext(ctx))
		httpx.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
