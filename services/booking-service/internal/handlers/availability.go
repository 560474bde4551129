package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/availability"
	"github.com/minerva-salon/salonbook/services/booking-service/internal/clock"
)

type availabilityResponse struct {
	Date     string              `json:"date"`
	Service  string              `json:"service"`
	Timezone string              `json:"timezone"`
	Slots    []availability.Slot `json:"slots"`
}

func (a *API) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	service := strings.TrimSpace(q.Get("service"))
	if date == "" || service == "" {
		a.metrics.ObserveAvailability("bad_request")
		httpx.WriteError(w, http.StatusBadRequest, "Missing required parameters: date and service")
		return
	}
	if _, err := clock.ParseDate(date, nil); err != nil {
		a.metrics.ObserveAvailability("bad_request")
		httpx.WriteError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	slots, err := a.calc.ComputeSlots(r.Context(), date, service, a.now())
	if err != nil {
		if errors.Is(err, availability.ErrServiceNotFound) {
			a.metrics.ObserveAvailability("service_not_found")
		} else {
			a.metrics.ObserveAvailability("error")
		}
		a.writeDomainError(r.Context(), w, err, "availability")
		return
	}
	a.metrics.ObserveAvailability("ok")
	httpx.WriteJSON(w, http.StatusOK, availabilityResponse{
		Date:     date,
		Service:  service,
		Timezone: a.calc.Location().String(),
		Slots:    slots,
	})
}

type serviceItem struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	Price           string `json:"price"`
}

func (a *API) Services(w http.ResponseWriter, r *http.Request) {
	services, err := a.store.ListActiveServices(r.Context())
	if err != nil {
		a.logger.ErrorContext(r.Context(), "list services failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to fetch services")
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceItem{
			ID:              s.ID,
			Slug:            s.Slug,
			Name:            s.Name,
			Description:     s.Description,
			DurationMinutes: s.DurationMinutes,
			Price:           s.Price,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": items})
}
