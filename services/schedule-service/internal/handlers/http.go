package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/minerva-salon/salonbook/libs/httpx"
	"github.com/minerva-salon/salonbook/services/schedule-service/internal/storage"
)

// Store is the schedule persistence the admin API edits. *storage.Repository implements it.
type Store interface {
	ListServices(ctx context.Context) ([]storage.Service, error)
	CreateService(ctx context.Context, s storage.Service) (storage.Service, error)
	UpdateService(ctx context.Context, id string, p storage.ServicePatch) (storage.Service, error)
	ListWorkingHours(ctx context.Context) ([]storage.WorkingHours, error)
	UpsertWorkingHours(ctx context.Context, wh storage.WorkingHours) error
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	pricePattern = regexp.MustCompile(`^[0-9]{1,8}(\.[0-9]{1,2})?$`)
)

type Handler struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	if wrap == nil {
		wrap = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("GET /api/admin/services", wrap(http.HandlerFunc(h.ListServices)))
	mux.Handle("POST /api/admin/services", wrap(http.HandlerFunc(h.CreateService)))
	mux.Handle("PATCH /api/admin/services/{id}", wrap(http.HandlerFunc(h.UpdateService)))
	mux.Handle("GET /api/admin/working-hours", wrap(http.HandlerFunc(h.ListWorkingHours)))
	mux.Handle("PUT /api/admin/working-hours/{weekday}", wrap(http.HandlerFunc(h.UpsertWorkingHours)))
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
	httpx.WriteError(w, http.StatusInternalServerError, msg)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to list services", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}

type createServiceRequest struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
	Active          *bool  `json:"active"`
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req createServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Slug = strings.ToLower(strings.TrimSpace(req.Slug))
	req.Name = strings.TrimSpace(req.Name)
	req.Price = strings.TrimSpace(req.Price)
	if req.Price == "" {
		req.Price = "0"
	}
	switch {
	case !slugPattern.MatchString(req.Slug):
		httpx.WriteError(w, http.StatusBadRequest, "slug must be lowercase letters, digits and dashes")
		return
	case req.Name == "":
		httpx.WriteError(w, http.StatusBadRequest, "name is required")
		return
	case req.DurationMinutes <= 0 || req.DurationMinutes > 24*60:
		httpx.WriteError(w, http.StatusBadRequest, "durationMinutes must be between 1 and 1440")
		return
	case !pricePattern.MatchString(req.Price):
		httpx.WriteError(w, http.StatusBadRequest, "price must be a decimal amount")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	svc, err := h.store.CreateService(r.Context(), storage.Service{
		Slug:            req.Slug,
		Name:            req.Name,
		Description:     strings.TrimSpace(req.Description),
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		Active:          active,
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateSlug) {
			httpx.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		h.internalError(w, r, "failed to create service", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, svc)
}

type updateServiceRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Price           *string `json:"price"`
	DurationMinutes *int    `json:"durationMinutes"`
	Active          *bool   `json:"active"`
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req updateServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if req.DurationMinutes != nil && (*req.DurationMinutes <= 0 || *req.DurationMinutes > 24*60) {
		httpx.WriteError(w, http.StatusBadRequest, "durationMinutes must be between 1 and 1440")
		return
	}
	if req.Price != nil && !pricePattern.MatchString(strings.TrimSpace(*req.Price)) {
		httpx.WriteError(w, http.StatusBadRequest, "price must be a decimal amount")
		return
	}

	svc, err := h.store.UpdateService(r.Context(), r.PathValue("id"), storage.ServicePatch{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		Active:          req.Active,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "service not found")
			return
		}
		h.internalError(w, r, "failed to update service", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, svc)
}

func (h *Handler) ListWorkingHours(w http.ResponseWriter, r *http.Request) {
	hours, err := h.store.ListWorkingHours(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to list working hours", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"workingHours": hours})
}

type workingHoursRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Active    bool   `json:"active"`
}

func (h *Handler) UpsertWorkingHours(w http.ResponseWriter, r *http.Request) {
	weekday, err := strconv.Atoi(r.PathValue("weekday"))
	if err != nil || weekday < 0 || weekday > 6 {
		httpx.WriteError(w, http.StatusBadRequest, "weekday must be between 0 and 6")
		return
	}
	var req workingHoursRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.EndTime = strings.TrimSpace(req.EndTime)
	if !clockPattern.MatchString(req.StartTime) || !clockPattern.MatchString(req.EndTime) {
		httpx.WriteError(w, http.StatusBadRequest, "startTime and endTime must be HH:MM")
		return
	}
	// HH:MM strings compare in clock order.
	if req.StartTime >= req.EndTime {
		httpx.WriteError(w, http.StatusBadRequest, "startTime must be before endTime")
		return
	}

	wh := storage.WorkingHours{Weekday: weekday, StartTime: req.StartTime, EndTime: req.EndTime, Active: req.Active}
	if err := h.store.UpsertWorkingHours(r.Context(), wh); err != nil {
		h.internalError(w, r, "failed to upsert working hours", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, wh)
}
