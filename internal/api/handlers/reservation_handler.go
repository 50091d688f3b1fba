package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// ReservationService is the reservation API consumed by ReservationHandler
type ReservationService interface {
	CreateReservation(ctx context.Context, requester entities.Requester, in services.ReservationInput) (*services.ReservationView, error)
	GetReservation(ctx context.Context, requester entities.Requester, id string) (*services.ReservationView, error)
	UpdateReservation(ctx context.Context, requester entities.Requester, id string, patch services.ReservationPatch) (*services.ReservationView, error)
	DeleteReservation(ctx context.Context, requester entities.Requester, id string) error
	ListMyReservations(ctx context.Context, requester entities.Requester) (*services.BucketedReservations, error)
	ListCalendar(ctx context.Context, requester entities.Requester, from, to time.Time, siteID string) ([]*services.ReservationView, error)
	ExportICS(ctx context.Context, requester entities.Requester) ([]byte, error)
}

// ReservationHandler handles reservation requests
type ReservationHandler struct {
	reservations ReservationService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(reservations ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// ListMine handles GET /api/reservations
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.reservations.ListMyReservations(r.Context(), requester(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, buckets)
}

// CreateReservation handles POST /api/reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var in services.ReservationInput
	if !decodeJSON(w, r, &in) {
		return
	}

	view, err := h.reservations.CreateReservation(r.Context(), requester(r), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

// Calendar handles GET /api/reservations/calendar?from=&to=&site_id=
func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, err := parseTimeParam(query.Get("from"), "from")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	to, err := parseTimeParam(query.Get("to"), "to")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	views, err := h.reservations.ListCalendar(r.Context(), requester(r), from, to, query.Get("site_id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"from":         from.UTC(),
		"to":           to.UTC(),
		"reservations": views,
		"count":        len(views),
	})
}

// ExportICS handles GET /api/reservations/export.ics
func (h *ReservationHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	body, err := h.reservations.ExportICS(r.Context(), requester(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="reservations.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// GetReservation handles GET /api/reservations/{id}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	view, err := h.reservations.GetReservation(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// UpdateReservation handles PATCH /api/reservations/{id}
func (h *ReservationHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var patch services.ReservationPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	view, err := h.reservations.UpdateReservation(r.Context(), requester(r), r.PathValue("id"), patch)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

// DeleteReservation handles DELETE /api/reservations/{id}
func (h *ReservationHandler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.reservations.DeleteReservation(r.Context(), requester(r), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseTimeParam(raw, name string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(name + " is required")
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(name + " must be an RFC3339 timestamp")
	}
	return t, nil
}
