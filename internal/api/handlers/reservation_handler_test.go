package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nando-scheduler/backend/internal/api/handlers"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	nineAM = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	tenAM  = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
)

func standupView() *services.ReservationView {
	return &services.ReservationView{
		Reservation: &entities.Reservation{
			ID:           "res-1",
			Title:        "Standup",
			ResourceID:   "room-1",
			UserID:       "u-alice",
			StartTime:    nineAM,
			EndTime:      tenAM,
			Participants: []string{"bob@example.com"},
		},
		Bucket:      entities.BucketFuture,
		Permissions: entities.ReservationPermissions{CanEdit: true, CanDelete: true},
	}
}

func TestReservationHandler_Create(t *testing.T) {
	body := `{"title":"Standup","resource_id":"room-1","start_time":"2024-03-04T09:00:00Z","end_time":"2024-03-04T10:00:00Z","participants":["bob@example.com"]}`
	input := services.ReservationInput{
		Title:        "Standup",
		ResourceID:   "room-1",
		StartTime:    nineAM,
		EndTime:      tenAM,
		Participants: []string{"bob@example.com"},
	}

	t.Run("created", func(t *testing.T) {
		svc := new(mockReservationService)
		svc.On("CreateReservation", mock.Anything, alice, input).Return(standupView(), nil)

		req := asAlice(httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(body)))
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).CreateReservation(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "res-1", resp["id"])
		assert.Equal(t, "future", resp["bucket"])
		assert.Equal(t, "2024-03-04T09:00:00Z", resp["start_time"])
		svc.AssertExpectations(t)
	})

	t.Run("overlap maps to 409", func(t *testing.T) {
		svc := new(mockReservationService)
		svc.On("CreateReservation", mock.Anything, alice, input).
			Return(nil, apperrors.NewConflictError("resource is already reserved for that time"))

		req := asAlice(httptest.NewRequest(http.MethodPost, "/api/reservations", strings.NewReader(body)))
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).CreateReservation(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestReservationHandler_Get_Invisible(t *testing.T) {
	svc := new(mockReservationService)
	svc.On("GetReservation", mock.Anything, alice, "res-9").
		Return(nil, apperrors.NewNotFoundError("reservation not found"))

	req := asAlice(httptest.NewRequest(http.MethodGet, "/api/reservations/res-9", nil))
	req.SetPathValue("id", "res-9")
	w := httptest.NewRecorder()
	handlers.NewReservationHandler(svc).GetReservation(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"reservation not found"}`, w.Body.String())
}

func TestReservationHandler_Update(t *testing.T) {
	t.Run("partial patch", func(t *testing.T) {
		title := "Retro"
		svc := new(mockReservationService)
		svc.On("UpdateReservation", mock.Anything, alice, "res-1", mock.MatchedBy(func(p services.ReservationPatch) bool {
			return p.Title != nil && *p.Title == title && p.StartTime == nil && p.Participants == nil
		})).Return(standupView(), nil)

		req := asAlice(httptest.NewRequest(http.MethodPatch, "/api/reservations/res-1", strings.NewReader(`{"title":"Retro"}`)))
		req.SetPathValue("id", "res-1")
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).UpdateReservation(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("gate refusal maps to 403", func(t *testing.T) {
		svc := new(mockReservationService)
		svc.On("UpdateReservation", mock.Anything, alice, "res-1", mock.Anything).
			Return(nil, apperrors.NewForbiddenError("past reservations cannot be edited"))

		req := asAlice(httptest.NewRequest(http.MethodPatch, "/api/reservations/res-1", strings.NewReader(`{"title":"Retro"}`)))
		req.SetPathValue("id", "res-1")
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).UpdateReservation(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"past reservations cannot be edited"}`, w.Body.String())
	})
}

func TestReservationHandler_Delete(t *testing.T) {
	svc := new(mockReservationService)
	svc.On("DeleteReservation", mock.Anything, alice, "res-1").Return(nil)

	req := asAlice(httptest.NewRequest(http.MethodDelete, "/api/reservations/res-1", nil))
	req.SetPathValue("id", "res-1")
	w := httptest.NewRecorder()
	handlers.NewReservationHandler(svc).DeleteReservation(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestReservationHandler_ListMine(t *testing.T) {
	svc := new(mockReservationService)
	svc.On("ListMyReservations", mock.Anything, alice).Return(&services.BucketedReservations{
		Now:     nineAM,
		Past:    []*services.ReservationView{},
		Current: []*services.ReservationView{standupView()},
		Future:  []*services.ReservationView{},
	}, nil)

	req := asAlice(httptest.NewRequest(http.MethodGet, "/api/reservations", nil))
	w := httptest.NewRecorder()
	handlers.NewReservationHandler(svc).ListMine(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Past    []json.RawMessage `json:"past"`
		Current []json.RawMessage `json:"current"`
		Future  []json.RawMessage `json:"future"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Past, 0)
	assert.Len(t, resp.Current, 1)
	assert.Len(t, resp.Future, 0)
}

func TestReservationHandler_Calendar(t *testing.T) {
	t.Run("parses range and site", func(t *testing.T) {
		svc := new(mockReservationService)
		svc.On("ListCalendar", mock.Anything, alice,
			mock.MatchedBy(func(from time.Time) bool { return from.Equal(nineAM) }),
			mock.MatchedBy(func(to time.Time) bool { return to.Equal(tenAM) }),
			"s1",
		).Return([]*services.ReservationView{standupView()}, nil)

		req := asAlice(httptest.NewRequest(http.MethodGet,
			"/api/reservations/calendar?from=2024-03-04T10:00:00%2B01:00&to=2024-03-04T10:00:00Z&site_id=s1", nil))
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).Calendar(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, float64(1), resp["count"])
		assert.Equal(t, "2024-03-04T09:00:00Z", resp["from"])
		svc.AssertExpectations(t)
	})

	t.Run("missing from", func(t *testing.T) {
		svc := new(mockReservationService)

		req := asAlice(httptest.NewRequest(http.MethodGet, "/api/reservations/calendar?to=2024-03-04T10:00:00Z", nil))
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).Calendar(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"from is required"}`, w.Body.String())
	})

	t.Run("malformed to", func(t *testing.T) {
		svc := new(mockReservationService)

		req := asAlice(httptest.NewRequest(http.MethodGet, "/api/reservations/calendar?from=2024-03-04T09:00:00Z&to=tomorrow", nil))
		w := httptest.NewRecorder()
		handlers.NewReservationHandler(svc).Calendar(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReservationHandler_ExportICS(t *testing.T) {
	svc := new(mockReservationService)
	svc.On("ExportICS", mock.Anything, alice).Return([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"), nil)

	req := asAlice(httptest.NewRequest(http.MethodGet, "/api/reservations/export.ics", nil))
	w := httptest.NewRecorder()
	handlers.NewReservationHandler(svc).ExportICS(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "reservations.ics")
	assert.True(t, strings.HasPrefix(w.Body.String(), "BEGIN:VCALENDAR"))
}
