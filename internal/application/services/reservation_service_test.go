package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type reservationFixture struct {
	svc          *services.ReservationService
	clock        *clock.Fixed
	reservations *mockReservationRepo
	resources    *mockResourceRepo
	teams        *mockTeamRepo
	bus          *mockEventBus
	calendar     *mockCalendar
}

func newReservationFixture() *reservationFixture {
	f := &reservationFixture{
		clock:        clock.NewFixed(testNow),
		reservations: &mockReservationRepo{},
		resources:    &mockResourceRepo{},
		teams:        &mockTeamRepo{},
		bus:          &mockEventBus{},
		calendar:     &mockCalendar{},
	}
	f.svc = services.NewReservationService(f.reservations, f.resources, f.teams, f.bus, f.calendar, f.clock, nil)
	return f
}

var roomLocation = &entities.ResourceLocation{
	ResourceID:   "room-1",
	ResourceName: "Harbor Room",
	SiteID:       "s1",
	SiteName:     "Mariner",
	TeamID:       "t1",
	TeamName:     "Ops",
}

// storedReservation is owned by alice with bob as participant
func storedReservation(start, end time.Time) *entities.Reservation {
	return &entities.Reservation{
		ID:           "res-1",
		Title:        "Planning",
		StartTime:    start,
		EndTime:      end,
		ResourceID:   "room-1",
		UserID:       alice.UserID,
		Participants: []string{bob.Email},
	}
}

func TestReservationService_CreateReservation(t *testing.T) {
	ctx := context.Background()
	start := testNow.Add(2 * time.Hour)
	end := start.Add(time.Hour)
	input := services.ReservationInput{
		Title:        " Planning ",
		ResourceID:   "room-1",
		StartTime:    start,
		EndTime:      end,
		Participants: []string{" Bob@Example.com", "bob@example.com", ""},
	}

	t.Run("books the resource and publishes an event", func(t *testing.T) {
		f := newReservationFixture()
		f.resources.On("GetLocation", ctx, "room-1").Return(roomLocation, nil)
		f.teams.On("GetMember", ctx, "t1", alice.UserID).Return(member("t1", alice.UserID, entities.RoleMember), nil)
		f.reservations.On("ListOverlapping", ctx, "room-1", start, end, "").Return([]*entities.Reservation{}, nil)
		f.reservations.On("Create", ctx, mock.MatchedBy(func(r *entities.Reservation) bool {
			return r.UserID == alice.UserID && r.Title == "Planning"
		})).Return(nil)
		f.bus.On("Publish", ctx, providers.EventChannelScheduleUpdates, mock.Anything).Return(nil)
		f.bus.On("Publish", ctx, providers.GetResourceChannel("room-1"), mock.MatchedBy(func(e *entities.ScheduleEvent) bool {
			return e.EventType == entities.ScheduleEventReservationCreated
		})).Return(nil)

		view, err := f.svc.CreateReservation(ctx, alice, input)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob@example.com"}, view.Participants)
		assert.Equal(t, "Harbor Room", view.Context.ResourceName)
		assert.Equal(t, entities.BucketFuture, view.Bucket)
		assert.Equal(t, entities.ReservationPermissions{CanView: true, CanEdit: true, CanDelete: true}, view.Permissions)
		f.reservations.AssertExpectations(t)
		f.bus.AssertExpectations(t)
	})

	t.Run("inverted interval is a validation error", func(t *testing.T) {
		f := newReservationFixture()
		bad := input
		bad.StartTime, bad.EndTime = end, start

		_, err := f.svc.CreateReservation(ctx, alice, bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		f.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("empty interval is a validation error", func(t *testing.T) {
		f := newReservationFixture()
		bad := input
		bad.EndTime = bad.StartTime

		_, err := f.svc.CreateReservation(ctx, alice, bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("invalid participant is a validation error", func(t *testing.T) {
		f := newReservationFixture()
		bad := input
		bad.Participants = []string{"not-an-email"}

		_, err := f.svc.CreateReservation(ctx, alice, bad)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("overlap is a conflict", func(t *testing.T) {
		f := newReservationFixture()
		f.resources.On("GetLocation", ctx, "room-1").Return(roomLocation, nil)
		f.teams.On("GetMember", ctx, "t1", alice.UserID).Return(member("t1", alice.UserID, entities.RoleMember), nil)
		f.reservations.On("ListOverlapping", ctx, "room-1", start, end, "").
			Return([]*entities.Reservation{storedReservation(start.Add(30*time.Minute), end.Add(time.Hour))}, nil)

		_, err := f.svc.CreateReservation(ctx, alice, input)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		f.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non member sees resource as missing", func(t *testing.T) {
		f := newReservationFixture()
		f.resources.On("GetLocation", ctx, "room-1").Return(roomLocation, nil)
		f.teams.On("GetMember", ctx, "t1", alice.UserID).Return(nil, apperrors.NewNotFoundError("not a member"))

		_, err := f.svc.CreateReservation(ctx, alice, input)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestReservationService_GetReservation(t *testing.T) {
	ctx := context.Background()
	stored := storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	t.Run("participant sees it read-only", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(stored, nil)

		view, err := f.svc.GetReservation(ctx, entities.Requester{UserID: "u-bob", Email: "BOB@example.com"}, "res-1")
		require.NoError(t, err)
		assert.Equal(t, entities.ReservationPermissions{CanView: true}, view.Permissions)
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(stored, nil)

		_, err := f.svc.GetReservation(ctx, entities.Requester{UserID: "u-eve", Email: "eve@example.com"}, "res-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestReservationService_UpdateReservation(t *testing.T) {
	ctx := context.Background()
	newTitle := "Renamed"

	t.Run("participant cannot edit", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour)), nil)

		_, err := f.svc.UpdateReservation(ctx, bob, "res-1", services.ReservationPatch{Title: &newTitle})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		f.reservations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("ended reservation cannot be edited", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow.Add(-2*time.Hour), testNow), nil)

		_, err := f.svc.UpdateReservation(ctx, alice, "res-1", services.ReservationPatch{Title: &newTitle})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		f.reservations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("owner edits an ongoing reservation", func(t *testing.T) {
		f := newReservationFixture()
		stored := storedReservation(testNow.Add(-30*time.Minute), testNow.Add(30*time.Minute))
		f.reservations.On("GetByID", ctx, "res-1").Return(stored, nil)
		f.reservations.On("Update", ctx, mock.MatchedBy(func(r *entities.Reservation) bool {
			return r.Title == "Renamed" && r.UpdatedAt.Equal(testNow)
		})).Return(nil)
		f.bus.On("Publish", ctx, mock.Anything, mock.Anything).Return(nil)

		view, err := f.svc.UpdateReservation(ctx, alice, "res-1", services.ReservationPatch{Title: &newTitle})
		require.NoError(t, err)
		assert.Equal(t, entities.BucketCurrent, view.Bucket)
		assert.True(t, view.Permissions.CanEdit)
		assert.False(t, view.Permissions.CanDelete)
		assert.Equal(t, "Planning", stored.Title, "stored reservation is not mutated")
		f.reservations.AssertNotCalled(t, "ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("moving the interval checks overlap excluding itself", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour)), nil)
		newEnd := testNow.Add(3 * time.Hour)
		f.reservations.On("ListOverlapping", ctx, "room-1", testNow.Add(time.Hour), newEnd, "res-1").
			Return([]*entities.Reservation{{ID: "res-2", StartTime: testNow.Add(150 * time.Minute), EndTime: testNow.Add(4 * time.Hour)}}, nil)

		_, err := f.svc.UpdateReservation(ctx, alice, "res-1", services.ReservationPatch{EndTime: &newEnd})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		f.reservations.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("patch producing an inverted interval is rejected", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour)), nil)
		newStart := testNow.Add(5 * time.Hour)

		_, err := f.svc.UpdateReservation(ctx, alice, "res-1", services.ReservationPatch{StartTime: &newStart})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestReservationService_DeleteReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("started reservation cannot be deleted", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow, testNow.Add(time.Hour)), nil)

		err := f.svc.DeleteReservation(ctx, alice, "res-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
		f.reservations.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("owner deletes a future reservation", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow.Add(time.Minute), testNow.Add(time.Hour)), nil)
		f.reservations.On("Delete", ctx, "res-1").Return(nil)
		f.bus.On("Publish", ctx, mock.Anything, mock.MatchedBy(func(e *entities.ScheduleEvent) bool {
			return e.EventType == entities.ScheduleEventReservationDeleted && e.ReservationID == "res-1"
		})).Return(nil).Twice()

		require.NoError(t, f.svc.DeleteReservation(ctx, alice, "res-1"))
		f.reservations.AssertExpectations(t)
		f.bus.AssertExpectations(t)
	})

	t.Run("participant cannot delete", func(t *testing.T) {
		f := newReservationFixture()
		f.reservations.On("GetByID", ctx, "res-1").Return(storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour)), nil)

		err := f.svc.DeleteReservation(ctx, bob, "res-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	})
}

func TestReservationService_ListMyReservations(t *testing.T) {
	ctx := context.Background()
	f := newReservationFixture()

	past := storedReservation(testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))
	past.ID = "past"
	endsNow := storedReservation(testNow.Add(-time.Hour), testNow)
	endsNow.ID = "ends-now"
	future := storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	future.ID = "future"
	foreign := &entities.Reservation{ID: "foreign", UserID: "u-eve", StartTime: testNow, EndTime: testNow.Add(time.Hour)}

	f.reservations.On("ListForRequester", ctx, alice, repositories.ReservationFilter{}).
		Return([]*entities.Reservation{past, endsNow, future, foreign}, nil)

	got, err := f.svc.ListMyReservations(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, testNow, got.Now)
	require.Len(t, got.Past, 1)
	require.Len(t, got.Current, 1)
	require.Len(t, got.Future, 1)
	assert.Equal(t, "past", got.Past[0].ID)
	assert.Equal(t, "ends-now", got.Current[0].ID)
	assert.Equal(t, "future", got.Future[0].ID)
	assert.False(t, got.Current[0].Permissions.CanEdit, "edit closes at end time")
}

func TestReservationService_ListCalendar(t *testing.T) {
	ctx := context.Background()
	from := testNow
	to := testNow.Add(7 * 24 * time.Hour)

	t.Run("passes the window to the repository", func(t *testing.T) {
		f := newReservationFixture()
		inside := storedReservation(from.Add(time.Hour), from.Add(2*time.Hour))
		f.reservations.On("ListForRequester", ctx, alice, mock.MatchedBy(func(filter repositories.ReservationFilter) bool {
			return filter.SiteID == "s1" && filter.From.Equal(from) && filter.To.Equal(to)
		})).Return([]*entities.Reservation{inside}, nil)

		views, err := f.svc.ListCalendar(ctx, alice, from, to, "s1")
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "res-1", views[0].ID)
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		f := newReservationFixture()
		_, err := f.svc.ListCalendar(ctx, alice, to, from, "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("window longer than the limit is rejected", func(t *testing.T) {
		f := newReservationFixture()
		_, err := f.svc.ListCalendar(ctx, alice, from, from.Add(400*24*time.Hour), "")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestReservationService_ExportICS(t *testing.T) {
	ctx := context.Background()
	f := newReservationFixture()
	mine := storedReservation(testNow.Add(time.Hour), testNow.Add(2*time.Hour))
	foreign := &entities.Reservation{ID: "foreign", UserID: "u-eve"}

	f.reservations.On("ListForRequester", ctx, alice, repositories.ReservationFilter{}).
		Return([]*entities.Reservation{mine, foreign}, nil)
	f.calendar.On("Encode", "My reservations", []*entities.Reservation{mine}).Return([]byte("BEGIN:VCALENDAR"), nil)

	out, err := f.svc.ExportICS(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(out))
	f.calendar.AssertExpectations(t)
}
