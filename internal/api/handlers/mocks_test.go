package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/nando-scheduler/backend/internal/api/middleware"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/stretchr/testify/mock"
)

var alice = entities.Requester{UserID: "u-alice", Email: "alice@example.com"}

func asAlice(r *http.Request) *http.Request {
	return r.WithContext(middleware.WithRequester(r.Context(), alice))
}

type mockTeamService struct {
	mock.Mock
}

func (m *mockTeamService) CreateTeam(ctx context.Context, requester entities.Requester, name, description string) (*entities.Team, error) {
	args := m.Called(ctx, requester, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Team), args.Error(1)
}

func (m *mockTeamService) ListTeams(ctx context.Context, requester entities.Requester) ([]*entities.TeamSummary, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TeamSummary), args.Error(1)
}

func (m *mockTeamService) GetTeam(ctx context.Context, requester entities.Requester, teamID string) (*entities.Team, error) {
	args := m.Called(ctx, requester, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Team), args.Error(1)
}

func (m *mockTeamService) UpdateTeam(ctx context.Context, requester entities.Requester, teamID, name, description string) (*entities.Team, error) {
	args := m.Called(ctx, requester, teamID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Team), args.Error(1)
}

func (m *mockTeamService) DeleteTeam(ctx context.Context, requester entities.Requester, teamID string) error {
	return m.Called(ctx, requester, teamID).Error(0)
}

func (m *mockTeamService) ListMembers(ctx context.Context, requester entities.Requester, teamID string) ([]*entities.TeamMember, error) {
	args := m.Called(ctx, requester, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.TeamMember), args.Error(1)
}

func (m *mockTeamService) AddMember(ctx context.Context, requester entities.Requester, teamID, email, role string) (*entities.TeamMember, error) {
	args := m.Called(ctx, requester, teamID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TeamMember), args.Error(1)
}

func (m *mockTeamService) UpdateMemberRole(ctx context.Context, requester entities.Requester, teamID, userID, role string) error {
	return m.Called(ctx, requester, teamID, userID, role).Error(0)
}

func (m *mockTeamService) RemoveMember(ctx context.Context, requester entities.Requester, teamID, userID string) error {
	return m.Called(ctx, requester, teamID, userID).Error(0)
}

func (m *mockTeamService) LeaveTeam(ctx context.Context, requester entities.Requester, teamID string) error {
	return m.Called(ctx, requester, teamID).Error(0)
}

type mockReservationService struct {
	mock.Mock
}

func (m *mockReservationService) CreateReservation(ctx context.Context, requester entities.Requester, in services.ReservationInput) (*services.ReservationView, error) {
	args := m.Called(ctx, requester, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReservationView), args.Error(1)
}

func (m *mockReservationService) GetReservation(ctx context.Context, requester entities.Requester, id string) (*services.ReservationView, error) {
	args := m.Called(ctx, requester, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReservationView), args.Error(1)
}

func (m *mockReservationService) UpdateReservation(ctx context.Context, requester entities.Requester, id string, patch services.ReservationPatch) (*services.ReservationView, error) {
	args := m.Called(ctx, requester, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReservationView), args.Error(1)
}

func (m *mockReservationService) DeleteReservation(ctx context.Context, requester entities.Requester, id string) error {
	return m.Called(ctx, requester, id).Error(0)
}

func (m *mockReservationService) ListMyReservations(ctx context.Context, requester entities.Requester) (*services.BucketedReservations, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BucketedReservations), args.Error(1)
}

func (m *mockReservationService) ListCalendar(ctx context.Context, requester entities.Requester, from, to time.Time, siteID string) ([]*services.ReservationView, error) {
	args := m.Called(ctx, requester, from, to, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.ReservationView), args.Error(1)
}

func (m *mockReservationService) ExportICS(ctx context.Context, requester entities.Requester) ([]byte, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockResourceService struct {
	mock.Mock
}

func (m *mockResourceService) CreateResource(ctx context.Context, requester entities.Requester, siteID string, in services.ResourceInput) (*entities.Resource, error) {
	args := m.Called(ctx, requester, siteID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Resource), args.Error(1)
}

func (m *mockResourceService) ListSiteResources(ctx context.Context, requester entities.Requester, siteID string) ([]*entities.Resource, error) {
	args := m.Called(ctx, requester, siteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Resource), args.Error(1)
}

func (m *mockResourceService) GetResource(ctx context.Context, requester entities.Requester, resourceID string) (*entities.Resource, error) {
	args := m.Called(ctx, requester, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Resource), args.Error(1)
}

func (m *mockResourceService) UpdateResource(ctx context.Context, requester entities.Requester, resourceID string, in services.ResourceInput) (*entities.Resource, error) {
	args := m.Called(ctx, requester, resourceID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Resource), args.Error(1)
}

func (m *mockResourceService) DeleteResource(ctx context.Context, requester entities.Requester, resourceID string) error {
	return m.Called(ctx, requester, resourceID).Error(0)
}

func (m *mockResourceService) ListAmenities(ctx context.Context, requester entities.Requester) ([]*entities.Amenity, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Amenity), args.Error(1)
}

func (m *mockResourceService) ListResourceAmenities(ctx context.Context, requester entities.Requester, resourceID string) ([]*entities.ResourceAmenity, error) {
	args := m.Called(ctx, requester, resourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ResourceAmenity), args.Error(1)
}

func (m *mockResourceService) AddResourceAmenity(ctx context.Context, requester entities.Requester, resourceID, amenityID, nameOverride string) (*entities.ResourceAmenity, error) {
	args := m.Called(ctx, requester, resourceID, amenityID, nameOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ResourceAmenity), args.Error(1)
}

func (m *mockResourceService) RemoveResourceAmenity(ctx context.Context, requester entities.Requester, resourceID, amenityID string) error {
	return m.Called(ctx, requester, resourceID, amenityID).Error(0)
}

func (m *mockResourceService) SearchResources(ctx context.Context, requester entities.Requester, query string, limit, offset int) ([]*entities.ResourceSearchDocument, error) {
	args := m.Called(ctx, requester, query, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ResourceSearchDocument), args.Error(1)
}

// fakeEventBus delivers published events to in-process subscribers
type fakeEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.ScheduleEvent
	subscribed  chan string
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{
		subscribers: make(map[string][]chan *entities.ScheduleEvent),
		subscribed:  make(chan string, 10),
	}
}

func (b *fakeEventBus) Publish(_ context.Context, channel string, event *entities.ScheduleEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *fakeEventBus) Subscribe(_ context.Context, channel string) (<-chan *entities.ScheduleEvent, error) {
	b.mu.Lock()
	ch := make(chan *entities.ScheduleEvent, 10)
	b.subscribers[channel] = append(b.subscribers[channel], ch)
	b.mu.Unlock()
	b.subscribed <- channel
	return ch, nil
}

func (b *fakeEventBus) Unsubscribe(_ context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, channel)
	return nil
}

func (b *fakeEventBus) Close() error { return nil }
