package services_test

import (
	"context"
	"time"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/stretchr/testify/mock"
)

type mockTeamRepo struct{ mock.Mock }

func (m *mockTeamRepo) CreateWithOwner(ctx context.Context, team *entities.Team, owner *entities.TeamMember) error {
	return m.Called(ctx, team, owner).Error(0)
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id string) (*entities.Team, error) {
	args := m.Called(ctx, id)
	team, _ := args.Get(0).(*entities.Team)
	return team, args.Error(1)
}

func (m *mockTeamRepo) Update(ctx context.Context, team *entities.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *mockTeamRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTeamRepo) ListForUser(ctx context.Context, userID string) ([]*entities.TeamSummary, error) {
	args := m.Called(ctx, userID)
	teams, _ := args.Get(0).([]*entities.TeamSummary)
	return teams, args.Error(1)
}

func (m *mockTeamRepo) GetMember(ctx context.Context, teamID, userID string) (*entities.TeamMember, error) {
	args := m.Called(ctx, teamID, userID)
	member, _ := args.Get(0).(*entities.TeamMember)
	return member, args.Error(1)
}

func (m *mockTeamRepo) ListMembers(ctx context.Context, teamID string) ([]*entities.TeamMember, error) {
	args := m.Called(ctx, teamID)
	members, _ := args.Get(0).([]*entities.TeamMember)
	return members, args.Error(1)
}

func (m *mockTeamRepo) AddMember(ctx context.Context, member *entities.TeamMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockTeamRepo) UpdateMemberRole(ctx context.Context, teamID, userID string, role entities.Role) error {
	return m.Called(ctx, teamID, userID, role).Error(0)
}

func (m *mockTeamRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	return m.Called(ctx, teamID, userID).Error(0)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Upsert(ctx context.Context, user *entities.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*entities.User)
	return user, args.Error(1)
}

type mockSiteRepo struct{ mock.Mock }

func (m *mockSiteRepo) Create(ctx context.Context, site *entities.Site) error {
	return m.Called(ctx, site).Error(0)
}

func (m *mockSiteRepo) GetByID(ctx context.Context, id string) (*entities.Site, error) {
	args := m.Called(ctx, id)
	site, _ := args.Get(0).(*entities.Site)
	return site, args.Error(1)
}

func (m *mockSiteRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Site, error) {
	args := m.Called(ctx, ids)
	sites, _ := args.Get(0).([]*entities.Site)
	return sites, args.Error(1)
}

func (m *mockSiteRepo) Update(ctx context.Context, site *entities.Site) error {
	return m.Called(ctx, site).Error(0)
}

func (m *mockSiteRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSiteRepo) ListByTeam(ctx context.Context, teamID string) ([]*entities.SiteSummary, error) {
	args := m.Called(ctx, teamID)
	sites, _ := args.Get(0).([]*entities.SiteSummary)
	return sites, args.Error(1)
}

func (m *mockSiteRepo) ListForUser(ctx context.Context, userID string) ([]*entities.SiteSummary, error) {
	args := m.Called(ctx, userID)
	sites, _ := args.Get(0).([]*entities.SiteSummary)
	return sites, args.Error(1)
}

func (m *mockSiteRepo) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockResourceRepo struct{ mock.Mock }

func (m *mockResourceRepo) Create(ctx context.Context, resource *entities.Resource) error {
	return m.Called(ctx, resource).Error(0)
}

func (m *mockResourceRepo) GetByID(ctx context.Context, id string) (*entities.Resource, error) {
	args := m.Called(ctx, id)
	resource, _ := args.Get(0).(*entities.Resource)
	return resource, args.Error(1)
}

func (m *mockResourceRepo) Update(ctx context.Context, resource *entities.Resource) error {
	return m.Called(ctx, resource).Error(0)
}

func (m *mockResourceRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockResourceRepo) ListBySite(ctx context.Context, siteID string) ([]*entities.Resource, error) {
	args := m.Called(ctx, siteID)
	resources, _ := args.Get(0).([]*entities.Resource)
	return resources, args.Error(1)
}

func (m *mockResourceRepo) ListBySites(ctx context.Context, siteIDs []string) ([]*entities.Resource, error) {
	args := m.Called(ctx, siteIDs)
	resources, _ := args.Get(0).([]*entities.Resource)
	return resources, args.Error(1)
}

func (m *mockResourceRepo) GetLocation(ctx context.Context, resourceID string) (*entities.ResourceLocation, error) {
	args := m.Called(ctx, resourceID)
	loc, _ := args.Get(0).(*entities.ResourceLocation)
	return loc, args.Error(1)
}

func (m *mockResourceRepo) ListSearchDocuments(ctx context.Context, scope repositories.SearchDocumentScope) ([]*entities.ResourceSearchDocument, error) {
	args := m.Called(ctx, scope)
	docs, _ := args.Get(0).([]*entities.ResourceSearchDocument)
	return docs, args.Error(1)
}

type mockAmenityRepo struct{ mock.Mock }

func (m *mockAmenityRepo) ListCatalog(ctx context.Context) ([]*entities.Amenity, error) {
	args := m.Called(ctx)
	amenities, _ := args.Get(0).([]*entities.Amenity)
	return amenities, args.Error(1)
}

func (m *mockAmenityRepo) GetCatalogEntry(ctx context.Context, id string) (*entities.Amenity, error) {
	args := m.Called(ctx, id)
	amenity, _ := args.Get(0).(*entities.Amenity)
	return amenity, args.Error(1)
}

func (m *mockAmenityRepo) UpsertCatalogEntry(ctx context.Context, amenity *entities.Amenity) error {
	return m.Called(ctx, amenity).Error(0)
}

func (m *mockAmenityRepo) ListByResource(ctx context.Context, resourceID string) ([]*entities.ResourceAmenity, error) {
	args := m.Called(ctx, resourceID)
	list, _ := args.Get(0).([]*entities.ResourceAmenity)
	return list, args.Error(1)
}

func (m *mockAmenityRepo) Attach(ctx context.Context, ra *entities.ResourceAmenity) error {
	return m.Called(ctx, ra).Error(0)
}

func (m *mockAmenityRepo) Detach(ctx context.Context, resourceID, amenityID string) error {
	return m.Called(ctx, resourceID, amenityID).Error(0)
}

type mockSearchRepo struct{ mock.Mock }

func (m *mockSearchRepo) Index(ctx context.Context, doc *entities.ResourceSearchDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockSearchRepo) Delete(ctx context.Context, resourceID string) error {
	return m.Called(ctx, resourceID).Error(0)
}

func (m *mockSearchRepo) Search(ctx context.Context, params repositories.ResourceSearchParams) ([]*entities.ResourceSearchDocument, error) {
	args := m.Called(ctx, params)
	docs, _ := args.Get(0).([]*entities.ResourceSearchDocument)
	return docs, args.Error(1)
}

type mockReservationRepo struct{ mock.Mock }

func (m *mockReservationRepo) Create(ctx context.Context, reservation *entities.Reservation) error {
	return m.Called(ctx, reservation).Error(0)
}

func (m *mockReservationRepo) GetByID(ctx context.Context, id string) (*entities.Reservation, error) {
	args := m.Called(ctx, id)
	reservation, _ := args.Get(0).(*entities.Reservation)
	return reservation, args.Error(1)
}

func (m *mockReservationRepo) Update(ctx context.Context, reservation *entities.Reservation) error {
	return m.Called(ctx, reservation).Error(0)
}

func (m *mockReservationRepo) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReservationRepo) ListForRequester(ctx context.Context, requester entities.Requester, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	args := m.Called(ctx, requester, filter)
	list, _ := args.Get(0).([]*entities.Reservation)
	return list, args.Error(1)
}

func (m *mockReservationRepo) ListOverlapping(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*entities.Reservation, error) {
	args := m.Called(ctx, resourceID, from, to, excludeID)
	list, _ := args.Get(0).([]*entities.Reservation)
	return list, args.Error(1)
}

type mockEventBus struct{ mock.Mock }

func (m *mockEventBus) Publish(ctx context.Context, channel string, event *entities.ScheduleEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *mockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ScheduleEvent, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(chan *entities.ScheduleEvent)
	return ch, args.Error(1)
}

func (m *mockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *mockEventBus) Close() error {
	return m.Called().Error(0)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return m.Called(ctx, key, value, expirationSeconds).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

func (m *mockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type mockCalendar struct{ mock.Mock }

func (m *mockCalendar) Encode(calendarName string, reservations []*entities.Reservation) ([]byte, error) {
	args := m.Called(calendarName, reservations)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}
