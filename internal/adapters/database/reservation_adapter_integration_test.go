//go:build integration

package database_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nando-scheduler/backend/internal/adapters/database"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	"github.com/nando-scheduler/backend/migrations"
	"github.com/nando-scheduler/backend/pkg/config"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}

	port, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil {
		port = 5432
	}
	cfg := &config.DatabaseConfig{
		Host:     os.Getenv("TEST_DB_HOST"),
		Port:     port,
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: os.Getenv("TEST_DB_PASSWORD"),
		Database: envOr("TEST_DB_NAME", "coworking_scheduler_test"),
		SSLMode:  "disable",
	}

	client, err := postgres.NewClient(context.Background(), cfg)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { client.Close() })
	require.NoError(t, migrations.Apply(context.Background(), client.DB()))
	return client
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type fixture struct {
	owner    entities.Requester
	outsider entities.Requester
	resource *entities.Resource
}

func seedFixture(t *testing.T, client *postgres.Client) fixture {
	t.Helper()
	ctx := context.Background()
	clk := clock.NewSystem()

	users := services.NewUserService(database.NewUserAdapter(client), clk)
	teamRepo := database.NewTeamAdapter(client)
	resourceRepo := database.NewResourceAdapter(client)
	teams := services.NewTeamService(teamRepo, database.NewUserAdapter(client), resourceRepo, nil, nil, clk)
	siteRepo := database.NewSiteAdapter(client)
	sites := services.NewSiteService(siteRepo, teamRepo, resourceRepo, nil, nil, clk)
	resources := services.NewResourceService(resourceRepo, database.NewAmenityAdapter(client),
		siteRepo, teamRepo, nil, nil, clk)

	suffix := uuid.NewString()[:8]
	f := fixture{
		owner:    entities.Requester{UserID: uuid.NewString(), Email: "owner-" + suffix + "@example.com"},
		outsider: entities.Requester{UserID: uuid.NewString(), Email: "outsider-" + suffix + "@example.com"},
	}
	for _, r := range []entities.Requester{f.owner, f.outsider} {
		_, err := users.EnsureUser(ctx, r)
		require.NoError(t, err)
	}

	team, err := teams.CreateTeam(ctx, f.owner, "Integration "+suffix, "integration fixture")
	require.NoError(t, err)
	site, err := sites.CreateSite(ctx, f.owner, team.ID, services.SiteInput{Name: "Dock", City: "Porto", State: "Norte"})
	require.NoError(t, err)
	f.resource, err = resources.CreateResource(ctx, f.owner, site.ID, services.ResourceInput{Name: "Pier", MaxOccupants: 4})
	require.NoError(t, err)
	return f
}

func TestReservationAdapter_ExclusionConstraintIntegration(t *testing.T) {
	client := newTestPostgresClient(t)
	f := seedFixture(t, client)
	adapter := database.NewReservationAdapter(client)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Hour).Add(72 * time.Hour)
	first := &entities.Reservation{
		ID: uuid.NewString(), Title: "Sync", StartTime: start, EndTime: start.Add(time.Hour),
		ResourceID: f.resource.ID, UserID: f.owner.UserID, CreatedAt: start, UpdatedAt: start,
	}
	require.NoError(t, adapter.Create(ctx, first))

	overlapping := *first
	overlapping.ID = uuid.NewString()
	overlapping.StartTime = start.Add(30 * time.Minute)
	overlapping.EndTime = start.Add(90 * time.Minute)
	err := adapter.Create(ctx, &overlapping)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict), "got %v", err)

	adjacent := *first
	adjacent.ID = uuid.NewString()
	adjacent.StartTime = start.Add(time.Hour)
	adjacent.EndTime = start.Add(2 * time.Hour)
	require.NoError(t, adapter.Create(ctx, &adjacent))
}

func TestReservationAdapter_VisibilityIntegration(t *testing.T) {
	client := newTestPostgresClient(t)
	f := seedFixture(t, client)
	adapter := database.NewReservationAdapter(client)
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Hour).Add(96 * time.Hour)
	shared := &entities.Reservation{
		ID: uuid.NewString(), Title: "Review", StartTime: start, EndTime: start.Add(time.Hour),
		ResourceID: f.resource.ID, UserID: f.owner.UserID, Participants: []string{f.outsider.Email},
		CreatedAt: start, UpdatedAt: start,
	}
	require.NoError(t, adapter.Create(ctx, shared))

	list, err := adapter.ListForRequester(ctx, entities.Requester{Email: f.outsider.Email}, repositories.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shared.ID, list[0].ID)
	assert.Equal(t, "Pier", list[0].Context.ResourceName)

	list, err = adapter.ListForRequester(ctx, entities.Requester{UserID: uuid.NewString()}, repositories.ReservationFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
