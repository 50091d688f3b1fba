package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nando-scheduler/backend/internal/adapters/database"
	"github.com/nando-scheduler/backend/internal/adapters/search"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/typesense"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	"github.com/nando-scheduler/backend/migrations"
	"github.com/nando-scheduler/backend/pkg/config"
	"github.com/rs/zerolog/log"
)

var amenityCatalog = []entities.Amenity{
	{Name: "WiFi", Icon: "wifi"},
	{Name: "Projector", Icon: "projector"},
	{Name: "Whiteboard", Icon: "edit"},
	{Name: "Video conferencing", Icon: "video"},
	{Name: "Standing desk", Icon: "desk"},
	{Name: "Coffee", Icon: "coffee"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	observability.InitLogger("seed", cfg.Log.Env, cfg.Log.Level)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if err := migrations.Apply(ctx, pgClient.DB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				reservations,
				resource_amenities,
				resources,
				sites,
				team_users,
				teams,
				amenities,
				users
			CASCADE
		`); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	var searchRepo repositories.ResourceSearchRepository
	if tsClient, err := typesense.NewClient(ctx, &cfg.Typesense); err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable; seeded resources will not be searchable")
	} else {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchRepo = adapter
	}

	clk := clock.NewSystem()
	teamRepo := database.NewTeamAdapter(pgClient)
	userRepo := database.NewUserAdapter(pgClient)
	siteRepo := database.NewSiteAdapter(pgClient)
	amenityRepo := database.NewAmenityAdapter(pgClient)
	resourceRepo := database.NewResourceAdapter(pgClient)

	userService := services.NewUserService(userRepo, clk)
	teamService := services.NewTeamService(teamRepo, userRepo, resourceRepo, searchRepo, nil, clk)
	siteService := services.NewSiteService(siteRepo, teamRepo, resourceRepo, searchRepo, nil, clk)
	resourceService := services.NewResourceService(resourceRepo, amenityRepo, siteRepo, teamRepo, searchRepo, nil, clk)
	reservationService := services.NewReservationService(
		database.NewReservationAdapter(pgClient), resourceRepo, teamRepo, nil, nil, clk, nil,
	)

	amenityIDs := map[string]string{}
	for i := range amenityCatalog {
		amenity := amenityCatalog[i]
		amenity.ID = uuid.NewString()
		if err := amenityRepo.UpsertCatalogEntry(ctx, &amenity); err != nil {
			log.Fatal().Err(err).Str("amenity", amenity.Name).Msg("Failed to seed amenity")
		}
		amenityIDs[amenity.Name] = amenity.ID
	}

	owner := entities.Requester{UserID: uuid.NewString(), Email: envOr("SEED_OWNER_EMAIL", "owner@example.com")}
	member := entities.Requester{UserID: uuid.NewString(), Email: envOr("SEED_MEMBER_EMAIL", "member@example.com")}
	for _, requester := range []entities.Requester{owner, member} {
		if _, err := userService.EnsureUser(ctx, requester); err != nil {
			log.Fatal().Err(err).Str("email", requester.Email).Msg("Failed to seed user")
		}
	}

	team, err := teamService.CreateTeam(ctx, owner, "Harbor Works", "Shared workspace on the waterfront")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create team")
	}
	if _, err := teamService.AddMember(ctx, owner, team.ID, member.Email, string(entities.RoleMember)); err != nil {
		log.Fatal().Err(err).Msg("Failed to add member")
	}

	site, err := siteService.CreateSite(ctx, owner, team.ID, services.SiteInput{
		Name:     "Harbor Works Downtown",
		Address1: "12 Quay Street",
		City:     "Lisbon",
		State:    "Lisboa",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create site")
	}

	rooms := []struct {
		input     services.ResourceInput
		amenities []string
	}{
		{services.ResourceInput{Name: "Lighthouse", Description: "Boardroom", LocationDescription: "Floor 2", MaxOccupants: 12}, []string{"WiFi", "Projector", "Video conferencing"}},
		{services.ResourceInput{Name: "Anchor", Description: "Focus room", LocationDescription: "Floor 1", MaxOccupants: 2}, []string{"WiFi", "Standing desk"}},
		{services.ResourceInput{Name: "Galley", Description: "Workshop space", LocationDescription: "Ground floor", MaxOccupants: 20}, []string{"WiFi", "Whiteboard", "Coffee"}},
	}

	var resourceIDs []string
	for _, room := range rooms {
		resource, err := resourceService.CreateResource(ctx, owner, site.ID, room.input)
		if err != nil {
			log.Fatal().Err(err).Str("resource", room.input.Name).Msg("Failed to create resource")
		}
		for _, name := range room.amenities {
			if _, err := resourceService.AddResourceAmenity(ctx, owner, resource.ID, amenityIDs[name], ""); err != nil {
				log.Warn().Err(err).Str("resource", resource.Name).Str("amenity", name).Msg("Failed to attach amenity")
			}
		}
		resourceIDs = append(resourceIDs, resource.ID)
	}

	// one reservation in each bucket, relative to now
	now := clk.Now().Truncate(time.Hour)
	bookings := []struct {
		by    entities.Requester
		input services.ReservationInput
	}{
		{owner, services.ReservationInput{Title: "Quarterly planning", ResourceID: resourceIDs[0], StartTime: now.Add(-26 * time.Hour), EndTime: now.Add(-24 * time.Hour), Participants: []string{member.Email}}},
		{owner, services.ReservationInput{Title: "Deep work", ResourceID: resourceIDs[1], StartTime: now, EndTime: now.Add(2 * time.Hour)}},
		{member, services.ReservationInput{Title: "Design workshop", ResourceID: resourceIDs[2], StartTime: now.Add(48 * time.Hour), EndTime: now.Add(51 * time.Hour), Participants: []string{owner.Email}}},
	}
	for _, booking := range bookings {
		if _, err := reservationService.CreateReservation(ctx, booking.by, booking.input); err != nil {
			log.Fatal().Err(err).Str("title", booking.input.Title).Msg("Failed to create reservation")
		}
	}

	log.Info().
		Str("team_id", team.ID).
		Str("site_id", site.ID).
		Int("resources", len(resourceIDs)).
		Int("reservations", len(bookings)).
		Str("owner_id", owner.UserID).
		Str("member_id", member.UserID).
		Msg("Seed complete")
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
