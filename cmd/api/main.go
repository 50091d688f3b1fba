package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nando-scheduler/backend/internal/adapters/cache"
	"github.com/nando-scheduler/backend/internal/adapters/calendar"
	"github.com/nando-scheduler/backend/internal/adapters/database"
	"github.com/nando-scheduler/backend/internal/adapters/events"
	"github.com/nando-scheduler/backend/internal/adapters/search"
	"github.com/nando-scheduler/backend/internal/api/handlers"
	"github.com/nando-scheduler/backend/internal/api/middleware"
	"github.com/nando-scheduler/backend/internal/api/routes"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/graphql/resolvers"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/redis"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/typesense"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	"github.com/nando-scheduler/backend/migrations"
	"github.com/nando-scheduler/backend/pkg/config"
	"github.com/nando-scheduler/backend/pkg/secrets"
	"github.com/rs/zerolog/log"
)

const amenityCacheTTLSeconds = 600

func main() {
	// Set up context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Secrets from Vault land in the environment before config is read
	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)
	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Msg("Failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		log.Info().Str("path", vaultResult.Path).Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("Loaded secrets from Vault")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty; every bearer token will be rejected")
	}

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	if err := migrations.Apply(ctx, pgClient.DB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	// Redis backs the cache and the event bus; the API works without both
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; running without cache and event bus")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	}

	var searchRepo repositories.ResourceSearchRepository
	typesenseClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		log.Warn().Err(err).Msg("Typesense unavailable; resource search disabled")
	} else {
		adapter := search.NewTypesenseAdapter(typesenseClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		}
		searchRepo = adapter
	}

	// Initialize adapters
	clk := clock.NewSystem()

	teamAdapter := database.NewTeamAdapter(pgClient)
	userAdapter := database.NewUserAdapter(pgClient)
	siteAdapter := database.NewSiteAdapter(pgClient)
	amenityAdapter := database.NewAmenityAdapter(pgClient)
	reservationAdapter := database.NewReservationAdapter(pgClient)

	resourceAdapter := database.NewResourceAdapter(pgClient)
	if cacheProvider != nil {
		resourceAdapter = database.NewCachedResourceAdapter(resourceAdapter, cacheProvider)
	}

	// Initialize services
	userService := services.NewUserService(userAdapter, clk)
	teamService := services.NewTeamService(teamAdapter, userAdapter, resourceAdapter, searchRepo, eventBus, clk)
	siteService := services.NewSiteService(siteAdapter, teamAdapter, resourceAdapter, searchRepo, eventBus, clk)
	resourceService := services.NewResourceService(resourceAdapter, amenityAdapter, siteAdapter, teamAdapter, searchRepo, eventBus, clk)
	reservationService := services.NewReservationService(
		reservationAdapter,
		resourceAdapter,
		teamAdapter,
		eventBus,
		calendar.NewICSEncoder(clk),
		clk,
		metrics,
	)

	var cacheInvalidationService *services.CacheInvalidationService
	var warmingService *services.CacheWarmingService
	if cacheProvider != nil {
		if eventBus != nil {
			cacheInvalidationService = services.NewCacheInvalidationService(cacheProvider, eventBus)
			if err := cacheInvalidationService.Start(); err != nil {
				log.Warn().Err(err).Msg("Failed to start cache invalidation service")
				cacheInvalidationService = nil
			}
		}

		warmingService = services.NewCacheWarmingService(siteAdapter, resourceAdapter, cfg.Jobs.CacheWarmTimeout)
		if err := warmingService.Start(cfg.Jobs.CacheWarmSchedule); err != nil {
			log.Warn().Err(err).Msg("Failed to start cache warming")
			warmingService = nil
		}
	}

	// Initialize handlers
	checks := map[string]handlers.Pinger{"postgres": pgClient}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	if typesenseClient != nil {
		checks["typesense"] = typesenseClient
	}

	h := routes.Handlers{
		Health:      handlers.NewHealthHandler(checks),
		User:        handlers.NewUserHandler(userService),
		Team:        handlers.NewTeamHandler(teamService),
		Site:        handlers.NewSiteHandler(siteService),
		Resource:    handlers.NewResourceHandler(resourceService),
		Reservation: handlers.NewReservationHandler(reservationService),
		GraphQL:     resolvers.NewServer(
			resolvers.NewResolver(siteService, resourceService),
			siteAdapter,
			resourceAdapter,
		),
	}
	if eventBus != nil {
		h.SSE = handlers.NewSSEHandler(eventBus, resourceService, 30*time.Second)
	}

	var responseCache *middleware.ResponseCache
	if cacheProvider != nil {
		responseCache = middleware.NewResponseCache(cacheProvider, amenityCacheTTLSeconds, metrics)
	}

	router := routes.NewRouter(
		h,
		middleware.NewAuthenticator(cfg.Auth, userService),
		responseCache,
		cfg.Server.AllowedOrigins,
		metrics,
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	failed := false
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
		failed = true
	}

	log.Info().Msg("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	if warmingService != nil {
		warmingService.Stop()
	}
	if cacheInvalidationService != nil {
		cacheInvalidationService.Stop()
	}
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
	if failed {
		os.Exit(1)
	}
}
