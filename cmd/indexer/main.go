package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nando-scheduler/backend/internal/adapters/database"
	"github.com/nando-scheduler/backend/internal/adapters/search"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/typesense"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	"github.com/nando-scheduler/backend/pkg/config"
	"github.com/nando-scheduler/backend/pkg/secrets"
	"github.com/rs/zerolog/log"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the resources collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load secrets from Vault")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("resource-indexer", cfg.Log.Env, cfg.Log.Level)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			log.Fatal().Str("interval", intervalValue).Msg("Interval must be a positive duration")
		}
	}

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			return
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.ResourcesCollection).Msg("Deleting collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.ResourcesCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}

	clk := clock.NewSystem()
	teams := database.NewTeamAdapter(pgClient)
	resourceService := services.NewResourceService(
		database.NewResourceAdapter(pgClient),
		database.NewAmenityAdapter(pgClient),
		database.NewSiteAdapter(pgClient),
		teams,
		adapter,
		nil,
		clk,
	)

	start := time.Now()
	indexed, err := resourceService.ReindexAll(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("indexed", indexed).Dur("took", time.Since(start)).Msg("Indexed resources")
	return nil
}
