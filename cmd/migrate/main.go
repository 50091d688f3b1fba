package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	"github.com/nando-scheduler/backend/migrations"
	"github.com/nando-scheduler/backend/pkg/config"
	"github.com/nando-scheduler/backend/pkg/secrets"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv())

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("migrate", cfg.Log.Env, cfg.Log.Level)
	if vaultErr != nil {
		log.Fatal().Err(vaultErr).Msg("Failed to load secrets from Vault")
	}
	if vaultResult.Enabled {
		log.Info().Str("path", vaultResult.Path).Int("loaded", vaultResult.Loaded).Msg("Loaded secrets from Vault")
	}

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pgClient.Close()

	names, err := migrations.Names()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list migrations")
	}
	if err := migrations.Apply(ctx, pgClient.DB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	log.Info().Strs("migrations", names).Msg("Migrations applied")
}
