package typesense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nando-scheduler/backend/pkg/config"
	"github.com/nando-scheduler/backend/pkg/retry"
	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const (
	ResourcesCollection = "resources"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	err := retry.DoWithLog(
		ctx,
		retry.DefaultConfig(),
		"Typesense",
		func() error {
			healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_, err := client.Health(healthCtx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Ping reports whether the Typesense node is healthy
func (c *Client) Ping(ctx context.Context) error {
	healthy, err := c.client.Health(ctx, 2*time.Second)
	if err != nil {
		return err
	}
	if !healthy {
		return errors.New("typesense reported unhealthy")
	}
	return nil
}

// InitSchema ensures the resources collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := c.client.Collection(ResourcesCollection).Retrieve(ctx); err == nil {
		log.Debug().Str("collection", ResourcesCollection).Msg("Typesense collection already exists")
		return nil
	}

	if _, err := c.client.Collections().Create(ctx, ResourceSchema()); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", ResourcesCollection).Msg("Created Typesense collection")
	return nil
}

// ResourceSchema describes the resources collection
func ResourceSchema() *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: ResourcesCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "location_description", Type: "string", Optional: pointer.True()},
			{Name: "max_occupants", Type: "int32", Facet: pointer.True()},
			{Name: "site_id", Type: "string", Facet: pointer.True()},
			{Name: "site_name", Type: "string"},
			{Name: "city", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "team_id", Type: "string", Facet: pointer.True()},
			{Name: "amenities", Type: "string[]", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}
}
