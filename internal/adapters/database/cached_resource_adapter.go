package database

import (
	"context"
	"encoding/json"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/rs/zerolog/log"
)

// CachedResourceAdapter wraps a ResourceRepository with read-through caching
// of single resources and per-site listings
type CachedResourceAdapter struct {
	repositories.ResourceRepository
	cache providers.CacheProvider
}

// NewCachedResourceAdapter creates a new cached resource adapter
func NewCachedResourceAdapter(adapter repositories.ResourceRepository, cache providers.CacheProvider) repositories.ResourceRepository {
	return &CachedResourceAdapter{
		ResourceRepository: adapter,
		cache:              cache,
	}
}

// Cache TTLs (in seconds)
const (
	resourceByIDTTL      = 300
	siteResourcesListTTL = 180
)

// GetByID retrieves a resource by ID with caching
func (a *CachedResourceAdapter) GetByID(ctx context.Context, id string) (*entities.Resource, error) {
	key := providers.ResourceCacheKey(id)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var resource entities.Resource
		if err := json.Unmarshal(cached, &resource); err == nil {
			return &resource, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached resource")
	}

	resource, err := a.ResourceRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, resource, resourceByIDTTL)
	return resource, nil
}

// ListBySite retrieves the resources of a site with caching
func (a *CachedResourceAdapter) ListBySite(ctx context.Context, siteID string) ([]*entities.Resource, error) {
	key := providers.SiteResourcesCacheKey(siteID)

	if cached, err := a.cache.Get(ctx, key); err == nil {
		var resources []*entities.Resource
		if err := json.Unmarshal(cached, &resources); err == nil {
			return resources, nil
		}
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached resource list")
	}

	resources, err := a.ResourceRepository.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, resources, siteResourcesListTTL)
	return resources, nil
}

// Create creates a resource and invalidates the site listing
func (a *CachedResourceAdapter) Create(ctx context.Context, resource *entities.Resource) error {
	if err := a.ResourceRepository.Create(ctx, resource); err != nil {
		return err
	}
	a.invalidate(ctx, providers.SiteResourcesCacheKey(resource.SiteID))
	return nil
}

// Update updates a resource and invalidates its cache entries
func (a *CachedResourceAdapter) Update(ctx context.Context, resource *entities.Resource) error {
	if err := a.ResourceRepository.Update(ctx, resource); err != nil {
		return err
	}
	a.invalidate(ctx, providers.ResourceCacheKey(resource.ID), providers.SiteResourcesCacheKey(resource.SiteID))
	return nil
}

// Delete deletes a resource and invalidates its cache entries. The site is
// unknown here so every site listing is dropped.
func (a *CachedResourceAdapter) Delete(ctx context.Context, id string) error {
	if err := a.ResourceRepository.Delete(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx, providers.ResourceCacheKey(id))
	if err := a.cache.DeletePattern(ctx, providers.SiteResourcesCachePattern); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate site resource listings")
	}
	return nil
}

func (a *CachedResourceAdapter) store(ctx context.Context, key string, value interface{}, ttl int) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, data, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache value")
	}
}

func (a *CachedResourceAdapter) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := a.cache.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to invalidate cache key")
		}
	}
}
