package providers

import (
	"context"
)

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// SiteResourcesCachePattern matches every per-site resource listing
const SiteResourcesCachePattern = "site:*:resources"

// ResourceCacheKey is the cache key of a single resource
func ResourceCacheKey(id string) string {
	return "resource:" + id
}

// SiteResourcesCacheKey is the cache key of the resource listing of a site
func SiteResourcesCacheKey(siteID string) string {
	return "site:" + siteID + ":resources"
}
