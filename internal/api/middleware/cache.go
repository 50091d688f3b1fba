package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
)

// ResponseCache caches successful GET responses of shared, user independent
// endpoints such as the amenity catalog
type ResponseCache struct {
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
}

// NewResponseCache creates a new response cache. A nil cache disables it.
func NewResponseCache(cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *ResponseCache {
	return &ResponseCache{
		cache:      cache,
		ttlSeconds: ttlSeconds,
		metrics:    metrics,
	}
}

// Middleware returns the cache middleware handler
func (m *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		logger := observability.LoggerFromContext(r.Context())
		key := responseCacheKey(r)

		if cached, err := m.cache.Get(r.Context(), key); err == nil {
			observability.RecordCacheHit(r.Context(), m.metrics, "http")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}

		observability.RecordCacheMiss(r.Context(), m.metrics, "http")
		w.Header().Set("X-Cache", "MISS")

		recorder := &bodyRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			return
		}
		if err := m.cache.Set(r.Context(), key, recorder.body.Bytes(), m.ttlSeconds); err != nil {
			logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to cache response")
		}
	})
}

// responseCacheKey hashes method, path and query
func responseCacheKey(r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// bodyRecorder copies the response body while writing it through
type bodyRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
	written    bool
}

func (r *bodyRecorder) WriteHeader(statusCode int) {
	if r.written {
		return
	}
	r.statusCode = statusCode
	r.written = true
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *bodyRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
