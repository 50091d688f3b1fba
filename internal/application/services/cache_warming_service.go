package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// CacheWarmingService preloads per-site resource listings. Reads go through
// the caching resource repository, so listing a site populates its entry.
type CacheWarmingService struct {
	sites     repositories.SiteRepository
	resources repositories.ResourceRepository
	timeout   time.Duration
	cron      *cron.Cron
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(sites repositories.SiteRepository, resources repositories.ResourceRepository, timeout time.Duration) *CacheWarmingService {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &CacheWarmingService{
		sites:     sites,
		resources: resources,
		timeout:   timeout,
	}
}

// WarmCache lists the resources of every site and returns how many sites were warmed
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	siteIDs, err := s.sites.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sites: %w", err)
	}

	warmed := 0
	for _, id := range siteIDs {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if _, err := s.resources.ListBySite(ctx, id); err != nil {
			log.Warn().Err(err).Str("site_id", id).Msg("Failed to warm site resources")
			continue
		}
		warmed++
	}
	return warmed, nil
}

// Start schedules WarmCache on a cron spec and runs it once immediately
func (s *CacheWarmingService) Start(spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("invalid cache warm schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	go s.run()

	log.Info().Str("schedule", spec).Msg("Started periodic cache warming")
	return nil
}

// Stop stops the schedule and waits for a running job to finish
func (s *CacheWarmingService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped cache warming service")
}

func (s *CacheWarmingService) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	warmed, err := s.WarmCache(ctx)
	if err != nil {
		log.Warn().Err(err).Int("sites", warmed).Msg("Cache warming failed")
		return
	}
	log.Info().Int("sites", warmed).Dur("took", time.Since(start)).Msg("Cache warming completed")
}
