package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/rs/zerolog/log"
)

// CacheInvalidationService drops cached resource data when schedule events
// report a change the caching repository did not see, such as amenities
// being attached or another instance writing
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelScheduleUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to schedule updates: %w", err)
	}

	s.wg.Add(1)
	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the worker to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	s.wg.Wait()
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.ScheduleEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent invalidates the entries touched by one event. Reservation
// events change no cached data.
func (s *CacheInvalidationService) handleEvent(event *entities.ScheduleEvent) {
	switch event.EventType {
	case entities.ScheduleEventResourceUpdated, entities.ScheduleEventResourceDeleted:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateResource(ctx, event.ResourceID); err != nil {
		log.Warn().Err(err).Str("resource_id", event.ResourceID).Str("event_type", string(event.EventType)).Msg("Failed to invalidate resource cache")
		return
	}
	log.Debug().Str("resource_id", event.ResourceID).Str("event_type", string(event.EventType)).Msg("Invalidated resource cache")
}

// InvalidateResource drops a resource entry and every site listing
func (s *CacheInvalidationService) InvalidateResource(ctx context.Context, resourceID string) error {
	if err := s.cache.Delete(ctx, providers.ResourceCacheKey(resourceID)); err != nil {
		return fmt.Errorf("failed to invalidate resource %s: %w", resourceID, err)
	}
	if err := s.cache.DeletePattern(ctx, providers.SiteResourcesCachePattern); err != nil {
		return fmt.Errorf("failed to invalidate site listings: %w", err)
	}
	return nil
}
