package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCacheInvalidationService_ResourceEvents(t *testing.T) {
	cache := &mockCache{}
	bus := &mockEventBus{}
	events := make(chan *entities.ScheduleEvent, 2)
	bus.On("Subscribe", mock.Anything, providers.EventChannelScheduleUpdates).Return(events, nil)

	done := make(chan struct{})
	cache.On("Delete", mock.Anything, "resource:r1").Return(nil).Once()
	cache.On("DeletePattern", mock.Anything, providers.SiteResourcesCachePattern).Return(nil).Once().
		Run(func(mock.Arguments) { close(done) })

	svc := services.NewCacheInvalidationService(cache, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	events <- entities.NewReservationEvent(entities.ScheduleEventReservationCreated, &entities.Reservation{ID: "x", ResourceID: "r1"}, time.Now())
	events <- entities.NewResourceEvent(entities.ScheduleEventResourceUpdated, "r1", time.Now())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cache was not invalidated")
	}
	cache.AssertExpectations(t)
}

func TestCacheInvalidationService_InvalidateResource(t *testing.T) {
	ctx := context.Background()
	cache := &mockCache{}
	cache.On("Delete", ctx, "resource:r2").Return(nil)
	cache.On("DeletePattern", ctx, "site:*:resources").Return(nil)

	svc := services.NewCacheInvalidationService(cache, &mockEventBus{})
	assert.NoError(t, svc.InvalidateResource(ctx, "r2"))
	cache.AssertExpectations(t)
}
