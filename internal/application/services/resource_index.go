package services

import (
	"context"

	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
)

// resourceIndex keeps the search index and event subscribers in step with
// resource rows, including rows removed by a site or team cascade.
// searchRepo and eventBus may be nil.
type resourceIndex struct {
	resources  repositories.ResourceRepository
	searchRepo repositories.ResourceSearchRepository
	eventBus   providers.EventBus
	clock      clock.Clock
}

// refresh re-indexes the resources in scope. Failures are logged and do
// not fail the write that triggered them.
func (x resourceIndex) refresh(ctx context.Context, scope repositories.SearchDocumentScope) {
	if x.searchRepo == nil {
		return
	}
	docs, err := x.resources.ListSearchDocuments(ctx, scope)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Interface("scope", scope).Msg("Failed to build search documents")
		return
	}
	for _, doc := range docs {
		if err := x.searchRepo.Index(ctx, doc); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("resource_id", doc.ID).Msg("Failed to index resource")
		}
	}
}

// affected lists the ids of the resources in scope. It must run before a
// cascading delete; an error yields no ids and the delete proceeds.
func (x resourceIndex) affected(ctx context.Context, scope repositories.SearchDocumentScope) []string {
	if x.resources == nil {
		return nil
	}
	docs, err := x.resources.ListSearchDocuments(ctx, scope)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Interface("scope", scope).Msg("Failed to list resources before delete")
		return nil
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids
}

// drop removes deleted resources from the index and announces them
func (x resourceIndex) drop(ctx context.Context, resourceIDs ...string) {
	for _, id := range resourceIDs {
		if x.searchRepo != nil {
			if err := x.searchRepo.Delete(ctx, id); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("resource_id", id).Msg("Failed to remove resource from index")
			}
		}
		publishScheduleEvent(ctx, x.eventBus, entities.NewResourceEvent(entities.ScheduleEventResourceDeleted, id, x.clock.Now()))
	}
}
