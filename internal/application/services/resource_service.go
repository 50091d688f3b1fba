package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

const defaultSearchLimit = 20

// ResourceInput carries the editable fields of a resource
type ResourceInput struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	LocationDescription string `json:"location_description"`
	MaxOccupants        int    `json:"max_occupants"`
}

func (in *ResourceInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if err := required(in.Name, "name"); err != nil {
		return err
	}
	if in.MaxOccupants < 1 {
		return apperrors.NewValidationError("max occupants must be at least 1")
	}
	return nil
}

// ResourceService handles bookable resources, their amenities and search
type ResourceService struct {
	resources  repositories.ResourceRepository
	amenities  repositories.AmenityRepository
	sites      repositories.SiteRepository
	teams      repositories.TeamRepository
	searchRepo repositories.ResourceSearchRepository
	eventBus   providers.EventBus
	clock      clock.Clock
	index      resourceIndex
}

// NewResourceService creates a new resource service. searchRepo and eventBus may be nil.
func NewResourceService(
	resources repositories.ResourceRepository,
	amenities repositories.AmenityRepository,
	sites repositories.SiteRepository,
	teams repositories.TeamRepository,
	searchRepo repositories.ResourceSearchRepository,
	eventBus providers.EventBus,
	clk clock.Clock,
) *ResourceService {
	return &ResourceService{
		resources:  resources,
		amenities:  amenities,
		sites:      sites,
		teams:      teams,
		searchRepo: searchRepo,
		eventBus:   eventBus,
		clock:      clk,
		index:      resourceIndex{resources: resources, searchRepo: searchRepo, eventBus: eventBus, clock: clk},
	}
}

// CreateResource adds a resource to a site
func (s *ResourceService) CreateResource(ctx context.Context, requester entities.Requester, siteID string, in ResourceInput) (*entities.Resource, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.teams, site.TeamID, requester); err != nil {
		return nil, hideForeign(err, "site not found")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	resource := &entities.Resource{
		ID:                  uuid.NewString(),
		SiteID:              siteID,
		Name:                in.Name,
		Description:         in.Description,
		LocationDescription: in.LocationDescription,
		MaxOccupants:        in.MaxOccupants,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}

	s.reindex(ctx, resource.ID)
	return resource, nil
}

// ListSiteResources lists a site's resources
func (s *ResourceService) ListSiteResources(ctx context.Context, requester entities.Requester, siteID string) ([]*entities.Resource, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.teams, site.TeamID, requester); err != nil {
		return nil, hideForeign(err, "site not found")
	}
	return s.resources.ListBySite(ctx, siteID)
}

// GetResource returns a resource of one of the requester's teams
func (s *ResourceService) GetResource(ctx context.Context, requester entities.Requester, resourceID string) (*entities.Resource, error) {
	if _, err := s.authorize(ctx, requester, resourceID, false); err != nil {
		return nil, err
	}
	return s.resources.GetByID(ctx, resourceID)
}

// UpdateResource replaces a resource's editable fields
func (s *ResourceService) UpdateResource(ctx context.Context, requester entities.Requester, resourceID string, in ResourceInput) (*entities.Resource, error) {
	if _, err := s.authorize(ctx, requester, resourceID, true); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	resource.Name = in.Name
	resource.Description = in.Description
	resource.LocationDescription = in.LocationDescription
	resource.MaxOccupants = in.MaxOccupants
	resource.UpdatedAt = s.clock.Now()
	if err := s.resources.Update(ctx, resource); err != nil {
		return nil, err
	}

	s.reindex(ctx, resourceID)
	s.publish(ctx, entities.NewResourceEvent(entities.ScheduleEventResourceUpdated, resourceID, s.clock.Now()))
	return resource, nil
}

// DeleteResource deletes a resource and its reservations
func (s *ResourceService) DeleteResource(ctx context.Context, requester entities.Requester, resourceID string) error {
	if _, err := s.authorize(ctx, requester, resourceID, true); err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, resourceID); err != nil {
		return err
	}

	s.index.drop(ctx, resourceID)
	return nil
}

// ListAmenities returns the amenity catalog
func (s *ResourceService) ListAmenities(ctx context.Context, requester entities.Requester) ([]*entities.Amenity, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	return s.amenities.ListCatalog(ctx)
}

// ListResourceAmenities lists the amenities attached to a resource
func (s *ResourceService) ListResourceAmenities(ctx context.Context, requester entities.Requester, resourceID string) ([]*entities.ResourceAmenity, error) {
	if _, err := s.authorize(ctx, requester, resourceID, false); err != nil {
		return nil, err
	}
	return s.amenities.ListByResource(ctx, resourceID)
}

// AddResourceAmenity attaches a catalog amenity to a resource
func (s *ResourceService) AddResourceAmenity(ctx context.Context, requester entities.Requester, resourceID, amenityID, nameOverride string) (*entities.ResourceAmenity, error) {
	if _, err := s.authorize(ctx, requester, resourceID, true); err != nil {
		return nil, err
	}
	if err := required(amenityID, "amenity id"); err != nil {
		return nil, err
	}
	amenity, err := s.amenities.GetCatalogEntry(ctx, amenityID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	ra := &entities.ResourceAmenity{
		ID:           uuid.NewString(),
		ResourceID:   resourceID,
		AmenityID:    amenity.ID,
		NameOverride: strings.TrimSpace(nameOverride),
		Amenity:      *amenity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.amenities.Attach(ctx, ra); err != nil {
		return nil, err
	}

	s.reindex(ctx, resourceID)
	s.publish(ctx, entities.NewResourceEvent(entities.ScheduleEventResourceUpdated, resourceID, now))
	return ra, nil
}

// RemoveResourceAmenity detaches an amenity from a resource
func (s *ResourceService) RemoveResourceAmenity(ctx context.Context, requester entities.Requester, resourceID, amenityID string) error {
	if _, err := s.authorize(ctx, requester, resourceID, true); err != nil {
		return err
	}
	if err := s.amenities.Detach(ctx, resourceID, amenityID); err != nil {
		return err
	}
	s.reindex(ctx, resourceID)
	s.publish(ctx, entities.NewResourceEvent(entities.ScheduleEventResourceUpdated, resourceID, s.clock.Now()))
	return nil
}

// SearchResources runs a full-text search restricted to the requester's teams
func (s *ResourceService) SearchResources(ctx context.Context, requester entities.Requester, query string, limit, offset int) ([]*entities.ResourceSearchDocument, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	if s.searchRepo == nil {
		return nil, apperrors.NewExternalError("search is not configured", nil)
	}

	teams, err := s.teams.ListForUser(ctx, requester.UserID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return []*entities.ResourceSearchDocument{}, nil
	}
	teamIDs := make([]string, 0, len(teams))
	for _, t := range teams {
		teamIDs = append(teamIDs, t.ID)
	}

	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}
	if offset < 0 {
		offset = 0
	}
	docs, err := s.searchRepo.Search(ctx, repositories.ResourceSearchParams{
		Query:   strings.TrimSpace(query),
		TeamIDs: teamIDs,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, apperrors.NewExternalError("resource search failed", err)
	}
	return docs, nil
}

// ReindexAll pushes every resource into the search index and returns how
// many documents were written
func (s *ResourceService) ReindexAll(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, apperrors.NewExternalError("search is not configured", nil)
	}
	docs, err := s.resources.ListSearchDocuments(ctx, repositories.SearchDocumentScope{})
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, doc := range docs {
		if err := s.searchRepo.Index(ctx, doc); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("resource_id", doc.ID).Msg("Failed to index resource")
			continue
		}
		indexed++
	}
	return indexed, nil
}

func (s *ResourceService) authorize(ctx context.Context, requester entities.Requester, resourceID string, manage bool) (*entities.ResourceLocation, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	loc, err := s.resources.GetLocation(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	check := requireMember
	if manage {
		check = requireManager
	}
	if _, err := check(ctx, s.teams, loc.TeamID, requester); err != nil {
		return nil, hideForeign(err, "resource not found")
	}
	return loc, nil
}

func (s *ResourceService) reindex(ctx context.Context, resourceID string) {
	s.index.refresh(ctx, repositories.SearchDocumentScope{ResourceID: resourceID})
}

func (s *ResourceService) publish(ctx context.Context, event *entities.ScheduleEvent) {
	publishScheduleEvent(ctx, s.eventBus, event)
}

// publishScheduleEvent fans an event out to the global and the resource
// channel. Publish failures are logged only.
func publishScheduleEvent(ctx context.Context, bus providers.EventBus, event *entities.ScheduleEvent) {
	if bus == nil || event == nil {
		return
	}
	logger := observability.LoggerFromContext(ctx)
	for _, channel := range []string{providers.EventChannelScheduleUpdates, providers.GetResourceChannel(event.ResourceID)} {
		if err := bus.Publish(ctx, channel, event); err != nil {
			logger.Warn().Err(err).Str("channel", channel).Str("event_type", string(event.EventType)).Msg("Failed to publish schedule event")
		}
	}
}

// hideForeign turns a membership miss into a NOT_FOUND for the object being accessed
func hideForeign(err error, message string) error {
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return apperrors.NewNotFoundError(message)
	}
	return err
}
