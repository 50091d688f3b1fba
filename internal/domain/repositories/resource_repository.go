package repositories

import (
	"context"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// ResourceRepository defines the interface for resource data operations
type ResourceRepository interface {
	// Create creates a new resource
	Create(ctx context.Context, resource *entities.Resource) error

	// GetByID retrieves a resource by ID
	GetByID(ctx context.Context, id string) (*entities.Resource, error)

	// Update updates a resource
	Update(ctx context.Context, resource *entities.Resource) error

	// Delete deletes a resource; its reservations cascade
	Delete(ctx context.Context, id string) error

	// ListBySite retrieves the resources of a site with amenity counts
	ListBySite(ctx context.Context, siteID string) ([]*entities.Resource, error)

	// ListBySites retrieves the resources of several sites, ordered by name
	ListBySites(ctx context.Context, siteIDs []string) ([]*entities.Resource, error)

	// GetLocation resolves the site and team a resource belongs to
	GetLocation(ctx context.Context, resourceID string) (*entities.ResourceLocation, error)

	// ListSearchDocuments builds search documents for the resources in scope
	ListSearchDocuments(ctx context.Context, scope SearchDocumentScope) ([]*entities.ResourceSearchDocument, error)
}

// SearchDocumentScope narrows ListSearchDocuments; the zero value selects
// every resource
type SearchDocumentScope struct {
	ResourceID string
	SiteID     string
	TeamID     string
}

// AmenityRepository defines the interface for amenity catalog and assignment operations
type AmenityRepository interface {
	// ListCatalog retrieves every catalog amenity
	ListCatalog(ctx context.Context) ([]*entities.Amenity, error)

	// GetCatalogEntry retrieves a catalog amenity by ID
	GetCatalogEntry(ctx context.Context, id string) (*entities.Amenity, error)

	// UpsertCatalogEntry inserts or renames a catalog amenity
	UpsertCatalogEntry(ctx context.Context, amenity *entities.Amenity) error

	// ListByResource retrieves the amenities attached to a resource
	ListByResource(ctx context.Context, resourceID string) ([]*entities.ResourceAmenity, error)

	// Attach attaches an amenity to a resource; duplicates are a conflict
	Attach(ctx context.Context, ra *entities.ResourceAmenity) error

	// Detach removes an amenity from a resource
	Detach(ctx context.Context, resourceID, amenityID string) error
}

// ResourceSearchRepository defines the interface for the resource search index
type ResourceSearchRepository interface {
	// Index upserts a document
	Index(ctx context.Context, doc *entities.ResourceSearchDocument) error

	// Delete removes a resource from the index
	Delete(ctx context.Context, resourceID string) error

	// Search returns matching resource ids restricted to the given teams
	Search(ctx context.Context, params ResourceSearchParams) ([]*entities.ResourceSearchDocument, error)
}

// ResourceSearchParams defines a resource search
type ResourceSearchParams struct {
	Query   string
	TeamIDs []string
	Limit   int
	Offset  int
}
