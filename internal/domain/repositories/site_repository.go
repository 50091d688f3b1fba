package repositories

import (
	"context"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// SiteRepository defines the interface for site data operations
type SiteRepository interface {
	// Create creates a new site
	Create(ctx context.Context, site *entities.Site) error

	// GetByID retrieves a site by ID
	GetByID(ctx context.Context, id string) (*entities.Site, error)

	// GetByIDs retrieves the sites that exist among ids, in no particular order
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Site, error)

	// Update updates a site
	Update(ctx context.Context, site *entities.Site) error

	// Delete deletes a site; resources and reservations cascade
	Delete(ctx context.Context, id string) error

	// ListByTeam retrieves the sites of a team with capacity figures
	ListByTeam(ctx context.Context, teamID string) ([]*entities.SiteSummary, error)

	// ListForUser retrieves the sites of every team the user belongs to
	ListForUser(ctx context.Context, userID string) ([]*entities.SiteSummary, error)

	// ListIDs retrieves every site id
	ListIDs(ctx context.Context) ([]string, error)
}
