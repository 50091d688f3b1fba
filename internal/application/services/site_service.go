package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// SiteInput carries the editable fields of a site
type SiteInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
	SlugName    string `json:"slug_name"`
	Base64Image string `json:"base64_image"`
}

func (in *SiteInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.SlugName = entities.Slugify(in.SlugName)
	if in.SlugName == "" {
		in.SlugName = entities.Slugify(in.Name)
	}
}

func (in *SiteInput) validate() error {
	if err := required(in.Name, "name"); err != nil {
		return err
	}
	if err := required(in.City, "city"); err != nil {
		return err
	}
	if err := required(in.State, "state"); err != nil {
		return err
	}
	if in.SlugName == "" {
		return apperrors.NewValidationError("slug name must contain letters or digits")
	}
	return nil
}

func (in *SiteInput) apply(site *entities.Site) {
	site.Name = in.Name
	site.Description = in.Description
	site.Address1 = in.Address1
	site.Address2 = in.Address2
	site.City = in.City
	site.State = in.State
	site.PostalCode = in.PostalCode
	site.Phone = in.Phone
	site.SlugName = in.SlugName
	site.Base64Image = in.Base64Image
}

// SiteService handles the sites of a team. Site edits and deletes are
// carried into the resource search index.
type SiteService struct {
	sites repositories.SiteRepository
	teams repositories.TeamRepository
	index resourceIndex
	clock clock.Clock
}

// NewSiteService creates a new site service. searchRepo and eventBus may be nil.
func NewSiteService(
	sites repositories.SiteRepository,
	teams repositories.TeamRepository,
	resources repositories.ResourceRepository,
	searchRepo repositories.ResourceSearchRepository,
	eventBus providers.EventBus,
	clk clock.Clock,
) *SiteService {
	return &SiteService{
		sites: sites,
		teams: teams,
		index: resourceIndex{resources: resources, searchRepo: searchRepo, eventBus: eventBus, clock: clk},
		clock: clk,
	}
}

// CreateSite adds a site to a team
func (s *SiteService) CreateSite(ctx context.Context, requester entities.Requester, teamID string, in SiteInput) (*entities.Site, error) {
	if _, err := requireManager(ctx, s.teams, teamID, requester); err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	site := &entities.Site{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(site)
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}

// ListSites lists the sites of every team the requester belongs to
func (s *SiteService) ListSites(ctx context.Context, requester entities.Requester) ([]*entities.SiteSummary, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	return s.sites.ListForUser(ctx, requester.UserID)
}

// ListTeamSites lists one team's sites with capacity figures
func (s *SiteService) ListTeamSites(ctx context.Context, requester entities.Requester, teamID string) ([]*entities.SiteSummary, error) {
	member, err := requireMember(ctx, s.teams, teamID, requester)
	if err != nil {
		return nil, err
	}
	sites, err := s.sites.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, site := range sites {
		site.UserRole = member.Role
	}
	return sites, nil
}

// GetSite returns a site of one of the requester's teams
func (s *SiteService) GetSite(ctx context.Context, requester entities.Requester, siteID string) (*entities.Site, error) {
	site, _, err := s.loadSite(ctx, requester, siteID, false)
	return site, err
}

// UpdateSite replaces a site's editable fields
func (s *SiteService) UpdateSite(ctx context.Context, requester entities.Requester, siteID string, in SiteInput) (*entities.Site, error) {
	site, _, err := s.loadSite(ctx, requester, siteID, true)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	in.apply(site)
	site.UpdatedAt = s.clock.Now()
	if err := s.sites.Update(ctx, site); err != nil {
		return nil, err
	}

	// site name and city are denormalized into every resource document
	s.index.refresh(ctx, repositories.SearchDocumentScope{SiteID: siteID})
	return site, nil
}

// DeleteSite deletes a site with its resources and reservations
func (s *SiteService) DeleteSite(ctx context.Context, requester entities.Requester, siteID string) error {
	if _, _, err := s.loadSite(ctx, requester, siteID, true); err != nil {
		return err
	}

	removed := s.index.affected(ctx, repositories.SearchDocumentScope{SiteID: siteID})
	if err := s.sites.Delete(ctx, siteID); err != nil {
		return err
	}
	s.index.drop(ctx, removed...)
	return nil
}

// loadSite fetches a site and checks the requester's role in its team.
// A site in a foreign team is reported as not found.
func (s *SiteService) loadSite(ctx context.Context, requester entities.Requester, siteID string, manage bool) (*entities.Site, *entities.TeamMember, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, nil, err
	}
	site, err := s.sites.GetByID(ctx, siteID)
	if err != nil {
		return nil, nil, err
	}

	check := requireMember
	if manage {
		check = requireManager
	}
	member, err := check(ctx, s.teams, site.TeamID, requester)
	if err != nil {
		return nil, nil, hideForeign(err, "site not found")
	}
	return site, member, nil
}
