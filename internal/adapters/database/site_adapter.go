package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// SiteAdapter implements the SiteRepository interface
type SiteAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSiteAdapter creates a new site adapter
func NewSiteAdapter(client *postgres.Client) repositories.SiteRepository {
	return &SiteAdapter{
		client: client,
		db:     newDialect(client),
	}
}

var siteColumns = []interface{}{
	"s.id", "s.team_id", "s.name", "s.description", "s.address1", "s.address2",
	"s.city", "s.state", "s.postal_code", "s.phone", "s.slug_name", "s.base64_image",
	"s.created_at", "s.updated_at",
}

var (
	siteResourceCount = goqu.L("(SELECT COUNT(*) FROM resources r WHERE r.site_id = s.id)").As("resource_count")
	siteTotalCapacity = goqu.L("(SELECT COALESCE(SUM(r.max_occupants), 0) FROM resources r WHERE r.site_id = s.id)").As("total_capacity")
)

// Create creates a new site
func (a *SiteAdapter) Create(ctx context.Context, site *entities.Site) error {
	record := siteRecord(site)
	record["id"] = site.ID
	record["team_id"] = site.TeamID
	record["created_at"] = site.CreatedAt

	query, args, err := a.db.Insert("sites").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("team with id %s not found", site.TeamID))
		}
		return apperrors.NewInternalError("failed to create site", err)
	}
	return nil
}

// GetByID retrieves a site by ID
func (a *SiteAdapter) GetByID(ctx context.Context, id string) (*entities.Site, error) {
	query, args, err := a.db.From(goqu.T("sites").As("s")).
		Select(siteColumns...).
		Where(goqu.I("s.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	site := &entities.Site{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(siteDest(site)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("site with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get site", err)
	}
	return site, nil
}

// GetByIDs retrieves the sites among ids; unknown ids are skipped
func (a *SiteAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Site, error) {
	if len(ids) == 0 {
		return []*entities.Site{}, nil
	}
	query, args, err := a.db.From(goqu.T("sites").As("s")).
		Select(siteColumns...).
		Where(goqu.I("s.id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		if isInvalidTextRepresentation(err) {
			return []*entities.Site{}, nil
		}
		return nil, apperrors.NewInternalError("failed to get sites", err)
	}
	defer rows.Close()

	sites := []*entities.Site{}
	for rows.Next() {
		site := &entities.Site{}
		if err := rows.Scan(siteDest(site)...); err != nil {
			return nil, apperrors.NewInternalError("failed to scan site", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sites", err)
	}
	return sites, nil
}

// Update updates a site
func (a *SiteAdapter) Update(ctx context.Context, site *entities.Site) error {
	query, args, err := a.db.Update("sites").
		Set(siteRecord(site)).
		Where(goqu.Ex{"id": site.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to update site",
		fmt.Sprintf("site with id %s not found", site.ID))
}

// Delete deletes a site
func (a *SiteAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("sites").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to delete site",
		fmt.Sprintf("site with id %s not found", id))
}

// ListByTeam retrieves the sites of a team
func (a *SiteAdapter) ListByTeam(ctx context.Context, teamID string) ([]*entities.SiteSummary, error) {
	cols := append(append([]interface{}{}, siteColumns...), siteResourceCount, siteTotalCapacity)
	query, args, err := a.db.From(goqu.T("sites").As("s")).
		Select(cols...).
		Where(goqu.I("s.team_id").Eq(teamID)).
		Order(goqu.I("s.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.listSummaries(ctx, query, args, false)
}

// ListForUser retrieves the sites of every team the user belongs to
func (a *SiteAdapter) ListForUser(ctx context.Context, userID string) ([]*entities.SiteSummary, error) {
	cols := append(append([]interface{}{}, siteColumns...), siteResourceCount, siteTotalCapacity, "tu.role")
	query, args, err := a.db.From(goqu.T("sites").As("s")).
		Join(goqu.T("team_users").As("tu"), goqu.On(goqu.I("tu.team_id").Eq(goqu.I("s.team_id")))).
		Select(cols...).
		Where(goqu.I("tu.user_id").Eq(userID)).
		Order(goqu.I("s.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.listSummaries(ctx, query, args, true)
}

// ListIDs retrieves every site id
func (a *SiteAdapter) ListIDs(ctx context.Context) ([]string, error) {
	query, args, err := a.db.From("sites").Select("id").Order(goqu.I("id").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list site ids", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewInternalError("failed to scan site id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate site ids", err)
	}
	return ids, nil
}

func (a *SiteAdapter) listSummaries(ctx context.Context, query string, args []interface{}, withRole bool) ([]*entities.SiteSummary, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sites", err)
	}
	defer rows.Close()

	sites := []*entities.SiteSummary{}
	for rows.Next() {
		summary := &entities.SiteSummary{}
		dest := append(siteDest(&summary.Site), &summary.ResourceCount, &summary.TotalCapacity)
		var role string
		if withRole {
			dest = append(dest, &role)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.NewInternalError("failed to scan site", err)
		}
		summary.UserRole = entities.Role(role)
		sites = append(sites, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate sites", err)
	}
	return sites, nil
}

func siteRecord(site *entities.Site) goqu.Record {
	return goqu.Record{
		"name":         site.Name,
		"description":  site.Description,
		"address1":     site.Address1,
		"address2":     site.Address2,
		"city":         site.City,
		"state":        site.State,
		"postal_code":  site.PostalCode,
		"phone":        site.Phone,
		"slug_name":    site.SlugName,
		"base64_image": site.Base64Image,
		"updated_at":   site.UpdatedAt,
	}
}

func siteDest(site *entities.Site) []interface{} {
	return []interface{}{
		&site.ID,
		&site.TeamID,
		&site.Name,
		&site.Description,
		&site.Address1,
		&site.Address2,
		&site.City,
		&site.State,
		&site.PostalCode,
		&site.Phone,
		&site.SlugName,
		&site.Base64Image,
		&site.CreatedAt,
		&site.UpdatedAt,
	}
}
