package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// ResourceAdapter implements the ResourceRepository interface
type ResourceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewResourceAdapter creates a new resource adapter
func NewResourceAdapter(client *postgres.Client) repositories.ResourceRepository {
	return &ResourceAdapter{
		client: client,
		db:     newDialect(client),
	}
}

var resourceColumns = []interface{}{
	"r.id", "r.site_id", "r.name", "r.description", "r.location_description", "r.max_occupants",
	goqu.L("(SELECT COUNT(*) FROM resource_amenities ra WHERE ra.resource_id = r.id)").As("amenity_count"),
	"r.created_at", "r.updated_at",
}

const amenityNamesSQL = `COALESCE((
	SELECT array_agg(COALESCE(NULLIF(ra.name_override, ''), am.name) ORDER BY am.name)
	FROM resource_amenities ra JOIN amenities am ON am.id = ra.amenity_id
	WHERE ra.resource_id = r.id
), '{}')`

// Create creates a new resource
func (a *ResourceAdapter) Create(ctx context.Context, resource *entities.Resource) error {
	record := resourceRecord(resource)
	record["id"] = resource.ID
	record["site_id"] = resource.SiteID
	record["created_at"] = resource.CreatedAt

	query, args, err := a.db.Insert("resources").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		switch {
		case isForeignKeyViolation(err):
			return apperrors.NewNotFoundError(fmt.Sprintf("site with id %s not found", resource.SiteID))
		case isCheckViolation(err):
			return apperrors.NewValidationError("max occupants must be at least 1")
		}
		return apperrors.NewInternalError("failed to create resource", err)
	}
	return nil
}

// GetByID retrieves a resource by ID
func (a *ResourceAdapter) GetByID(ctx context.Context, id string) (*entities.Resource, error) {
	query, args, err := a.db.From(goqu.T("resources").As("r")).
		Select(resourceColumns...).
		Where(goqu.I("r.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	resource := &entities.Resource{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(resourceDest(resource)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("resource with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get resource", err)
	}
	return resource, nil
}

// Update updates a resource
func (a *ResourceAdapter) Update(ctx context.Context, resource *entities.Resource) error {
	query, args, err := a.db.Update("resources").
		Set(resourceRecord(resource)).
		Where(goqu.Ex{"id": resource.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to update resource",
		fmt.Sprintf("resource with id %s not found", resource.ID))
}

// Delete deletes a resource
func (a *ResourceAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("resources").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to delete resource",
		fmt.Sprintf("resource with id %s not found", id))
}

// ListBySite retrieves the resources of a site ordered by name
func (a *ResourceAdapter) ListBySite(ctx context.Context, siteID string) ([]*entities.Resource, error) {
	return a.list(ctx, goqu.I("r.site_id").Eq(siteID))
}

// ListBySites retrieves the resources of several sites in one query
func (a *ResourceAdapter) ListBySites(ctx context.Context, siteIDs []string) ([]*entities.Resource, error) {
	if len(siteIDs) == 0 {
		return []*entities.Resource{}, nil
	}
	return a.list(ctx, goqu.I("r.site_id").In(siteIDs))
}

func (a *ResourceAdapter) list(ctx context.Context, where goqu.Expression) ([]*entities.Resource, error) {
	query, args, err := a.db.From(goqu.T("resources").As("r")).
		Select(resourceColumns...).
		Where(where).
		Order(goqu.I("r.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list resources", err)
	}
	defer rows.Close()

	resources := []*entities.Resource{}
	for rows.Next() {
		resource := &entities.Resource{}
		if err := rows.Scan(resourceDest(resource)...); err != nil {
			return nil, apperrors.NewInternalError("failed to scan resource", err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate resources", err)
	}
	return resources, nil
}

// GetLocation resolves the site and team of a resource
func (a *ResourceAdapter) GetLocation(ctx context.Context, resourceID string) (*entities.ResourceLocation, error) {
	query, args, err := a.db.From(goqu.T("resources").As("r")).
		Join(goqu.T("sites").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("r.site_id")))).
		Join(goqu.T("teams").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("s.team_id")))).
		Select("r.id", "r.name", "s.id", "s.name", "t.id", "t.name").
		Where(goqu.I("r.id").Eq(resourceID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	loc := &entities.ResourceLocation{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&loc.ResourceID,
		&loc.ResourceName,
		&loc.SiteID,
		&loc.SiteName,
		&loc.TeamID,
		&loc.TeamName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("resource with id %s not found", resourceID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve resource location", err)
	}
	return loc, nil
}

// ListSearchDocuments builds search documents for the resources in scope
func (a *ResourceAdapter) ListSearchDocuments(ctx context.Context, scope repositories.SearchDocumentScope) ([]*entities.ResourceSearchDocument, error) {
	ds := a.db.From(goqu.T("resources").As("r")).
		Join(goqu.T("sites").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("r.site_id")))).
		Select(
			"r.id", "r.name", "r.description", "r.location_description", "r.max_occupants",
			"s.id", "s.name", "s.city", "s.team_id", "r.updated_at",
			goqu.L(amenityNamesSQL).As("amenities"),
		).
		Order(goqu.I("r.id").Asc())
	if scope.ResourceID != "" {
		ds = ds.Where(goqu.I("r.id").Eq(scope.ResourceID))
	}
	if scope.SiteID != "" {
		ds = ds.Where(goqu.I("s.id").Eq(scope.SiteID))
	}
	if scope.TeamID != "" {
		ds = ds.Where(goqu.I("s.team_id").Eq(scope.TeamID))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list search documents", err)
	}
	defer rows.Close()

	docs := []*entities.ResourceSearchDocument{}
	for rows.Next() {
		doc := &entities.ResourceSearchDocument{}
		var updatedAt time.Time
		if err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.Description,
			&doc.LocationDescription,
			&doc.MaxOccupants,
			&doc.SiteID,
			&doc.SiteName,
			&doc.City,
			&doc.TeamID,
			&updatedAt,
			pq.Array(&doc.Amenities),
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search document", err)
		}
		doc.UpdatedAt = updatedAt.Unix()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate search documents", err)
	}
	return docs, nil
}

func resourceRecord(resource *entities.Resource) goqu.Record {
	return goqu.Record{
		"name":                 resource.Name,
		"description":          resource.Description,
		"location_description": resource.LocationDescription,
		"max_occupants":        resource.MaxOccupants,
		"updated_at":           resource.UpdatedAt,
	}
}

func resourceDest(resource *entities.Resource) []interface{} {
	return []interface{}{
		&resource.ID,
		&resource.SiteID,
		&resource.Name,
		&resource.Description,
		&resource.LocationDescription,
		&resource.MaxOccupants,
		&resource.AmenityCount,
		&resource.CreatedAt,
		&resource.UpdatedAt,
	}
}
