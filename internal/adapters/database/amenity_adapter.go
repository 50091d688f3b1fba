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

// AmenityAdapter implements the AmenityRepository interface
type AmenityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAmenityAdapter creates a new amenity adapter
func NewAmenityAdapter(client *postgres.Client) repositories.AmenityRepository {
	return &AmenityAdapter{
		client: client,
		db:     newDialect(client),
	}
}

// ListCatalog retrieves the catalog ordered by name
func (a *AmenityAdapter) ListCatalog(ctx context.Context) ([]*entities.Amenity, error) {
	query, args, err := a.db.From("amenities").
		Select("id", "name", "icon").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list amenities", err)
	}
	defer rows.Close()

	amenities := []*entities.Amenity{}
	for rows.Next() {
		amenity := &entities.Amenity{}
		if err := rows.Scan(&amenity.ID, &amenity.Name, &amenity.Icon); err != nil {
			return nil, apperrors.NewInternalError("failed to scan amenity", err)
		}
		amenities = append(amenities, amenity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate amenities", err)
	}
	return amenities, nil
}

// GetCatalogEntry retrieves a catalog amenity by ID
func (a *AmenityAdapter) GetCatalogEntry(ctx context.Context, id string) (*entities.Amenity, error) {
	query, args, err := a.db.From("amenities").
		Select("id", "name", "icon").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	amenity := &entities.Amenity{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&amenity.ID, &amenity.Name, &amenity.Icon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get amenity", err)
	}
	return amenity, nil
}

// UpsertCatalogEntry inserts a catalog amenity keyed by name, refreshing its icon
func (a *AmenityAdapter) UpsertCatalogEntry(ctx context.Context, amenity *entities.Amenity) error {
	query, args, err := a.db.Insert("amenities").
		Rows(goqu.Record{"id": amenity.ID, "name": amenity.Name, "icon": amenity.Icon}).
		OnConflict(goqu.DoUpdate("name", goqu.Record{"icon": goqu.L("EXCLUDED.icon")})).
		Returning("id").
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&amenity.ID); err != nil {
		return apperrors.NewInternalError("failed to upsert amenity", err)
	}
	return nil
}

// ListByResource retrieves the amenities attached to a resource
func (a *AmenityAdapter) ListByResource(ctx context.Context, resourceID string) ([]*entities.ResourceAmenity, error) {
	query, args, err := a.db.From(goqu.T("resource_amenities").As("ra")).
		Join(goqu.T("amenities").As("am"), goqu.On(goqu.I("am.id").Eq(goqu.I("ra.amenity_id")))).
		Select(
			"ra.id", "ra.resource_id", "ra.amenity_id", "ra.name_override",
			"am.id", "am.name", "am.icon", "ra.created_at", "ra.updated_at",
		).
		Where(goqu.I("ra.resource_id").Eq(resourceID)).
		Order(goqu.I("am.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list resource amenities", err)
	}
	defer rows.Close()

	list := []*entities.ResourceAmenity{}
	for rows.Next() {
		ra := &entities.ResourceAmenity{}
		if err := rows.Scan(
			&ra.ID,
			&ra.ResourceID,
			&ra.AmenityID,
			&ra.NameOverride,
			&ra.Amenity.ID,
			&ra.Amenity.Name,
			&ra.Amenity.Icon,
			&ra.CreatedAt,
			&ra.UpdatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan resource amenity", err)
		}
		list = append(list, ra)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate resource amenities", err)
	}
	return list, nil
}

// Attach attaches an amenity to a resource
func (a *AmenityAdapter) Attach(ctx context.Context, ra *entities.ResourceAmenity) error {
	query, args, err := a.db.Insert("resource_amenities").Rows(goqu.Record{
		"id":            ra.ID,
		"resource_id":   ra.ResourceID,
		"amenity_id":    ra.AmenityID,
		"name_override": ra.NameOverride,
		"created_at":    ra.CreatedAt,
		"updated_at":    ra.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.NewConflictError("amenity is already attached to this resource")
		case isForeignKeyViolation(err):
			return apperrors.NewNotFoundError("resource or amenity not found")
		}
		return apperrors.NewInternalError("failed to attach amenity", err)
	}
	return nil
}

// Detach removes an amenity from a resource
func (a *AmenityAdapter) Detach(ctx context.Context, resourceID, amenityID string) error {
	query, args, err := a.db.Delete("resource_amenities").
		Where(goqu.Ex{"resource_id": resourceID, "amenity_id": amenityID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to detach amenity",
		fmt.Sprintf("amenity %s is not attached to resource %s", amenityID, resourceID))
}
