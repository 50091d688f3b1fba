package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// ReservationAdapter implements the ReservationRepository interface
type ReservationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReservationAdapter creates a new reservation adapter
func NewReservationAdapter(client *postgres.Client) repositories.ReservationRepository {
	return &ReservationAdapter{
		client: client,
		db:     newDialect(client),
	}
}

// Create creates a new reservation
func (a *ReservationAdapter) Create(ctx context.Context, reservation *entities.Reservation) error {
	record := reservationRecord(reservation)
	record["id"] = reservation.ID
	record["resource_id"] = reservation.ResourceID
	record["user_id"] = reservation.UserID
	record["created_at"] = reservation.CreatedAt

	query, args, err := a.db.Insert("reservations").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		switch {
		case isCheckViolation(err):
			return apperrors.NewValidationError(entities.ErrInvalidInterval.Error())
		case isExclusionViolation(err):
			return apperrors.NewConflictError("resource is already reserved for that time")
		case isForeignKeyViolation(err):
			return apperrors.NewNotFoundError(fmt.Sprintf("resource with id %s not found", reservation.ResourceID))
		}
		return apperrors.NewInternalError("failed to create reservation", err)
	}
	return nil
}

// GetByID retrieves a reservation by ID
func (a *ReservationAdapter) GetByID(ctx context.Context, id string) (*entities.Reservation, error) {
	query, args, err := a.selectWithContext().
		Where(goqu.I("rv.id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	reservation, err := scanReservation(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get reservation", err)
	}
	return reservation, nil
}

// Update updates the mutable fields of a reservation
func (a *ReservationAdapter) Update(ctx context.Context, reservation *entities.Reservation) error {
	query, args, err := a.db.Update("reservations").
		Set(reservationRecord(reservation)).
		Where(goqu.Ex{"id": reservation.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		switch {
		case isCheckViolation(err):
			return apperrors.NewValidationError(entities.ErrInvalidInterval.Error())
		case isExclusionViolation(err):
			return apperrors.NewConflictError("resource is already reserved for that time")
		}
		return apperrors.NewInternalError("failed to update reservation", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("reservation with id %s not found", reservation.ID))
	}
	return nil
}

// Delete deletes a reservation
func (a *ReservationAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("reservations").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to delete reservation",
		fmt.Sprintf("reservation with id %s not found", id))
}

// ListForRequester retrieves the reservations the requester owns or is a
// participant of, ordered by start time. A requester without user id and
// email gets an empty list without touching the database.
func (a *ReservationAdapter) ListForRequester(ctx context.Context, requester entities.Requester, filter repositories.ReservationFilter) ([]*entities.Reservation, error) {
	var who []exp.Expression
	if requester.UserID != "" {
		who = append(who, goqu.I("rv.user_id").Eq(requester.UserID))
	}
	if email := entities.NormalizeEmail(requester.Email); email != "" {
		who = append(who, goqu.L("? = ANY(rv.participants)", email))
	}
	if len(who) == 0 {
		return []*entities.Reservation{}, nil
	}

	ds := a.selectWithContext().Where(goqu.Or(who...))
	if filter.SiteID != "" {
		ds = ds.Where(goqu.I("s.id").Eq(filter.SiteID))
	}
	if filter.From != nil {
		ds = ds.Where(goqu.I("rv.end_time").Gt(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.I("rv.start_time").Lt(*filter.To))
	}
	ds = ds.Order(goqu.I("rv.start_time").Asc(), goqu.I("rv.id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}
	return a.list(ctx, query, args)
}

// ListOverlapping retrieves the reservations on resourceID whose interval
// intersects [from, to), skipping excludeID
func (a *ReservationAdapter) ListOverlapping(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*entities.Reservation, error) {
	ds := a.selectWithContext().
		Where(
			goqu.I("rv.resource_id").Eq(resourceID),
			goqu.I("rv.start_time").Lt(to),
			goqu.I("rv.end_time").Gt(from),
		)
	if excludeID != "" {
		ds = ds.Where(goqu.I("rv.id").Neq(excludeID))
	}

	query, args, err := ds.Order(goqu.I("rv.start_time").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build overlap query", err)
	}
	return a.list(ctx, query, args)
}

func (a *ReservationAdapter) list(ctx context.Context, query string, args []interface{}) ([]*entities.Reservation, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reservations", err)
	}
	defer rows.Close()

	reservations := []*entities.Reservation{}
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan reservation", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate reservations", err)
	}
	return reservations, nil
}

func (a *ReservationAdapter) selectWithContext() *goqu.SelectDataset {
	return a.db.From(goqu.T("reservations").As("rv")).
		Join(goqu.T("resources").As("r"), goqu.On(goqu.I("r.id").Eq(goqu.I("rv.resource_id")))).
		Join(goqu.T("sites").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("r.site_id")))).
		Join(goqu.T("teams").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("s.team_id")))).
		Select(
			"rv.id", "rv.title", "rv.description", "rv.start_time", "rv.end_time",
			"rv.resource_id", "rv.user_id", "rv.participants", "rv.created_at", "rv.updated_at",
			"r.name", "s.id", "s.name", "t.id", "t.name",
		)
}

func reservationRecord(reservation *entities.Reservation) goqu.Record {
	participants := reservation.Participants
	if participants == nil {
		participants = []string{}
	}
	return goqu.Record{
		"title":        reservation.Title,
		"description":  reservation.Description,
		"start_time":   reservation.StartTime.UTC(),
		"end_time":     reservation.EndTime.UTC(),
		"participants": pq.StringArray(participants),
		"updated_at":   reservation.UpdatedAt,
	}
}

func scanReservation(row rowScanner) (*entities.Reservation, error) {
	r := &entities.Reservation{Context: &entities.ReservationContext{}}
	var participants pq.StringArray
	if err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.StartTime,
		&r.EndTime,
		&r.ResourceID,
		&r.UserID,
		&participants,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.Context.ResourceName,
		&r.Context.SiteID,
		&r.Context.SiteName,
		&r.Context.TeamID,
		&r.Context.TeamName,
	); err != nil {
		return nil, err
	}
	r.StartTime = r.StartTime.UTC()
	r.EndTime = r.EndTime.UTC()
	r.Participants = []string(participants)
	if r.Participants == nil {
		r.Participants = []string{}
	}
	return r, nil
}
