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

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     newDialect(client),
	}
}

var userColumns = []interface{}{"id", "email", "display_name", "created_at", "updated_at"}

// Upsert creates the user or refreshes its email and display name
func (a *UserAdapter) Upsert(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"id":           user.ID,
		"email":        user.Email,
		"display_name": user.DisplayName,
		"created_at":   user.CreatedAt,
		"updated_at":   user.UpdatedAt,
	}

	query, args, err := a.db.Insert("users").
		Rows(record).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"email":        goqu.L("EXCLUDED.email"),
			"display_name": goqu.L("EXCLUDED.display_name"),
			"updated_at":   goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("email %s belongs to another user", user.Email))
		}
		if isInvalidTextRepresentation(err) {
			return apperrors.NewUnauthorizedError("token subject is not a valid user id")
		}
		return apperrors.NewInternalError("failed to upsert user", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("user with id %s not found", id))
}

// GetByEmail retrieves a user by email, case-insensitively
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	email = entities.NormalizeEmail(email)
	return a.getOne(ctx, goqu.Ex{"email": email}, fmt.Sprintf("no user with email %s", email))
}

func (a *UserAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).
		From("users").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user := &entities.User{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) || isInvalidTextRepresentation(err) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return user, nil
}
