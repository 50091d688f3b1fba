package database

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

const (
	pqUniqueViolation           = "23505"
	pqForeignKeyViolation       = "23503"
	pqCheckViolation            = "23514"
	pqExclusionViolation        = "23P01"
	pqInvalidTextRepresentation = "22P02" // e.g. a non-uuid bound to a uuid column
)

func newDialect(client *postgres.Client) *goqu.Database {
	return goqu.New("postgres", client.DB())
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == pqUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == pqForeignKeyViolation
}

func isCheckViolation(err error) bool {
	return pqCode(err) == pqCheckViolation
}

func isExclusionViolation(err error) bool {
	return pqCode(err) == pqExclusionViolation
}

func isInvalidTextRepresentation(err error) bool {
	return pqCode(err) == pqInvalidTextRepresentation
}

func execAffectingOne(ctx context.Context, client *postgres.Client, query string, args []interface{}, failMsg, notFoundMsg string) error {
	result, err := client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError(failMsg, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(notFoundMsg)
	}
	return nil
}
