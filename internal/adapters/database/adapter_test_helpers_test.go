package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nando-scheduler/backend/internal/infrastructure/clients/postgres"
	"github.com/stretchr/testify/require"
)

func setupMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewFromDB(db), mock
}
