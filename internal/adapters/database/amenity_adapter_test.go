package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmenityAdapter_ListCatalog(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewAmenityAdapter(client)

	mock.ExpectQuery(`SELECT "id", "name", "icon" FROM "amenities" ORDER BY "name" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "icon"}).
			AddRow("a1", "Projector", "projector").
			AddRow("a2", "WiFi", "wifi"))

	list, err := adapter.ListCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Projector", list[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmenityAdapter_UpsertCatalogEntry(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewAmenityAdapter(client)

	mock.ExpectQuery(`INSERT INTO "amenities" .* ON CONFLICT \(name\) DO UPDATE SET .*RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	amenity := &entities.Amenity{ID: "fresh-id", Name: "WiFi", Icon: "wifi"}
	require.NoError(t, adapter.UpsertCatalogEntry(context.Background(), amenity))
	assert.Equal(t, "existing-id", amenity.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAmenityAdapter_GetCatalogEntry_NotFound(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewAmenityAdapter(client)

	mock.ExpectQuery(`FROM "amenities"`).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "icon"}))

	_, err := adapter.GetCatalogEntry(context.Background(), "a9")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAmenityAdapter_Attach(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ra := &entities.ResourceAmenity{ID: "ra1", ResourceID: "room-1", AmenityID: "a1", CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		name     string
		err      error
		wantType apperrors.ErrorType
	}{
		{"duplicate attachment", &pq.Error{Code: pqUniqueViolation}, apperrors.ErrorTypeConflict},
		{"unknown resource or amenity", &pq.Error{Code: pqForeignKeyViolation}, apperrors.ErrorTypeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := setupMockClient(t)
			adapter := NewAmenityAdapter(client)

			mock.ExpectExec(`INSERT INTO "resource_amenities"`).WillReturnError(tt.err)

			err := adapter.Attach(context.Background(), ra)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestAmenityAdapter_Detach_NotAttached(t *testing.T) {
	client, mock := setupMockClient(t)
	adapter := NewAmenityAdapter(client)

	mock.ExpectExec(`DELETE FROM "resource_amenities"`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Detach(context.Background(), "room-1", "a1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
