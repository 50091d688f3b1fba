package repositories

import (
	"context"
	"time"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// ReservationRepository defines the interface for reservation data operations
type ReservationRepository interface {
	// Create creates a new reservation
	Create(ctx context.Context, reservation *entities.Reservation) error

	// GetByID retrieves a reservation with its resource/site/team context
	GetByID(ctx context.Context, id string) (*entities.Reservation, error)

	// Update updates title, description, interval and participants
	Update(ctx context.Context, reservation *entities.Reservation) error

	// Delete deletes a reservation
	Delete(ctx context.Context, id string) error

	// ListForRequester retrieves reservations owned by the user or shared with the email
	ListForRequester(ctx context.Context, requester entities.Requester, filter ReservationFilter) ([]*entities.Reservation, error)

	// ListOverlapping retrieves reservations on a resource intersecting [from, to)
	ListOverlapping(ctx context.Context, resourceID string, from, to time.Time, excludeID string) ([]*entities.Reservation, error)
}

// ReservationFilter defines filters for listing reservations
type ReservationFilter struct {
	SiteID string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
