package services

import (
	"context"
	"sync"

	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// UserService mirrors identity provider users into the local users table
type UserService struct {
	users repositories.UserRepository
	clock clock.Clock

	// synced maps user id to the email last written for it
	synced sync.Map
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, clk clock.Clock) *UserService {
	return &UserService{users: users, clock: clk}
}

// EnsureUser upserts the requester so memberships and reservations can
// reference it. Repeat calls with an unchanged email skip the write.
func (s *UserService) EnsureUser(ctx context.Context, requester entities.Requester) (*entities.User, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	email := entities.NormalizeEmail(requester.Email)
	if email == "" {
		return nil, apperrors.NewUnauthorizedError("token carries no email")
	}

	if known, ok := s.synced.Load(requester.UserID); ok && known.(string) == email {
		return &entities.User{ID: requester.UserID, Email: email}, nil
	}

	now := s.clock.Now()
	user := &entities.User{
		ID:        requester.UserID,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	s.synced.Store(user.ID, email)
	return user, nil
}

// GetProfile returns the requester's user record
func (s *UserService) GetProfile(ctx context.Context, requester entities.Requester) (*entities.User, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, requester.UserID)
}
