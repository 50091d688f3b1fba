package repositories

import (
	"context"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// TeamRepository defines the interface for team and membership data operations
type TeamRepository interface {
	// CreateWithOwner creates a team and its owner membership atomically
	CreateWithOwner(ctx context.Context, team *entities.Team, owner *entities.TeamMember) error

	// GetByID retrieves a team by ID
	GetByID(ctx context.Context, id string) (*entities.Team, error)

	// Update updates a team's name and description
	Update(ctx context.Context, team *entities.Team) error

	// Delete deletes a team; sites, resources and reservations cascade
	Delete(ctx context.Context, id string) error

	// ListForUser retrieves the teams a user belongs to with counts and the user's role
	ListForUser(ctx context.Context, userID string) ([]*entities.TeamSummary, error)

	// GetMember retrieves the membership of a user in a team
	GetMember(ctx context.Context, teamID, userID string) (*entities.TeamMember, error)

	// ListMembers retrieves the members of a team with their emails
	ListMembers(ctx context.Context, teamID string) ([]*entities.TeamMember, error)

	// AddMember adds a membership
	AddMember(ctx context.Context, member *entities.TeamMember) error

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(ctx context.Context, teamID, userID string, role entities.Role) error

	// RemoveMember deletes a membership
	RemoveMember(ctx context.Context, teamID, userID string) error
}
