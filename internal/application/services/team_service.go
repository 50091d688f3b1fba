package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nando-scheduler/backend/internal/clock"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// TeamService handles teams and their memberships
type TeamService struct {
	teams repositories.TeamRepository
	users repositories.UserRepository
	index resourceIndex
	clock clock.Clock
}

// NewTeamService creates a new team service. searchRepo and eventBus may be nil.
func NewTeamService(
	teams repositories.TeamRepository,
	users repositories.UserRepository,
	resources repositories.ResourceRepository,
	searchRepo repositories.ResourceSearchRepository,
	eventBus providers.EventBus,
	clk clock.Clock,
) *TeamService {
	return &TeamService{
		teams: teams,
		users: users,
		index: resourceIndex{resources: resources, searchRepo: searchRepo, eventBus: eventBus, clock: clk},
		clock: clk,
	}
}

// CreateTeam creates a team owned by the requester
func (s *TeamService) CreateTeam(ctx context.Context, requester entities.Requester, name, description string) (*entities.Team, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if err := required(name, "name"); err != nil {
		return nil, err
	}
	if err := required(description, "description"); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	team := &entities.Team{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &entities.TeamMember{
		ID:        uuid.NewString(),
		TeamID:    team.ID,
		UserID:    requester.UserID,
		Email:     entities.NormalizeEmail(requester.Email),
		Role:      entities.RoleOwner,
		CreatedAt: now,
	}
	if err := s.teams.CreateWithOwner(ctx, team, owner); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().Str("team_id", team.ID).Str("user_id", requester.UserID).Msg("Team created")
	return team, nil
}

// ListTeams lists the requester's teams with member and site counts
func (s *TeamService) ListTeams(ctx context.Context, requester entities.Requester) ([]*entities.TeamSummary, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	return s.teams.ListForUser(ctx, requester.UserID)
}

// GetTeam returns a team the requester belongs to
func (s *TeamService) GetTeam(ctx context.Context, requester entities.Requester, teamID string) (*entities.Team, error) {
	if _, err := requireMember(ctx, s.teams, teamID, requester); err != nil {
		return nil, err
	}
	return s.teams.GetByID(ctx, teamID)
}

// UpdateTeam renames a team. Owners and admins only.
func (s *TeamService) UpdateTeam(ctx context.Context, requester entities.Requester, teamID, name, description string) (*entities.Team, error) {
	if _, err := requireManager(ctx, s.teams, teamID, requester); err != nil {
		return nil, err
	}
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if err := required(name, "name"); err != nil {
		return nil, err
	}
	if err := required(description, "description"); err != nil {
		return nil, err
	}

	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Name = name
	team.Description = description
	team.UpdatedAt = s.clock.Now()
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam deletes a team with everything below it. Owner only.
func (s *TeamService) DeleteTeam(ctx context.Context, requester entities.Requester, teamID string) error {
	member, err := requireMember(ctx, s.teams, teamID, requester)
	if err != nil {
		return err
	}
	if !member.Role.IsOwner() {
		return apperrors.NewForbiddenError("only the team owner can delete the team")
	}
	removed := s.index.affected(ctx, repositories.SearchDocumentScope{TeamID: teamID})
	if err := s.teams.Delete(ctx, teamID); err != nil {
		return err
	}
	s.index.drop(ctx, removed...)

	observability.LoggerFromContext(ctx).Info().Str("team_id", teamID).Str("user_id", requester.UserID).Msg("Team deleted")
	return nil
}

// ListMembers lists a team's members ordered by role then email
func (s *TeamService) ListMembers(ctx context.Context, requester entities.Requester, teamID string) ([]*entities.TeamMember, error) {
	if _, err := requireMember(ctx, s.teams, teamID, requester); err != nil {
		return nil, err
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	entities.SortMembers(members)
	return members, nil
}

// AddMember invites a registered user into the team as admin or member
func (s *TeamService) AddMember(ctx context.Context, requester entities.Requester, teamID, email, role string) (*entities.TeamMember, error) {
	actor, err := requireManager(ctx, s.teams, teamID, requester)
	if err != nil {
		return nil, err
	}

	email = entities.NormalizeEmail(email)
	if err := required(email, "email"); err != nil {
		return nil, err
	}
	newRole, err := assignableRole(role)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsOwner() && !actor.Role.Outranks(newRole) {
		return nil, apperrors.NewForbiddenError("admins can only add members")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("no user registered with email " + email)
		}
		return nil, err
	}

	member := &entities.TeamMember{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      newRole,
		CreatedAt: s.clock.Now(),
	}
	if err := s.teams.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// UpdateMemberRole changes a member's role. The owner's role is fixed and
// the actor must outrank the member being changed.
func (s *TeamService) UpdateMemberRole(ctx context.Context, requester entities.Requester, teamID, userID, role string) error {
	actor, err := requireManager(ctx, s.teams, teamID, requester)
	if err != nil {
		return err
	}
	newRole, err := assignableRole(role)
	if err != nil {
		return err
	}

	target, err := s.teams.GetMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if target.Role.IsOwner() {
		return apperrors.NewForbiddenError("the owner's role cannot be changed")
	}
	if !actor.Role.Outranks(target.Role) || (!actor.Role.IsOwner() && !actor.Role.Outranks(newRole)) {
		return apperrors.NewForbiddenError("insufficient role to change this member")
	}
	if target.Role == newRole {
		return nil
	}
	return s.teams.UpdateMemberRole(ctx, teamID, userID, newRole)
}

// RemoveMember removes someone else from the team
func (s *TeamService) RemoveMember(ctx context.Context, requester entities.Requester, teamID, userID string) error {
	actor, err := requireManager(ctx, s.teams, teamID, requester)
	if err != nil {
		return err
	}
	if userID == requester.UserID {
		return apperrors.NewValidationError("use leave to remove yourself from a team")
	}

	target, err := s.teams.GetMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if target.Role.IsOwner() {
		return apperrors.NewForbiddenError("the team owner cannot be removed")
	}
	if !actor.Role.Outranks(target.Role) {
		return apperrors.NewForbiddenError("insufficient role to remove this member")
	}
	return s.teams.RemoveMember(ctx, teamID, userID)
}

// LeaveTeam removes the requester from a team. The owner has to delete the
// team instead.
func (s *TeamService) LeaveTeam(ctx context.Context, requester entities.Requester, teamID string) error {
	member, err := requireMember(ctx, s.teams, teamID, requester)
	if err != nil {
		return err
	}
	if member.Role.IsOwner() {
		return apperrors.NewForbiddenError("the owner cannot leave the team; delete it instead")
	}
	return s.teams.RemoveMember(ctx, teamID, requester.UserID)
}

func assignableRole(role string) (entities.Role, error) {
	r, err := entities.ParseRole(role)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	if r.IsOwner() {
		return "", apperrors.NewValidationError("the owner role cannot be assigned")
	}
	return r, nil
}
