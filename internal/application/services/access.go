package services

import (
	"context"
	"strings"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

func requireAuthenticated(requester entities.Requester) error {
	if !requester.Authenticated() {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	return nil
}

// requireMember resolves the requester's membership of a team. Non-members
// get NOT_FOUND so that the existence of other teams is not disclosed.
func requireMember(ctx context.Context, teams repositories.TeamRepository, teamID string, requester entities.Requester) (*entities.TeamMember, error) {
	if err := requireAuthenticated(requester); err != nil {
		return nil, err
	}
	if strings.TrimSpace(teamID) == "" {
		return nil, apperrors.NewValidationError("team id is required")
	}

	member, err := teams.GetMember(ctx, teamID, requester.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("team not found")
		}
		return nil, err
	}
	return member, nil
}

// requireManager is requireMember plus an owner or admin role.
func requireManager(ctx context.Context, teams repositories.TeamRepository, teamID string, requester entities.Requester) (*entities.TeamMember, error) {
	member, err := requireMember(ctx, teams, teamID, requester)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManage() {
		return nil, apperrors.NewForbiddenError("only team owners and admins can do this")
	}
	return member, nil
}

func required(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field + " is required")
	}
	return nil
}
