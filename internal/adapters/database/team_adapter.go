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

// TeamAdapter implements the TeamRepository interface
type TeamAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTeamAdapter creates a new team adapter
func NewTeamAdapter(client *postgres.Client) repositories.TeamRepository {
	return &TeamAdapter{
		client: client,
		db:     newDialect(client),
	}
}

// CreateWithOwner inserts the team and its owner membership in one transaction
func (a *TeamAdapter) CreateWithOwner(ctx context.Context, team *entities.Team, owner *entities.TeamMember) error {
	teamSQL, teamArgs, err := a.db.Insert("teams").Rows(goqu.Record{
		"id":          team.ID,
		"name":        team.Name,
		"description": team.Description,
		"created_at":  team.CreatedAt,
		"updated_at":  team.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	memberSQL, memberArgs, err := a.memberInsert(owner)
	if err != nil {
		return err
	}

	tx, err := a.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	if _, err := tx.ExecContext(ctx, teamSQL, teamArgs...); err != nil {
		_ = tx.Rollback()
		return apperrors.NewInternalError("failed to create team", err)
	}
	if _, err := tx.ExecContext(ctx, memberSQL, memberArgs...); err != nil {
		_ = tx.Rollback()
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", owner.UserID))
		}
		return apperrors.NewInternalError("failed to create owner membership", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit team", err)
	}
	return nil
}

// GetByID retrieves a team by ID
func (a *TeamAdapter) GetByID(ctx context.Context, id string) (*entities.Team, error) {
	query, args, err := a.db.Select("id", "name", "description", "created_at", "updated_at").
		From("teams").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	team := &entities.Team{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("team with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get team", err)
	}
	return team, nil
}

// Update updates a team's name and description
func (a *TeamAdapter) Update(ctx context.Context, team *entities.Team) error {
	query, args, err := a.db.Update("teams").
		Set(goqu.Record{
			"name":        team.Name,
			"description": team.Description,
			"updated_at":  team.UpdatedAt,
		}).
		Where(goqu.Ex{"id": team.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to update team",
		fmt.Sprintf("team with id %s not found", team.ID))
}

// Delete deletes a team
func (a *TeamAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("teams").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to delete team",
		fmt.Sprintf("team with id %s not found", id))
}

// ListForUser retrieves the teams the user belongs to
func (a *TeamAdapter) ListForUser(ctx context.Context, userID string) ([]*entities.TeamSummary, error) {
	query, args, err := a.db.From(goqu.T("teams").As("t")).
		Join(goqu.T("team_users").As("tu"), goqu.On(goqu.I("tu.team_id").Eq(goqu.I("t.id")))).
		Select(
			"t.id", "t.name", "t.description", "t.created_at", "t.updated_at", "tu.role",
			goqu.L("(SELECT COUNT(*) FROM team_users m WHERE m.team_id = t.id)").As("member_count"),
			goqu.L("(SELECT COUNT(*) FROM sites s WHERE s.team_id = t.id)").As("site_count"),
		).
		Where(goqu.I("tu.user_id").Eq(userID)).
		Order(goqu.I("t.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list teams", err)
	}
	defer rows.Close()

	teams := []*entities.TeamSummary{}
	for rows.Next() {
		summary := &entities.TeamSummary{}
		var role string
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Description,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&role,
			&summary.MemberCount,
			&summary.SiteCount,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan team", err)
		}
		summary.UserRole = entities.Role(role)
		teams = append(teams, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate teams", err)
	}

	return teams, nil
}

// GetMember retrieves a membership
func (a *TeamAdapter) GetMember(ctx context.Context, teamID, userID string) (*entities.TeamMember, error) {
	query, args, err := a.memberSelect().
		Where(goqu.I("tu.team_id").Eq(teamID), goqu.I("tu.user_id").Eq(userID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	member, err := scanMember(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user %s is not a member of team %s", userID, teamID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get membership", err)
	}
	return member, nil
}

// ListMembers retrieves the members of a team ordered by role, then email
func (a *TeamAdapter) ListMembers(ctx context.Context, teamID string) ([]*entities.TeamMember, error) {
	query, args, err := a.memberSelect().
		Where(goqu.I("tu.team_id").Eq(teamID)).
		Order(goqu.I("u.email").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list members", err)
	}
	defer rows.Close()

	members := []*entities.TeamMember{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan member", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate members", err)
	}

	entities.SortMembers(members)
	return members, nil
}

// AddMember inserts a membership
func (a *TeamAdapter) AddMember(ctx context.Context, member *entities.TeamMember) error {
	query, args, err := a.memberInsert(member)
	if err != nil {
		return err
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		switch {
		case isUniqueViolation(err):
			return apperrors.NewConflictError("user is already a member of this team")
		case isForeignKeyViolation(err):
			return apperrors.NewNotFoundError("team or user not found")
		}
		return apperrors.NewInternalError("failed to add member", err)
	}
	return nil
}

// UpdateMemberRole changes a member's role
func (a *TeamAdapter) UpdateMemberRole(ctx context.Context, teamID, userID string, role entities.Role) error {
	query, args, err := a.db.Update("team_users").
		Set(goqu.Record{"role": string(role)}).
		Where(goqu.Ex{"team_id": teamID, "user_id": userID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to update member role",
		fmt.Sprintf("user %s is not a member of team %s", userID, teamID))
}

// RemoveMember deletes a membership
func (a *TeamAdapter) RemoveMember(ctx context.Context, teamID, userID string) error {
	query, args, err := a.db.Delete("team_users").
		Where(goqu.Ex{"team_id": teamID, "user_id": userID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	return execAffectingOne(ctx, a.client, query, args, "failed to remove member",
		fmt.Sprintf("user %s is not a member of team %s", userID, teamID))
}

func (a *TeamAdapter) memberSelect() *goqu.SelectDataset {
	return a.db.From(goqu.T("team_users").As("tu")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("tu.user_id")))).
		Select("tu.id", "tu.team_id", "tu.user_id", "u.email", "tu.role", "tu.created_at")
}

func (a *TeamAdapter) memberInsert(member *entities.TeamMember) (string, []interface{}, error) {
	query, args, err := a.db.Insert("team_users").Rows(goqu.Record{
		"id":         member.ID,
		"team_id":    member.TeamID,
		"user_id":    member.UserID,
		"role":       string(member.Role),
		"created_at": member.CreatedAt,
	}).ToSQL()
	if err != nil {
		return "", nil, apperrors.NewInternalError("failed to build insert query", err)
	}
	return query, args, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMember(row rowScanner) (*entities.TeamMember, error) {
	member := &entities.TeamMember{}
	var role string
	if err := row.Scan(
		&member.ID,
		&member.TeamID,
		&member.UserID,
		&member.Email,
		&role,
		&member.CreatedAt,
	); err != nil {
		return nil, err
	}
	member.Role = entities.Role(role)
	return member, nil
}
