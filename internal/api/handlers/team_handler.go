package handlers

import (
	"context"
	"net/http"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// TeamService is the team API consumed by TeamHandler
type TeamService interface {
	CreateTeam(ctx context.Context, requester entities.Requester, name, description string) (*entities.Team, error)
	ListTeams(ctx context.Context, requester entities.Requester) ([]*entities.TeamSummary, error)
	GetTeam(ctx context.Context, requester entities.Requester, teamID string) (*entities.Team, error)
	UpdateTeam(ctx context.Context, requester entities.Requester, teamID, name, description string) (*entities.Team, error)
	DeleteTeam(ctx context.Context, requester entities.Requester, teamID string) error
	ListMembers(ctx context.Context, requester entities.Requester, teamID string) ([]*entities.TeamMember, error)
	AddMember(ctx context.Context, requester entities.Requester, teamID, email, role string) (*entities.TeamMember, error)
	UpdateMemberRole(ctx context.Context, requester entities.Requester, teamID, userID, role string) error
	RemoveMember(ctx context.Context, requester entities.Requester, teamID, userID string) error
	LeaveTeam(ctx context.Context, requester entities.Requester, teamID string) error
}

// TeamHandler handles team and membership requests
type TeamHandler struct {
	teams TeamService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams TeamService) *TeamHandler {
	return &TeamHandler{teams: teams}
}

type teamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type memberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// CreateTeam handles POST /api/teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.teams.CreateTeam(r.Context(), requester(r), req.Name, req.Description)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, team)
}

// ListTeams handles GET /api/teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.ListTeams(r.Context(), requester(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"teams": teams,
		"count": len(teams),
	})
}

// GetTeam handles GET /api/teams/{id}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.teams.GetTeam(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, team)
}

// UpdateTeam handles PATCH /api/teams/{id}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.teams.UpdateTeam(r.Context(), requester(r), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, team)
}

// DeleteTeam handles DELETE /api/teams/{id}
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.DeleteTeam(r.Context(), requester(r), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers handles GET /api/teams/{id}/members
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.teams.ListMembers(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
		"count":   len(members),
	})
}

// AddMember handles POST /api/teams/{id}/members
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	member, err := h.teams.AddMember(r.Context(), requester(r), r.PathValue("id"), req.Email, req.Role)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, member)
}

// UpdateMemberRole handles PATCH /api/teams/{id}/members/{userId}
func (h *TeamHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.teams.UpdateMemberRole(r.Context(), requester(r), r.PathValue("id"), r.PathValue("userId"), req.Role); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/teams/{id}/members/{userId}
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.RemoveMember(r.Context(), requester(r), r.PathValue("id"), r.PathValue("userId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LeaveTeam handles POST /api/teams/{id}/leave
func (h *TeamHandler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.LeaveTeam(r.Context(), requester(r), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
