package handlers

import (
	"context"
	"net/http"

	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// ProfileService returns the caller's user record
type ProfileService interface {
	GetProfile(ctx context.Context, requester entities.Requester) (*entities.User, error)
}

// UserHandler handles requests about the caller
type UserHandler struct {
	users ProfileService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users ProfileService) *UserHandler {
	return &UserHandler{users: users}
}

// Me handles GET /api/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetProfile(r.Context(), requester(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
