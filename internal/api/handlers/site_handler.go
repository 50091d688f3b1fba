package handlers

import (
	"context"
	"net/http"

	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// SiteService is the site API consumed by SiteHandler
type SiteService interface {
	CreateSite(ctx context.Context, requester entities.Requester, teamID string, in services.SiteInput) (*entities.Site, error)
	ListSites(ctx context.Context, requester entities.Requester) ([]*entities.SiteSummary, error)
	ListTeamSites(ctx context.Context, requester entities.Requester, teamID string) ([]*entities.SiteSummary, error)
	GetSite(ctx context.Context, requester entities.Requester, siteID string) (*entities.Site, error)
	UpdateSite(ctx context.Context, requester entities.Requester, siteID string, in services.SiteInput) (*entities.Site, error)
	DeleteSite(ctx context.Context, requester entities.Requester, siteID string) error
}

// SiteHandler handles site requests
type SiteHandler struct {
	sites SiteService
}

// NewSiteHandler creates a new site handler
func NewSiteHandler(sites SiteService) *SiteHandler {
	return &SiteHandler{sites: sites}
}

// CreateSite handles POST /api/teams/{id}/sites
func (h *SiteHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	var in services.SiteInput
	if !decodeJSON(w, r, &in) {
		return
	}

	site, err := h.sites.CreateSite(r.Context(), requester(r), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, site)
}

// ListSites handles GET /api/sites
func (h *SiteHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.sites.ListSites(r.Context(), requester(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sites": sites,
		"count": len(sites),
	})
}

// ListTeamSites handles GET /api/teams/{id}/sites
func (h *SiteHandler) ListTeamSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.sites.ListTeamSites(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sites": sites,
		"count": len(sites),
	})
}

// GetSite handles GET /api/sites/{id}
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.sites.GetSite(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, site)
}

// UpdateSite handles PATCH /api/sites/{id}
func (h *SiteHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	var in services.SiteInput
	if !decodeJSON(w, r, &in) {
		return
	}

	site, err := h.sites.UpdateSite(r.Context(), requester(r), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, site)
}

// DeleteSite handles DELETE /api/sites/{id}
func (h *SiteHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	if err := h.sites.DeleteSite(r.Context(), requester(r), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
