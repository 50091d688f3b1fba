package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
)

// ResourceService is the resource and amenity API consumed by ResourceHandler
type ResourceService interface {
	CreateResource(ctx context.Context, requester entities.Requester, siteID string, in services.ResourceInput) (*entities.Resource, error)
	ListSiteResources(ctx context.Context, requester entities.Requester, siteID string) ([]*entities.Resource, error)
	GetResource(ctx context.Context, requester entities.Requester, resourceID string) (*entities.Resource, error)
	UpdateResource(ctx context.Context, requester entities.Requester, resourceID string, in services.ResourceInput) (*entities.Resource, error)
	DeleteResource(ctx context.Context, requester entities.Requester, resourceID string) error
	ListAmenities(ctx context.Context, requester entities.Requester) ([]*entities.Amenity, error)
	ListResourceAmenities(ctx context.Context, requester entities.Requester, resourceID string) ([]*entities.ResourceAmenity, error)
	AddResourceAmenity(ctx context.Context, requester entities.Requester, resourceID, amenityID, nameOverride string) (*entities.ResourceAmenity, error)
	RemoveResourceAmenity(ctx context.Context, requester entities.Requester, resourceID, amenityID string) error
	SearchResources(ctx context.Context, requester entities.Requester, query string, limit, offset int) ([]*entities.ResourceSearchDocument, error)
}

// ResourceHandler handles resource, amenity and search requests
type ResourceHandler struct {
	resources ResourceService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resources ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

type amenityRequest struct {
	AmenityID    string `json:"amenity_id"`
	NameOverride string `json:"name_override"`
}

// CreateResource handles POST /api/sites/{id}/resources
func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var in services.ResourceInput
	if !decodeJSON(w, r, &in) {
		return
	}

	resource, err := h.resources.CreateResource(r.Context(), requester(r), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, resource)
}

// ListSiteResources handles GET /api/sites/{id}/resources
func (h *ResourceHandler) ListSiteResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.resources.ListSiteResources(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"resources": resources,
		"count":     len(resources),
	})
}

// GetResource handles GET /api/resources/{id}
func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	resource, err := h.resources.GetResource(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resource)
}

// UpdateResource handles PATCH /api/resources/{id}
func (h *ResourceHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	var in services.ResourceInput
	if !decodeJSON(w, r, &in) {
		return
	}

	resource, err := h.resources.UpdateResource(r.Context(), requester(r), r.PathValue("id"), in)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resource)
}

// DeleteResource handles DELETE /api/resources/{id}
func (h *ResourceHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	if err := h.resources.DeleteResource(r.Context(), requester(r), r.PathValue("id")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAmenities handles GET /api/amenities
func (h *ResourceHandler) ListAmenities(w http.ResponseWriter, r *http.Request) {
	amenities, err := h.resources.ListAmenities(r.Context(), requester(r))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"amenities": amenities,
		"count":     len(amenities),
	})
}

// ListResourceAmenities handles GET /api/resources/{id}/amenities
func (h *ResourceHandler) ListResourceAmenities(w http.ResponseWriter, r *http.Request) {
	amenities, err := h.resources.ListResourceAmenities(r.Context(), requester(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"amenities": amenities,
		"count":     len(amenities),
	})
}

// AddResourceAmenity handles POST /api/resources/{id}/amenities
func (h *ResourceHandler) AddResourceAmenity(w http.ResponseWriter, r *http.Request) {
	var req amenityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amenity, err := h.resources.AddResourceAmenity(r.Context(), requester(r), r.PathValue("id"), req.AmenityID, req.NameOverride)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, amenity)
}

// RemoveResourceAmenity handles DELETE /api/resources/{id}/amenities/{amenityId}
func (h *ResourceHandler) RemoveResourceAmenity(w http.ResponseWriter, r *http.Request) {
	if err := h.resources.RemoveResourceAmenity(r.Context(), requester(r), r.PathValue("id"), r.PathValue("amenityId")); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchResources handles GET /api/resources/search?q=&limit=&offset=
func (h *ResourceHandler) SearchResources(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	results, err := h.resources.SearchResources(r.Context(), requester(r), query, limit, offset)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":     query,
		"resources": results,
		"count":     len(results),
	})
}
