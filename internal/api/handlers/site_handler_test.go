package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nando-scheduler/backend/internal/api/handlers"
	"github.com/nando-scheduler/backend/internal/application/services"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSites struct {
	created services.SiteInput
	teamID  string
	err     error
}

func (s *stubSites) CreateSite(_ context.Context, _ entities.Requester, teamID string, in services.SiteInput) (*entities.Site, error) {
	s.teamID, s.created = teamID, in
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Site{ID: "s1", TeamID: teamID, Name: in.Name}, nil
}

func (s *stubSites) ListSites(context.Context, entities.Requester) ([]*entities.SiteSummary, error) {
	return []*entities.SiteSummary{{}, {}}, nil
}

func (s *stubSites) ListTeamSites(context.Context, entities.Requester, string) ([]*entities.SiteSummary, error) {
	return []*entities.SiteSummary{}, nil
}

func (s *stubSites) GetSite(_ context.Context, _ entities.Requester, siteID string) (*entities.Site, error) {
	return nil, apperrors.NewNotFoundError("site not found")
}

func (s *stubSites) UpdateSite(context.Context, entities.Requester, string, services.SiteInput) (*entities.Site, error) {
	return nil, s.err
}

func (s *stubSites) DeleteSite(context.Context, entities.Requester, string) error {
	return s.err
}

func TestSiteHandler_CreateSite(t *testing.T) {
	sites := &stubSites{}
	req := asAlice(httptest.NewRequest(http.MethodPost, "/api/teams/t1/sites",
		strings.NewReader(`{"name":"Mariner","city":"Lisbon","state":"LX"}`)))
	req.SetPathValue("id", "t1")
	w := httptest.NewRecorder()

	handlers.NewSiteHandler(sites).CreateSite(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "t1", sites.teamID)
	assert.Equal(t, "Lisbon", sites.created.City)
}

func TestSiteHandler_ListSites(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewSiteHandler(&stubSites{}).ListSites(w, asAlice(httptest.NewRequest(http.MethodGet, "/api/sites", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, float64(2), resp["count"])
}

func TestSiteHandler_GetSite_Hidden(t *testing.T) {
	req := asAlice(httptest.NewRequest(http.MethodGet, "/api/sites/s9", nil))
	req.SetPathValue("id", "s9")
	w := httptest.NewRecorder()

	handlers.NewSiteHandler(&stubSites{}).GetSite(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSiteHandler_DeleteSite_Forbidden(t *testing.T) {
	req := asAlice(httptest.NewRequest(http.MethodDelete, "/api/sites/s1", nil))
	req.SetPathValue("id", "s1")
	w := httptest.NewRecorder()

	handlers.NewSiteHandler(&stubSites{err: apperrors.NewForbiddenError("admin role required")}).DeleteSite(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
