package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	tsclient "github.com/nando-scheduler/backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const queryFields = "name,description,location_description,site_name,city,amenities"

// TypesenseAdapter implements resource search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ResourceSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts a resource document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.ResourceSearchDocument) error {
	_, err := a.client.Client().Collection(tsclient.ResourcesCollection).Documents().Upsert(ctx, toDocument(doc))
	if err != nil {
		return fmt.Errorf("failed to index resource: %w", err)
	}
	return nil
}

// Delete removes a resource from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, resourceID string) error {
	_, err := a.client.Client().Collection(tsclient.ResourcesCollection).Document(resourceID).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete resource from index: %w", err)
	}
	return nil
}

// Search searches resources within the given teams. An empty team list
// matches nothing.
func (a *TypesenseAdapter) Search(ctx context.Context, params repositories.ResourceSearchParams) ([]*entities.ResourceSearchDocument, error) {
	if len(params.TeamIDs) == 0 {
		return []*entities.ResourceSearchDocument{}, nil
	}

	result, err := a.client.Client().Collection(tsclient.ResourcesCollection).Documents().Search(ctx, buildSearchParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to search resources: %w", err)
	}

	docs := []*entities.ResourceSearchDocument{}
	if result.Hits == nil {
		return docs, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		docs = append(docs, fromDocument(*hit.Document))
	}
	return docs, nil
}

func buildSearchParams(params repositories.ResourceSearchParams) *api.SearchCollectionParams {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	q := strings.TrimSpace(params.Query)
	if q == "" {
		q = "*"
	}
	return &api.SearchCollectionParams{
		Q:        pointer.String(q),
		QueryBy:  pointer.String(queryFields),
		FilterBy: pointer.String(teamFilter(params.TeamIDs)),
		Page:     pointer.Int(params.Offset/limit + 1),
		PerPage:  pointer.Int(limit),
	}
}

func teamFilter(teamIDs []string) string {
	escaped := make([]string, 0, len(teamIDs))
	for _, id := range teamIDs {
		escaped = append(escaped, "`"+strings.ReplaceAll(id, "`", "")+"`")
	}
	return "team_id:=[" + strings.Join(escaped, ",") + "]"
}

func toDocument(doc *entities.ResourceSearchDocument) map[string]interface{} {
	amenities := doc.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return map[string]interface{}{
		"id":                   doc.ID,
		"name":                 doc.Name,
		"description":          doc.Description,
		"location_description": doc.LocationDescription,
		"max_occupants":        doc.MaxOccupants,
		"site_id":              doc.SiteID,
		"site_name":            doc.SiteName,
		"city":                 doc.City,
		"team_id":              doc.TeamID,
		"amenities":            amenities,
		"updated_at":           doc.UpdatedAt,
	}
}

// fromDocument reads a hit back; Typesense returns JSON numbers as float64.
func fromDocument(doc map[string]interface{}) *entities.ResourceSearchDocument {
	out := &entities.ResourceSearchDocument{
		ID:                  stringField(doc, "id"),
		Name:                stringField(doc, "name"),
		Description:         stringField(doc, "description"),
		LocationDescription: stringField(doc, "location_description"),
		SiteID:              stringField(doc, "site_id"),
		SiteName:            stringField(doc, "site_name"),
		City:                stringField(doc, "city"),
		TeamID:              stringField(doc, "team_id"),
	}
	if v, ok := doc["max_occupants"].(float64); ok {
		out.MaxOccupants = int(v)
	}
	if v, ok := doc["updated_at"].(float64); ok {
		out.UpdatedAt = int64(v)
	}
	if list, ok := doc["amenities"].([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				out.Amenities = append(out.Amenities, s)
			}
		}
	}
	return out
}

func stringField(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}
