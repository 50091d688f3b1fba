package resolvers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nando-scheduler/backend/internal/api/middleware"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/graphql/loaders"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

// SiteReader is the part of the site service the schema reads from
type SiteReader interface {
	ListSites(ctx context.Context, requester entities.Requester) ([]*entities.SiteSummary, error)
	GetSite(ctx context.Context, requester entities.Requester, siteID string) (*entities.Site, error)
}

// ResourceReader is the part of the resource service the schema reads from
type ResourceReader interface {
	GetResource(ctx context.Context, requester entities.Requester, resourceID string) (*entities.Resource, error)
	SearchResources(ctx context.Context, requester entities.Requester, query string, limit, offset int) ([]*entities.ResourceSearchDocument, error)
}

// Resolver resolves schema fields by type and field name. Root fields go
// through the services so team membership is enforced; nested fields use
// the request's loaders.
type Resolver struct {
	sites     SiteReader
	resources ResourceReader
}

// NewResolver creates a new resolver with dependencies
func NewResolver(sites SiteReader, resources ResourceReader) *Resolver {
	return &Resolver{sites: sites, resources: resources}
}

// thunk defers a field value so loader-backed fields can enqueue their keys
// before any batch runs
type thunk func() (any, error)

func value(v any) thunk {
	return func() (any, error) { return v, nil }
}

func failed(err error) thunk {
	return func() (any, error) { return nil, err }
}

var errNoLoaders = errors.New("graphql loaders missing from request context")

func (r *Resolver) resolve(ctx context.Context, typeName, field string, parent any, args map[string]any) thunk {
	switch typeName {
	case "Query":
		return r.query(ctx, field, args)
	case "Site":
		return siteField(ctx, parent.(*entities.Site), field)
	case "Resource":
		return resourceField(ctx, parent.(*entities.Resource), field)
	}
	return failed(apperrors.NewInternalError(fmt.Sprintf("no resolver for %s.%s", typeName, field), nil))
}

func (r *Resolver) query(ctx context.Context, field string, args map[string]any) thunk {
	requester := middleware.RequesterFromContext(ctx)

	switch field {
	case "sites":
		summaries, err := r.sites.ListSites(ctx, requester)
		if err != nil {
			return failed(err)
		}
		list := make([]any, len(summaries))
		for i, s := range summaries {
			list[i] = &s.Site
		}
		return value(list)

	case "site":
		site, err := r.sites.GetSite(ctx, requester, stringArg(args, "id"))
		if err != nil {
			return failed(err)
		}
		return value(site)

	case "resource":
		resource, err := r.resources.GetResource(ctx, requester, stringArg(args, "id"))
		if err != nil {
			return failed(err)
		}
		return value(resource)

	case "searchResources":
		docs, err := r.resources.SearchResources(ctx, requester, stringArg(args, "query"), intArg(args, "limit"), intArg(args, "offset"))
		if err != nil {
			return failed(err)
		}
		list := make([]any, len(docs))
		for i, doc := range docs {
			list[i] = &entities.Resource{
				ID:                  doc.ID,
				SiteID:              doc.SiteID,
				Name:                doc.Name,
				Description:         doc.Description,
				LocationDescription: doc.LocationDescription,
				MaxOccupants:        doc.MaxOccupants,
			}
		}
		return value(list)

	case "__schema", "__type":
		return failed(apperrors.NewValidationError("introspection disabled"))
	}
	return failed(apperrors.NewInternalError("no resolver for Query."+field, nil))
}

func siteField(ctx context.Context, site *entities.Site, field string) thunk {
	switch field {
	case "id":
		return value(site.ID)
	case "teamId":
		return value(site.TeamID)
	case "name":
		return value(site.Name)
	case "description":
		return value(site.Description)
	case "city":
		return value(site.City)
	case "state":
		return value(site.State)
	case "slugName":
		return value(site.SlugName)
	case "resources":
		ldrs := loaders.For(ctx)
		if ldrs == nil {
			return failed(errNoLoaders)
		}
		load := ldrs.SiteResources.Load(ctx, site.ID)
		return func() (any, error) {
			resources, err := load()
			if err != nil {
				return nil, err
			}
			list := make([]any, len(resources))
			for i, res := range resources {
				list[i] = res
			}
			return list, nil
		}
	}
	return failed(apperrors.NewInternalError("no resolver for Site."+field, nil))
}

func resourceField(ctx context.Context, resource *entities.Resource, field string) thunk {
	switch field {
	case "id":
		return value(resource.ID)
	case "siteId":
		return value(resource.SiteID)
	case "name":
		return value(resource.Name)
	case "description":
		return value(resource.Description)
	case "locationDescription":
		return value(resource.LocationDescription)
	case "maxOccupants":
		return value(resource.MaxOccupants)
	case "site":
		ldrs := loaders.For(ctx)
		if ldrs == nil {
			return failed(errNoLoaders)
		}
		load := ldrs.Sites.Load(ctx, resource.SiteID)
		return func() (any, error) {
			site, err := load()
			if err != nil {
				return nil, err
			}
			return site, nil
		}
	}
	return failed(apperrors.NewInternalError("no resolver for Resource."+field, nil))
}

func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// intArg reads an Int argument. Literals arrive as int64, variables as
// json.Number.
func intArg(args map[string]any, name string) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}
