package loaders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/graph-gophers/dataloader/v7"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batches the per-parent lookups of one GraphQL request
type Loaders struct {
	Sites         *dataloader.Loader[string, *entities.Site]
	SiteResources *dataloader.Loader[string, []*entities.Resource]
}

// NewLoaders creates a new instance of Loaders
func NewLoaders(sites repositories.SiteRepository, resources repositories.ResourceRepository) *Loaders {
	return &Loaders{
		Sites: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[*entities.Site] {
			results := make([]*dataloader.Result[*entities.Site], len(keys))
			found, err := sites.GetByIDs(ctx, keys)

			byID := make(map[string]*entities.Site, len(found))
			for _, s := range found {
				byID[s.ID] = s
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[*entities.Site]{Error: err}
				} else if s, ok := byID[key]; ok {
					results[i] = &dataloader.Result[*entities.Site]{Data: s}
				} else {
					results[i] = &dataloader.Result[*entities.Site]{Error: apperrors.NewNotFoundError(fmt.Sprintf("site with id %s not found", key))}
				}
			}
			return results
		}),
		SiteResources: dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[[]*entities.Resource] {
			results := make([]*dataloader.Result[[]*entities.Resource], len(keys))
			found, err := resources.ListBySites(ctx, keys)

			bySite := make(map[string][]*entities.Resource, len(keys))
			for _, r := range found {
				bySite[r.SiteID] = append(bySite[r.SiteID], r)
			}

			for i, key := range keys {
				if err != nil {
					results[i] = &dataloader.Result[[]*entities.Resource]{Error: err}
					continue
				}
				list := bySite[key]
				if list == nil {
					list = []*entities.Resource{}
				}
				results[i] = &dataloader.Result[[]*entities.Resource]{Data: list}
			}
			return results
		}),
	}
}

// For returns the loaders for a given context, or nil outside a GraphQL request
func For(ctx context.Context) *Loaders {
	ldrs, _ := ctx.Value(loadersKey).(*Loaders)
	return ldrs
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

// Middleware attaches fresh loaders to every request so cached results
// never outlive it
func Middleware(sites repositories.SiteRepository, resources repositories.ResourceRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithLoaders(r.Context(), NewLoaders(sites, resources))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
