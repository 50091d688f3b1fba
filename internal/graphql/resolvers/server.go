package resolvers

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/nando-scheduler/backend/internal/domain/repositories"
	"github.com/nando-scheduler/backend/internal/graphql/loaders"
	"github.com/vektah/gqlparser/v2/ast"
)

// NewServer builds the GraphQL endpoint. It expects the auth middleware to
// have stored the requester; introspection stays off.
func NewServer(resolver *Resolver, sites repositories.SiteRepository, resources repositories.ResourceRepository) http.Handler {
	srv := handler.New(NewExecutableSchema(resolver))
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))

	return loaders.Middleware(sites, resources)(srv)
}
