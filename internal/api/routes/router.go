package routes

import (
	"net/http"

	"github.com/nando-scheduler/backend/internal/api/handlers"
	"github.com/nando-scheduler/backend/internal/api/middleware"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler      *handlers.HealthHandler
	userHandler        *handlers.UserHandler
	teamHandler        *handlers.TeamHandler
	siteHandler        *handlers.SiteHandler
	resourceHandler    *handlers.ResourceHandler
	reservationHandler *handlers.ReservationHandler
	sseHandler         *handlers.SSEHandler
	graphqlHandler     http.Handler

	authenticator  *middleware.Authenticator
	responseCache  *middleware.ResponseCache
	allowedOrigins []string
	metrics        *observability.Metrics
}

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Health      *handlers.HealthHandler
	User        *handlers.UserHandler
	Team        *handlers.TeamHandler
	Site        *handlers.SiteHandler
	Resource    *handlers.ResourceHandler
	Reservation *handlers.ReservationHandler
	SSE         *handlers.SSEHandler
	GraphQL     http.Handler
}

// NewRouter creates a new router. responseCache may be nil.
func NewRouter(
	h Handlers,
	authenticator *middleware.Authenticator,
	responseCache *middleware.ResponseCache,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		healthHandler:      h.Health,
		userHandler:        h.User,
		teamHandler:        h.Team,
		siteHandler:        h.Site,
		resourceHandler:    h.Resource,
		reservationHandler: h.Reservation,
		sseHandler:         h.SSE,
		graphqlHandler:     h.GraphQL,

		authenticator:  authenticator,
		responseCache:  responseCache,
		allowedOrigins: allowedOrigins,
		metrics:        metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Identity
	r.handle("GET /api/me", r.userHandler.Me)

	// Team endpoints
	r.handle("GET /api/teams", r.teamHandler.ListTeams)
	r.handle("POST /api/teams", r.teamHandler.CreateTeam)
	r.handle("GET /api/teams/{id}", r.teamHandler.GetTeam)
	r.handle("PATCH /api/teams/{id}", r.teamHandler.UpdateTeam)
	r.handle("DELETE /api/teams/{id}", r.teamHandler.DeleteTeam)
	r.handle("GET /api/teams/{id}/members", r.teamHandler.ListMembers)
	r.handle("POST /api/teams/{id}/members", r.teamHandler.AddMember)
	r.handle("PATCH /api/teams/{id}/members/{userId}", r.teamHandler.UpdateMemberRole)
	r.handle("DELETE /api/teams/{id}/members/{userId}", r.teamHandler.RemoveMember)
	r.handle("POST /api/teams/{id}/leave", r.teamHandler.LeaveTeam)

	// Site endpoints
	r.handle("GET /api/teams/{id}/sites", r.siteHandler.ListTeamSites)
	r.handle("POST /api/teams/{id}/sites", r.siteHandler.CreateSite)
	r.handle("GET /api/sites", r.siteHandler.ListSites)
	r.handle("GET /api/sites/{id}", r.siteHandler.GetSite)
	r.handle("PATCH /api/sites/{id}", r.siteHandler.UpdateSite)
	r.handle("DELETE /api/sites/{id}", r.siteHandler.DeleteSite)

	// Resource endpoints
	r.handle("GET /api/sites/{id}/resources", r.resourceHandler.ListSiteResources)
	r.handle("POST /api/sites/{id}/resources", r.resourceHandler.CreateResource)
	r.handle("GET /api/resources/search", r.resourceHandler.SearchResources)
	r.handle("GET /api/resources/{id}", r.resourceHandler.GetResource)
	r.handle("PATCH /api/resources/{id}", r.resourceHandler.UpdateResource)
	r.handle("DELETE /api/resources/{id}", r.resourceHandler.DeleteResource)
	r.handle("GET /api/resources/{id}/amenities", r.resourceHandler.ListResourceAmenities)
	r.handle("POST /api/resources/{id}/amenities", r.resourceHandler.AddResourceAmenity)
	r.handle("DELETE /api/resources/{id}/amenities/{amenityId}", r.resourceHandler.RemoveResourceAmenity)

	// The amenity catalog is shared by every user and safe to cache
	var amenities http.Handler = http.HandlerFunc(r.resourceHandler.ListAmenities)
	if r.responseCache != nil {
		amenities = r.responseCache.Middleware(amenities)
	}
	r.mux.Handle("GET /api/amenities", r.authenticator.Middleware(amenities))

	// Reservation endpoints
	r.handle("GET /api/reservations", r.reservationHandler.ListMine)
	r.handle("POST /api/reservations", r.reservationHandler.CreateReservation)
	r.handle("GET /api/reservations/calendar", r.reservationHandler.Calendar)
	r.handle("GET /api/reservations/export.ics", r.reservationHandler.ExportICS)
	r.handle("GET /api/reservations/{id}", r.reservationHandler.GetReservation)
	r.handle("PATCH /api/reservations/{id}", r.reservationHandler.UpdateReservation)
	r.handle("DELETE /api/reservations/{id}", r.reservationHandler.DeleteReservation)

	// Server-Sent Events
	if r.sseHandler != nil {
		r.handle("GET /api/stream/resources/{id}", r.sseHandler.StreamResourceUpdates)
	}

	// Read-only GraphQL view of sites and resources
	if r.graphqlHandler != nil {
		r.mux.Handle("GET /api/graphql", r.authenticator.Middleware(r.graphqlHandler))
		r.mux.Handle("POST /api/graphql", r.authenticator.Middleware(r.graphqlHandler))
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// Authentication runs per route inside the mux so that the outer
	// middlewares see the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflights never need a token
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

func (r *Router) handle(pattern string, h http.HandlerFunc) {
	r.mux.Handle(pattern, r.authenticator.Middleware(h))
}
