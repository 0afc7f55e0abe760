// Package api wires the HTTP surface of the fleet server: authentication,
// user administration, fleet reads, settings and operational endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/fleet"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/identitycache"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/settings"
	"github.com/truckwise/fleet-server/pkg/users"
)

// Deps carries everything the server needs. Limiter, Metrics, Health and
// Registry may be nil; the matching endpoints or middleware are then
// skipped.
type Deps struct {
	Logger   *observability.Logger
	Metrics  *observability.Metrics
	Health   *observability.HealthChecker
	Registry *prometheus.Registry
	Tokens   *auth.TokenService
	Cache    *identitycache.Cache
	Users    users.Store
	Fleet    fleet.Store
	Settings *settings.Service
	Limiter  *middleware.LoginLimiter
}

// Server is the HTTP API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	deps    Deps
	auth    *middleware.AuthMiddleware
}

// NewServer creates the API server and installs all routes
func NewServer(deps Deps) *Server {
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		auth:   middleware.NewAuthMiddleware(deps.Tokens, deps.Cache, deps.Users, deps.Metrics),
	}
	// Installed on the router so the middleware sees the matched route and
	// can label metrics with the path template instead of the raw path.
	if deps.Metrics != nil {
		s.router.Use(deps.Metrics.HTTPMiddleware)
	}
	s.setupRoutes()

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID(deps.Logger),
		httputil.CORSMiddleware,
		httputil.RecoveryMiddleware,
	}
	s.handler = httputil.Chain(chain...)(s.router)

	return s
}

func (s *Server) setupRoutes() {
	if s.deps.Health != nil {
		s.router.HandleFunc("/api/health", s.deps.Health.Handler).Methods("GET")
	}
	if s.deps.Registry != nil {
		s.router.Handle("/metrics", observability.Handler(s.deps.Registry)).Methods("GET")
	}

	authHandlers := NewAuthHandlers(s.deps.Users, s.deps.Tokens, s.deps.Metrics)
	authHandlers.RegisterRoutes(s.router, s.auth, s.deps.Limiter)

	userHandlers := NewUserHandlers(s.deps.Users, s.deps.Cache, s.deps.Metrics)
	userHandlers.RegisterRoutes(s.router, s.auth)

	fleetHandlers := NewFleetHandlers(s.deps.Fleet)
	fleetHandlers.RegisterRoutes(s.router, s.auth)

	if s.deps.Settings != nil {
		settingsHandlers := NewSettingsHandlers(s.deps.Settings)
		settingsHandlers.RegisterRoutes(s.router, s.auth)
	}

	cacheHandlers := NewCacheHandlers(s.deps.Cache, s.deps.Metrics)
	cacheHandlers.RegisterRoutes(s.router, s.auth)
}

// ServeHTTP implements http.Handler with the ambient middleware applied
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
