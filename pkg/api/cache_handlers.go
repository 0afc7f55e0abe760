package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/identitycache"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
)

// CacheHandlers exposes identity cache introspection and manual
// invalidation for operators
type CacheHandlers struct {
	cache   *identitycache.Cache
	metrics *observability.Metrics
}

// NewCacheHandlers creates cache admin handlers. Metrics may be nil.
func NewCacheHandlers(cache *identitycache.Cache, metrics *observability.Metrics) *CacheHandlers {
	return &CacheHandlers{cache: cache, metrics: metrics}
}

// RegisterRoutes installs the cache admin routes behind the super admin gate
func (h *CacheHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware) {
	super := func(handler http.HandlerFunc) http.Handler {
		return authMW.Handler(middleware.RequireRole(auth.RoleSuperAdmin)(handler))
	}

	router.Handle("/api/admin/cache/stats", super(h.Stats)).Methods("GET")
	router.Handle("/api/admin/cache/invalidate/{id}", super(h.Invalidate)).Methods("POST")
}

// Stats handles GET /api/admin/cache/stats
func (h *CacheHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   h.cache.Stats(),
	})
}

// Invalidate handles POST /api/admin/cache/invalidate/{id}
func (h *CacheHandlers) Invalidate(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	h.cache.Invalidate(id)
	if h.metrics != nil {
		h.metrics.CacheInvalidatedTotal.Inc()
	}

	httputil.WriteMessage(w, http.StatusOK, "Cache invalidated for user.")
}
