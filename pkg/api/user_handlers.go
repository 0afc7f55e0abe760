package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/identitycache"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/users"
)

// UserHandlers serves user administration endpoints. Every profile mutation
// invalidates the identity cache entry so the standard verifier's fallback
// path never serves stale privilege data.
type UserHandlers struct {
	store   users.Store
	cache   *identitycache.Cache
	metrics *observability.Metrics
}

// NewUserHandlers creates user admin handlers. Metrics may be nil.
func NewUserHandlers(store users.Store, cache *identitycache.Cache, metrics *observability.Metrics) *UserHandlers {
	return &UserHandlers{store: store, cache: cache, metrics: metrics}
}

// RegisterRoutes installs the user admin routes behind the standard verifier
// and the company admin gate
func (h *UserHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware) {
	admin := func(handler http.HandlerFunc) http.Handler {
		return authMW.Handler(middleware.RequireRole(auth.RoleCompanyAdmin)(handler))
	}

	router.Handle("/api/users", admin(h.List)).Methods("GET")
	router.Handle("/api/users/{id}", admin(h.Update)).Methods("PUT")
	router.Handle("/api/users/{id}", admin(h.Deactivate)).Methods("DELETE")
}

// List handles GET /api/users. Company admins see their own company only;
// super admins see everyone.
func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgInvalidToken)
		return
	}

	var scope *int64
	if identity.Role.Normalize() != auth.RoleSuperAdmin {
		if identity.CompanyID == nil {
			httputil.WriteBadRequest(w, middleware.MsgCompanyIDRequired)
			return
		}
		scope = identity.CompanyID
	}

	list, err := h.store.List(r.Context(), scope)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list users")
		httputil.WriteInternalError(w, "Failed to fetch users")
		return
	}
	if list == nil {
		list = []users.User{}
	}

	httputil.WriteJSON(w, http.StatusOK, list)
}

type updateUserRequest struct {
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	Role      *auth.Role `json:"role"`
	CompanyID *int64     `json:"companyId"`
	Active    *bool      `json:"active"`
}

// Update handles PUT /api/users/{id}
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Role != nil && !req.Role.Valid() {
		httputil.WriteBadRequest(w, "Invalid role.")
		return
	}

	// Only super admins may grant super admin or move users across
	// companies
	actor, _ := middleware.GetIdentity(r)
	if actor != nil && actor.Role.Normalize() != auth.RoleSuperAdmin {
		if req.Role != nil && req.Role.Normalize() == auth.RoleSuperAdmin {
			httputil.WriteForbidden(w, "Access denied. Super admin role required.")
			return
		}
		if req.CompanyID != nil && !actor.BelongsTo(*req.CompanyID) {
			httputil.WriteForbidden(w, middleware.MsgCrossCompany)
			return
		}
	}

	params := users.UpdateParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		CompanyID: req.CompanyID,
		Active:    req.Active,
	}
	if params.Empty() {
		httputil.WriteBadRequest(w, "No fields to update.")
		return
	}

	if err := h.store.Update(r.Context(), id, params); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found.")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("failed to update user")
		httputil.WriteInternalError(w, "Failed to update user")
		return
	}

	h.invalidate(id)
	httputil.WriteMessage(w, http.StatusOK, "User updated successfully.")
}

// Deactivate handles DELETE /api/users/{id}. Users are soft-deleted.
func (h *UserHandlers) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			httputil.WriteNotFound(w, "User not found.")
			return
		}
		observability.FromContext(r.Context()).WithError(err).Error("failed to deactivate user")
		httputil.WriteInternalError(w, "Failed to deactivate user")
		return
	}

	h.invalidate(id)
	httputil.WriteMessage(w, http.StatusOK, "User deactivated successfully.")
}

func (h *UserHandlers) invalidate(id int64) {
	h.cache.Invalidate(id)
	if h.metrics != nil {
		h.metrics.CacheInvalidatedTotal.Inc()
	}
}
