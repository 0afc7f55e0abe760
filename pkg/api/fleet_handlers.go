package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/fleet"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
)

// FleetHandlers serves company, truck and driver reads. The high-frequency
// truck and driver lists sit behind the fast verifier; dashboards poll them
// continuously and tolerate the token staleness window.
type FleetHandlers struct {
	store fleet.Store
}

// NewFleetHandlers creates fleet read handlers
func NewFleetHandlers(store fleet.Store) *FleetHandlers {
	return &FleetHandlers{store: store}
}

// RegisterRoutes installs the fleet routes
func (h *FleetHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware) {
	router.Handle("/api/companies", authMW.Handler(http.HandlerFunc(h.ListCompanies))).Methods("GET")
	router.Handle("/api/trucks", authMW.FastHandler(http.HandlerFunc(h.ListTrucks))).Methods("GET")
	router.Handle("/api/drivers", authMW.FastHandler(http.HandlerFunc(h.ListDrivers))).Methods("GET")
	router.Handle("/api/companies/{companyId}/trucks",
		authMW.Handler(middleware.RequireSameCompanyOrElevated(http.HandlerFunc(h.ListCompanyTrucks)))).Methods("GET")
}

// ListCompanies handles GET /api/companies
func (h *FleetHandlers) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.ListCompanies(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list companies")
		httputil.WriteInternalError(w, "Failed to fetch companies")
		return
	}
	if companies == nil {
		companies = []fleet.Company{}
	}
	httputil.WriteJSON(w, http.StatusOK, companies)
}

// identityScope maps the caller's identity to a company filter. Super
// admins see the whole fleet; everyone else is pinned to their company.
func identityScope(r *http.Request) (*int64, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		return nil, false
	}
	if identity.Role.Normalize() == auth.RoleSuperAdmin {
		return nil, true
	}
	if identity.CompanyID == nil {
		return nil, false
	}
	return identity.CompanyID, true
}

// ListTrucks handles GET /api/trucks
func (h *FleetHandlers) ListTrucks(w http.ResponseWriter, r *http.Request) {
	scope, ok := identityScope(r)
	if !ok {
		httputil.WriteForbidden(w, middleware.MsgCrossCompany)
		return
	}

	trucks, err := h.store.ListTrucks(r.Context(), scope)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list trucks")
		httputil.WriteInternalError(w, "Failed to fetch trucks")
		return
	}
	if trucks == nil {
		trucks = []fleet.Truck{}
	}
	httputil.WriteJSON(w, http.StatusOK, trucks)
}

// ListDrivers handles GET /api/drivers
func (h *FleetHandlers) ListDrivers(w http.ResponseWriter, r *http.Request) {
	scope, ok := identityScope(r)
	if !ok {
		httputil.WriteForbidden(w, middleware.MsgCrossCompany)
		return
	}

	drivers, err := h.store.ListDrivers(r.Context(), scope)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list drivers")
		httputil.WriteInternalError(w, "Failed to fetch drivers")
		return
	}
	if drivers == nil {
		drivers = []fleet.Driver{}
	}
	httputil.WriteJSON(w, http.StatusOK, drivers)
}

// ListCompanyTrucks handles GET /api/companies/{companyId}/trucks. The
// scope middleware has already authorized access to this company.
func (h *FleetHandlers) ListCompanyTrucks(w http.ResponseWriter, r *http.Request) {
	companyID, ok := httputil.ParsePathInt64OrError(w, r, "companyId")
	if !ok {
		return
	}

	trucks, err := h.store.ListTrucks(r.Context(), &companyID)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to list company trucks")
		httputil.WriteInternalError(w, "Failed to fetch trucks")
		return
	}
	if trucks == nil {
		trucks = []fleet.Truck{}
	}
	httputil.WriteJSON(w, http.StatusOK, trucks)
}
