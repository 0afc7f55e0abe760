package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/middleware"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/settings"
)

// SettingsHandlers serves per-company platform settings
type SettingsHandlers struct {
	service *settings.Service
}

// NewSettingsHandlers creates settings handlers
func NewSettingsHandlers(service *settings.Service) *SettingsHandlers {
	return &SettingsHandlers{service: service}
}

// RegisterRoutes installs the settings routes. Reads are open to any
// authenticated user; writes need company admin.
func (h *SettingsHandlers) RegisterRoutes(router *mux.Router, authMW *middleware.AuthMiddleware) {
	router.Handle("/api/settings", authMW.Handler(http.HandlerFunc(h.Get))).Methods("GET")
	router.Handle("/api/settings",
		authMW.Handler(middleware.RequireRole(auth.RoleCompanyAdmin)(http.HandlerFunc(h.Set)))).Methods("PUT")
}

// settingsCompany resolves which company's settings the caller may touch.
// Super admins may name any company via the companyId query parameter.
func settingsCompany(r *http.Request) (int64, bool) {
	identity, ok := middleware.GetIdentity(r)
	if !ok {
		return 0, false
	}

	if identity.Role.Normalize() == auth.RoleSuperAdmin {
		requested, err := httputil.ParseQueryInt64(r, "companyId", 0)
		if err != nil || requested == 0 {
			return 0, false
		}
		return requested, true
	}

	if identity.CompanyID == nil {
		return 0, false
	}
	return *identity.CompanyID, true
}

// Get handles GET /api/settings
func (h *SettingsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := settingsCompany(r)
	if !ok {
		httputil.WriteBadRequest(w, middleware.MsgCompanyIDRequired)
		return
	}

	grouped, err := h.service.Get(r.Context(), companyID)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to fetch settings")
		httputil.WriteInternalError(w, "Failed to fetch settings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"settings": grouped,
	})
}

type setSettingRequest struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Value    string `json:"value"`
	Type     string `json:"type"`
}

func validSettingType(t string) bool {
	switch t {
	case settings.TypeString, settings.TypeBoolean, settings.TypeNumber,
		settings.TypeJSON, settings.TypeArray:
		return true
	}
	return false
}

// Set handles PUT /api/settings
func (h *SettingsHandlers) Set(w http.ResponseWriter, r *http.Request) {
	companyID, ok := settingsCompany(r)
	if !ok {
		httputil.WriteBadRequest(w, middleware.MsgCompanyIDRequired)
		return
	}

	var req setSettingRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if req.Category == "" || req.Key == "" {
		httputil.WriteBadRequest(w, "Category and key are required.")
		return
	}
	if req.Type == "" {
		req.Type = settings.TypeString
	}
	if !validSettingType(req.Type) {
		httputil.WriteBadRequest(w, "Invalid setting type.")
		return
	}

	err := h.service.Set(r.Context(), settings.Setting{
		CompanyID: companyID,
		Category:  req.Category,
		Key:       req.Key,
		Value:     req.Value,
		Type:      req.Type,
	})
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("failed to update setting")
		httputil.WriteInternalError(w, "Failed to update setting")
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "Setting updated successfully.")
}
