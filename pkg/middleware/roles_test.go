package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/contextkeys"
)

func requestWithRole(role auth.Role) *http.Request {
	companyID := int64(1)
	identity := &auth.Identity{
		ID:        7,
		Email:     "user@example.com",
		Role:      role,
		CompanyID: &companyID,
		Active:    true,
	}
	r := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	return r.WithContext(contextkeys.WithIdentity(r.Context(), identity))
}

func TestRequireRole(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		min    auth.Role
		role   auth.Role
		status int
	}{
		{"super admin passes super admin gate", auth.RoleSuperAdmin, auth.RoleSuperAdmin, http.StatusOK},
		{"company admin blocked from super admin gate", auth.RoleSuperAdmin, auth.RoleCompanyAdmin, http.StatusForbidden},
		{"company admin passes company admin gate", auth.RoleCompanyAdmin, auth.RoleCompanyAdmin, http.StatusOK},
		{"legacy admin passes company admin gate", auth.RoleCompanyAdmin, auth.RoleLegacyAdmin, http.StatusOK},
		{"manager blocked from company admin gate", auth.RoleCompanyAdmin, auth.RoleManager, http.StatusForbidden},
		{"manager passes manager gate", auth.RoleManager, auth.RoleManager, http.StatusOK},
		{"super admin passes manager gate", auth.RoleManager, auth.RoleSuperAdmin, http.StatusOK},
		{"user blocked from manager gate", auth.RoleManager, auth.RoleUser, http.StatusForbidden},
		{"unknown role blocked everywhere", auth.RoleManager, auth.Role("intern"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.min)(okHandler)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithRole(tt.role))
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("missing identity is rejected", func(t *testing.T) {
		handler := RequireRole(auth.RoleManager)(okHandler)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestRoleMessages(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		min     auth.Role
		message string
	}{
		{auth.RoleSuperAdmin, "Access denied. Super admin role required."},
		{auth.RoleCompanyAdmin, "Access denied. Company admin role or higher required."},
		{auth.RoleManager, "Access denied. Manager role or higher required."},
	}

	for _, tt := range tests {
		t.Run(string(tt.min), func(t *testing.T) {
			handler := RequireRole(tt.min)(okHandler)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, requestWithRole(auth.RoleUser))
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}
