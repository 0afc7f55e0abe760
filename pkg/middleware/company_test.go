package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/contextkeys"
)

// scopedRouter mounts the scope check behind an identity-injecting stub so
// path variables resolve the way they do in the real server
func scopedRouter(identity *auth.Identity) http.Handler {
	router := mux.NewRouter()
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/api/companies/{companyId}/trucks", RequireSameCompanyOrElevated(okHandler))
	router.Handle("/api/trucks", RequireSameCompanyOrElevated(okHandler))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity != nil {
			r = r.WithContext(contextkeys.WithIdentity(r.Context(), identity))
		}
		router.ServeHTTP(w, r)
	})
}

func identityWithCompany(role auth.Role, companyID int64) *auth.Identity {
	identity := &auth.Identity{ID: 7, Email: "user@example.com", Role: role, Active: true}
	if companyID != 0 {
		identity.CompanyID = &companyID
	}
	return identity
}

func TestRequireSameCompanyOrElevated(t *testing.T) {
	t.Run("same company passes", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleManager, 1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/1/trucks", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("manager cannot reach another company", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleManager, 1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/2/trucks", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), MsgCrossCompany)
	})

	t.Run("company admin is still scoped to own company", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleCompanyAdmin, 1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/2/trucks", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("super admin reaches any company", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleSuperAdmin, 0))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/2/trucks", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing company id", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleManager, 1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trucks", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), MsgCompanyIDRequired)
	})

	t.Run("query fallback", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleManager, 1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/trucks?companyId=1", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed company id", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleManager, 1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/acme/trucks", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing identity is rejected", func(t *testing.T) {
		handler := scopedRouter(nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/1/trucks", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unscoped non-admin is rejected", func(t *testing.T) {
		handler := scopedRouter(identityWithCompany(auth.RoleManager, 0))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/companies/1/trucks", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
