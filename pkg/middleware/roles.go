package middleware

import (
	"net/http"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/httputil"
)

// roleMessage returns the 403 body for each required tier. The wording
// matches what clients already display.
func roleMessage(min auth.Role) string {
	switch min.Normalize() {
	case auth.RoleSuperAdmin:
		return "Access denied. Super admin role required."
	case auth.RoleCompanyAdmin:
		return "Access denied. Company admin role or higher required."
	case auth.RoleManager:
		return "Access denied. Manager role or higher required."
	default:
		return "Access denied."
	}
}

// RequireRole gates a route on a minimum role tier. The verifier must run
// first; a request with no attached identity is rejected.
func RequireRole(min auth.Role) func(http.Handler) http.Handler {
	message := roleMessage(min)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := GetIdentity(r)
			if !ok || !identity.Role.AtLeast(min) {
				httputil.WriteForbidden(w, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
