package middleware

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/httputil"
)

// requestCompanyID extracts the company id from the path, falling back to
// the query string. Returns 0 when absent or malformed.
func requestCompanyID(r *http.Request) int64 {
	raw := mux.Vars(r)["companyId"]
	if raw == "" {
		raw = r.URL.Query().Get("companyId")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// RequireSameCompanyOrElevated enforces company-scope isolation on routes
// that name a company id. Super admins pass for any company; everyone else
// must belong to the requested company.
func RequireSameCompanyOrElevated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companyID := requestCompanyID(r)
		if companyID == 0 {
			httputil.WriteBadRequest(w, MsgCompanyIDRequired)
			return
		}

		identity, ok := GetIdentity(r)
		if !ok {
			httputil.WriteForbidden(w, MsgCrossCompany)
			return
		}

		if identity.Role.Normalize() == auth.RoleSuperAdmin {
			next.ServeHTTP(w, r)
			return
		}

		if !identity.BelongsTo(companyID) {
			httputil.WriteForbidden(w, MsgCrossCompany)
			return
		}

		next.ServeHTTP(w, r)
	})
}
