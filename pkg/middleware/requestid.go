package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/truckwise/fleet-server/pkg/contextkeys"
	"github.com/truckwise/fleet-server/pkg/observability"
)

// RequestID tags each request with an id, echoed in the X-Request-ID
// response header, and stores a request-scoped logger in the context.
// Incoming ids from trusted proxies are honored.
func RequestID(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = observability.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
