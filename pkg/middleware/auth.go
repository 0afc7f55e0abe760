package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/truckwise/fleet-server/pkg/auth"
	"github.com/truckwise/fleet-server/pkg/contextkeys"
	"github.com/truckwise/fleet-server/pkg/httputil"
	"github.com/truckwise/fleet-server/pkg/identitycache"
	"github.com/truckwise/fleet-server/pkg/observability"
	"github.com/truckwise/fleet-server/pkg/users"
)

// Response messages for authentication and authorization failures. Clients
// match on these strings, so they are part of the API contract.
const (
	MsgNoToken           = "Access denied. No token provided or invalid format."
	MsgTokenExpired      = "Token expired. Please login again."
	MsgInvalidToken      = "Invalid token."
	MsgUserNotFound      = "Invalid token. User not found."
	MsgInternalError     = "Internal server error."
	MsgCompanyIDRequired = "Company ID is required."
	MsgCrossCompany      = "Access denied. You can only access resources from your own company."
)

// AuthMiddleware verifies bearer tokens and attaches the resolved identity
// to the request context
type AuthMiddleware struct {
	tokens  *auth.TokenService
	cache   *identitycache.Cache
	store   users.Store
	metrics *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware. Metrics may be
// nil.
func NewAuthMiddleware(tokens *auth.TokenService, cache *identitycache.Cache, store users.Store, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		cache:   cache,
		store:   store,
		metrics: metrics,
	}
}

// bearerToken extracts the raw token from the Authorization header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", false
	}
	return token, true
}

// Handler is the standard verifier. Tokens with a complete claim set are
// trusted directly; everything else resolves the identity through the cache
// and then the credential store.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			m.reject(w, "standard", auth.ErrNoToken)
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			m.reject(w, "standard", err)
			return
		}

		var identity auth.Identity
		switch cs := claims.Resolve().(type) {
		case auth.CompleteClaims:
			identity = cs.Identity

		case auth.PartialClaims:
			cached, hit := m.cache.Get(cs.UserID)
			if hit {
				m.countCacheHit()
				identity = cached
				break
			}
			m.countCacheMiss()

			identity, err = m.store.GetIdentity(r.Context(), cs.UserID)
			if errors.Is(err, users.ErrNotFound) {
				m.reject(w, "standard", auth.ErrUnknownUser)
				return
			}
			if err != nil {
				// Store connectivity failures are infrastructure errors,
				// never auth failures.
				observability.FromContext(r.Context()).WithError(err).Error("identity lookup failed during token verification")
				m.countVerification("standard", observability.VerifyResultStoreFailure)
				httputil.WriteInternalError(w, MsgInternalError)
				return
			}
			m.cache.Put(identity)
		}

		m.countVerification("standard", observability.VerifyResultOK)
		ctx := contextkeys.WithIdentity(r.Context(), &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FastHandler is the fast verifier for high-frequency read endpoints. The
// embedded claims are trusted as-is with no completeness check and no store
// or cache fallback, so stale claims (for example a deactivated account
// whose token has not yet expired) pass until the token expires.
func (m *AuthMiddleware) FastHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			m.reject(w, "fast", auth.ErrNoToken)
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			m.reject(w, "fast", err)
			return
		}

		identity := claims.Identity()

		m.countVerification("fast", observability.VerifyResultOK)
		ctx := contextkeys.WithIdentity(r.Context(), &identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// reject maps a verification failure to the 401 response for its class
func (m *AuthMiddleware) reject(w http.ResponseWriter, mode string, err error) {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		m.countVerification(mode, observability.VerifyResultNoToken)
		httputil.WriteUnauthorized(w, MsgNoToken)
	case errors.Is(err, auth.ErrTokenExpired):
		m.countVerification(mode, observability.VerifyResultExpired)
		httputil.WriteUnauthorized(w, MsgTokenExpired)
	case errors.Is(err, auth.ErrUnknownUser):
		m.countVerification(mode, observability.VerifyResultUnknownUser)
		httputil.WriteUnauthorized(w, MsgUserNotFound)
	default:
		m.countVerification(mode, observability.VerifyResultInvalid)
		httputil.WriteUnauthorized(w, MsgInvalidToken)
	}
}

func (m *AuthMiddleware) countVerification(mode, result string) {
	if m.metrics != nil {
		m.metrics.TokenVerificationsTotal.WithLabelValues(mode, result).Inc()
	}
}

func (m *AuthMiddleware) countCacheHit() {
	if m.metrics != nil {
		m.metrics.CacheHitsTotal.Inc()
	}
}

func (m *AuthMiddleware) countCacheMiss() {
	if m.metrics != nil {
		m.metrics.CacheMissesTotal.Inc()
	}
}

// GetIdentity returns the identity the verifier attached to the request
func GetIdentity(r *http.Request) (*auth.Identity, bool) {
	identity, ok := r.Context().Value(contextkeys.IdentityKey).(*auth.Identity)
	return identity, ok
}
