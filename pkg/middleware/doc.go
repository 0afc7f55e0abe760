// Package middleware provides the HTTP authentication and authorization
// layer: token verification (standard and fast paths), role tier gates,
// company-scope isolation, login rate limiting and request id propagation.
//
// The standard verifier resolves a full identity for every request. Tokens
// carrying a complete claim set are trusted directly; older or unscoped
// tokens fall back to the identity cache and then the credential store. The
// fast verifier trusts embedded claims unconditionally and never touches the
// cache or store, so it must only guard routes where a short staleness
// window is acceptable.
//
// Handlers read the resolved identity with GetIdentity:
//
//	identity, ok := middleware.GetIdentity(r)
//	if !ok {
//		httputil.WriteUnauthorized(w, "Invalid token.")
//		return
//	}
package middleware
