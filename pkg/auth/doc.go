// Package auth implements the authentication core: identities, the role
// hierarchy, JWT issuance and verification, and password hashing.
//
// # Identities and Roles
//
// An Identity is the authenticated principal attached to a request. Roles form
// a total order of authority:
//
//	super_admin > company_admin (legacy alias "admin") > manager > user
//
// Every identity below super_admin is scoped to exactly one company; only
// super_admin has a nil CompanyID. The legacy "admin" role is still accepted
// in stored rows and in token claims and is normalized to company_admin
// authority on read. It is never issued by registration or seeding.
//
// # Tokens
//
// TokenService issues HS256-signed bearer tokens whose claims are a verbatim
// snapshot of the identity at issuance. Claims are never refreshed except by
// re-issuance; there is no server-side revocation list. Revocation happens by
// secret rotation or expiry.
//
// A decoded claim set resolves to one of two variants:
//
//	CompleteClaims: id, email, role and companyId all present; the claims
//	can be trusted directly without any store access.
//
//	PartialClaims: anything else (legacy tokens); only the user id is
//	trusted and the profile must be resolved from the identity cache or
//	the user store.
//
// The two verification strategies in pkg/middleware are built on this split.
//
// # Related Packages
//
//   - pkg/middleware: bearer extraction, verification middleware, predicates
//   - pkg/identitycache: TTL cache backing the fallback verification path
//   - pkg/users: credential store
package auth
