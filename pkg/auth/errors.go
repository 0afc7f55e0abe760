package auth

import "errors"

// Sentinel errors for the verification and issuance paths. All of them are
// terminal for the current request: the middleware boundary maps each one to
// its HTTP response and nothing is retried.
var (
	// ErrNoToken indicates a missing or malformed Authorization header
	ErrNoToken = errors.New("no token provided")

	// ErrInvalidToken indicates a malformed token or a signature mismatch
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	// Distinguished from ErrInvalidToken because client remediation differs:
	// re-login versus discard.
	ErrTokenExpired = errors.New("token expired")

	// ErrUnknownUser indicates claims referencing an identity that no longer
	// exists in the credential store (standard verification path only)
	ErrUnknownUser = errors.New("user not found")

	// ErrInvalidIdentity indicates the issuer was called with an identity
	// missing mandatory fields
	ErrInvalidIdentity = errors.New("identity is missing required fields")
)
