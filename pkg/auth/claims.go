package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded payload of a bearer token: a snapshot of the identity
// at issuance plus the registered issued-at/expiry timestamps.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"id,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
	CompanyID *int64 `json:"companyId,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Active    *bool  `json:"active,omitempty"`
}

// ClaimSet is the resolved form of decoded claims. It is either Complete
// (the embedded profile can be trusted as-is) or Partial (only the user id
// is usable and the profile must come from the cache or the store).
type ClaimSet interface {
	isClaimSet()
}

// CompleteClaims carries a full identity snapshot decoded from the token
type CompleteClaims struct {
	Identity Identity
}

// PartialClaims carries only the claimed user id. Produced by legacy tokens
// that predate embedded profiles, and by super_admin tokens, whose nil
// companyId makes the claim set incomplete by definition.
type PartialClaims struct {
	UserID int64
}

func (CompleteClaims) isClaimSet() {}
func (PartialClaims) isClaimSet()  {}

// Resolve classifies the claims. Completeness requires id, email, role and a
// company scope; anything less degrades to PartialClaims.
func (c *Claims) Resolve() ClaimSet {
	if c.UserID != 0 && c.Email != "" && c.Role != "" && c.CompanyID != nil && *c.CompanyID != 0 {
		return CompleteClaims{Identity: c.Identity()}
	}
	return PartialClaims{UserID: c.UserID}
}

// Identity materializes the embedded snapshot. The legacy admin alias is
// normalized on read.
func (c *Claims) Identity() Identity {
	active := true
	if c.Active != nil {
		active = *c.Active
	}
	return Identity{
		ID:        c.UserID,
		Email:     c.Email,
		Role:      c.Role.Normalize(),
		CompanyID: c.CompanyID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Active:    active,
	}
}
