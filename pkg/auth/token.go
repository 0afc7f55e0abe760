package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies HS256-signed bearer tokens
type TokenService struct {
	signingKey []byte
	lifetime   time.Duration
}

// NewTokenService creates a token service. lifetime is the validity window
// applied to every issued token.
func NewTokenService(signingKey []byte, lifetime time.Duration) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		lifetime:   lifetime,
	}
}

// Issue signs a token embedding a verbatim snapshot of the identity.
//
// The identity must carry id, email and a valid role; CompanyID may be nil
// only for super_admin. Issuance never touches the cache or the store.
func (ts *TokenService) Issue(identity Identity) (string, error) {
	if identity.ID == 0 || identity.Email == "" || !identity.Role.Valid() {
		return "", ErrInvalidIdentity
	}
	if identity.CompanyID == nil && identity.Role.Normalize() != RoleSuperAdmin {
		return "", fmt.Errorf("%w: company scope required for role %q", ErrInvalidIdentity, identity.Role)
	}

	now := time.Now()
	active := identity.Active
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", identity.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.lifetime)),
		},
		UserID:    identity.ID,
		Email:     identity.Email,
		Role:      identity.Role,
		CompanyID: identity.CompanyID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Active:    &active,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of a raw token and returns its
// decoded claims. Expired tokens map to ErrTokenExpired; every other parse
// or signature failure maps to ErrInvalidToken.
func (ts *TokenService) Verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
