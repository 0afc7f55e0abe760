package users

import (
	"time"

	"github.com/truckwise/fleet-server/pkg/auth"
)

// User is a credential-store row. PasswordHash is only populated by the
// login lookup and is never serialized.
type User struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         auth.Role  `json:"role"`
	CompanyID    *int64     `json:"companyId"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity returns the auth snapshot for this row with the legacy admin
// alias normalized
func (u *User) Identity() auth.Identity {
	return auth.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role.Normalize(),
		CompanyID: u.CompanyID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Active:    u.Active,
	}
}

// UpdateParams is the set of administratively mutable profile fields. Nil
// fields are left unchanged. Any update to these fields must be followed by
// an identity-cache invalidation for the user.
type UpdateParams struct {
	FirstName *string
	LastName  *string
	Role      *auth.Role
	CompanyID *int64
	Active    *bool
}

// Empty reports whether the update would change nothing
func (p UpdateParams) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Role == nil &&
		p.CompanyID == nil && p.Active == nil
}
