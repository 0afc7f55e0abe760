package auth

// Role represents a user's authority tier
type Role string

const (
	// RoleSuperAdmin has platform-wide authority and is never company-scoped
	RoleSuperAdmin Role = "super_admin"
	// RoleCompanyAdmin has full authority within a single company
	RoleCompanyAdmin Role = "company_admin"
	// RoleLegacyAdmin is the pre-rename spelling of company_admin. It is
	// accepted in stored rows and token claims but never issued.
	RoleLegacyAdmin Role = "admin"
	// RoleManager can manage fleet resources within its company
	RoleManager Role = "manager"
	// RoleUser is the base authenticated tier
	RoleUser Role = "user"
)

// Rank returns the role's position in the authority order. Higher outranks
// lower. Unknown roles rank below every valid role.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleCompanyAdmin, RoleLegacyAdmin:
		return 2
	case RoleManager:
		return 1
	case RoleUser:
		return 0
	default:
		return -1
	}
}

// Valid reports whether the role is one of the fixed set
func (r Role) Valid() bool {
	return r.Rank() >= 0
}

// Normalize maps the legacy "admin" alias to company_admin
func (r Role) Normalize() Role {
	if r == RoleLegacyAdmin {
		return RoleCompanyAdmin
	}
	return r
}

// AtLeast reports whether the role has at least the authority of min
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank() && r.Valid()
}

// Identity is the authenticated principal attached to a request.
//
// CompanyID is nil only for super_admin identities; every other tier is
// scoped to exactly one company. Accounts are deactivated (Active=false)
// rather than deleted.
type Identity struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CompanyID *int64 `json:"companyId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Active    bool   `json:"active"`
}

// BelongsTo reports whether the identity is scoped to the given company
func (i *Identity) BelongsTo(companyID int64) bool {
	return i.CompanyID != nil && *i.CompanyID == companyID
}
