package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRank(t *testing.T) {
	assert.Greater(t, RoleSuperAdmin.Rank(), RoleCompanyAdmin.Rank())
	assert.Greater(t, RoleCompanyAdmin.Rank(), RoleManager.Rank())
	assert.Greater(t, RoleManager.Rank(), RoleUser.Rank())

	t.Run("legacy admin ranks with company_admin", func(t *testing.T) {
		assert.Equal(t, RoleCompanyAdmin.Rank(), RoleLegacyAdmin.Rank())
	})

	t.Run("unknown role ranks below everything", func(t *testing.T) {
		assert.Less(t, Role("superuser").Rank(), RoleUser.Rank())
		assert.False(t, Role("superuser").Valid())
	})
}

func TestRoleAtLeast(t *testing.T) {
	t.Run("manager tier", func(t *testing.T) {
		for _, r := range []Role{RoleManager, RoleCompanyAdmin, RoleLegacyAdmin, RoleSuperAdmin} {
			assert.True(t, r.AtLeast(RoleManager), "expected %s to pass manager check", r)
		}
		assert.False(t, RoleUser.AtLeast(RoleManager))
	})

	t.Run("company admin tier", func(t *testing.T) {
		assert.True(t, RoleLegacyAdmin.AtLeast(RoleCompanyAdmin))
		assert.False(t, RoleManager.AtLeast(RoleCompanyAdmin))
	})

	t.Run("invalid role never passes", func(t *testing.T) {
		assert.False(t, Role("").AtLeast(RoleUser))
	})
}

func TestRoleNormalize(t *testing.T) {
	assert.Equal(t, RoleCompanyAdmin, RoleLegacyAdmin.Normalize())
	assert.Equal(t, RoleManager, RoleManager.Normalize())
	assert.Equal(t, RoleSuperAdmin, RoleSuperAdmin.Normalize())
}

func TestIdentityBelongsTo(t *testing.T) {
	companyID := int64(1)
	scoped := &Identity{ID: 10, CompanyID: &companyID}
	assert.True(t, scoped.BelongsTo(1))
	assert.False(t, scoped.BelongsTo(2))

	unscoped := &Identity{ID: 11}
	assert.False(t, unscoped.BelongsTo(1))
}
