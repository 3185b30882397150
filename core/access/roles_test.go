package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTable(t *testing.T) {
	cases := []struct {
		role Role
		want CapabilitySet
	}{
		{RoleDirector, CapabilitySet{
			CreateCompanies: true,
			CreateTasks:     true,
			AssignRoles:     true,
			ViewAnalytics:   true,
			IsManager:       true,
		}},
		{RoleManager, CapabilitySet{
			CreateCompanies: true,
			CreateTasks:     true,
			IsManager:       true,
		}},
		{RoleChiefAdmin, CapabilitySet{
			ExecuteTasks: true,
			IsAdmin:      true,
		}},
		{RoleSysadmin, CapabilitySet{
			ExecuteTasks: true,
			IsAdmin:      true,
		}},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.role))
		})
	}
}

func TestResolveUnknownRole(t *testing.T) {
	assert.Equal(t, CapabilitySet{}, Resolve(""))
	assert.Equal(t, CapabilitySet{}, Resolve("intern"))
}

func TestKnown(t *testing.T) {
	for _, r := range AllRoles {
		assert.True(t, Known(r), "role %s", r)
	}
	assert.False(t, Known("owner"))
	assert.False(t, Known(""))
}
