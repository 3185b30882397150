package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch"
)

func TestMemoryDirectoryRegistration(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	got, err := dir.FindByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, got, "unknown user resolves to nil, not an error")

	id, err := dir.Create(ctx, dispatch.Profile{
		ExternalID: 100,
		Username:   "ada",
		FirstName:  "Ada",
	}, access.RoleDirector)
	require.NoError(t, err)
	assert.True(t, id.Active)
	assert.Equal(t, access.RoleDirector, id.Role)

	_, err = dir.Create(ctx, dispatch.Profile{ExternalID: 100}, access.RoleManager)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestMemoryDirectoryUpdate(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	_, err := dir.Create(ctx, dispatch.Profile{ExternalID: 100, Username: "ada"}, access.RoleManager)
	require.NoError(t, err)

	name := "ada_l"
	ok, err := dir.Update(ctx, 100, dispatch.IdentityUpdate{Username: &name})
	require.NoError(t, err)
	assert.True(t, ok)

	id, err := dir.FindByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ada_l", id.Username)

	ok, err = dir.Update(ctx, 404, dispatch.IdentityUpdate{Username: &name})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDirectoryAssignRole(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	_, err := dir.Create(ctx, dispatch.Profile{ExternalID: 100}, access.RoleChiefAdmin)
	require.NoError(t, err)

	ok, err := dir.AssignRole(ctx, 100, access.RoleSysadmin)
	require.NoError(t, err)
	assert.True(t, ok)

	id, err := dir.FindByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, access.RoleSysadmin, id.Role)

	ok, err = dir.AssignRole(ctx, 404, access.RoleManager)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDirectoryListActive(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	dir.Seed(dispatch.Identity{ExternalID: 1, Role: access.RoleDirector, Active: true})
	dir.Seed(dispatch.Identity{ExternalID: 2, Role: access.RoleManager, Active: false})

	list, err := dir.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ExternalID)
}

func TestMemoryDirectoryReturnsCopies(t *testing.T) {
	dir := NewMemoryDirectory()
	ctx := context.Background()

	_, err := dir.Create(ctx, dispatch.Profile{ExternalID: 100, Username: "ada"}, access.RoleManager)
	require.NoError(t, err)

	id, err := dir.FindByExternalID(ctx, 100)
	require.NoError(t, err)
	id.Username = "mallory"

	again, err := dir.FindByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ada", again.Username)
}
