package company

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"Ab", true},
		{"Acme Tools", true},
		{strings.Repeat("x", 100), true},
		{"A", false},
		{"", false},
		{strings.Repeat("x", 101), false},
		{"A<b", false},
		{`say "hi"`, false},
		{"Tom's", false},
		{"a&b", false},
		{"Кафе Ромашка", true}, // length counts runes, not bytes
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidateName(tc.name), "name %q", tc.name)
	}
}

func TestValidateDescription(t *testing.T) {
	assert.True(t, ValidateDescription(""))
	assert.True(t, ValidateDescription(strings.Repeat("x", 500)))
	assert.False(t, ValidateDescription(strings.Repeat("x", 501)))
}

func TestServiceCreate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, "  Acme  ", "tool maker", 100)
	require.NoError(t, err)
	assert.Equal(t, "Acme", created.Name, "name is trimmed before persisting")
	assert.Equal(t, "tool maker", created.Description)
	assert.Equal(t, int64(100), created.CreatedBy)
	assert.True(t, created.Active)
	assert.NotZero(t, created.ID)
}

func TestServiceCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, "A", "", 100)
	assert.Error(t, err)

	_, err = svc.Create(ctx, "Acme", strings.Repeat("x", 501), 100)
	assert.Error(t, err)
}

func TestServiceCreateDuplicateNameCaseInsensitive(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, "Acme", "", 100)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "ACME", "", 200)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestServiceNameReusableAfterDeactivation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.Create(ctx, "Acme", "", 100)
	require.NoError(t, err)

	ok, err := svc.Deactivate(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)

	second, err := svc.Create(ctx, "acme", "", 200)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestServiceGetByIDNotFound(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListActiveOrdering(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		_, err := svc.Create(ctx, name, "", 100)
		require.NoError(t, err)
	}

	list, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Mid", list[1].Name)
	assert.Equal(t, "Zeta", list[2].Name)
}

func TestServiceDeactivateHidesFromListing(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	c, err := svc.Create(ctx, "Acme", "", 100)
	require.NoError(t, err)

	ok, err := svc.Deactivate(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	ok, err = svc.Deactivate(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)
}
