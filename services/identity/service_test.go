package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/taskbot/core/access"
)

// Empty profile fields are stored as NULL, never as empty strings, so
// every optional column goes through the same nullable conversion.
func TestNullableEmptyBecomesNull(t *testing.T) {
	assert.False(t, nullable("").Valid)

	v := nullable("Ada")
	assert.True(t, v.Valid)
	assert.Equal(t, "Ada", v.String)
}

func TestUserRowNullColumnsMapToEmptyStrings(t *testing.T) {
	row := userRow{
		ExternalID: 100,
		Username:   nullable(""),
		FirstName:  nullable(""),
		LastName:   nullable(""),
		Role:       string(access.RoleManager),
		Active:     true,
	}

	id := row.toIdentity()
	assert.Empty(t, id.Username)
	assert.Empty(t, id.FirstName)
	assert.Empty(t, id.LastName)
	assert.Equal(t, access.RoleManager, id.Role)
}
