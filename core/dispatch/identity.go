package dispatch

import (
	"context"

	"github.com/m3rciful/taskbot/core/access"
)

// Identity is a resolved user known to the directory.
type Identity struct {
	ExternalID int64
	Username   string
	FirstName  string
	LastName   string
	Role       access.Role
	Active     bool
}

// DisplayName picks the most specific non-empty name.
func (i *Identity) DisplayName() string {
	switch {
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	case i.Username != "":
		return "@" + i.Username
	}
	return "unknown"
}

// IdentityUpdate names the directory fields a profile sync may change.
// Nil fields are left untouched; Update must be idempotent.
type IdentityUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
}

// Empty reports whether the update would change nothing.
func (u IdentityUpdate) Empty() bool {
	return u.Username == nil && u.FirstName == nil && u.LastName == nil
}

// Directory is the external identity store consulted during resolution.
type Directory interface {
	// FindByExternalID returns nil, nil when the user is not registered.
	FindByExternalID(ctx context.Context, externalID int64) (*Identity, error)
	Create(ctx context.Context, profile Profile, role access.Role) (*Identity, error)
	Update(ctx context.Context, externalID int64, fields IdentityUpdate) (bool, error)
}
