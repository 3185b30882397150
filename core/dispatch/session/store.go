package session

import (
	"context"
	"errors"
)

// ErrConflict is reported when a version-checked mutation observes a
// session modified since it was read. The triggering event is treated as
// a transient failure; nothing is retried automatically.
var ErrConflict = errors.New("session: version conflict")

// Store keeps per-identity sessions. Every mutation except Clear is
// atomic against the version read by the caller.
type Store interface {
	// Get returns the active session for an identity, or nil when the
	// identity has no workflow in progress.
	Get(ctx context.Context, externalID int64) (*Session, error)

	// Begin creates a session in the given workflow and state, replacing
	// any existing session: starting a new workflow discards the old one.
	Begin(ctx context.Context, externalID int64, workflow string, initial State) (*Session, error)

	// Advance moves the session to next and merges updates into scratch,
	// only if the stored version still equals fromVersion. Returns
	// ErrConflict otherwise.
	Advance(ctx context.Context, externalID int64, fromVersion int64, next State, updates map[string]any) (*Session, error)

	// Complete removes the session if the stored version still equals
	// fromVersion. Returns ErrConflict otherwise.
	Complete(ctx context.Context, externalID int64, fromVersion int64) error

	// Clear removes the session unconditionally. Used by cancel, which is
	// valid from every state regardless of concurrent writes.
	Clear(ctx context.Context, externalID int64) error
}
