package dispatch

import (
	"context"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch/session"
)

// Context carries per-event enrichment through the middleware chain into
// the selected handler. Fields are explicit and optional; there is no
// string-keyed bag.
type Context struct {
	context.Context

	// Identity is set by identity resolution when the user is registered.
	Identity *Identity

	// Caps is recomputed from Identity.Role on every event; the zero set
	// when no identity was resolved.
	Caps access.CapabilitySet

	// EntryProfile carries raw transport profile data for unregistered
	// users passing through an entry command.
	EntryProfile *Profile

	// Session is the active conversation state, loaded by the router
	// before workflow matching; nil when no workflow is in progress.
	Session *session.Session
}

// Registered reports whether an identity was resolved for this event.
func (c *Context) Registered() bool { return c.Identity != nil }
