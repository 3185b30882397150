package dispatch

// Kind classifies one inbound unit of user interaction.
type Kind uint8

const (
	// KindCommand is a typed slash command such as /start.
	KindCommand Kind = iota
	// KindCallback is an inline button activation.
	KindCallback
	// KindFreeText is a plain text reply, usually workflow input.
	KindFreeText
	// KindSystemError is synthesized by the transport when an update
	// cannot be processed at all.
	KindSystemError
)

// String returns the kind's wire name for logs.
func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindCallback:
		return "callback"
	case KindFreeText:
		return "free_text"
	case KindSystemError:
		return "system_error"
	}
	return "unknown"
}

// Profile is the raw transport-provided user data that accompanies every
// event, available even before an Identity is resolved.
type Profile struct {
	ExternalID int64
	Username   string
	FirstName  string
	LastName   string
}

// DisplayName picks the most specific non-empty name.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.Username != "":
		return "@" + p.Username
	}
	return "unknown"
}

// Event is one inbound interaction, already decoded from the transport
// envelope but not yet enriched with an Identity.
type Event struct {
	Kind Kind

	// Command holds the canonical command name for KindCommand ("/start").
	Command string

	// Action holds the callback action id for KindCallback.
	Action string

	// Payload holds free text, or the callback payload after the action id.
	Payload string

	Profile Profile
}
