package session

import "fmt"

// State identifies one step inside a workflow's declared state set.
type State string

// Session is the per-identity conversation state. Version increases on
// every committed mutation and is used to detect overlapping writes.
type Session struct {
	Workflow string
	State    State
	Scratch  map[string]any
	Version  int64
}

// GetString reads a scratch value as a string, with ok=false when the key
// is missing or holds another type.
func (s *Session) GetString(key string) (string, bool) {
	if s == nil || s.Scratch == nil {
		return "", false
	}
	v, ok := s.Scratch[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt64 reads a scratch value as int64. JSON round-trips store numbers
// as float64, so both representations are accepted.
func (s *Session) GetInt64(key string) (int64, bool) {
	if s == nil || s.Scratch == nil {
		return 0, false
	}
	switch v := s.Scratch[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// StateSpec declares one state of a workflow: which input it accepts and
// which states an advance may move to.
type StateSpec struct {
	// AcceptsText marks states driven by free-text replies; the rest
	// accept structured selections only.
	AcceptsText bool

	// Actions lists the callback action ids that serve this state, used
	// for configuration completeness checks at wiring time.
	Actions []string

	Next []State
}

// Workflow declares a multi-step interaction: its initial state, state
// set, and legal transitions.
type Workflow struct {
	Name    string
	Initial State
	States  map[State]StateSpec
}

// Validate checks the declaration is internally consistent: the initial
// state belongs to the set and every transition target is declared.
func (w *Workflow) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("session: workflow without a name")
	}
	if len(w.States) == 0 {
		return fmt.Errorf("session: workflow %s declares no states", w.Name)
	}
	if _, ok := w.States[w.Initial]; !ok {
		return fmt.Errorf("session: workflow %s initial state %q not declared", w.Name, w.Initial)
	}
	for st, spec := range w.States {
		for _, next := range spec.Next {
			if _, ok := w.States[next]; !ok {
				return fmt.Errorf("session: workflow %s transition %s -> %s targets undeclared state", w.Name, st, next)
			}
		}
	}
	return nil
}

// Allows reports whether an advance from one state to another is declared.
func (w *Workflow) Allows(from, to State) bool {
	spec, ok := w.States[from]
	if !ok {
		return false
	}
	for _, next := range spec.Next {
		if next == to {
			return true
		}
	}
	return false
}

type outcomeKind uint8

const (
	outcomeAdvance outcomeKind = iota
	outcomeRetry
	outcomeComplete
	outcomeCancel
)

// Outcome is the state-machine effect a workflow handler requests. It is
// applied by the engine through the version-checked store.
type Outcome struct {
	kind    outcomeKind
	next    State
	updates map[string]any
}

// Advance moves to the next state, merging updates into scratch.
func Advance(next State, updates map[string]any) Outcome {
	return Outcome{kind: outcomeAdvance, next: next, updates: updates}
}

// Retry keeps the current state untouched; the user is re-prompted.
func Retry() Outcome { return Outcome{kind: outcomeRetry} }

// Complete ends the workflow and clears the session.
func Complete() Outcome { return Outcome{kind: outcomeComplete} }

// Cancel aborts whatever workflow is active, from any state.
func Cancel() Outcome { return Outcome{kind: outcomeCancel} }

// IsCancel reports whether the outcome is the global abort.
func (o Outcome) IsCancel() bool { return o.kind == outcomeCancel }
