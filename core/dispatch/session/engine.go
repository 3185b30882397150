package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/taskbot/core/logger"
)

// Engine drives the registered workflows against a Store. It is the only
// code path that mutates sessions, so the version discipline of the Store
// is enforced in one place.
type Engine struct {
	store     Store
	workflows map[string]*Workflow
}

// NewEngine wraps a store. Workflows are registered at wiring time.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:     store,
		workflows: make(map[string]*Workflow),
	}
}

// Register adds a workflow declaration. Duplicate names and inconsistent
// declarations are wiring bugs and fail immediately.
func (e *Engine) Register(w *Workflow) error {
	if w == nil {
		return fmt.Errorf("session: nil workflow")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if _, exists := e.workflows[w.Name]; exists {
		return fmt.Errorf("session: workflow already registered: %s", w.Name)
	}
	e.workflows[w.Name] = w
	return nil
}

// Workflow returns a registered workflow declaration by name.
func (e *Engine) Workflow(name string) (*Workflow, bool) {
	w, ok := e.workflows[name]
	return w, ok
}

// Workflows lists the registered workflow declarations.
func (e *Engine) Workflows() []*Workflow {
	out := make([]*Workflow, 0, len(e.workflows))
	for _, w := range e.workflows {
		out = append(out, w)
	}
	return out
}

// Current returns the caller's active session, or nil.
func (e *Engine) Current(ctx context.Context, externalID int64) (*Session, error) {
	return e.store.Get(ctx, externalID)
}

// Begin starts the named workflow at its initial state, replacing any
// active session for the identity.
func (e *Engine) Begin(ctx context.Context, externalID int64, name string) (*Session, error) {
	w, ok := e.workflows[name]
	if !ok {
		return nil, fmt.Errorf("session: unknown workflow: %s", name)
	}
	s, err := e.store.Begin(ctx, externalID, w.Name, w.Initial)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "dispatch", "workflow.begin",
		slog.Int64("user_id", externalID),
		slog.String("workflow", w.Name),
		slog.String("state", string(w.Initial)),
		slog.Int64("version", s.Version),
	)
	return s, nil
}

// Apply commits a handler outcome against the session the handler read.
// Advance targets must be declared transitions; violating the table is a
// configuration defect, not user error.
func (e *Engine) Apply(ctx context.Context, externalID int64, read *Session, out Outcome) (*Session, error) {
	switch out.kind {
	case outcomeRetry:
		return read, nil

	case outcomeCancel:
		if err := e.store.Clear(ctx, externalID); err != nil {
			return nil, err
		}
		logger.Debug(ctx, "dispatch", "workflow.cancel",
			slog.Int64("user_id", externalID),
		)
		return nil, nil

	case outcomeComplete:
		if read == nil {
			return nil, fmt.Errorf("session: complete without an active session")
		}
		if err := e.store.Complete(ctx, externalID, read.Version); err != nil {
			return nil, err
		}
		logger.Info(ctx, "dispatch", "workflow.complete",
			slog.Int64("user_id", externalID),
			slog.String("workflow", read.Workflow),
			slog.Int64("version", read.Version),
		)
		return nil, nil

	case outcomeAdvance:
		if read == nil {
			return nil, fmt.Errorf("session: advance without an active session")
		}
		w, ok := e.workflows[read.Workflow]
		if !ok {
			return nil, fmt.Errorf("session: advance in unregistered workflow %s", read.Workflow)
		}
		if !w.Allows(read.State, out.next) {
			return nil, fmt.Errorf("session: illegal transition %s: %s -> %s", w.Name, read.State, out.next)
		}
		s, err := e.store.Advance(ctx, externalID, read.Version, out.next, out.updates)
		if err != nil {
			return nil, err
		}
		logger.Debug(ctx, "dispatch", "workflow.advance",
			slog.Int64("user_id", externalID),
			slog.String("workflow", w.Name),
			slog.String("state", string(out.next)),
			slog.Int64("version", s.Version),
		)
		return s, nil
	}
	return nil, fmt.Errorf("session: unknown outcome")
}
