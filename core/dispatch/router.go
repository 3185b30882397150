package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/m3rciful/taskbot/core/dispatch/session"
	"github.com/m3rciful/taskbot/core/logger"
)

// Handler processes one enriched event and produces at most one response.
type Handler func(rc *Context, ev Event) (*Response, error)

// StepHandler processes workflow input: it returns the state-machine
// outcome to commit plus the response to show.
type StepHandler func(rc *Context, ev Event) (session.Outcome, *Response, error)

// Messages are the user-visible texts the router emits when mapping
// failures to responses.
type Messages struct {
	Unauthenticated string
	Unauthorized    string
	Conflict        string
	Infra           string
}

// DefaultMessages returns the stock failure wording.
func DefaultMessages() Messages {
	return Messages{
		Unauthenticated: "You are not registered yet. Send /start to begin.",
		Unauthorized:    "You do not have permission for this action.",
		Conflict:        "That did not go through, please try again.",
		Infra:           "Something went wrong on our side. Please try again later.",
	}
}

type stepKey struct {
	workflow string
	state    session.State
}

type prefixRoute struct {
	prefix  string
	handler Handler
}

// Router matches enriched events to handlers. Matching precedence, first
// match wins:
//  1. exact command name, regardless of any active workflow
//  2. callback action: exact match, else longest registered prefix
//  3. active session: the (workflow, state) handler for free text
//  4. the fallback handler
type Router struct {
	chain  *Chain
	engine *session.Engine
	locks  *identityLocks
	msgs   Messages

	commands      map[string]Handler
	callbacks     map[string]Handler
	callbackSteps map[string]StepHandler
	prefixes      []prefixRoute
	steps         map[stepKey]StepHandler

	fallback    Handler
	systemError Handler
}

// NewRouter builds a router over the given chain and workflow engine.
func NewRouter(chain *Chain, engine *session.Engine, msgs Messages) *Router {
	return &Router{
		chain:         chain,
		engine:        engine,
		locks:         newIdentityLocks(),
		msgs:          msgs,
		commands:      make(map[string]Handler),
		callbacks:     make(map[string]Handler),
		callbackSteps: make(map[string]StepHandler),
		steps:         make(map[stepKey]StepHandler),
	}
}

// HandleCommand registers an exact command route.
func (r *Router) HandleCommand(name string, h Handler) error {
	if !strings.HasPrefix(name, "/") || h == nil {
		return fmt.Errorf("dispatch: invalid command registration: %q", name)
	}
	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("dispatch: command already registered: %s", name)
	}
	r.commands[name] = h
	return nil
}

// HandleCallback registers an exact callback action route.
func (r *Router) HandleCallback(action string, h Handler) error {
	if action == "" || h == nil {
		return fmt.Errorf("dispatch: invalid callback registration: %q", action)
	}
	if r.callbackRegistered(action) {
		return fmt.Errorf("dispatch: callback already registered: %s", action)
	}
	r.callbacks[action] = h
	return nil
}

// HandleCallbackStep registers a callback whose handler drives the state
// machine; the returned outcome is committed by the router.
func (r *Router) HandleCallbackStep(action string, h StepHandler) error {
	if action == "" || h == nil {
		return fmt.Errorf("dispatch: invalid callback registration: %q", action)
	}
	if r.callbackRegistered(action) {
		return fmt.Errorf("dispatch: callback already registered: %s", action)
	}
	r.callbackSteps[action] = h
	return nil
}

// HandleCallbackPrefix registers a prefix route for callback actions.
// Longest prefix wins when several match.
func (r *Router) HandleCallbackPrefix(prefix string, h Handler) error {
	if prefix == "" || h == nil {
		return fmt.Errorf("dispatch: invalid callback prefix registration: %q", prefix)
	}
	for _, pr := range r.prefixes {
		if pr.prefix == prefix {
			return fmt.Errorf("dispatch: callback prefix already registered: %s", prefix)
		}
	}
	r.prefixes = append(r.prefixes, prefixRoute{prefix: prefix, handler: h})
	sort.Slice(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
	})
	return nil
}

// HandleState registers the free-text handler for one workflow state.
func (r *Router) HandleState(workflow string, state session.State, h StepHandler) error {
	if workflow == "" || state == "" || h == nil {
		return fmt.Errorf("dispatch: invalid state registration: %s/%s", workflow, state)
	}
	key := stepKey{workflow: workflow, state: state}
	if _, exists := r.steps[key]; exists {
		return fmt.Errorf("dispatch: state handler already registered: %s/%s", workflow, state)
	}
	r.steps[key] = h
	return nil
}

// HandleFallback sets the unknown-event handler.
func (r *Router) HandleFallback(h Handler) { r.fallback = h }

// HandleSystemError sets the handler for transport-synthesized error
// events.
func (r *Router) HandleSystemError(h Handler) { r.systemError = h }

func (r *Router) callbackRegistered(action string) bool {
	if _, ok := r.callbacks[action]; ok {
		return true
	}
	_, ok := r.callbackSteps[action]
	return ok
}

// Validate checks router configuration completeness against the engine's
// registered workflows: every text state needs a step handler and every
// declared state action needs a callback route. Run once at wiring time.
func (r *Router) Validate() error {
	var problems []string
	for _, w := range r.engine.Workflows() {
		for st, spec := range w.States {
			if spec.AcceptsText {
				if _, ok := r.steps[stepKey{workflow: w.Name, state: st}]; !ok {
					problems = append(problems, fmt.Sprintf("%s/%s has no free-text handler", w.Name, st))
				}
			}
			for _, action := range spec.Actions {
				if !r.callbackRegistered(action) && r.longestPrefix(action) == nil {
					problems = append(problems, fmt.Sprintf("%s/%s action %q has no callback route", w.Name, st, action))
				}
			}
		}
	}
	if r.fallback == nil {
		problems = append(problems, "no fallback handler registered")
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("dispatch: incomplete routing: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Dispatch processes one event end to end: per-identity serialization,
// middleware chain, handler selection, outcome commit, and failure
// mapping. It always produces a Response (or nil when the event needs no
// reply); errors never escape.
func (r *Router) Dispatch(ctx context.Context, ev Event) *Response {
	unlock := r.locks.Lock(ev.Profile.ExternalID)
	defer unlock()

	start := time.Now()
	rc := &Context{Context: ctx}

	resp, err := r.chain.Run(rc, ev)
	if err != nil {
		return r.failure(rc, ev, err)
	}
	if resp != nil {
		return resp
	}

	if rc.Identity != nil {
		sess, err := r.engine.Current(rc, ev.Profile.ExternalID)
		if err != nil {
			return r.failure(rc, ev, Infra("session load", err))
		}
		rc.Session = sess
	}

	resp, err = r.route(rc, ev)
	if err != nil {
		return r.failure(rc, ev, err)
	}

	logger.Debug(rc, "dispatch", "event.handled",
		slog.String("kind", ev.Kind.String()),
		slog.Int64("user_id", ev.Profile.ExternalID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp
}

func (r *Router) route(rc *Context, ev Event) (*Response, error) {
	switch ev.Kind {
	case KindCommand:
		if h, ok := r.commands[ev.Command]; ok {
			return h(rc, ev)
		}

	case KindCallback:
		if h, ok := r.callbacks[ev.Action]; ok {
			return h(rc, ev)
		}
		if h, ok := r.callbackSteps[ev.Action]; ok {
			return r.runStep(rc, ev, h)
		}
		if pr := r.longestPrefix(ev.Action); pr != nil {
			return pr.handler(rc, ev)
		}

	case KindFreeText:
		if rc.Session != nil {
			key := stepKey{workflow: rc.Session.Workflow, state: rc.Session.State}
			h, ok := r.steps[key]
			if !ok {
				return nil, fmt.Errorf("%w: %s/%s", ErrStateHandlerMissing, key.workflow, key.state)
			}
			return r.runStep(rc, ev, h)
		}

	case KindSystemError:
		if r.systemError != nil {
			return r.systemError(rc, ev)
		}
	}

	if r.fallback != nil {
		return r.fallback(rc, ev)
	}
	return nil, nil
}

func (r *Router) longestPrefix(action string) *prefixRoute {
	for i := range r.prefixes {
		if strings.HasPrefix(action, r.prefixes[i].prefix) {
			return &r.prefixes[i]
		}
	}
	return nil
}

// runStep executes a workflow handler and commits its outcome through
// the version-checked engine.
func (r *Router) runStep(rc *Context, ev Event, h StepHandler) (*Response, error) {
	out, resp, err := h(rc, ev)
	if err != nil {
		return nil, err
	}
	next, err := r.engine.Apply(rc, ev.Profile.ExternalID, rc.Session, out)
	if err != nil {
		if errors.Is(err, session.ErrConflict) {
			return nil, &Error{Class: ClassConflict, Message: "session moved underneath the handler", Cause: err}
		}
		return nil, Infra("session apply", err)
	}
	rc.Session = next
	return resp, nil
}

// failure converts any dispatch error into the user-visible response for
// its class and logs it with full context. Configuration defects and
// infrastructure failures log at error level; the rest are expected
// outcomes and log at debug.
func (r *Router) failure(rc *Context, ev Event, err error) *Response {
	attrs := []slog.Attr{
		slog.String("kind", ev.Kind.String()),
		slog.Int64("user_id", ev.Profile.ExternalID),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	}

	if errors.Is(err, ErrStateHandlerMissing) {
		attrs = append(attrs, slog.String("err_code", "CONFIG_DEFECT"))
		logger.Error(rc, "dispatch", "event.failed", attrs...)
		return TextResponse(r.msgs.Infra)
	}

	var de *Error
	if errors.As(err, &de) {
		attrs = append(attrs, slog.String("err_code", de.Code()))
	}

	switch ClassOf(err) {
	case ClassUnauthenticated:
		logger.Debug(rc, "dispatch", "event.rejected", attrs...)
		msg := r.msgs.Unauthenticated
		if de != nil && de.Message != "" {
			msg = de.Message
		}
		return TextResponse(msg)

	case ClassUnauthorized:
		logger.Debug(rc, "dispatch", "event.rejected", attrs...)
		msg := r.msgs.Unauthorized
		if de != nil && de.Message != "" {
			msg = de.Message
		}
		return NoticeResponse(msg)

	case ClassValidation:
		logger.Debug(rc, "dispatch", "event.rejected", attrs...)
		return TextResponse(de.Message)

	case ClassNotFound:
		logger.Debug(rc, "dispatch", "event.rejected", attrs...)
		msg := "Not found."
		if de != nil && de.Message != "" {
			msg = de.Message
		}
		return NoticeResponse(msg)

	case ClassConflict:
		logger.Warn(rc, "dispatch", "event.conflict", attrs...)
		return NoticeResponse(r.msgs.Conflict)

	default:
		logger.Error(rc, "dispatch", "event.failed", attrs...)
		return TextResponse(r.msgs.Infra)
	}
}
