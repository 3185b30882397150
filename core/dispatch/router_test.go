package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/taskbot/core/access"
	"github.com/m3rciful/taskbot/core/dispatch/session"
)

// identityStage injects a fixed identity, standing in for the full
// resolution stage in router tests.
func identityStage(id *Identity) Stage {
	return StageFunc{StageName: "test_identity", Fn: func(rc *Context, _ Event) (*Response, error) {
		rc.Identity = id
		rc.Caps = access.Resolve(id.Role)
		return nil, nil
	}}
}

func testWorkflow() *session.Workflow {
	return &session.Workflow{
		Name:    "naming",
		Initial: "waiting_for_name",
		States: map[session.State]session.StateSpec{
			"waiting_for_name": {AcceptsText: true, Next: []session.State{"confirming"}},
			"confirming":       {Actions: []string{"confirm"}},
		},
	}
}

func newTestRouter(t *testing.T) (*Router, *session.Engine) {
	t.Helper()
	engine := session.NewEngine(session.NewMemoryStore())
	require.NoError(t, engine.Register(testWorkflow()))

	chain := NewChain(identityStage(registeredUser()))
	return NewRouter(chain, engine, DefaultMessages()), engine
}

func freeText(userID int64, text string) Event {
	return Event{Kind: KindFreeText, Payload: text, Profile: Profile{ExternalID: userID}}
}

func callback(userID int64, action, payload string) Event {
	return Event{Kind: KindCallback, Action: action, Payload: payload, Profile: Profile{ExternalID: userID}}
}

func TestRouterDuplicateRegistrations(t *testing.T) {
	r, _ := newTestRouter(t)

	require.NoError(t, r.HandleCommand("/start", nopHandler))
	assert.Error(t, r.HandleCommand("/start", nopHandler))
	assert.Error(t, r.HandleCommand("start", nopHandler), "commands must carry the slash")

	require.NoError(t, r.HandleCallback("confirm", nopHandler))
	assert.Error(t, r.HandleCallback("confirm", nopHandler))
	assert.Error(t, r.HandleCallbackStep("confirm", nopStep), "step and plain callbacks share one namespace")

	require.NoError(t, r.HandleCallbackPrefix("menu:", nopHandler))
	assert.Error(t, r.HandleCallbackPrefix("menu:", nopHandler))

	require.NoError(t, r.HandleState("naming", "waiting_for_name", nopStep))
	assert.Error(t, r.HandleState("naming", "waiting_for_name", nopStep))
}

func nopHandler(rc *Context, ev Event) (*Response, error) { return nil, nil }

func nopStep(rc *Context, ev Event) (session.Outcome, *Response, error) {
	return session.Retry(), nil, nil
}

func TestRouterValidateFlagsGaps(t *testing.T) {
	r, _ := newTestRouter(t)
	r.HandleFallback(nopHandler)

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting_for_name")
	assert.Contains(t, err.Error(), "confirm")

	require.NoError(t, r.HandleState("naming", "waiting_for_name", nopStep))
	require.NoError(t, r.HandleCallbackStep("confirm", nopStep))
	assert.NoError(t, r.Validate())
}

func TestRouterValidateRequiresFallback(t *testing.T) {
	r, _ := newTestRouter(t)
	require.NoError(t, r.HandleState("naming", "waiting_for_name", nopStep))
	require.NoError(t, r.HandleCallbackStep("confirm", nopStep))

	err := r.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback")
}

func TestRouterCommandBeatsActiveWorkflow(t *testing.T) {
	r, engine := newTestRouter(t)

	var hits []string
	require.NoError(t, r.HandleCommand("/help", func(rc *Context, ev Event) (*Response, error) {
		hits = append(hits, "command")
		return TextResponse("help"), nil
	}))
	require.NoError(t, r.HandleState("naming", "waiting_for_name", nopStep))
	r.HandleFallback(nopHandler)

	_, err := engine.Begin(context.Background(), 100, "naming")
	require.NoError(t, err)

	resp := r.Dispatch(context.Background(), Event{
		Kind:    KindCommand,
		Command: "/help",
		Profile: Profile{ExternalID: 100},
	})
	require.NotNil(t, resp)
	assert.Equal(t, "help", resp.Text)
	assert.Equal(t, []string{"command"}, hits)
}

func TestRouterCallbackExactBeatsPrefix(t *testing.T) {
	r, _ := newTestRouter(t)

	require.NoError(t, r.HandleCallback("menu:main", func(rc *Context, ev Event) (*Response, error) {
		return TextResponse("exact"), nil
	}))
	require.NoError(t, r.HandleCallbackPrefix("menu:", func(rc *Context, ev Event) (*Response, error) {
		return TextResponse("prefix"), nil
	}))
	r.HandleFallback(nopHandler)

	resp := r.Dispatch(context.Background(), callback(100, "menu:main", ""))
	require.NotNil(t, resp)
	assert.Equal(t, "exact", resp.Text)

	resp = r.Dispatch(context.Background(), callback(100, "menu:roles", ""))
	require.NotNil(t, resp)
	assert.Equal(t, "prefix", resp.Text)
}

func TestRouterLongestPrefixWins(t *testing.T) {
	r, _ := newTestRouter(t)

	require.NoError(t, r.HandleCallbackPrefix("page:", func(rc *Context, ev Event) (*Response, error) {
		return TextResponse("short"), nil
	}))
	require.NoError(t, r.HandleCallbackPrefix("page:companies:", func(rc *Context, ev Event) (*Response, error) {
		return TextResponse("long"), nil
	}))
	r.HandleFallback(nopHandler)

	resp := r.Dispatch(context.Background(), callback(100, "page:companies:2", ""))
	require.NotNil(t, resp)
	assert.Equal(t, "long", resp.Text)

	resp = r.Dispatch(context.Background(), callback(100, "page:tasks:0", ""))
	require.NotNil(t, resp)
	assert.Equal(t, "short", resp.Text)
}

func TestRouterFreeTextRoutesToActiveState(t *testing.T) {
	r, engine := newTestRouter(t)

	require.NoError(t, r.HandleState("naming", "waiting_for_name", func(rc *Context, ev Event) (session.Outcome, *Response, error) {
		return session.Advance("confirming", map[string]any{"name": ev.Payload}), TextResponse("got it"), nil
	}))
	require.NoError(t, r.HandleCallbackStep("confirm", nopStep))
	r.HandleFallback(nopHandler)

	_, err := engine.Begin(context.Background(), 100, "naming")
	require.NoError(t, err)

	resp := r.Dispatch(context.Background(), freeText(100, "Acme"))
	require.NotNil(t, resp)
	assert.Equal(t, "got it", resp.Text)

	s, err := engine.Current(context.Background(), 100)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, session.State("confirming"), s.State)
	name, _ := s.GetString("name")
	assert.Equal(t, "Acme", name)
}

func TestRouterFreeTextWithoutSessionFallsBack(t *testing.T) {
	r, _ := newTestRouter(t)
	r.HandleFallback(func(rc *Context, ev Event) (*Response, error) {
		return TextResponse("fallback"), nil
	})

	resp := r.Dispatch(context.Background(), freeText(100, "hello"))
	require.NotNil(t, resp)
	assert.Equal(t, "fallback", resp.Text)
}

func TestRouterMissingStateHandlerIsConfigDefect(t *testing.T) {
	r, engine := newTestRouter(t)
	r.HandleFallback(nopHandler)

	_, err := engine.Begin(context.Background(), 100, "naming")
	require.NoError(t, err)

	resp := r.Dispatch(context.Background(), freeText(100, "Acme"))
	require.NotNil(t, resp)
	assert.Equal(t, DefaultMessages().Infra, resp.Text)

	// the session survives; the defect is in wiring, not user data
	s, err := engine.Current(context.Background(), 100)
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestRouterFailureMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantText   string
		wantNotice bool
	}{
		{"unauthenticated", Unauthenticated(""), DefaultMessages().Unauthenticated, false},
		{"unauthenticated custom", Unauthenticated("register first"), "register first", false},
		{"unauthorized", Unauthorized(""), DefaultMessages().Unauthorized, true},
		{"unauthorized custom", Unauthorized("directors only"), "directors only", true},
		{"validation", Validation("too short"), "too short", false},
		{"not found", NotFound("no such company"), "no such company", true},
		{"infra", Infra("db", errors.New("down")), DefaultMessages().Infra, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newTestRouter(t)
			require.NoError(t, r.HandleCommand("/x", func(rc *Context, ev Event) (*Response, error) {
				return nil, tc.err
			}))
			r.HandleFallback(nopHandler)

			resp := r.Dispatch(context.Background(), Event{
				Kind:    KindCommand,
				Command: "/x",
				Profile: Profile{ExternalID: 100},
			})
			require.NotNil(t, resp)
			assert.Equal(t, tc.wantText, resp.Text)
			assert.Equal(t, tc.wantNotice, resp.Notice)
		})
	}
}

func TestRouterStaleSessionCommitMapsToConflict(t *testing.T) {
	r, engine := newTestRouter(t)

	require.NoError(t, r.HandleState("naming", "waiting_for_name", func(rc *Context, ev Event) (session.Outcome, *Response, error) {
		// sabotage: another writer advances the session mid-handler
		_, err := engine.Apply(rc, 100, rc.Session, session.Advance("confirming", nil))
		require.NoError(t, err)
		return session.Advance("confirming", nil), TextResponse("ok"), nil
	}))
	r.HandleFallback(nopHandler)

	_, err := engine.Begin(context.Background(), 100, "naming")
	require.NoError(t, err)

	resp := r.Dispatch(context.Background(), freeText(100, "Acme"))
	require.NotNil(t, resp)
	assert.Equal(t, DefaultMessages().Conflict, resp.Text)
	assert.True(t, resp.Notice)
}

func TestRouterSystemErrorRoute(t *testing.T) {
	r, _ := newTestRouter(t)
	r.HandleFallback(nopHandler)
	r.HandleSystemError(func(rc *Context, ev Event) (*Response, error) {
		return TextResponse("sorry"), nil
	})

	resp := r.Dispatch(context.Background(), Event{
		Kind:    KindSystemError,
		Profile: Profile{ExternalID: 100},
	})
	require.NotNil(t, resp)
	assert.Equal(t, "sorry", resp.Text)
}

// Dispatches for one identity must be serialized: a slow workflow handler
// and a concurrent cancel may interleave in either order, but never
// overlap, so the final state is always one of the two serial outcomes.
func TestRouterSerializesPerIdentity(t *testing.T) {
	r, engine := newTestRouter(t)

	require.NoError(t, r.HandleState("naming", "waiting_for_name", func(rc *Context, ev Event) (session.Outcome, *Response, error) {
		return session.Advance("confirming", nil), TextResponse("advanced"), nil
	}))
	require.NoError(t, r.HandleCallbackStep("confirm", nopStep))
	require.NoError(t, r.HandleCallbackStep("cancel", func(rc *Context, ev Event) (session.Outcome, *Response, error) {
		return session.Cancel(), TextResponse("cancelled"), nil
	}))
	r.HandleFallback(nopHandler)

	_, err := engine.Begin(context.Background(), 100, "naming")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Dispatch(context.Background(), freeText(100, "Acme"))
	}()
	go func() {
		defer wg.Done()
		r.Dispatch(context.Background(), callback(100, "cancel", ""))
	}()
	wg.Wait()

	// Both serial orders end with no session: text-then-cancel clears
	// the advanced session, cancel-then-text leaves nothing to advance.
	s, err := engine.Current(context.Background(), 100)
	require.NoError(t, err)
	assert.Nil(t, s)
}
