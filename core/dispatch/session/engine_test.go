package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftWorkflow() *Workflow {
	return &Workflow{
		Name:    "draft",
		Initial: "editing",
		States: map[State]StateSpec{
			"editing":   {AcceptsText: true, Next: []State{"reviewing"}},
			"reviewing": {Next: []State{"editing"}},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(NewMemoryStore())
	require.NoError(t, e.Register(draftWorkflow()))
	return e
}

func TestEngineRegisterRejectsDuplicates(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.Register(draftWorkflow()))
}

func TestEngineRegisterValidatesDeclaration(t *testing.T) {
	e := NewEngine(NewMemoryStore())

	assert.Error(t, e.Register(&Workflow{Name: "empty"}))

	assert.Error(t, e.Register(&Workflow{
		Name:    "bad_initial",
		Initial: "missing",
		States:  map[State]StateSpec{"a": {}},
	}))

	assert.Error(t, e.Register(&Workflow{
		Name:    "dangling",
		Initial: "a",
		States: map[State]StateSpec{
			"a": {Next: []State{"b"}},
		},
	}))
}

func TestEngineBeginUnknownWorkflow(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Begin(context.Background(), 1, "nope")
	assert.Error(t, err)
}

func TestEngineApplyAdvance(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	s, err := e.Begin(ctx, 1, "draft")
	require.NoError(t, err)

	next, err := e.Apply(ctx, 1, s, Advance("reviewing", map[string]any{"text": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, State("reviewing"), next.State)

	text, ok := next.GetString("text")
	require.True(t, ok)
	assert.Equal(t, "hi", text)
}

func TestEngineApplyRejectsUndeclaredTransition(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	s, err := e.Begin(ctx, 1, "draft")
	require.NoError(t, err)

	_, err = e.Apply(ctx, 1, s, Advance("editing", nil))
	assert.Error(t, err)
}

func TestEngineApplyConflictOnStaleRead(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	s, err := e.Begin(ctx, 1, "draft")
	require.NoError(t, err)

	// a concurrent writer moves the session forward
	_, err = e.Apply(ctx, 1, s, Advance("reviewing", nil))
	require.NoError(t, err)

	_, err = e.Apply(ctx, 1, s, Advance("reviewing", nil))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestEngineApplyRetryLeavesSessionUntouched(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	s, err := e.Begin(ctx, 1, "draft")
	require.NoError(t, err)

	same, err := e.Apply(ctx, 1, s, Retry())
	require.NoError(t, err)
	assert.Equal(t, s, same)

	got, err := e.Current(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, s.Version, got.Version)
}

func TestEngineApplyCancelFromAnyState(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	for _, progress := range []int{0, 1} {
		s, err := e.Begin(ctx, 1, "draft")
		require.NoError(t, err)
		if progress > 0 {
			s, err = e.Apply(ctx, 1, s, Advance("reviewing", nil))
			require.NoError(t, err)
		}

		cleared, err := e.Apply(ctx, 1, s, Cancel())
		require.NoError(t, err)
		assert.Nil(t, cleared)

		got, err := e.Current(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestEngineApplyCancelWithoutSession(t *testing.T) {
	e := newTestEngine(t)

	cleared, err := e.Apply(context.Background(), 1, nil, Cancel())
	require.NoError(t, err)
	assert.Nil(t, cleared)
}

func TestEngineApplyComplete(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	s, err := e.Begin(ctx, 1, "draft")
	require.NoError(t, err)

	_, err = e.Apply(ctx, 1, s, Complete())
	require.NoError(t, err)

	got, err := e.Current(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEngineApplyCompleteWithoutSession(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Apply(context.Background(), 1, nil, Complete())
	assert.Error(t, err)
}
