package dispatch

import (
	"log/slog"

	"github.com/m3rciful/taskbot/core/logger"
)

// Stage is one enrichment step run before routing. Returning a non-nil
// Response terminates the chain and answers the event without invoking
// any handler.
type Stage interface {
	Name() string
	Run(rc *Context, ev Event) (*Response, error)
}

// StageFunc adapts a function to the Stage interface.
type StageFunc struct {
	StageName string
	Fn        func(rc *Context, ev Event) (*Response, error)
}

func (s StageFunc) Name() string { return s.StageName }

func (s StageFunc) Run(rc *Context, ev Event) (*Response, error) {
	return s.Fn(rc, ev)
}

// Chain runs stages strictly in registration order.
type Chain struct {
	stages []Stage
}

// NewChain builds a chain from the given stages.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run executes every stage until one terminates or fails.
func (c *Chain) Run(rc *Context, ev Event) (*Response, error) {
	for _, stage := range c.stages {
		resp, err := stage.Run(rc, ev)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			logger.Debug(rc, "dispatch", "chain.terminate",
				slog.String("stage", stage.Name()),
				slog.Int64("user_id", ev.Profile.ExternalID),
				slog.String("kind", ev.Kind.String()),
			)
			return resp, nil
		}
	}
	return nil, nil
}
