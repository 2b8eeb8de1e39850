package rl

import (
	"context"
	"time"
)

// EpisodeContext carries the cancellation context of a single episode
// and collects its outcome
type EpisodeContext struct {
	Episode int
	Eval    bool

	Context context.Context
	Cancel  context.CancelFunc

	Timesteps   int
	RunDuration time.Duration
	Err         error
	// episode ended in a terminal state before the horizon
	Terminal bool
	// episode ended because the horizon was reached
	HorizonEnd bool
}

func NewEpisodeContext(parent context.Context, episode int, timeout time.Duration) *EpisodeContext {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	return &EpisodeContext{
		Episode: episode,
		Context: ctx,
		Cancel:  cancel,
	}
}

func (e *EpisodeContext) SetError(err error) {
	e.Err = err
}
