package rl

import (
	"context"
	"fmt"
	"time"

	"github.com/phillip1029/reagent/util"
)

// EpisodeStats summarizes a finished episode for trackers
type EpisodeStats struct {
	Episode        int
	Eval           bool
	Timesteps      int
	TotalTimesteps int
	Return         float64
	RollingReturn  float64
	Duration       time.Duration
}

// Tracker observes episode outcomes (status server, redis publisher, ...)
type Tracker interface {
	EpisodeDone(EpisodeStats)
}

type AgentConfig struct {
	Episodes    int
	Horizon     int
	Policy      Policy
	Environment Environment

	// Replay training. When Replay is nil the policy is updated
	// with each live transition instead
	Replay          ReplayBuffer
	MinibatchSize   int
	NumTrainBatches int
	TrainEveryTS    int
	TrainAfterTS    int

	// Evaluation cadence. Evaluation episodes run greedily and do not
	// update the policy or the replay buffer
	TestEveryTS int
	TestAfterTS int

	// Window for the rolling average of returns
	AvgOverEpisodes int
	// Stop early once the rolling average reaches this value
	SolvedThreshold *float64

	EpisodeTimeout time.Duration
	Trackers       []Tracker
}

// RL Agent configured with the corresponding
// policy and environment
type Agent struct {
	config *AgentConfig
	// collects the traces of the run
	// Only populated if the Run function is invoked
	traces      []*Trace
	policy      Policy
	environment Environment

	timesteps int
	lastTrain int
	lastTest  int
	returns   *util.Window
	solved    bool
}

// Instantiates a new Agent
func NewAgent(config *AgentConfig) *Agent {
	window := config.AvgOverEpisodes
	if window <= 0 {
		window = 1
	}
	return &Agent{
		config:      config,
		traces:      make([]*Trace, 0, config.Episodes),
		policy:      config.Policy,
		environment: config.Environment,
		returns:     util.NewWindow(window),
	}
}

// Run the agent for the specified number of episodes and horizon,
// interleaving training batches and evaluation episodes according
// to the configured timestep cadences
func (a *Agent) Run(ctx context.Context) error {
	for i := 0; i < a.config.Episodes; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		eCtx := NewEpisodeContext(ctx, i, a.config.EpisodeTimeout)
		trace := a.runEpisode(eCtx)
		eCtx.Cancel()
		if eCtx.Err != nil {
			return fmt.Errorf("episode %d: %w", i, eCtx.Err)
		}
		a.traces = append(a.traces, trace)
		a.policy.UpdateIteration(i, trace)

		if !a.evalDue() {
			// without an evaluation cadence the rolling average
			// is computed over training returns
			if a.config.TestEveryTS <= 0 {
				a.returns.Push(trace.TotalReward())
			}
			a.notify(eCtx, trace)
			continue
		}

		a.lastTest = a.timesteps
		evalCtx := NewEpisodeContext(ctx, i, a.config.EpisodeTimeout)
		evalCtx.Eval = true
		evalTrace := a.runEpisode(evalCtx)
		evalCtx.Cancel()
		if evalCtx.Err != nil {
			return fmt.Errorf("evaluation episode %d: %w", i, evalCtx.Err)
		}
		a.returns.Push(evalTrace.TotalReward())
		a.notify(eCtx, trace)
		a.notify(evalCtx, evalTrace)

		if a.config.SolvedThreshold != nil && a.returns.Full() && a.returns.Mean() >= *a.config.SolvedThreshold {
			a.solved = true
			return nil
		}
	}
	return nil
}

// Solved reports whether the run stopped early at the reward threshold
func (a *Agent) Solved() bool {
	return a.solved
}

// Timesteps executed across all training episodes so far
func (a *Agent) Timesteps() int {
	return a.timesteps
}

// RollingReturn is the current rolling average of returns
func (a *Agent) RollingReturn() float64 {
	return a.returns.Mean()
}

// Traces of the training episodes run so far
func (a *Agent) Traces() []*Trace {
	return a.traces
}

func (a *Agent) evalDue() bool {
	if a.config.TestEveryTS <= 0 {
		return false
	}
	if a.timesteps < a.config.TestAfterTS {
		return false
	}
	return a.timesteps-a.lastTest >= a.config.TestEveryTS
}

// run a single episode and return the resulting trace
func (a *Agent) runEpisode(eCtx *EpisodeContext) *Trace {
	start := time.Now()
	defer func() {
		eCtx.RunDuration = time.Since(start)
	}()

	policy := a.policy
	if eCtx.Eval {
		if g, ok := a.policy.(GreedyPolicy); ok {
			policy = g.Greedy()
		}
	}

	state, err := a.environment.Reset()
	if err != nil {
		eCtx.SetError(err)
		return NewTrace()
	}
	trace := NewTrace()
	actions := state.Actions()

	for i := 0; i < a.config.Horizon; i++ {
		select {
		case <-eCtx.Context.Done():
			return trace
		default:
		}
		if len(actions) == 0 {
			break
		}
		nextAction, ok := policy.NextAction(i, state, actions)
		if !ok {
			break
		}
		nextState, reward, terminal, err := a.environment.Step(nextAction)
		if err != nil {
			eCtx.SetError(err)
			return trace
		}
		transition := &Transition{
			State:     state,
			Action:    nextAction,
			NextState: nextState,
			Reward:    reward,
			Terminal:  terminal,
		}
		trace.Append(state, nextAction, nextState, reward, terminal)
		eCtx.Timesteps += 1

		if !eCtx.Eval {
			a.timesteps += 1
			if a.config.Replay != nil {
				a.config.Replay.Add(transition)
			} else {
				policy.Update(transition)
			}
			a.maybeTrain()
		}

		if terminal {
			eCtx.Terminal = true
			return trace
		}
		state = nextState
		actions = nextState.Actions()
	}
	eCtx.HorizonEnd = true
	return trace
}

// maybeTrain runs the configured number of minibatches when the
// training cadence is due
func (a *Agent) maybeTrain() {
	if a.config.Replay == nil || a.config.TrainEveryTS <= 0 {
		return
	}
	if a.timesteps < a.config.TrainAfterTS || a.config.Replay.Len() == 0 {
		return
	}
	if a.timesteps-a.lastTrain < a.config.TrainEveryTS {
		return
	}
	a.lastTrain = a.timesteps

	batches := a.config.NumTrainBatches
	if batches <= 0 {
		batches = 1
	}
	for b := 0; b < batches; b++ {
		batch := a.config.Replay.Sample(a.config.MinibatchSize)
		if len(batch) == 0 {
			return
		}
		if bl, ok := a.policy.(BatchLearner); ok {
			bl.TrainBatch(batch)
			continue
		}
		for _, t := range batch {
			a.policy.Update(t)
		}
	}
}

func (a *Agent) notify(eCtx *EpisodeContext, trace *Trace) {
	if len(a.config.Trackers) == 0 {
		return
	}
	stats := EpisodeStats{
		Episode:        eCtx.Episode,
		Eval:           eCtx.Eval,
		Timesteps:      eCtx.Timesteps,
		TotalTimesteps: a.timesteps,
		Return:         trace.TotalReward(),
		RollingReturn:  a.returns.Mean(),
		Duration:       eCtx.RunDuration,
	}
	for _, t := range a.config.Trackers {
		t.EpisodeDone(stats)
	}
}
