package rl

import (
	"math/rand"
	"time"
)

type Policy interface {
	// NextAction picks an action among the available ones
	NextAction(step int, state State, actions []Action) (Action, bool)
	// Update with a single transition
	Update(*Transition)
	// UpdateIteration is called at the end of each episode with the trace
	UpdateIteration(episode int, trace *Trace)
	Reset()
}

// BatchLearner is implemented by policies that learn from replayed minibatches.
// TrainBatch marks a batch boundary (target synchronisation, learning rate decay).
type BatchLearner interface {
	TrainBatch(batch []*Transition)
}

// GreedyPolicy is implemented by learning policies that can expose an
// exploration-free view of themselves for evaluation episodes
type GreedyPolicy interface {
	Greedy() Policy
}

// Recorder is implemented by policies that can persist their state
type Recorder interface {
	Record(path string) error
}

type RandomPolicy struct {
	rand *rand.Rand
}

var _ Policy = &RandomPolicy{}

func NewRandomPolicy() *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func NewRandomPolicyWithSeed(seed int64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) NextAction(step int, state State, actions []Action) (Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	i := r.rand.Intn(len(actions))
	return actions[i], true
}

func (r *RandomPolicy) Update(_ *Transition) {}

func (r *RandomPolicy) UpdateIteration(_ int, _ *Trace) {}

func (r *RandomPolicy) Reset() {}
