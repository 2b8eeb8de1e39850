package rl

// Environment that the agent interacts with
type Environment interface {
	// Reset called at the start of each episode
	Reset() (State, error)
	// Step applies the action and returns the next state,
	// the reward and whether the episode reached a terminal state
	Step(Action) (State, float64, bool, error)
}

// State of the system that RL policies observe
type State interface {
	// Indexed by the Hash
	// Should be deterministic
	Hash() string
	// Actions possible from the state
	Actions() []Action
}

// An Action that the RL policy can take
type Action interface {
	// Index of the action
	// Should be deterministic
	Hash() string
}

// Transition records a single step of an episode
type Transition struct {
	State     State
	Action    Action
	NextState State
	Reward    float64
	Terminal  bool
}

// ReplayBuffer stores past transitions and samples minibatches for training
type ReplayBuffer interface {
	Add(*Transition)
	Sample(n int) []*Transition
	Len() int
}
