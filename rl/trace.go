package rl

// Trace of an episode as a sequence of transitions
type Trace struct {
	states     []State
	actions    []Action
	nextStates []State
	rewards    []float64
	terminals  []bool
}

func NewTrace() *Trace {
	return &Trace{
		states:     make([]State, 0),
		actions:    make([]Action, 0),
		nextStates: make([]State, 0),
		rewards:    make([]float64, 0),
		terminals:  make([]bool, 0),
	}
}

func (t *Trace) Append(state State, action Action, nextState State, reward float64, terminal bool) {
	t.states = append(t.states, state)
	t.actions = append(t.actions, action)
	t.nextStates = append(t.nextStates, nextState)
	t.rewards = append(t.rewards, reward)
	t.terminals = append(t.terminals, terminal)
}

func (t *Trace) Len() int {
	return len(t.states)
}

func (t *Trace) Get(i int) (*Transition, bool) {
	if i < 0 || i >= len(t.states) {
		return nil, false
	}
	return &Transition{
		State:     t.states[i],
		Action:    t.actions[i],
		NextState: t.nextStates[i],
		Reward:    t.rewards[i],
		Terminal:  t.terminals[i],
	}, true
}

func (t *Trace) Last() (*Transition, bool) {
	return t.Get(len(t.states) - 1)
}

func (t *Trace) Slice(from, to int) *Trace {
	slicedTrace := NewTrace()
	for i := from; i < to; i++ {
		slicedTrace.Append(t.states[i], t.actions[i], t.nextStates[i], t.rewards[i], t.terminals[i])
	}
	return slicedTrace
}

// TotalReward is the undiscounted return of the episode
func (t *Trace) TotalReward() float64 {
	total := 0.0
	for _, r := range t.rewards {
		total += r
	}
	return total
}
