package policies

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/phillip1029/reagent/rl"
)

// DQNConfig carries the learning-rule parameters of a DQNPolicy
type DQNConfig struct {
	// discount factor
	Gamma float64
	// soft update rate of the target table after each training batch
	TargetUpdateRate float64
	// exploration rate of the behaviour policy
	Epsilon float64
	// off-policy max-Q backup when true, on-policy expected SARSA otherwise
	MaxQ         bool
	LearningRate float64
	// multiplicative decay of the learning rate per training batch,
	// 1 disables the decay
	LearningRateDecay float64
	Seed              uint64
}

// DQNPolicy is an epsilon-greedy Q-learning policy with a separate
// target table synchronised by soft updates at batch boundaries
type DQNPolicy struct {
	config DQNConfig
	qTable *QTable
	target *QTable
	alpha  float64
	rand   *rand.Rand
}

var (
	_ rl.Policy       = &DQNPolicy{}
	_ rl.BatchLearner = &DQNPolicy{}
	_ rl.GreedyPolicy = &DQNPolicy{}
	_ rl.Recorder     = &DQNPolicy{}
)

func NewDQNPolicy(config DQNConfig) *DQNPolicy {
	if config.Seed == 0 {
		config.Seed = uint64(time.Now().UnixNano())
	}
	if config.LearningRateDecay <= 0 {
		config.LearningRateDecay = 1
	}
	return &DQNPolicy{
		config: config,
		qTable: NewQTable(),
		target: NewQTable(),
		alpha:  config.LearningRate,
		rand:   rand.New(rand.NewSource(config.Seed)),
	}
}

func (d *DQNPolicy) NextAction(step int, state rl.State, actions []rl.Action) (rl.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	if d.rand.Float64() < d.config.Epsilon {
		i := d.rand.Intn(len(actions))
		return actions[i], true
	}

	actionsMap := make(map[string]rl.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := d.qTable.MaxAmong(state.Hash(), availableActions, 0)
	if maxAction == "" {
		return nil, false
	}
	return actionsMap[maxAction], true
}

// Update applies a single temporal-difference backup, bootstrapping
// from the target table
func (d *DQNPolicy) Update(t *rl.Transition) {
	stateHash := t.State.Hash()
	actionHash := t.Action.Hash()

	nextVal := 0.0
	if !t.Terminal {
		nextVal = d.nextStateValue(t.NextState)
	}

	curVal := d.qTable.Get(stateHash, actionHash, 0)
	newVal := (1-d.alpha)*curVal + d.alpha*(t.Reward+d.config.Gamma*nextVal)
	d.qTable.Set(stateHash, actionHash, newVal)
}

// nextStateValue is the bootstrap value of the next state: the maximum
// for max-Q learning, the epsilon-greedy expectation for SARSA
func (d *DQNPolicy) nextStateValue(nextState rl.State) float64 {
	nextStateHash := nextState.Hash()
	nextActions := nextState.Actions()
	if len(nextActions) == 0 {
		return 0
	}
	actionHashes := make([]string, len(nextActions))
	for i, a := range nextActions {
		actionHashes[i] = a.Hash()
	}
	_, maxVal := d.target.MaxAmong(nextStateHash, actionHashes, 0)
	if d.config.MaxQ {
		return maxVal
	}
	sum := 0.0
	for _, a := range actionHashes {
		sum += d.target.Get(nextStateHash, a, 0)
	}
	mean := sum / float64(len(actionHashes))
	return (1-d.config.Epsilon)*maxVal + d.config.Epsilon*mean
}

// TrainBatch applies the batch of transitions, then soft-updates the
// target table and decays the learning rate
func (d *DQNPolicy) TrainBatch(batch []*rl.Transition) {
	for _, t := range batch {
		d.Update(t)
	}
	tau := d.config.TargetUpdateRate
	d.qTable.Each(func(state, action string, val float64) {
		cur := d.target.Get(state, action, 0)
		d.target.Set(state, action, tau*val+(1-tau)*cur)
	})
	d.alpha *= d.config.LearningRateDecay
}

func (d *DQNPolicy) UpdateIteration(_ int, _ *rl.Trace) {}

// Greedy returns an exploration-free view over the learned table,
// used for evaluation episodes
func (d *DQNPolicy) Greedy() rl.Policy {
	return &greedyView{qTable: d.qTable}
}

// LearningRate is the current, possibly decayed, learning rate
func (d *DQNPolicy) LearningRate() float64 {
	return d.alpha
}

func (d *DQNPolicy) Record(path string) error {
	return d.qTable.Record(path)
}

func (d *DQNPolicy) Reset() {
	d.qTable = NewQTable()
	d.target = NewQTable()
	d.alpha = d.config.LearningRate
}

// greedyView picks the best known action and never learns
type greedyView struct {
	qTable *QTable
}

var _ rl.Policy = &greedyView{}

func (g *greedyView) NextAction(step int, state rl.State, actions []rl.Action) (rl.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	actionsMap := make(map[string]rl.Action)
	availableActions := make([]string, len(actions))
	for i, a := range actions {
		aHash := a.Hash()
		actionsMap[aHash] = a
		availableActions[i] = aHash
	}
	maxAction, _ := g.qTable.MaxAmong(state.Hash(), availableActions, 0)
	if maxAction == "" {
		return nil, false
	}
	return actionsMap[maxAction], true
}

func (g *greedyView) Update(_ *rl.Transition) {}

func (g *greedyView) UpdateIteration(_ int, _ *rl.Trace) {}

func (g *greedyView) Reset() {}
