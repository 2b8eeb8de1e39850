package policies

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/phillip1029/reagent/rl"
)

// SoftmaxConfig carries the parameters of a SoftmaxPolicy
type SoftmaxConfig struct {
	Gamma            float64
	TargetUpdateRate float64
	// Boltzmann temperature of the action distribution
	Temperature  float64
	MaxQ         bool
	LearningRate float64
	// multiplicative decay of the learning rate per training batch,
	// 1 disables the decay
	LearningRateDecay float64
	Seed              uint64
}

// SoftmaxPolicy samples actions with a Boltzmann distribution over the
// learned action values. The learning rule matches DQNPolicy.
type SoftmaxPolicy struct {
	config SoftmaxConfig
	qTable *QTable
	target *QTable
	alpha  float64
	rand   *rand.Rand
}

var (
	_ rl.Policy       = &SoftmaxPolicy{}
	_ rl.BatchLearner = &SoftmaxPolicy{}
	_ rl.GreedyPolicy = &SoftmaxPolicy{}
	_ rl.Recorder     = &SoftmaxPolicy{}
)

func NewSoftmaxPolicy(config SoftmaxConfig) *SoftmaxPolicy {
	if config.Seed == 0 {
		config.Seed = uint64(time.Now().UnixNano())
	}
	if config.LearningRateDecay <= 0 {
		config.LearningRateDecay = 1
	}
	if config.Temperature <= 0 {
		config.Temperature = 1
	}
	return &SoftmaxPolicy{
		config: config,
		qTable: NewQTable(),
		target: NewQTable(),
		alpha:  config.LearningRate,
		rand:   rand.New(rand.NewSource(config.Seed)),
	}
}

func (s *SoftmaxPolicy) NextAction(step int, state rl.State, actions []rl.Action) (rl.Action, bool) {
	if len(actions) == 0 {
		return nil, false
	}
	stateHash := state.Hash()

	sum := float64(0)
	weights := make([]float64, len(actions))
	vals := make([]float64, len(actions))

	for i, action := range actions {
		val := s.qTable.Get(stateHash, action.Hash(), 0)
		exp := math.Exp(val / s.config.Temperature)
		vals[i] = exp
		sum += exp
	}

	for i, v := range vals {
		weights[i] = v / sum
	}
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil, false
	}
	return actions[i], true
}

func (s *SoftmaxPolicy) Update(t *rl.Transition) {
	stateHash := t.State.Hash()
	actionHash := t.Action.Hash()

	nextVal := 0.0
	if !t.Terminal {
		nextStateHash := t.NextState.Hash()
		nextActions := t.NextState.Actions()
		if len(nextActions) > 0 {
			actionHashes := make([]string, len(nextActions))
			for i, a := range nextActions {
				actionHashes[i] = a.Hash()
			}
			_, maxVal := s.target.MaxAmong(nextStateHash, actionHashes, 0)
			if s.config.MaxQ {
				nextVal = maxVal
			} else {
				// expectation under the Boltzmann distribution
				expSum := 0.0
				weighted := 0.0
				for _, a := range actionHashes {
					v := s.target.Get(nextStateHash, a, 0)
					e := math.Exp(v / s.config.Temperature)
					expSum += e
					weighted += e * v
				}
				nextVal = weighted / expSum
			}
		}
	}

	curVal := s.qTable.Get(stateHash, actionHash, 0)
	newVal := (1-s.alpha)*curVal + s.alpha*(t.Reward+s.config.Gamma*nextVal)
	s.qTable.Set(stateHash, actionHash, newVal)
}

func (s *SoftmaxPolicy) TrainBatch(batch []*rl.Transition) {
	for _, t := range batch {
		s.Update(t)
	}
	tau := s.config.TargetUpdateRate
	s.qTable.Each(func(state, action string, val float64) {
		cur := s.target.Get(state, action, 0)
		s.target.Set(state, action, tau*val+(1-tau)*cur)
	})
	s.alpha *= s.config.LearningRateDecay
}

func (s *SoftmaxPolicy) UpdateIteration(_ int, _ *rl.Trace) {}

func (s *SoftmaxPolicy) Greedy() rl.Policy {
	return &greedyView{qTable: s.qTable}
}

func (s *SoftmaxPolicy) Record(path string) error {
	return s.qTable.Record(path)
}

func (s *SoftmaxPolicy) Reset() {
	s.qTable = NewQTable()
	s.target = NewQTable()
	s.alpha = s.config.LearningRate
}
