package policies

import (
	"math"
	"testing"

	"github.com/phillip1029/reagent/rl"
)

type testAction struct {
	name string
}

func (a *testAction) Hash() string {
	return a.name
}

type testState struct {
	name    string
	actions []rl.Action
}

func (s *testState) Hash() string {
	return s.name
}

func (s *testState) Actions() []rl.Action {
	return s.actions
}

var (
	left  = &testAction{"left"}
	right = &testAction{"right"}
)

func newTestState(name string) *testState {
	return &testState{name: name, actions: []rl.Action{left, right}}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDQNUpdateTerminal(t *testing.T) {
	p := NewDQNPolicy(DQNConfig{
		Gamma:            0.9,
		TargetUpdateRate: 0.5,
		Epsilon:          0,
		MaxQ:             true,
		LearningRate:     0.5,
		Seed:             1,
	})
	s := newTestState("s")
	next := newTestState("next")
	p.Update(&rl.Transition{State: s, Action: right, NextState: next, Reward: 1, Terminal: true})
	// terminal transitions do not bootstrap
	if v := p.qTable.Get("s", "right", 0); !almostEqual(v, 0.5) {
		t.Errorf("expected 0.5, got %f", v)
	}
}

func TestDQNBootstrapsFromTarget(t *testing.T) {
	p := NewDQNPolicy(DQNConfig{
		Gamma:            0.9,
		TargetUpdateRate: 1.0,
		Epsilon:          0,
		MaxQ:             true,
		LearningRate:     1.0,
		Seed:             1,
	})
	s := newTestState("s")
	next := newTestState("next")

	// the target table is still zero, so the backup sees no next value
	p.Update(&rl.Transition{State: next, Action: left, NextState: newTestState("end"), Reward: 2, Terminal: true})
	p.Update(&rl.Transition{State: s, Action: right, NextState: next, Reward: 0, Terminal: false})
	if v := p.qTable.Get("s", "right", 0); !almostEqual(v, 0) {
		t.Errorf("expected 0 before target sync, got %f", v)
	}

	// after a batch boundary with tau=1 the target matches the table
	p.TrainBatch(nil)
	p.Update(&rl.Transition{State: s, Action: right, NextState: next, Reward: 0, Terminal: false})
	if v := p.qTable.Get("s", "right", 0); !almostEqual(v, 0.9*2) {
		t.Errorf("expected 1.8 after target sync, got %f", v)
	}
}

func TestDQNSoftTargetUpdate(t *testing.T) {
	p := NewDQNPolicy(DQNConfig{
		Gamma:            0.9,
		TargetUpdateRate: 0.2,
		Epsilon:          0,
		MaxQ:             true,
		LearningRate:     1.0,
		Seed:             1,
	})
	p.qTable.Set("s", "right", 10)
	p.TrainBatch(nil)
	if v := p.target.Get("s", "right", 0); !almostEqual(v, 2) {
		t.Errorf("expected target 2 after one soft update, got %f", v)
	}
	p.TrainBatch(nil)
	if v := p.target.Get("s", "right", 0); !almostEqual(v, 0.2*10+0.8*2) {
		t.Errorf("expected target 3.6 after two soft updates, got %f", v)
	}
}

func TestDQNExpectedSarsaBackup(t *testing.T) {
	p := NewDQNPolicy(DQNConfig{
		Gamma:            1.0,
		TargetUpdateRate: 1.0,
		Epsilon:          0.5,
		MaxQ:             false,
		LearningRate:     1.0,
		Seed:             1,
	})
	next := newTestState("next")
	p.target.Set("next", "left", 4)
	p.target.Set("next", "right", 0)

	s := newTestState("s")
	p.Update(&rl.Transition{State: s, Action: right, NextState: next, Reward: 0, Terminal: false})
	// (1-eps)*max + eps*mean = 0.5*4 + 0.5*2 = 3
	if v := p.qTable.Get("s", "right", 0); !almostEqual(v, 3) {
		t.Errorf("expected expected-sarsa backup 3, got %f", v)
	}
}

func TestDQNGreedyPicksBestAction(t *testing.T) {
	p := NewDQNPolicy(DQNConfig{
		Gamma:            0.9,
		TargetUpdateRate: 0.5,
		Epsilon:          1.0, // behaviour policy explores, greedy view must not
		MaxQ:             true,
		LearningRate:     0.5,
		Seed:             1,
	})
	s := newTestState("s")
	p.qTable.Set("s", "left", 3)
	p.qTable.Set("s", "right", 1)

	greedy := p.Greedy()
	for i := 0; i < 20; i++ {
		a, ok := greedy.NextAction(i, s, s.Actions())
		if !ok {
			t.Fatalf("greedy policy returned no action")
		}
		if a.Hash() != "left" {
			t.Fatalf("greedy policy picked %s", a.Hash())
		}
	}
}

func TestDQNLearningRateDecay(t *testing.T) {
	p := NewDQNPolicy(DQNConfig{
		Gamma:             0.9,
		TargetUpdateRate:  0.5,
		MaxQ:              true,
		LearningRate:      0.8,
		LearningRateDecay: 0.5,
		Seed:              1,
	})
	p.TrainBatch(nil)
	if !almostEqual(p.LearningRate(), 0.4) {
		t.Errorf("expected decayed rate 0.4, got %f", p.LearningRate())
	}
	p.Reset()
	if !almostEqual(p.LearningRate(), 0.8) {
		t.Errorf("expected reset rate 0.8, got %f", p.LearningRate())
	}
}

func TestSoftmaxPrefersHigherValues(t *testing.T) {
	p := NewSoftmaxPolicy(SoftmaxConfig{
		Gamma:            0.9,
		TargetUpdateRate: 0.5,
		Temperature:      0.1,
		MaxQ:             true,
		LearningRate:     0.5,
		Seed:             1,
	})
	s := newTestState("s")
	p.qTable.Set("s", "left", 5)
	p.qTable.Set("s", "right", 0)

	counts := map[string]int{}
	for i := 0; i < 200; i++ {
		a, ok := p.NextAction(i, s, s.Actions())
		if !ok {
			t.Fatalf("softmax policy returned no action")
		}
		counts[a.Hash()] += 1
	}
	if counts["left"] <= counts["right"] {
		t.Errorf("softmax should prefer the higher valued action: %v", counts)
	}
}
