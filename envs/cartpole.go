package envs

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/phillip1029/reagent/rl"
)

// cart-pole physics constants
const (
	gravity       = 9.8
	cartMass      = 1.0
	poleMass      = 0.1
	totalMass     = cartMass + poleMass
	poleHalfLen   = 0.5
	poleMassLen   = poleMass * poleHalfLen
	forceMag      = 10.0
	tau           = 0.02 // seconds per step
	thetaLimit    = 12 * 2 * math.Pi / 360
	positionLimit = 2.4
)

// observation bucket counts used to hash the continuous state
const (
	positionBuckets = 4
	velocityBuckets = 4
	angleBuckets    = 12
	angularBuckets  = 8
)

// CartPoleEnvironment is the classic pole balancing task with two
// discrete actions. Reward is +1 per step; the episode ends when the
// pole falls over or the cart leaves the track.
type CartPoleEnvironment struct {
	state *CartPoleState
	rand  *rand.Rand
}

var _ rl.Environment = &CartPoleEnvironment{}

func NewCartPoleEnvironment() *CartPoleEnvironment {
	return NewCartPoleEnvironmentWithSeed(uint64(time.Now().UnixNano()))
}

func NewCartPoleEnvironmentWithSeed(seed uint64) *CartPoleEnvironment {
	return &CartPoleEnvironment{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (c *CartPoleEnvironment) Reset() (rl.State, error) {
	uniform := func() float64 {
		return c.rand.Float64()*0.1 - 0.05
	}
	c.state = &CartPoleState{
		X:        uniform(),
		XDot:     uniform(),
		Theta:    uniform(),
		ThetaDot: uniform(),
	}
	return c.state, nil
}

func (c *CartPoleEnvironment) Step(a rl.Action) (rl.State, float64, bool, error) {
	if c.state == nil {
		return nil, 0, false, fmt.Errorf("environment not reset")
	}
	push, ok := a.(*Push)
	if !ok {
		return nil, 0, false, fmt.Errorf("not a cart-pole action: %s", a.Hash())
	}

	force := forceMag
	if push.Direction == "Left" {
		force = -forceMag
	}

	s := c.state
	cosTheta := math.Cos(s.Theta)
	sinTheta := math.Sin(s.Theta)

	temp := (force + poleMassLen*s.ThetaDot*s.ThetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) /
		(poleHalfLen * (4.0/3.0 - poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLen*thetaAcc*cosTheta/totalMass

	next := &CartPoleState{
		X:        s.X + tau*s.XDot,
		XDot:     s.XDot + tau*xAcc,
		Theta:    s.Theta + tau*s.ThetaDot,
		ThetaDot: s.ThetaDot + tau*thetaAcc,
	}
	c.state = next

	terminal := math.Abs(next.X) > positionLimit || math.Abs(next.Theta) > thetaLimit
	return next, 1.0, terminal, nil
}

// CartPoleState is the continuous observation; the Hash discretises it
// into buckets so that tabular policies can index it
type CartPoleState struct {
	X        float64
	XDot     float64
	Theta    float64
	ThetaDot float64
}

var _ rl.State = &CartPoleState{}

func (s *CartPoleState) Hash() string {
	return fmt.Sprintf("(%d, %d, %d, %d)",
		bucket(s.X, -positionLimit, positionLimit, positionBuckets),
		bucket(s.XDot, -3.0, 3.0, velocityBuckets),
		bucket(s.Theta, -thetaLimit, thetaLimit, angleBuckets),
		bucket(s.ThetaDot, -3.5, 3.5, angularBuckets),
	)
}

func (s *CartPoleState) Actions() []rl.Action {
	return AllPushes
}

// bucket maps v in [lo, hi] to one of n buckets, clamping values
// outside the range to the edge buckets
func bucket(v, lo, hi float64, n int) int {
	if v <= lo {
		return 0
	}
	if v >= hi {
		return n - 1
	}
	return int(float64(n) * (v - lo) / (hi - lo))
}

type Push struct {
	Direction string
}

var _ rl.Action = &Push{}

func (p *Push) Hash() string {
	return p.Direction
}

var (
	PushLeft  = &Push{"Left"}
	PushRight = &Push{"Right"}

	AllPushes = []rl.Action{PushLeft, PushRight}
)
