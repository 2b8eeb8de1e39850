package envs

import (
	"fmt"

	"github.com/phillip1029/reagent/rl"
)

// GridEnvironment is a stack of rectangular grids connected by doors.
// Each step costs a small negative reward, reaching the goal cell of
// the last grid ends the episode with a positive reward.
type GridEnvironment struct {
	Height int
	Width  int
	Grids  int
	CurPos *Position
	Doors  []Door
}

type Door struct {
	From Position
	To   Position
}

var _ rl.Environment = &GridEnvironment{}

func NewGridEnvironment(height, width, grids int, doors ...Door) *GridEnvironment {
	return &GridEnvironment{
		Height: height,
		Width:  width,
		Grids:  grids,
		CurPos: &Position{0, 0, 0},
		Doors:  doors,
	}
}

func (g *GridEnvironment) Reset() (rl.State, error) {
	g.CurPos = &Position{0, 0, 0}
	return g.CurPos, nil
}

func (g *GridEnvironment) goal() Position {
	return Position{I: g.Height - 1, J: g.Width - 1, K: g.Grids - 1}
}

func (g *GridEnvironment) Step(a rl.Action) (rl.State, float64, bool, error) {
	movement, ok := a.(*Movement)
	if !ok {
		return nil, 0, false, fmt.Errorf("not a grid movement: %s", a.Hash())
	}
	newPos := &Position{I: g.CurPos.I, J: g.CurPos.J, K: g.CurPos.K}
	if movement.Direction == "Next" {
		for _, d := range g.Doors {
			if d.From.Eq(*g.CurPos) {
				newPos.I = d.To.I
				newPos.J = d.To.J
				newPos.K = d.To.K
				g.CurPos = newPos
				return g.outcome(newPos)
			}
		}
	}

	switch movement.Direction {
	case "Nothing":
	case "Up":
		newPos.I = min(g.Height-1, g.CurPos.I+1)
	case "Down":
		newPos.I = max(0, g.CurPos.I-1)
	case "Left":
		newPos.J = max(0, g.CurPos.J-1)
	case "Right":
		newPos.J = min(g.Width-1, g.CurPos.J+1)
	case "Next":
		if g.CurPos.I == g.Height-1 && g.CurPos.J == g.Width-1 {
			if g.CurPos.K < g.Grids-1 {
				newPos.I = 0
				newPos.J = 0
				newPos.K = g.CurPos.K + 1
			}
		}
	default:
		return nil, 0, false, fmt.Errorf("unknown movement: %s", movement.Direction)
	}
	g.CurPos = newPos
	return g.outcome(newPos)
}

func (g *GridEnvironment) outcome(pos *Position) (rl.State, float64, bool, error) {
	if pos.Eq(g.goal()) {
		return pos, 10, true, nil
	}
	return pos, -1, false, nil
}

type Position struct {
	I int
	J int
	K int
}

var _ rl.State = &Position{}

func (p *Position) Hash() string {
	return fmt.Sprintf("(%d, %d, %d)", p.I, p.J, p.K)
}

func (p *Position) Eq(other Position) bool {
	return p.I == other.I && p.J == other.J && p.K == other.K
}

func (p *Position) Actions() []rl.Action {
	if p.I == 0 && p.J == 0 {
		return []rl.Action{NoMovement, NextGridMovement, MovementUp, MovementRight}
	} else if p.I == 0 {
		return []rl.Action{NoMovement, NextGridMovement, MovementUp, MovementRight, MovementLeft}
	} else if p.J == 0 {
		return []rl.Action{NoMovement, NextGridMovement, MovementUp, MovementRight, MovementDown}
	}
	return AllMovements
}

type Movement struct {
	Direction string
}

var _ rl.Action = &Movement{}

func (m *Movement) Hash() string {
	return m.Direction
}

var (
	MovementUp       = &Movement{"Up"}
	MovementDown     = &Movement{"Down"}
	MovementLeft     = &Movement{"Left"}
	MovementRight    = &Movement{"Right"}
	NoMovement       = &Movement{"Nothing"}
	NextGridMovement = &Movement{"Next"}

	AllMovements = []rl.Action{NoMovement, NextGridMovement, MovementUp, MovementDown, MovementLeft, MovementRight}
)

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
