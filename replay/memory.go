// Package replay implements the bounded replay memory that the
// training loop samples minibatches from.
package replay

import (
	"time"

	"golang.org/x/exp/rand"

	"github.com/phillip1029/reagent/rl"
)

// Memory is a bounded ring buffer of transitions with uniform sampling.
// Not safe for concurrent use; the training loop is single threaded.
type Memory struct {
	capacity int
	buffer   []*rl.Transition
	next     int
	rand     *rand.Rand
}

var _ rl.ReplayBuffer = &Memory{}

func New(capacity int) *Memory {
	return NewWithSeed(capacity, uint64(time.Now().UnixNano()))
}

func NewWithSeed(capacity int, seed uint64) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{
		capacity: capacity,
		buffer:   make([]*rl.Transition, 0, capacity),
		rand:     rand.New(rand.NewSource(seed)),
	}
}

// Add inserts a transition, overwriting the oldest one once the
// capacity is reached
func (m *Memory) Add(t *rl.Transition) {
	if len(m.buffer) < m.capacity {
		m.buffer = append(m.buffer, t)
		return
	}
	m.buffer[m.next] = t
	m.next = (m.next + 1) % m.capacity
}

// Sample returns n transitions drawn uniformly without replacement.
// When fewer than n transitions are stored, all of them are returned.
func (m *Memory) Sample(n int) []*rl.Transition {
	if n >= len(m.buffer) {
		out := make([]*rl.Transition, len(m.buffer))
		copy(out, m.buffer)
		m.rand.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
		return out
	}
	out := make([]*rl.Transition, n)
	for i, j := range m.rand.Perm(len(m.buffer))[:n] {
		out[i] = m.buffer[j]
	}
	return out
}

func (m *Memory) Len() int {
	return len(m.buffer)
}

func (m *Memory) Cap() int {
	return m.capacity
}
