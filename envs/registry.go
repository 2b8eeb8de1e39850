package envs

import (
	"fmt"
	"sort"

	"github.com/phillip1029/reagent/rl"
)

var constructors = map[string]func(seed uint64) rl.Environment{
	"CartPole-v0": func(seed uint64) rl.Environment {
		return NewCartPoleEnvironmentWithSeed(seed)
	},
	"Gridworld-v0": func(seed uint64) rl.Environment {
		return NewGridEnvironment(5, 5, 2)
	},
}

// New builds the environment with the given identifier
func New(name string, seed uint64) (rl.Environment, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown environment %q, known: %v", name, Names())
	}
	return ctor(seed), nil
}

// Names lists the known environment identifiers
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
