// Package testmatrix runs a declared set of test environments: named
// combinations of feature groups, commands and environment variables.
package testmatrix

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes from the usual duration strings ("90s", "10m")
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Matrix is the declarative test-matrix file
type Matrix struct {
	// number of environments run concurrently, defaults to 1
	Parallelism int `yaml:"parallelism"`
	// timeout per command, 0 disables it
	Timeout Duration `yaml:"timeout"`
	// coverage output configuration, exposed to commands as MATRIX_COVER_OUT
	Coverage *Coverage `yaml:"coverage"`

	Environments []TestEnvironment `yaml:"environments"`
}

type Coverage struct {
	Enabled bool `yaml:"enabled"`
	// directory receiving one profile per environment
	Dir string `yaml:"dir"`
}

// TestEnvironment associates feature groups with the commands that
// validate them
type TestEnvironment struct {
	Name string `yaml:"name"`
	// optional feature groups, exposed as MATRIX_FEATURE_<NAME>=1
	Features []string `yaml:"features"`
	// extra environment variables
	Env map[string]string `yaml:"env"`
	// commands run sequentially, as argv lists
	Commands [][]string `yaml:"commands"`
}

// Load reads and validates a matrix file
func Load(path string) (*Matrix, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read matrix file: %w", err)
	}
	m := &Matrix{}
	if err := yaml.Unmarshal(bs, m); err != nil {
		return nil, fmt.Errorf("failed to decode matrix file: %w", err)
	}
	if m.Parallelism <= 0 {
		m.Parallelism = 1
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that environment names are unique and every
// environment declares at least one non-empty command
func (m *Matrix) Validate() error {
	if len(m.Environments) == 0 {
		return fmt.Errorf("invalid matrix: no test environments declared")
	}
	seen := make(map[string]bool)
	for _, env := range m.Environments {
		if env.Name == "" {
			return fmt.Errorf("invalid matrix: test environment with empty name")
		}
		if seen[env.Name] {
			return fmt.Errorf("invalid matrix: duplicate test environment %q", env.Name)
		}
		seen[env.Name] = true
		if len(env.Commands) == 0 {
			return fmt.Errorf("invalid matrix: test environment %q has no commands", env.Name)
		}
		for i, argv := range env.Commands {
			if len(argv) == 0 {
				return fmt.Errorf("invalid matrix: test environment %q command %d is empty", env.Name, i)
			}
		}
	}
	return nil
}

// FeatureVar maps a feature group name to its environment variable
func FeatureVar(feature string) string {
	upper := strings.ToUpper(feature)
	var b strings.Builder
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return "MATRIX_FEATURE_" + b.String()
}
