package testmatrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// CommandResult records one command invocation of a test environment
type CommandResult struct {
	Argv     []string      `json:"argv"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	// combined output, truncated to the last outputTail bytes
	Output string `json:"output,omitempty"`
}

const outputTail = 4096

// LaneResult records the outcome of one test environment
type LaneResult struct {
	Name     string          `json:"name"`
	Passed   bool            `json:"passed"`
	Commands []CommandResult `json:"commands"`
}

// Report collects the outcome of the whole matrix
type Report struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Lanes     []LaneResult  `json:"lanes"`
}

// Passed reports whether every lane passed
func (r *Report) Passed() bool {
	for _, l := range r.Lanes {
		if !l.Passed {
			return false
		}
	}
	return true
}

// Write stores the report as JSON
func (r *Report) Write(filePath string) error {
	bs, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, bs, 0644)
}

// Run executes the matrix: environments in parallel up to the declared
// parallelism, the commands of each environment sequentially. A failing
// command fails its lane without stopping the others.
func (m *Matrix) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		StartedAt: time.Now(),
		Lanes:     make([]LaneResult, len(m.Environments)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Parallelism)

	for i, env := range m.Environments {
		i, env := i, env
		g.Go(func() error {
			report.Lanes[i] = m.runLane(ctx, env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Duration = time.Since(report.StartedAt)
	return report, nil
}

func (m *Matrix) runLane(ctx context.Context, env TestEnvironment) LaneResult {
	result := LaneResult{
		Name:     env.Name,
		Passed:   true,
		Commands: make([]CommandResult, 0, len(env.Commands)),
	}

	environ := os.Environ()
	for _, feature := range env.Features {
		environ = append(environ, FeatureVar(feature)+"=1")
	}
	for k, v := range env.Env {
		environ = append(environ, k+"="+v)
	}
	if m.Coverage != nil && m.Coverage.Enabled {
		coverOut := path.Join(m.Coverage.Dir, env.Name+".out")
		os.MkdirAll(m.Coverage.Dir, 0755)
		environ = append(environ, "MATRIX_COVER_OUT="+coverOut)
	}

	for _, argv := range env.Commands {
		cmdResult := m.runCommand(ctx, argv, environ)
		result.Commands = append(result.Commands, cmdResult)
		if cmdResult.ExitCode != 0 {
			result.Passed = false
			break
		}
	}
	return result
}

func (m *Matrix) runCommand(ctx context.Context, argv []string, environ []string) CommandResult {
	cmdCtx := ctx
	var cancel context.CancelFunc
	if m.Timeout > 0 {
		cmdCtx, cancel = context.WithTimeout(ctx, time.Duration(m.Timeout))
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(cmdCtx, argv[0], argv[1:]...)
	cmd.Env = environ

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	exitCode := 0
	if err := cmd.Run(); err != nil {
		exitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		fmt.Fprintf(&out, "\n%v\n", err)
	}

	output := out.String()
	if len(output) > outputTail {
		output = output[len(output)-outputTail:]
	}

	return CommandResult{
		Argv:     append([]string{}, argv...),
		ExitCode: exitCode,
		Duration: time.Since(start),
		Output:   strings.TrimSpace(output),
	}
}
