package testmatrix

import (
	"context"
	"os"
	"path"
	"testing"
	"time"
)

var sampleMatrix = `
parallelism: 2
timeout: 30s
environments:
  - name: unit
    features: [replay, target-network]
    env:
      SAMPLE_VAR: "1"
    commands:
      - [go, version]
  - name: lint
    commands:
      - [gofmt, -l, .]
`

func writeMatrix(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	filePath := path.Join(dir, "matrix.yaml")
	if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write matrix file: %v", err)
	}
	return filePath
}

func TestLoadMatrix(t *testing.T) {
	m, err := Load(writeMatrix(t, sampleMatrix))
	if err != nil {
		t.Fatalf("failed to load matrix: %v", err)
	}
	if m.Parallelism != 2 {
		t.Errorf("wrong parallelism: %d", m.Parallelism)
	}
	if time.Duration(m.Timeout) != 30*time.Second {
		t.Errorf("wrong timeout: %v", time.Duration(m.Timeout))
	}
	if len(m.Environments) != 2 {
		t.Fatalf("expected 2 environments, got %d", len(m.Environments))
	}
	if m.Environments[0].Env["SAMPLE_VAR"] != "1" {
		t.Errorf("environment variables not decoded")
	}
}

func TestLoadRejectsBadMatrices(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no environments", `parallelism: 1`},
		{"empty name", "environments:\n  - name: \"\"\n    commands: [[\"true\"]]"},
		{"duplicate names", "environments:\n  - name: a\n    commands: [[\"true\"]]\n  - name: a\n    commands: [[\"true\"]]"},
		{"no commands", "environments:\n  - name: a"},
		{"empty command", "environments:\n  - name: a\n    commands: [[]]"},
		{"bad timeout", "timeout: soon\nenvironments:\n  - name: a\n    commands: [[\"true\"]]"},
	}
	for _, tc := range cases {
		if _, err := Load(writeMatrix(t, tc.content)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestFeatureVar(t *testing.T) {
	cases := map[string]string{
		"replay":         "MATRIX_FEATURE_REPLAY",
		"target-network": "MATRIX_FEATURE_TARGET_NETWORK",
		"gpu 2":          "MATRIX_FEATURE_GPU_2",
	}
	for feature, expected := range cases {
		if got := FeatureVar(feature); got != expected {
			t.Errorf("FeatureVar(%q) = %q, expected %q", feature, got, expected)
		}
	}
}

func TestRunMatrix(t *testing.T) {
	m := &Matrix{
		Parallelism: 2,
		Environments: []TestEnvironment{
			{
				Name:     "passing",
				Features: []string{"replay"},
				Commands: [][]string{{"sh", "-c", "test \"$MATRIX_FEATURE_REPLAY\" = 1"}},
			},
			{
				Name:     "failing",
				Commands: [][]string{{"sh", "-c", "exit 3"}, {"sh", "-c", "echo never runs"}},
			},
		},
	}
	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report.Passed() {
		t.Errorf("matrix with a failing lane must not pass")
	}
	if len(report.Lanes) != 2 {
		t.Fatalf("expected 2 lanes, got %d", len(report.Lanes))
	}
	for _, lane := range report.Lanes {
		switch lane.Name {
		case "passing":
			if !lane.Passed {
				t.Errorf("feature variable not exported: %+v", lane.Commands)
			}
		case "failing":
			if lane.Passed {
				t.Errorf("failing lane reported as passed")
			}
			if len(lane.Commands) != 1 {
				t.Errorf("commands after a failure should not run: %d", len(lane.Commands))
			}
			if lane.Commands[0].ExitCode != 3 {
				t.Errorf("wrong exit code: %d", lane.Commands[0].ExitCode)
			}
		}
	}
}

func TestRunMatrixCustomEnv(t *testing.T) {
	m := &Matrix{
		Parallelism: 1,
		Environments: []TestEnvironment{
			{
				Name:     "custom-env",
				Env:      map[string]string{"SAMPLE_VAR": "hello"},
				Commands: [][]string{{"sh", "-c", "test \"$SAMPLE_VAR\" = hello"}},
			},
		},
	}
	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !report.Passed() {
		t.Errorf("custom environment variable not exported")
	}
}

func TestReportWrite(t *testing.T) {
	report := &Report{
		StartedAt: time.Now(),
		Lanes: []LaneResult{
			{Name: "a", Passed: true},
		},
	}
	dir := t.TempDir()
	filePath := path.Join(dir, "report", "matrix.json")
	if err := report.Write(filePath); err != nil {
		t.Fatalf("failed to write report: %v", err)
	}
	if _, err := os.Stat(filePath); err != nil {
		t.Errorf("report file missing: %v", err)
	}
}
