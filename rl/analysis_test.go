package rl

import "testing"

func buildTrace(rewards []float64, stateNames []string) *Trace {
	trace := NewTrace()
	a := &traceAction{"a"}
	for i, r := range rewards {
		s := &traceState{stateNames[i%len(stateNames)]}
		trace.Append(s, a, s, r, false)
	}
	return trace
}

func TestEpisodeReturnAnalyzer(t *testing.T) {
	analyzer := NewEpisodeReturnAnalyzer()
	analyzer.Analyze(0, 1, 0, "exp", buildTrace([]float64{1, 2, 3}, []string{"s1"}))
	analyzer.Analyze(0, 2, 3, "exp", buildTrace([]float64{4}, []string{"s1"}))

	returns := analyzer.DataSet().([]float64)
	if len(returns) != 2 || returns[0] != 6 || returns[1] != 4 {
		t.Errorf("wrong returns: %v", returns)
	}

	analyzer.Reset()
	if len(analyzer.DataSet().([]float64)) != 0 {
		t.Errorf("reset did not clear the analyzer")
	}
}

func TestRollingReturnAnalyzer(t *testing.T) {
	analyzer := NewRollingReturnAnalyzer(2)
	analyzer.Analyze(0, 1, 0, "exp", buildTrace([]float64{2}, []string{"s1"}))
	analyzer.Analyze(0, 2, 1, "exp", buildTrace([]float64{4}, []string{"s1"}))
	analyzer.Analyze(0, 3, 2, "exp", buildTrace([]float64{6}, []string{"s1"}))

	rolling := analyzer.DataSet().([]float64)
	expected := []float64{2, 3, 5}
	for i, v := range expected {
		if rolling[i] != v {
			t.Errorf("rolling[%d] = %f, expected %f", i, rolling[i], v)
		}
	}
}

func TestStateCoverageAnalyzer(t *testing.T) {
	analyzer := NewStateCoverageAnalyzer()
	analyzer.Analyze(0, 1, 0, "exp", buildTrace([]float64{1, 1}, []string{"s1", "s2"}))
	analyzer.Analyze(0, 2, 2, "exp", buildTrace([]float64{1, 1}, []string{"s2", "s3"}))

	coverage := analyzer.DataSet().([]float64)
	if len(coverage) != 2 || coverage[0] != 2 || coverage[1] != 3 {
		t.Errorf("wrong coverage series: %v", coverage)
	}
}
