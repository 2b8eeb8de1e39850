package rl

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/phillip1029/reagent/util"
)

// EpisodeReturnAnalyzer collects the undiscounted return of each episode
type EpisodeReturnAnalyzer struct {
	returns []float64
}

var _ Analyzer = &EpisodeReturnAnalyzer{}

func NewEpisodeReturnAnalyzer() *EpisodeReturnAnalyzer {
	return &EpisodeReturnAnalyzer{
		returns: make([]float64, 0),
	}
}

func (e *EpisodeReturnAnalyzer) Analyze(_ int, _ int, _ int, _ string, trace *Trace) {
	e.returns = append(e.returns, trace.TotalReward())
}

func (e *EpisodeReturnAnalyzer) DataSet() DataSet {
	out := make([]float64, len(e.returns))
	copy(out, e.returns)
	return out
}

func (e *EpisodeReturnAnalyzer) Reset() {
	e.returns = make([]float64, 0)
}

// RollingReturnAnalyzer tracks the rolling average of episode returns
// over a fixed window
type RollingReturnAnalyzer struct {
	window  *util.Window
	size    int
	rolling []float64
}

var _ Analyzer = &RollingReturnAnalyzer{}

func NewRollingReturnAnalyzer(window int) *RollingReturnAnalyzer {
	return &RollingReturnAnalyzer{
		window:  util.NewWindow(window),
		size:    window,
		rolling: make([]float64, 0),
	}
}

func (r *RollingReturnAnalyzer) Analyze(_ int, _ int, _ int, _ string, trace *Trace) {
	r.window.Push(trace.TotalReward())
	r.rolling = append(r.rolling, r.window.Mean())
}

func (r *RollingReturnAnalyzer) DataSet() DataSet {
	out := make([]float64, len(r.rolling))
	copy(out, r.rolling)
	return out
}

func (r *RollingReturnAnalyzer) Reset() {
	r.window = util.NewWindow(r.size)
	r.rolling = make([]float64, 0)
}

// StateCoverageAnalyzer counts the unique states visited across episodes
type StateCoverageAnalyzer struct {
	uniqueStates    map[string]bool
	numUniqueStates []float64
}

var _ Analyzer = &StateCoverageAnalyzer{}

func NewStateCoverageAnalyzer() *StateCoverageAnalyzer {
	return &StateCoverageAnalyzer{
		uniqueStates:    make(map[string]bool),
		numUniqueStates: make([]float64, 0),
	}
}

func (s *StateCoverageAnalyzer) Analyze(_ int, _ int, _ int, _ string, trace *Trace) {
	for j := 0; j < trace.Len(); j++ {
		t, _ := trace.Get(j)
		sHash := t.State.Hash()
		if _, ok := s.uniqueStates[sHash]; !ok {
			s.uniqueStates[sHash] = true
		}
	}
	s.numUniqueStates = append(s.numUniqueStates, float64(len(s.uniqueStates)))
}

func (s *StateCoverageAnalyzer) DataSet() DataSet {
	out := make([]float64, len(s.numUniqueStates))
	copy(out, s.numUniqueStates)
	return out
}

func (s *StateCoverageAnalyzer) Reset() {
	s.uniqueStates = make(map[string]bool)
	s.numUniqueStates = make([]float64, 0)
}

// LinePlotComparator plots one line per experiment with the per-episode
// series produced by the analyzers above
func LinePlotComparator(plotPath, title, yLabel, fileSuffix string) Comparator {
	if _, err := os.Stat(plotPath); err != nil {
		os.MkdirAll(plotPath, os.ModePerm)
	}
	return func(run, _ int, names []string, ds []DataSet) {
		p := plot.New()
		p.Title.Text = title
		p.X.Label.Text = "Episode"
		p.Y.Label.Text = yLabel
		finals := make([]string, 0, len(names))
		for i := 0; i < len(names); i++ {
			series := ds[i].([]float64)
			points := make(plotter.XYs, len(series))
			for j, v := range series {
				points[j] = plotter.XY{
					X: float64(j),
					Y: v,
				}
			}
			line, err := plotter.NewLine(points)
			if err != nil {
				continue
			}
			line.Color = plotutil.Color(i)
			p.Add(line)
			p.Legend.Add(names[i], line)
			if len(series) > 0 {
				fmt.Printf("Final %s: %.2f for experiment: %s\n", yLabel, series[len(series)-1], names[i])
				finals = append(finals, fmt.Sprintf("run %d, %s: final %s %.2f", run, names[i], yLabel, series[len(series)-1]))
			}
		}
		util.AppendToFile(path.Join(plotPath, fileSuffix+".txt"), finals...)
		p.Save(8*vg.Inch, 8*vg.Inch, path.Join(plotPath, strconv.Itoa(run)+"_"+fileSuffix+".png"))
	}
}
