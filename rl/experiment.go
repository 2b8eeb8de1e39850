package rl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"
)

type experimentRunConfig struct {
	CurrentRun int
	Episodes   int
	Horizon    int
	Analyzers  []Analyzer
	Context    context.Context

	// threshold to abort the experiment
	ConsecutiveErrorsAbort int

	RecordPolicy   bool
	ReportSavePath string
}

// Experiment encapsulates the parameters to configure an agent and analyze the traces
type Experiment struct {
	Name        string
	policy      Policy
	environment Environment
}

// NewExperiment creates a new experiment instance
func NewExperiment(name string, policy Policy, environment Environment) *Experiment {
	return &Experiment{
		Name:        name,
		policy:      policy,
		environment: environment,
	}
}

// Run the experiment for the specified number of episodes,
// feeding each trace to the registered analyzers
func (e *Experiment) Run(rConfig *experimentRunConfig) {
	agent := NewAgent(&AgentConfig{
		Episodes:    rConfig.Episodes,
		Horizon:     rConfig.Horizon,
		Policy:      e.policy,
		Environment: e.environment,
	})

	consecutiveErrors := 0
	totalEpisodes := 0
	totalTimesteps := 0

	for i := 0; i < rConfig.Episodes; i++ {
		select {
		case <-rConfig.Context.Done():
			return
		default:
		}

		eCtx := NewEpisodeContext(rConfig.Context, i, 0)
		trace := e.runEpisode(eCtx, agent)
		eCtx.Cancel()

		totalEpisodes += 1
		if eCtx.Err != nil {
			consecutiveErrors += 1
		} else {
			consecutiveErrors = 0
			agent.policy.UpdateIteration(i, trace)
		}
		startingTimesteps := totalTimesteps
		totalTimesteps += eCtx.Timesteps

		for _, a := range rConfig.Analyzers {
			a.Analyze(rConfig.CurrentRun, totalEpisodes, startingTimesteps, e.Name, trace)
		}

		if consecutiveErrors >= rConfig.ConsecutiveErrorsAbort {
			fmt.Printf("\n Aborting experiment %s : %d consecutive errors\n", e.Name, consecutiveErrors)
			break
		}

		fmt.Printf("\rExp: %s, Episode: %d/%d, Return: %8.2f", e.Name, i+1, rConfig.Episodes, trace.TotalReward())
	}

	if rConfig.RecordPolicy {
		if r, ok := e.policy.(Recorder); ok {
			r.Record(path.Join(rConfig.ReportSavePath, "policies", e.Name+"_"+fmt.Sprintf("%d", rConfig.CurrentRun)))
		}
	}

	fmt.Println("")
}

func (e *Experiment) runEpisode(eCtx *EpisodeContext, agent *Agent) (trace *Trace) {
	defer func() {
		if r := recover(); r != nil {
			eCtx.SetError(fmt.Errorf("%v", r))
			trace = NewTrace()
		}
	}()
	return agent.runEpisode(eCtx)
}

// Reset cleans the policy state between runs
func (e *Experiment) Reset() {
	e.policy.Reset()
}

// Generic Dataset that contains information after processing the traces
type DataSet interface{}

// Analyzer compresses the information in the traces to a DataSet
type Analyzer interface {
	// Run, total episodes, total timesteps, experiment, trace
	Analyze(int, int, int, string, *Trace)
	// Resulting dataset
	DataSet() DataSet
	// Reset the analyzer
	Reset()
}

// Comparator differentiates between different datasets with associated names
// run, total episodes, experiment names, datasets
type Comparator func(int, int, []string, []DataSet)

func NoopComparator() Comparator {
	return func(_, _ int, _ []string, _ []DataSet) {}
}

// ComparisonConfig contains the configuration for the comparison
type ComparisonConfig struct {
	Runs     int // number of runs
	Episodes int // number of episodes
	Horizon  int // number of steps

	RecordPath string // path to store the results

	// threshold to abort an experiment
	ConsecutiveErrorsAbort int

	RecordPolicy bool
}

// Comparison contains the different experiments to compare
// The traces obtained from the experiments are analyzed
// The analyzed datasets are then compared
type Comparison struct {
	Experiments []*Experiment
	analyzers   map[string]Analyzer
	comparators map[string]Comparator
	cConfig     *ComparisonConfig
}

// NewComparison creates a comparison instance
func NewComparison(config *ComparisonConfig) *Comparison {
	os.MkdirAll(config.RecordPath, 0755)
	if config.RecordPolicy {
		os.MkdirAll(path.Join(config.RecordPath, "policies"), 0755)
	}
	return &Comparison{
		Experiments: make([]*Experiment, 0),
		analyzers:   make(map[string]Analyzer),
		comparators: make(map[string]Comparator),
		cConfig:     config,
	}
}

// AddAnalysis adds an analyzer and comparator to the comparison
func (c *Comparison) AddAnalysis(name string, analyzer Analyzer, comparator Comparator) {
	c.analyzers[name] = analyzer
	c.comparators[name] = comparator
}

// Add experiments to compare
func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

// record the configuration of the comparison
func (c *Comparison) recordConfig() {
	cfg := c.cConfig

	f, err := os.Create(path.Join(cfg.RecordPath, "comparison_config.json"))
	if err != nil {
		return
	}
	defer f.Close()

	out := make(map[string]interface{})
	out["runs"] = cfg.Runs
	out["episodes"] = cfg.Episodes
	out["horizon"] = cfg.Horizon
	out["record_policy"] = cfg.RecordPolicy
	out["recorded_at"] = time.Now().Format(time.RFC3339)

	experiments := make([]string, 0)
	for _, e := range c.Experiments {
		experiments = append(experiments, e.Name)
	}
	out["experiments"] = experiments

	analyzers := make([]string, 0)
	for name := range c.analyzers {
		analyzers = append(analyzers, name)
	}
	out["analyzers"] = analyzers

	bs, err := json.Marshal(out)
	if err != nil {
		return
	}
	f.Write(bs)
}

// Run the comparison
func (c *Comparison) Run(ctx context.Context) {
	c.recordConfig()

	for run := 0; run < c.cConfig.Runs; run++ {
		fmt.Printf("Run %d\n", run+1)
		datasets := make(map[string][]DataSet)

		for name := range c.analyzers {
			datasets[name] = make([]DataSet, len(c.Experiments))
		}

		names := make([]string, len(c.Experiments))
		for i, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return
			default:
			}
			e.Run(c.prepareRunConfig(ctx, run))
			for name, a := range c.analyzers {
				datasets[name][i] = a.DataSet()
				a.Reset()
			}
			names[i] = e.Name
			e.Reset()
		}
		for name, comp := range c.comparators {
			comp(run, c.cConfig.Episodes, names, datasets[name])
		}
	}
}

// prepare the run configuration for the experiment
func (c *Comparison) prepareRunConfig(ctx context.Context, run int) *experimentRunConfig {
	rCfg := &experimentRunConfig{
		CurrentRun:             run,
		Episodes:               c.cConfig.Episodes,
		Horizon:                c.cConfig.Horizon,
		Analyzers:              make([]Analyzer, 0),
		Context:                ctx,
		ConsecutiveErrorsAbort: c.cConfig.ConsecutiveErrorsAbort,
		RecordPolicy:           c.cConfig.RecordPolicy,
		ReportSavePath:         c.cConfig.RecordPath,
	}

	if rCfg.ConsecutiveErrorsAbort == 0 {
		rCfg.ConsecutiveErrorsAbort = 10
	}

	for _, a := range c.analyzers {
		rCfg.Analyzers = append(rCfg.Analyzers, a)
	}
	return rCfg
}
