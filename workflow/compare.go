package workflow

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phillip1029/reagent/config"
	"github.com/phillip1029/reagent/envs"
	"github.com/phillip1029/reagent/rl"
)

// Compare runs the learning policies against a random baseline on one
// environment and plots the resulting return and coverage curves
func Compare(envName string, episodes, horizon, runs, window int) error {
	cfg := config.Default()
	cfg.Env = envName

	newEnv := func() (rl.Environment, error) {
		return envs.New(envName, runSeed())
	}

	c := rl.NewComparison(&rl.ComparisonConfig{
		Runs:       runs,
		Episodes:   episodes,
		Horizon:    horizon,
		RecordPath: saveDir,
	})

	dqnEnv, err := newEnv()
	if err != nil {
		return err
	}
	c.AddExperiment(rl.NewExperiment("DQN", buildPolicy(cfg, runSeed()), dqnEnv))

	softmaxCfg := config.Default()
	softmaxCfg.Env = envName
	softmaxCfg.RL.SoftmaxPolicy = true
	softmaxEnv, err := newEnv()
	if err != nil {
		return err
	}
	c.AddExperiment(rl.NewExperiment("Softmax", buildPolicy(softmaxCfg, runSeed()), softmaxEnv))

	randomEnv, err := newEnv()
	if err != nil {
		return err
	}
	c.AddExperiment(rl.NewExperiment("Random", rl.NewRandomPolicy(), randomEnv))

	c.AddAnalysis("returns", rl.NewEpisodeReturnAnalyzer(),
		rl.LinePlotComparator(saveDir, "Episode returns", "Return", "returns"))
	c.AddAnalysis("rolling_returns", rl.NewRollingReturnAnalyzer(window),
		rl.LinePlotComparator(saveDir, fmt.Sprintf("Rolling return over %d episodes", window), "Rolling return", "rolling_returns"))
	c.AddAnalysis("coverage", rl.NewStateCoverageAnalyzer(),
		rl.LinePlotComparator(saveDir, "State coverage", "States covered", "coverage"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c.Run(ctx)
	return nil
}

func CompareCommand() *cobra.Command {
	var envName string
	var episodes int
	var horizon int
	var runs int
	var window int

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the learning policies against a random baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Compare(envName, episodes, horizon, runs, window)
		},
	}
	cmd.PersistentFlags().StringVar(&envName, "env", "CartPole-v0", "Environment to compare on")
	cmd.PersistentFlags().IntVarP(&episodes, "episodes", "e", 1000, "Number of episodes to run")
	cmd.PersistentFlags().IntVar(&horizon, "horizon", 200, "Horizon of each episode")
	cmd.PersistentFlags().IntVar(&runs, "runs", 1, "Number of experiment runs")
	cmd.PersistentFlags().IntVar(&window, "window", 100, "Window of the rolling return average")
	return cmd
}
