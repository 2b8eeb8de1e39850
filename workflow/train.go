package workflow

import (
	"context"
	"fmt"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phillip1029/reagent/config"
	"github.com/phillip1029/reagent/envs"
	"github.com/phillip1029/reagent/policies"
	"github.com/phillip1029/reagent/replay"
	"github.com/phillip1029/reagent/rl"
	"github.com/phillip1029/reagent/tracker"
)

// Train runs the full workflow described by the configuration file:
// build environment, policy and replay memory, run the agent with the
// configured schedule, record the results
func Train(configPath, runID, redisAddr, listenAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.UseGPU {
		fmt.Println("use_gpu is set but this trainer has no GPU backend, continuing on CPU")
	}

	rs := runSeed()
	environment, err := envs.New(cfg.Env, rs)
	if err != nil {
		return err
	}
	policy := buildPolicy(cfg, rs)
	memory := replay.NewWithSeed(cfg.MaxReplayMemorySize, rs+1)

	trackers := make([]rl.Tracker, 0)
	if redisAddr != "" {
		redisTracker := tracker.NewRedisTracker(redisAddr, runID)
		defer redisTracker.Close()
		trackers = append(trackers, redisTracker)
	}
	if listenAddr != "" {
		statusServer := tracker.NewStatusServer(listenAddr, runID)
		statusServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			statusServer.Shutdown(shutdownCtx)
		}()
		trackers = append(trackers, statusServer)
	}

	if err := cfg.Record(saveDir); err != nil {
		return err
	}

	agent := rl.NewAgent(&rl.AgentConfig{
		Episodes:        cfg.RunDetails.NumEpisodes,
		Horizon:         cfg.RunDetails.MaxSteps,
		Policy:          policy,
		Environment:     environment,
		Replay:          memory,
		MinibatchSize:   cfg.Training.MinibatchSize,
		NumTrainBatches: cfg.RunDetails.NumTrainBatches,
		TrainEveryTS:    cfg.RunDetails.TrainEveryTS,
		TrainAfterTS:    cfg.RunDetails.TrainAfterTS,
		TestEveryTS:     cfg.RunDetails.TestEveryTS,
		TestAfterTS:     cfg.RunDetails.TestAfterTS,
		AvgOverEpisodes: cfg.RunDetails.AvgOverNumEpisodes,
		SolvedThreshold: cfg.RunDetails.SolvedRewardThreshold,
		Trackers:        trackers,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Training %s on %s for %d episodes\n", cfg.ModelType, cfg.Env, cfg.RunDetails.NumEpisodes)
	if err := agent.Run(ctx); err != nil {
		return err
	}

	offlineTrain(cfg, policy, memory)

	if r, ok := policy.(rl.Recorder); ok {
		if err := r.Record(path.Join(saveDir, "policies", runID)); err != nil {
			return err
		}
	}

	if agent.Solved() {
		fmt.Printf("Solved: rolling average %.2f over the last %d evaluation episodes after %d timesteps\n",
			agent.RollingReturn(), cfg.RunDetails.AvgOverNumEpisodes, agent.Timesteps())
	} else {
		fmt.Printf("Finished: rolling average %.2f after %d timesteps\n",
			agent.RollingReturn(), agent.Timesteps())
	}
	return nil
}

// offlineTrain runs the configured extra passes over the replay memory
func offlineTrain(cfg *config.Config, policy rl.Policy, memory *replay.Memory) {
	if cfg.RunDetails.OfflineTrainEpochs <= 0 || memory.Len() == 0 {
		return
	}
	bl, ok := policy.(rl.BatchLearner)
	if !ok {
		return
	}
	batches := memory.Len() / cfg.Training.MinibatchSize
	if batches == 0 {
		batches = 1
	}
	for epoch := 0; epoch < cfg.RunDetails.OfflineTrainEpochs; epoch++ {
		for b := 0; b < batches; b++ {
			bl.TrainBatch(memory.Sample(cfg.Training.MinibatchSize))
		}
		fmt.Printf("\rOffline training epoch %d/%d", epoch+1, cfg.RunDetails.OfflineTrainEpochs)
	}
	fmt.Println("")
}

// buildPolicy maps the configuration record to the behaviour policy.
// The optimizer tag selects the learning rate schedule: SGD decays the
// rate per training batch, ADAM keeps it fixed.
func buildPolicy(cfg *config.Config, seed uint64) rl.Policy {
	lrDecay := 1.0
	if cfg.Training.Optimizer == config.OptimizerSGD {
		lrDecay = cfg.Training.LearningRateDecay
	}
	if cfg.Softmax() {
		return policies.NewSoftmaxPolicy(policies.SoftmaxConfig{
			Gamma:             cfg.RL.Gamma,
			TargetUpdateRate:  cfg.RL.TargetUpdateRate,
			Temperature:       cfg.RL.Temperature,
			MaxQ:              cfg.RL.MaxQLearning,
			LearningRate:      cfg.Training.LearningRate,
			LearningRateDecay: lrDecay,
			Seed:              seed,
		})
	}
	return policies.NewDQNPolicy(policies.DQNConfig{
		Gamma:             cfg.RL.Gamma,
		TargetUpdateRate:  cfg.RL.TargetUpdateRate,
		Epsilon:           cfg.RL.Epsilon,
		MaxQ:              cfg.RL.MaxQLearning,
		LearningRate:      cfg.Training.LearningRate,
		LearningRateDecay: lrDecay,
		Seed:              seed,
	})
}

func TrainCommand() *cobra.Command {
	var configPath string
	var runID string
	var redisAddr string
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a policy with the given configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Train(configPath, runID, redisAddr, listenAddr)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the run configuration file")
	cmd.PersistentFlags().StringVar(&runID, "run-id", fmt.Sprintf("run_%d", time.Now().Unix()), "Identifier of this run")
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Publish run progress to the redis instance at this address")
	cmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "Serve run status over HTTP on this address")
	cmd.MarkPersistentFlagRequired("config")
	return cmd
}
