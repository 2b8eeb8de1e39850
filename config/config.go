// Package config holds the run configuration of a discrete-action
// training workflow. The configuration is decoded from JSON once and
// is immutable afterwards.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
)

const (
	ModelDiscreteDQN = "discrete_dqn"
	// accepted as an alias of ModelDiscreteDQN for configurations
	// written for the original trainer
	ModelPytorchDiscreteDQN = "pytorch_discrete_dqn"

	OptimizerAdam = "ADAM"
	OptimizerSGD  = "SGD"
)

// Config is the top level run configuration record
type Config struct {
	Env       string `json:"env" validate:"required"`
	ModelType string `json:"model_type" validate:"required,oneof=discrete_dqn pytorch_discrete_dqn"`
	// capacity of the replay memory
	MaxReplayMemorySize int `json:"max_replay_memory_size" validate:"gt=0"`
	// parsed and reported for compatibility; this trainer has no GPU backend
	UseGPU bool `json:"use_gpu"`

	RL         RLParameters       `json:"rl"`
	Training   TrainingParameters `json:"training"`
	RunDetails RunDetails         `json:"run_details"`
}

// RLParameters groups the parameters of the learning rule
type RLParameters struct {
	// discount factor
	Gamma float64 `json:"gamma" validate:"gte=0,lte=1"`
	// soft update rate of the target table after each training batch
	TargetUpdateRate float64 `json:"target_update_rate" validate:"gt=0,lte=1"`
	// off-policy max-Q backup when true, on-policy expected SARSA otherwise
	MaxQLearning bool `json:"maxq_learning"`
	// exploration rate of the epsilon-greedy behaviour policy
	Epsilon float64 `json:"epsilon" validate:"gte=0,lte=1"`
	// Boltzmann temperature, used when SoftmaxPolicy is set
	Temperature   float64 `json:"temperature" validate:"gt=0"`
	SoftmaxPolicy bool    `json:"softmax_policy"`
}

// TrainingParameters groups the parameters of the value-function trainer
type TrainingParameters struct {
	// layer widths of the original network configuration, -1 marks
	// dimensions inferred from the environment
	Layers      []int    `json:"layers"`
	Activations []string `json:"activations" validate:"dive,oneof=relu tanh sigmoid linear"`

	MinibatchSize int     `json:"minibatch_size" validate:"gt=0"`
	LearningRate  float64 `json:"learning_rate" validate:"gt=0"`
	Optimizer     string  `json:"optimizer" validate:"oneof=ADAM SGD"`
	// multiplicative learning rate decay per training batch (SGD only)
	LearningRateDecay float64 `json:"lr_decay" validate:"gt=0,lte=1"`
	L2Decay           float64 `json:"l2_decay" validate:"gte=0"`
}

// RunDetails groups the episode and timestep schedule of the run
type RunDetails struct {
	NumEpisodes int `json:"num_episodes" validate:"gt=0"`
	// horizon of each episode
	MaxSteps int `json:"max_steps" validate:"gt=0"`

	// training cadence in timesteps, 0 disables replay training
	TrainEveryTS int `json:"train_every_ts" validate:"gte=0"`
	TrainAfterTS int `json:"train_after_ts" validate:"gte=0"`
	// evaluation cadence in timesteps, 0 disables evaluation episodes
	TestEveryTS int `json:"test_every_ts" validate:"gte=0"`
	TestAfterTS int `json:"test_after_ts" validate:"gte=0"`

	// minibatches per training step
	NumTrainBatches int `json:"num_train_batches" validate:"gt=0"`
	// window of the rolling average of returns
	AvgOverNumEpisodes int `json:"avg_over_num_episodes" validate:"gt=0"`
	// extra passes over the replay memory after the run
	OfflineTrainEpochs int `json:"offline_train_epochs" validate:"gte=0"`

	// stop once the rolling average reaches this value
	SolvedRewardThreshold *float64 `json:"solved_reward_threshold,omitempty"`
}

// Default returns the configuration used when a field group is omitted
func Default() *Config {
	return &Config{
		Env:                 "CartPole-v0",
		ModelType:           ModelDiscreteDQN,
		MaxReplayMemorySize: 10000,
		UseGPU:              false,
		RL: RLParameters{
			Gamma:            0.99,
			TargetUpdateRate: 0.2,
			MaxQLearning:     true,
			Epsilon:          0.2,
			Temperature:      0.35,
			SoftmaxPolicy:    false,
		},
		Training: TrainingParameters{
			Layers:            []int{-1, 128, 64, -1},
			Activations:       []string{"relu", "relu", "linear"},
			MinibatchSize:     64,
			LearningRate:      0.05,
			Optimizer:         OptimizerAdam,
			LearningRateDecay: 0.999,
			L2Decay:           0.01,
		},
		RunDetails: RunDetails{
			NumEpisodes:        301,
			MaxSteps:           200,
			TrainEveryTS:       1,
			TrainAfterTS:       1,
			TestEveryTS:        2000,
			TestAfterTS:        1,
			NumTrainBatches:    1,
			AvgOverNumEpisodes: 100,
			OfflineTrainEpochs: 0,
		},
	}
}

// Parse decodes a configuration record from JSON. Fields left out keep
// their defaults, unknown fields are rejected.
func Parse(bs []byte) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(bytes.NewReader(bs))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the configuration file at the given path
func Load(filePath string) (*Config, error) {
	bs, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(bs)
}

// Record writes the effective configuration to the save directory
func (c *Config) Record(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	bs, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path.Join(dir, "run_config.json"), bs, 0644)
}

// Softmax reports whether the behaviour policy samples actions with a
// Boltzmann distribution instead of epsilon-greedy
func (c *Config) Softmax() bool {
	return c.RL.SoftmaxPolicy
}
