package config

import (
	"strings"
	"testing"
)

var sampleConfig = `{
  "env": "CartPole-v0",
  "model_type": "pytorch_discrete_dqn",
  "max_replay_memory_size": 10000,
  "use_gpu": false,
  "rl": {
    "gamma": 0.99,
    "target_update_rate": 0.2,
    "maxq_learning": true,
    "epsilon": 0.2,
    "temperature": 0.35,
    "softmax_policy": false
  },
  "training": {
    "layers": [-1, 128, 64, -1],
    "activations": ["relu", "relu", "linear"],
    "minibatch_size": 128,
    "learning_rate": 0.001,
    "optimizer": "ADAM",
    "lr_decay": 0.999,
    "l2_decay": 0.01
  },
  "run_details": {
    "num_episodes": 301,
    "max_steps": 200,
    "train_every_ts": 1,
    "train_after_ts": 1,
    "test_every_ts": 2000,
    "test_after_ts": 1,
    "num_train_batches": 1,
    "avg_over_num_episodes": 100,
    "offline_train_epochs": 0
  }
}`

func TestParseSampleConfig(t *testing.T) {
	c, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("failed to parse sample config: %v", err)
	}
	if c.Env != "CartPole-v0" {
		t.Errorf("wrong env: %s", c.Env)
	}
	if c.ModelType != ModelPytorchDiscreteDQN {
		t.Errorf("wrong model type: %s", c.ModelType)
	}
	if c.MaxReplayMemorySize != 10000 {
		t.Errorf("wrong replay memory size: %d", c.MaxReplayMemorySize)
	}
	if !c.RL.MaxQLearning {
		t.Errorf("expected maxq learning")
	}
	if c.Training.MinibatchSize != 128 {
		t.Errorf("wrong minibatch size: %d", c.Training.MinibatchSize)
	}
	if c.RunDetails.AvgOverNumEpisodes != 100 {
		t.Errorf("wrong averaging window: %d", c.RunDetails.AvgOverNumEpisodes)
	}
	if c.RunDetails.SolvedRewardThreshold != nil {
		t.Errorf("threshold should be unset")
	}
}

func TestParsePartialConfigKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte(`{"env": "Gridworld-v0", "model_type": "discrete_dqn"}`))
	if err != nil {
		t.Fatalf("failed to parse partial config: %v", err)
	}
	def := Default()
	if c.RL.Gamma != def.RL.Gamma {
		t.Errorf("gamma default not kept: %f", c.RL.Gamma)
	}
	if c.RunDetails.MaxSteps != def.RunDetails.MaxSteps {
		t.Errorf("max_steps default not kept: %d", c.RunDetails.MaxSteps)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"env": "CartPole-v0", "model_type": "discrete_dqn", "bogus": 1}`))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRanges(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"gamma above one", func(c *Config) { c.RL.Gamma = 1.5 }},
		{"negative epsilon", func(c *Config) { c.RL.Epsilon = -0.1 }},
		{"zero temperature", func(c *Config) { c.RL.Temperature = 0 }},
		{"zero target update rate", func(c *Config) { c.RL.TargetUpdateRate = 0 }},
		{"zero minibatch", func(c *Config) { c.Training.MinibatchSize = 0 }},
		{"unknown optimizer", func(c *Config) { c.Training.Optimizer = "RMSPROP" }},
		{"unknown activation", func(c *Config) { c.Training.Activations[0] = "swish" }},
		{"zero episodes", func(c *Config) { c.RunDetails.NumEpisodes = 0 }},
		{"zero replay capacity", func(c *Config) { c.MaxReplayMemorySize = 0 }},
		{"unknown model type", func(c *Config) { c.ModelType = "continuous_sac" }},
	}
	for _, tc := range cases {
		c := Default()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateCrossFieldChecks(t *testing.T) {
	c := Default()
	c.Training.Layers = []int{-1, 64, -1}
	c.Training.Activations = []string{"relu"}
	if err := c.Validate(); err == nil {
		t.Errorf("expected activation count mismatch error")
	}

	c = Default()
	c.Training.Layers = []int{4, 64, -1}
	c.Training.Activations = []string{"relu", "linear"}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "first layer") {
		t.Errorf("expected first layer sentinel error, got: %v", err)
	}

	c = Default()
	c.Training.MinibatchSize = 20000
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "replay memory") {
		t.Errorf("expected minibatch capacity error, got: %v", err)
	}

	c = Default()
	c.RunDetails.TrainAfterTS = c.RunDetails.NumEpisodes*c.RunDetails.MaxSteps + 1
	if err := c.Validate(); err == nil {
		t.Errorf("expected train_after_ts error")
	}
}
