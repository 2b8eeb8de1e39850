package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the field ranges and the cross-field constraints
// of the configuration record
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if len(c.Training.Layers) > 0 {
		if len(c.Training.Activations) != len(c.Training.Layers)-1 {
			return fmt.Errorf("invalid config: %d layers need %d activations, got %d",
				len(c.Training.Layers), len(c.Training.Layers)-1, len(c.Training.Activations))
		}
		if c.Training.Layers[0] != -1 {
			return fmt.Errorf("invalid config: first layer width must be -1 (inferred from the environment)")
		}
		if c.Training.Layers[len(c.Training.Layers)-1] != -1 {
			return fmt.Errorf("invalid config: last layer width must be -1 (inferred from the environment)")
		}
		for i, w := range c.Training.Layers[1 : len(c.Training.Layers)-1] {
			if w <= 0 {
				return fmt.Errorf("invalid config: hidden layer %d has non-positive width %d", i+1, w)
			}
		}
	}

	totalTimesteps := c.RunDetails.NumEpisodes * c.RunDetails.MaxSteps
	if c.RunDetails.TrainAfterTS > totalTimesteps {
		return fmt.Errorf("invalid config: train_after_ts %d exceeds the available %d timesteps",
			c.RunDetails.TrainAfterTS, totalTimesteps)
	}
	if c.RunDetails.TestAfterTS > totalTimesteps {
		return fmt.Errorf("invalid config: test_after_ts %d exceeds the available %d timesteps",
			c.RunDetails.TestAfterTS, totalTimesteps)
	}
	if c.RunDetails.TrainEveryTS > 0 && c.Training.MinibatchSize > c.MaxReplayMemorySize {
		return fmt.Errorf("invalid config: minibatch_size %d exceeds replay memory capacity %d",
			c.Training.MinibatchSize, c.MaxReplayMemorySize)
	}
	return nil
}
