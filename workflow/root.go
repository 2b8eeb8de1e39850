// Package workflow wires the command line surface of the trainer.
package workflow

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	saveDir string
	seed    int64
)

func GetRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "reagent",
		Short: "Discrete-action reinforcement learning workflows",
	}
	rootCommand.PersistentFlags().StringVarP(&saveDir, "save", "s", "results", "Save the result data in the specified folder")
	rootCommand.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for the random sources, 0 picks one from the clock")
	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand())
	rootCommand.AddCommand(CompareCommand())
	rootCommand.AddCommand(MatrixCommand())
	rootCommand.AddCommand(ServeCommand())
	return rootCommand
}

func runSeed() uint64 {
	if seed != 0 {
		return uint64(seed)
	}
	return uint64(time.Now().UnixNano())
}
