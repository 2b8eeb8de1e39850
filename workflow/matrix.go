package workflow

import (
	"context"
	"fmt"
	"os/signal"
	"path"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phillip1029/reagent/testmatrix"
)

// Matrix runs the declared test matrix and writes the JSON report
func Matrix(matrixPath string) error {
	m, err := testmatrix.Load(matrixPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := m.Run(ctx)
	if err != nil {
		return err
	}

	for _, lane := range report.Lanes {
		status := "ok"
		if !lane.Passed {
			status = "FAILED"
		}
		fmt.Printf("%-30s %s (%d commands)\n", lane.Name, status, len(lane.Commands))
	}

	reportPath := path.Join(saveDir, "matrix_report.json")
	if err := report.Write(reportPath); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", reportPath)

	if !report.Passed() {
		return fmt.Errorf("test matrix failed")
	}
	return nil
}

func MatrixCommand() *cobra.Command {
	var matrixPath string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Run the declared test matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Matrix(matrixPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&matrixPath, "file", "f", "matrix.yaml", "Path to the test matrix file")
	return cmd
}
