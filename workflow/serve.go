package workflow

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phillip1029/reagent/tracker"
)

// Serve exposes the progress a training run publishes to redis over
// the HTTP status endpoint
func Serve(listenAddr, redisAddr, runID string) error {
	redisTracker := tracker.NewRedisTracker(redisAddr, runID)
	defer redisTracker.Close()

	statusServer := tracker.NewStatusServer(listenAddr, runID)
	statusServer.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving status of run %s on %s\n", runID, listenAddr)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return statusServer.Shutdown(shutdownCtx)
		case <-ticker.C:
			stats, err := redisTracker.Snapshot(ctx)
			if err != nil {
				continue
			}
			statusServer.SetStatus(tracker.Status{
				RunID:          runID,
				Episode:        stats.Episode,
				Eval:           stats.Eval,
				Timesteps:      stats.Timesteps,
				TotalTimesteps: stats.TotalTimesteps,
				Return:         stats.Return,
				RollingReturn:  stats.RollingReturn,
			})
		}
	}
}

func ServeCommand() *cobra.Command {
	var listenAddr string
	var redisAddr string
	var runID string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status of a run published to redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(listenAddr, redisAddr, runID)
		},
	}
	cmd.PersistentFlags().StringVar(&listenAddr, "listen", ":8080", "Address to serve the status endpoint on")
	cmd.PersistentFlags().StringVar(&redisAddr, "redis", "127.0.0.1:6379", "Address of the redis instance the run publishes to")
	cmd.PersistentFlags().StringVar(&runID, "run-id", "", "Identifier of the run to serve")
	cmd.MarkPersistentFlagRequired("run-id")
	return cmd
}
