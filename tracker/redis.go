// Package tracker publishes live training progress: to redis for
// external consumers and over HTTP for the status endpoint.
package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phillip1029/reagent/rl"
)

// number of recent returns kept in the redis list
const recentReturns = 1000

// RedisTracker publishes per-episode stats to a redis hash per run and
// a capped list of recent returns. Publish errors are reported once and
// disable the tracker; they never fail the run.
type RedisTracker struct {
	client   *redis.Client
	runID    string
	disabled bool
}

var _ rl.Tracker = &RedisTracker{}

func NewRedisTracker(addr, runID string) *RedisTracker {
	return &RedisTracker{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
		runID: runID,
	}
}

func (r *RedisTracker) key() string {
	return "run:" + r.runID
}

func (r *RedisTracker) EpisodeDone(stats rl.EpisodeStats) {
	if r.disabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fields := map[string]interface{}{
		"episode":         stats.Episode,
		"eval":            stats.Eval,
		"timesteps":       stats.Timesteps,
		"total_timesteps": stats.TotalTimesteps,
		"return":          stats.Return,
		"rolling_return":  stats.RollingReturn,
		"updated_at":      time.Now().Format(time.RFC3339),
	}
	if err := r.client.HSet(ctx, r.key(), fields).Err(); err != nil {
		fmt.Printf("disabling redis tracker: %v\n", err)
		r.disabled = true
		return
	}

	returnsKey := r.key() + ":returns"
	pipe := r.client.Pipeline()
	pipe.RPush(ctx, returnsKey, stats.Return)
	pipe.LTrim(ctx, returnsKey, -recentReturns, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		fmt.Printf("disabling redis tracker: %v\n", err)
		r.disabled = true
	}
}

// Snapshot reads the last published stats of the run
func (r *RedisTracker) Snapshot(ctx context.Context) (rl.EpisodeStats, error) {
	fields, err := r.client.HGetAll(ctx, r.key()).Result()
	if err != nil {
		return rl.EpisodeStats{}, err
	}
	if len(fields) == 0 {
		return rl.EpisodeStats{}, fmt.Errorf("no stats published for run %s", r.runID)
	}
	stats := rl.EpisodeStats{}
	stats.Episode, _ = strconv.Atoi(fields["episode"])
	stats.Eval, _ = strconv.ParseBool(fields["eval"])
	stats.Timesteps, _ = strconv.Atoi(fields["timesteps"])
	stats.TotalTimesteps, _ = strconv.Atoi(fields["total_timesteps"])
	stats.Return, _ = strconv.ParseFloat(fields["return"], 64)
	stats.RollingReturn, _ = strconv.ParseFloat(fields["rolling_return"], 64)
	return stats, nil
}

func (r *RedisTracker) Close() error {
	return r.client.Close()
}
