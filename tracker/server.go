package tracker

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/phillip1029/reagent/rl"
)

// Status is the snapshot served by the status endpoint
type Status struct {
	RunID          string  `json:"run_id"`
	Episode        int     `json:"episode"`
	Eval           bool    `json:"eval"`
	Timesteps      int     `json:"timesteps"`
	TotalTimesteps int     `json:"total_timesteps"`
	Return         float64 `json:"return"`
	RollingReturn  float64 `json:"rolling_return"`
	Episodes       int     `json:"episodes_done"`
}

// StatusServer serves the live run snapshot over HTTP. It also
// implements rl.Tracker so the agent can feed it directly.
type StatusServer struct {
	server *http.Server

	lock   *sync.Mutex
	status Status
}

var _ rl.Tracker = &StatusServer{}

func NewStatusServer(addr, runID string) *StatusServer {
	s := &StatusServer{
		lock:   new(sync.Mutex),
		status: Status{RunID: runID},
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", s.handleStatus)
	r.GET("/healthz", s.handleHealthz)
	s.server = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return s
}

func (s *StatusServer) handleStatus(c *gin.Context) {
	s.lock.Lock()
	status := s.status
	s.lock.Unlock()
	c.JSON(http.StatusOK, status)
}

func (s *StatusServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *StatusServer) EpisodeDone(stats rl.EpisodeStats) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status.Episode = stats.Episode
	s.status.Eval = stats.Eval
	s.status.Timesteps = stats.Timesteps
	s.status.TotalTimesteps = stats.TotalTimesteps
	s.status.Return = stats.Return
	s.status.RollingReturn = stats.RollingReturn
	s.status.Episodes += 1
}

// SetStatus replaces the whole snapshot, used when the snapshot comes
// from redis instead of a live agent
func (s *StatusServer) SetStatus(status Status) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.status = status
}

// Start the server without blocking
func (s *StatusServer) Start() {
	go func() {
		s.server.ListenAndServe()
	}()
}

func (s *StatusServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
