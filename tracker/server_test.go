package tracker

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phillip1029/reagent/rl"
)

func TestStatusServerSnapshot(t *testing.T) {
	s := NewStatusServer("127.0.0.1:0", "test-run")
	s.EpisodeDone(rl.EpisodeStats{
		Episode:        4,
		Timesteps:      120,
		TotalTimesteps: 560,
		Return:         120,
		RollingReturn:  96.5,
	})
	s.EpisodeDone(rl.EpisodeStats{
		Episode:        5,
		Eval:           true,
		Timesteps:      200,
		TotalTimesteps: 560,
		Return:         200,
		RollingReturn:  110.0,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", rec.Code)
	}
	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.RunID != "test-run" {
		t.Errorf("wrong run id: %s", status.RunID)
	}
	if status.Episode != 5 || !status.Eval {
		t.Errorf("snapshot not updated: %+v", status)
	}
	if status.Episodes != 2 {
		t.Errorf("expected 2 episodes done, got %d", status.Episodes)
	}
	if status.RollingReturn != 110.0 {
		t.Errorf("wrong rolling return: %f", status.RollingReturn)
	}
}

func TestStatusServerHealthz(t *testing.T) {
	s := NewStatusServer("127.0.0.1:0", "test-run")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("unexpected status code: %d", rec.Code)
	}
}

func TestStatusServerSetStatus(t *testing.T) {
	s := NewStatusServer("127.0.0.1:0", "test-run")
	s.SetStatus(Status{RunID: "other-run", Episode: 9})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	s.server.Handler.ServeHTTP(rec, req)

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.RunID != "other-run" || status.Episode != 9 {
		t.Errorf("snapshot not replaced: %+v", status)
	}
}
