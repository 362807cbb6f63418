package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/mattjoyce/parbreak/internal/events"
)

// HealthzResponse is the GET /healthz body.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
	JobsTotal     int    `json:"jobs_total"`
	Remaining     int    `json:"remaining"`
}

// JobView is one job in the GET /jobs listing.
type JobView struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LoadRequest is the POST /jobs body.
type LoadRequest struct {
	Commands []string `json:"commands"`
}

// LoadResponse is the POST /jobs reply.
type LoadResponse struct {
	IDs []string `json:"ids"`
}

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	stats := s.registry.Snapshot()

	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		QueueDepth:    s.registry.PendingDepth(),
		JobsTotal:     stats.Total,
		Remaining:     stats.Remaining,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleListJobs handles GET /jobs.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.registry.Jobs()
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	views := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, JobView{
			ID:          j.ID,
			Command:     j.Command,
			Status:      string(j.Status),
			CreatedAt:   j.CreatedAt,
			StartedAt:   j.StartedAt,
			CompletedAt: j.CompletedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, views)
}

// handleLoadJobs handles POST /jobs: the console's "add", for remote
// operators.
func (s *Server) handleLoadJobs(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Commands) == 0 {
		s.writeError(w, http.StatusBadRequest, "commands is empty")
		return
	}
	for _, c := range req.Commands {
		if c == "" {
			s.writeError(w, http.StatusBadRequest, "commands must be non-empty strings")
			return
		}
	}

	ids := s.registry.Load(req.Commands)
	s.hub.Publish(events.TypeJobsLoaded, events.LoadEvent{Count: len(ids), Source: "api"})
	s.logger.Info("loaded jobs via api", "count", len(ids))

	s.writeJSON(w, http.StatusAccepted, LoadResponse{IDs: ids})
}
