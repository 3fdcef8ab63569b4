package api

import (
	"net/http"

	"github.com/nexuslabs/nexus/internal/engine"
	"github.com/nexuslabs/nexus/internal/store"
)

// statsResponse is the JSON response for GET /v1/stats. It joins the live
// engine view with the persisted run history.
type statsResponse struct {
	Engine  engine.Stats    `json:"engine"`
	Metrics engine.Snapshot `json:"metrics"`
	Runs    *store.RunStats `json:"runs"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	runStats, err := s.store.GetRunStats(r.Context())
	if err != nil {
		s.logger.Error("get run stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		Engine:  s.engine.Stats(),
		Metrics: s.engine.Metrics(),
		Runs:    runStats,
	})
}
