package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nexuslabs/nexus/internal/engine"
)

// engineConfig is the JSON shape of the engine configuration on the wire.
type engineConfig struct {
	Workers        int   `json:"workers"`
	QueueCapacity  int   `json:"queue_capacity"`
	BatchSize      int   `json:"batch_size"`
	TaskTimeoutMS  int64 `json:"task_timeout_ms"`
	MetricsEnabled bool  `json:"metrics_enabled"`
	SampleCapacity int   `json:"sample_capacity"`
	BlockSize      int   `json:"block_size"`
	BlockCount     int   `json:"block_count"`
}

func toWireConfig(c engine.Config) engineConfig {
	return engineConfig{
		Workers:        c.Workers,
		QueueCapacity:  c.QueueCapacity,
		BatchSize:      c.BatchSize,
		TaskTimeoutMS:  c.TaskTimeout.Milliseconds(),
		MetricsEnabled: c.MetricsEnabled,
		SampleCapacity: c.SampleCapacity,
		BlockSize:      c.BlockSize,
		BlockCount:     c.BlockCount,
	}
}

func (c engineConfig) toEngineConfig() engine.Config {
	return engine.Config{
		Workers:        c.Workers,
		QueueCapacity:  c.QueueCapacity,
		BatchSize:      c.BatchSize,
		TaskTimeout:    time.Duration(c.TaskTimeoutMS) * time.Millisecond,
		MetricsEnabled: c.MetricsEnabled,
		SampleCapacity: c.SampleCapacity,
		BlockSize:      c.BlockSize,
		BlockCount:     c.BlockCount,
	}
}

// writeEngineError maps engine error types onto HTTP status codes. Lifecycle
// conflicts are 409, bad parameters are 400.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var stateErr *engine.InvalidStateError
	if errors.As(err, &stateErr) {
		s.writeError(w, http.StatusConflict, stateErr.Error())
		return
	}
	var cfgErr *engine.ConfigError
	if errors.As(err, &cfgErr) {
		s.writeError(w, http.StatusBadRequest, cfgErr.Error())
		return
	}
	s.logger.Error("engine operation", "error", err)
	s.writeError(w, http.StatusInternalServerError, "engine operation failed")
}

func (s *Server) handleEngineStart(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Start(); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleEngineStop(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Stop(); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleEnginePause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Pause(); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleEngineResume(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Resume(); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, toWireConfig(s.engine.Config()))
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req engineConfig
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.engine.SetConfig(req.toEngineConfig()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toWireConfig(s.engine.Config()))
}

func (s *Server) handleEngineMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Metrics())
}

func (s *Server) handleResetMetrics(w http.ResponseWriter, r *http.Request) {
	s.engine.ResetMetrics()
	s.writeJSON(w, http.StatusOK, s.engine.Metrics())
}
