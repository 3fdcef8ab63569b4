package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nexuslabs/nexus/internal/compute"
	"github.com/nexuslabs/nexus/internal/engine"
	"github.com/nexuslabs/nexus/internal/model"
)

const (
	maxBodySize = 1 << 20 // 1 MB

	// finishTimeout bounds the persistence write a task performs after its
	// compute work is done. The request context is gone by then.
	finishTimeout = 5 * time.Second

	defaultStressCount = 1000
	maxStressCount     = 100000
)

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"kinds": s.registry.List()})
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	kind, err := s.registry.Resolve(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	var req compute.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Operation == "" {
		s.writeError(w, http.StatusBadRequest, "operation is required")
		return
	}

	run := &model.Run{
		ID:        model.NewID(),
		Kind:      kind.Name(),
		Operation: req.Operation,
		Status:    model.StatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		s.logger.Error("create run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	if err := s.engine.Submit(s.computeTask(kind, req, run.ID)); err != nil {
		s.failRun(run.ID, err)
		if errors.Is(err, engine.ErrQueueFull) {
			s.writeError(w, http.StatusTooManyRequests, "task queue is full")
			return
		}
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, run)
}

// computeTask wraps one compute invocation as an engine task. The task runs
// on a worker goroutine long after the HTTP request has returned, so it
// finishes the run record under its own context.
func (s *Server) computeTask(kind compute.Kind, req compute.Request, runID string) engine.Task {
	return func(scratch []byte) error {
		start := time.Now()
		out, err := kind.Run(req, scratch)
		durationUS := time.Since(start).Microseconds()

		ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
		defer cancel()

		if err != nil {
			if ferr := s.store.FinishRun(ctx, runID, model.StatusFailed, nil, err.Error(), durationUS); ferr != nil {
				s.logger.Error("finish failed run", "run_id", runID, "error", ferr)
			}
			return err
		}

		payload, merr := json.Marshal(out)
		if merr != nil {
			if ferr := s.store.FinishRun(ctx, runID, model.StatusFailed, nil, merr.Error(), durationUS); ferr != nil {
				s.logger.Error("finish failed run", "run_id", runID, "error", ferr)
			}
			return merr
		}

		if ferr := s.store.FinishRun(ctx, runID, model.StatusCompleted, payload, "", durationUS); ferr != nil {
			s.logger.Error("finish run", "run_id", runID, "error", ferr)
		}
		return nil
	}
}

// failRun marks a run failed when its task never made it into the queue.
func (s *Server) failRun(runID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	if err := s.store.FinishRun(ctx, runID, model.StatusFailed, nil, cause.Error(), 0); err != nil {
		s.logger.Error("fail run", "run_id", runID, "error", err)
	}
}

// stressRequest drives a burst of identical tasks through the engine without
// persisting each one.
type stressRequest struct {
	Kind    string          `json:"kind"`
	Count   int             `json:"count"`
	Request compute.Request `json:"request"`
}

type stressResponse struct {
	Requested  int `json:"requested"`
	Submitted  int `json:"submitted"`
	Rejected   int `json:"rejected"`
	QueueDepth int `json:"queue_depth"`
}

func (s *Server) handleStress(w http.ResponseWriter, r *http.Request) {
	req := stressRequest{
		Kind:  "binary",
		Count: defaultStressCount,
		Request: compute.Request{
			Operation: "xor",
			ValueA:    0xDEADBEEF,
			ValueB:    0xCAFEBABE,
		},
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	kind, err := s.registry.Resolve(req.Kind)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if req.Count < 1 || req.Count > maxStressCount {
		req.Count = defaultStressCount
	}

	task := func(scratch []byte) error {
		_, err := kind.Run(req.Request, scratch)
		return err
	}

	submitted, rejected := 0, 0
	for i := 0; i < req.Count; i++ {
		err := s.engine.Submit(task)
		if err == nil {
			submitted++
			continue
		}
		if errors.Is(err, engine.ErrQueueFull) {
			rejected++
			continue
		}
		s.writeEngineError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, stressResponse{
		Requested:  req.Count,
		Submitted:  submitted,
		Rejected:   rejected,
		QueueDepth: s.engine.Stats().QueueDepth,
	})
}
