// Package e2e exercises the full stack: HTTP surface, engine, compute kinds,
// and run persistence wired together the way cmd/nexus wires them.
package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nexuslabs/nexus/internal/api"
	"github.com/nexuslabs/nexus/internal/compute"
	"github.com/nexuslabs/nexus/internal/engine"
	"github.com/nexuslabs/nexus/internal/model"
	"github.com/nexuslabs/nexus/internal/store"
)

const (
	pollInterval = 20 * time.Millisecond
	pollTimeout  = 5 * time.Second
)

type stack struct {
	ts  *httptest.Server
	eng *engine.Engine
}

func newStack(t *testing.T) *stack {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	eng, err := engine.New(engine.Config{
		Workers:        4,
		QueueCapacity:  256,
		MetricsEnabled: true,
		SampleCapacity: 1024,
		BlockSize:      1024,
		BlockCount:     16,
	}, logger)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() { eng.Stop() })

	srv := api.NewServer(":0", db, compute.DefaultRegistry(), eng, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &stack{ts: ts, eng: eng}
}

func (s *stack) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	resp, err := http.Post(s.ts.URL+path, "application/json", reader)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func (s *stack) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(s.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, data
}

func waitForRun(t *testing.T, s *stack, id, wantStatus string) model.Run {
	t.Helper()
	deadline := time.Now().Add(pollTimeout)
	var run model.Run
	for time.Now().Before(deadline) {
		resp, data := s.get(t, "/v1/runs/"+id)
		if resp.StatusCode == http.StatusOK {
			if err := json.Unmarshal(data, &run); err != nil {
				t.Fatalf("unmarshal run: %v", err)
			}
			if run.Status == wantStatus {
				return run
			}
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("run %s never reached status %q (last: %q)", id, wantStatus, run.Status)
	return run
}

func TestFullLifecycle(t *testing.T) {
	s := newStack(t)

	// Engine starts stopped; compute submissions are rejected.
	resp, _ := s.post(t, "/v1/compute/binary", compute.Request{Operation: "xor", ValueA: 1, ValueB: 2})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("compute while stopped = %d, want 409", resp.StatusCode)
	}

	resp, _ = s.post(t, "/v1/engine/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start = %d, want 200", resp.StatusCode)
	}

	// One run per kind, driven end to end.
	submissions := []struct {
		kind string
		req  compute.Request
	}{
		{"binary", compute.Request{Operation: "xor", ValueA: 0xF0F0, ValueB: 0x0F0F}},
		{"hash", compute.Request{Operation: "sha256", Payload: "end to end"}},
		{"matrix", compute.Request{Operation: "multiply", Rows: 8, Cols: 8, Seed: 42}},
		{"quantum", compute.Request{Operation: "hadamard", Qubits: 4, Target: 0}},
	}

	ids := make([]string, 0, len(submissions))
	for _, sub := range submissions {
		resp, data := s.post(t, "/v1/compute/"+sub.kind, sub.req)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("compute %s = %d, want 202: %s", sub.kind, resp.StatusCode, data)
		}
		var run model.Run
		if err := json.Unmarshal(data, &run); err != nil {
			t.Fatalf("unmarshal run: %v", err)
		}
		ids = append(ids, run.ID)
	}

	for i, id := range ids {
		run := waitForRun(t, s, id, model.StatusCompleted)
		if len(run.Output) == 0 {
			t.Errorf("%s run has empty output", submissions[i].kind)
		}
		if run.DurationUS == nil {
			t.Errorf("%s run has nil duration", submissions[i].kind)
		}
	}

	// A failing operation lands as a failed run, not an engine fault.
	resp, data := s.post(t, "/v1/compute/quantum", compute.Request{Operation: "hadamard", Qubits: 99})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("compute bad qubits = %d, want 202: %s", resp.StatusCode, data)
	}
	var failed model.Run
	if err := json.Unmarshal(data, &failed); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}
	got := waitForRun(t, s, failed.ID, model.StatusFailed)
	if got.Error == "" {
		t.Error("failed run has empty error message")
	}

	// History and aggregate stats reflect the five runs.
	resp, data = s.get(t, "/v1/runs?limit=10")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list runs = %d, want 200", resp.StatusCode)
	}
	var list struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if list.Total != len(submissions)+2 {
		t.Errorf("total runs = %d, want %d", list.Total, len(submissions)+2)
	}

	_, data = s.get(t, "/v1/stats")
	var stats struct {
		Engine  engine.Stats    `json:"engine"`
		Metrics engine.Snapshot `json:"metrics"`
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.Metrics.TotalOperations < uint64(len(submissions)) {
		t.Errorf("total operations = %d, want >= %d", stats.Metrics.TotalOperations, len(submissions))
	}
	if stats.Metrics.TotalErrors < 1 {
		t.Errorf("total errors = %d, want >= 1", stats.Metrics.TotalErrors)
	}

	// Pause holds queued work; resume releases it.
	resp, _ = s.post(t, "/v1/engine/pause", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause = %d, want 200", resp.StatusCode)
	}
	resp, data = s.post(t, "/v1/compute/binary", compute.Request{Operation: "and", ValueA: 6, ValueB: 3})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("compute while paused = %d, want 202: %s", resp.StatusCode, data)
	}
	var pausedRun model.Run
	if err := json.Unmarshal(data, &pausedRun); err != nil {
		t.Fatalf("unmarshal run: %v", err)
	}

	resp, _ = s.post(t, "/v1/engine/resume", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resume = %d, want 200", resp.StatusCode)
	}
	waitForRun(t, s, pausedRun.ID, model.StatusCompleted)

	// Stop, then confirm the engine reports stopped via status.
	resp, _ = s.post(t, "/v1/engine/stop", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stop = %d, want 200", resp.StatusCode)
	}
	_, data = s.get(t, "/v1/engine/status")
	var st engine.Stats
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.State != "stopped" {
		t.Errorf("state = %q, want stopped", st.State)
	}
}

func TestStressRoundTrip(t *testing.T) {
	s := newStack(t)

	resp, _ := s.post(t, "/v1/engine/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start = %d, want 200", resp.StatusCode)
	}

	resp, data := s.post(t, "/v1/stress", map[string]any{
		"kind":  "binary",
		"count": 50,
		"request": compute.Request{
			Operation: "popcount",
			ValueA:    0xFFFFFFFF,
		},
	})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("stress = %d, want 202: %s", resp.StatusCode, data)
	}
	var sr struct {
		Submitted int `json:"submitted"`
		Rejected  int `json:"rejected"`
	}
	if err := json.Unmarshal(data, &sr); err != nil {
		t.Fatalf("unmarshal stress response: %v", err)
	}

	deadline := time.Now().Add(pollTimeout)
	for time.Now().Before(deadline) {
		if s.eng.Stats().Completed >= uint64(sr.Submitted) {
			break
		}
		time.Sleep(pollInterval)
	}

	_, data = s.get(t, "/v1/engine/metrics")
	var snap engine.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.TotalOperations < uint64(sr.Submitted) {
		t.Errorf("operations = %d, want >= %d", snap.TotalOperations, sr.Submitted)
	}
	if snap.Latency.Max == 0 && sr.Submitted > 0 {
		t.Error("latency max is zero after completed work")
	}

	if sr.Submitted+sr.Rejected != 50 {
		t.Errorf("submitted %d + rejected %d != 50", sr.Submitted, sr.Rejected)
	}
}
