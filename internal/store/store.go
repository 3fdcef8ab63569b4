// Package store persists compute-run history. The engine core itself never
// touches persistence; only the control layer records what it submitted and
// how it finished.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nexuslabs/nexus/internal/model"
)

// ErrNotFound is returned when a run is not found.
var ErrNotFound = errors.New("run not found")

// ErrInvalidTransition is returned when a run status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// RunStats holds aggregate run statistics.
type RunStats struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
	CountByKind   map[string]int `json:"count_by_kind"`
	AvgDurationUS float64        `json:"avg_duration_us"`
}

// Store defines the persistence operations for runs.
type Store interface {
	CreateRun(ctx context.Context, r *model.Run) error
	FinishRun(ctx context.Context, id, status string, output json.RawMessage, errMsg string, durationUS int64) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*model.Run, int, error)
	GetRunStats(ctx context.Context) (*RunStats, error)
	Close() error
}
