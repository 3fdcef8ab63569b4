// Package model defines the records exchanged between the API layer and the
// run store.
package model

import (
	"encoding/json"
	"time"
)

// Run status constants.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// validTransitions maps each status to the set of statuses it may move to.
var validTransitions = map[string]map[string]bool{
	StatusQueued: {
		StatusCompleted: true,
		StatusFailed:    true,
	},
}

// ValidTransition reports whether moving from one run status to another is
// allowed.
func ValidTransition(from, to string) bool {
	return validTransitions[from][to]
}

// Run is one compute submission: created when the control layer accepts the
// request, finished by the task closure after the engine executes it. Tasks
// dropped at engine shutdown keep their queued status.
type Run struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Operation  string          `json:"operation"`
	Status     string          `json:"status"`
	Output     json.RawMessage `json:"output,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationUS *int64          `json:"duration_us,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}
