package engine

import (
	"errors"
	"fmt"
)

// ErrQueueFull is the backpressure signal returned by Enqueue and Submit when
// the ring is at capacity. It is expected under load and never logged as an
// error; the caller decides whether to retry, drop, or block.
var ErrQueueFull = errors.New("queue full")

// ErrNilTask is returned by Submit when the task closure is nil.
var ErrNilTask = errors.New("task is nil")

// ErrBlockNotOwned is returned by Free when the handle was not issued by this
// allocator.
var ErrBlockNotOwned = errors.New("block not owned by allocator")

// ErrBlockFree is returned by Free when the block is already free (double
// free or a stale handle).
var ErrBlockFree = errors.New("block already free")

// ConfigError reports an invalid construction parameter. It fails fast at
// engine construction and is not recoverable.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports an operation attempted in a state that forbids
// it, such as configuring a running engine.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while engine is %s", e.Op, e.State)
}

// TaskPanicError wraps a panic caught at the task-execution boundary. It is
// counted as a failed operation and never propagates past the worker.
type TaskPanicError struct {
	Value any
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task panic: %v", e.Value)
}
