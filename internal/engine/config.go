package engine

import (
	"runtime"
	"time"
)

// Defaults applied by normalized for fields left zero.
const (
	DefaultQueueCapacity  = 1 << 16
	DefaultBatchSize      = 1024
	DefaultTaskTimeout    = 5 * time.Second
	DefaultSampleCapacity = 8192
	DefaultBlockSize      = 4096
	DefaultBlockCount     = 256
	DefaultIdlePoll       = time.Millisecond
)

// Config holds engine construction parameters. It is treated as an immutable
// value: SetConfig replaces it wholesale and only while the engine is
// stopped.
type Config struct {
	// Workers is the number of worker goroutines spawned on Start. Must be
	// at least 1.
	Workers int

	// QueueCapacity is the fixed task-queue capacity. Must be a power of two
	// (>= 2) so wrap-around can use a bitmask.
	QueueCapacity int

	// BatchSize bounds how many tasks a worker drains per wakeup before
	// re-checking the engine state.
	BatchSize int

	// TaskTimeout is advisory: the core never cancels a running task. The
	// control layer uses it to bound its own bookkeeping around a task.
	TaskTimeout time.Duration

	// MetricsEnabled controls whether per-task latency is recorded.
	MetricsEnabled bool

	// SampleCapacity bounds the latency-sample ring used for percentile
	// snapshots. Oldest samples are overwritten once full.
	SampleCapacity int

	// BlockSize and BlockCount size the pre-allocated scratch-block pool
	// leased to tasks. BlockCount of zero disables scratch leasing.
	BlockSize  int
	BlockCount int

	// IdlePoll is the fallback poll interval for idle workers. Workers are
	// normally woken by submission signals; the poll only backstops a
	// missed wakeup.
	IdlePoll time.Duration
}

// DefaultConfig returns a config sized for the current machine.
func DefaultConfig() Config {
	return Config{
		Workers:        runtime.NumCPU(),
		QueueCapacity:  DefaultQueueCapacity,
		BatchSize:      DefaultBatchSize,
		TaskTimeout:    DefaultTaskTimeout,
		MetricsEnabled: true,
		SampleCapacity: DefaultSampleCapacity,
		BlockSize:      DefaultBlockSize,
		BlockCount:     DefaultBlockCount,
		IdlePoll:       DefaultIdlePoll,
	}
}

// normalized fills optional zero fields with defaults. Workers and
// QueueCapacity are not defaulted here; callers must choose them, and
// Validate rejects them when unset.
func (c Config) normalized() Config {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.TaskTimeout == 0 {
		c.TaskTimeout = DefaultTaskTimeout
	}
	if c.SampleCapacity == 0 {
		c.SampleCapacity = DefaultSampleCapacity
	}
	if c.IdlePoll == 0 {
		c.IdlePoll = DefaultIdlePoll
	}
	return c
}

// Validate rejects parameters the engine cannot honor.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Reason: "must be at least 1"}
	}
	if c.QueueCapacity < 2 || c.QueueCapacity&(c.QueueCapacity-1) != 0 {
		return &ConfigError{Field: "queue_capacity", Reason: "must be a power of two >= 2"}
	}
	if c.BatchSize < 1 {
		return &ConfigError{Field: "batch_size", Reason: "must be at least 1"}
	}
	if c.SampleCapacity < 1 {
		return &ConfigError{Field: "sample_capacity", Reason: "must be at least 1"}
	}
	if c.BlockCount < 0 {
		return &ConfigError{Field: "block_count", Reason: "must not be negative"}
	}
	if c.BlockCount > 0 && c.BlockSize < 1 {
		return &ConfigError{Field: "block_size", Reason: "must be positive when block_count > 0"}
	}
	if c.IdlePoll <= 0 {
		return &ConfigError{Field: "idle_poll", Reason: "must be positive"}
	}
	return nil
}
