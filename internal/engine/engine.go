package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is an owned, single-invocation unit of work. Ownership passes from
// the producer to the queue to the worker that dequeues it; it is executed
// exactly once or, if the engine is stopped while it is still queued,
// dropped without execution. The scratch buffer, when non-nil, is leased
// from the block pool for the duration of the call and owned exclusively by
// the task.
type Task func(scratch []byte) error

// Engine owns the task queue, the scratch-block pool, the worker pool, and
// the metrics aggregator, and exposes the lifecycle contract the control
// layer drives. The state field is a single atomic enum; transitions are
// resolved by compare-and-swap so concurrent lifecycle calls from multiple
// control goroutines settle deterministically.
type Engine struct {
	cfg     Config
	logger  *slog.Logger
	queue   *RingQueue[Task]
	alloc   *BlockAllocator
	metrics *Aggregator

	state atomic.Int32

	// mu serializes structural lifecycle work (spawning and joining
	// workers, replacing config); the hot paths never take it.
	mu     sync.Mutex
	wg     sync.WaitGroup
	stopCh chan struct{}
	wakeCh chan struct{}

	activeWorkers atomic.Int32
	submitted     atomic.Uint64
	completed     atomic.Uint64
	dropped       atomic.Uint64
}

// Stats is a point-in-time view of engine occupancy and counters. All
// fields are racy snapshots.
type Stats struct {
	State         string     `json:"state"`
	Workers       int        `json:"workers"`
	ActiveWorkers int        `json:"active_workers"`
	QueueDepth    int        `json:"queue_depth"`
	QueueCapacity int        `json:"queue_capacity"`
	FillRatio     float64    `json:"fill_ratio"`
	Submitted     uint64     `json:"submitted"`
	Completed     uint64     `json:"completed"`
	Dropped       uint64     `json:"dropped"`
	Allocator     AllocStats `json:"allocator"`
}

// New validates cfg and builds a stopped engine. The queue, block pool, and
// sample buffer are allocated here, once.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	queue, err := NewRingQueue[Task](cfg.QueueCapacity)
	if err != nil {
		return nil, err
	}
	alloc, err := NewBlockAllocator(cfg.BlockSize, cfg.BlockCount)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		logger:  logger,
		queue:   queue,
		alloc:   alloc,
		metrics: NewAggregator(cfg.SampleCapacity),
		wakeCh:  make(chan struct{}, cfg.Workers),
	}
	logger.Info("engine initialized",
		"workers", cfg.Workers,
		"queue_capacity", cfg.QueueCapacity,
		"scratch_blocks", cfg.BlockCount,
	)
	return e, nil
}

// Start transitions Stopped→Running and spawns the worker pool. Calling
// Start on a running engine is a no-op; exactly one of any set of
// concurrent Start calls performs the transition.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		if e.State() == StateRunning {
			return nil
		}
		return &InvalidStateError{Op: "start", State: e.State()}
	}

	e.stopCh = make(chan struct{})
	e.wg.Add(e.cfg.Workers)
	for i := 0; i < e.cfg.Workers; i++ {
		go e.worker(i, e.stopCh, e.wakeCh)
	}
	e.activeWorkers.Store(int32(e.cfg.Workers))

	e.logger.Info("engine started", "workers", e.cfg.Workers)
	return nil
}

// Stop transitions Running|Paused→Stopped, joins all workers, and drops any
// still-queued tasks without executing them. In-flight tasks finish; the
// dropped count is observable via Stats. Stopping a stopped engine is a
// no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() == StateStopped {
		return nil
	}
	if !e.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) &&
		!e.state.CompareAndSwap(int32(StatePaused), int32(StateStopped)) {
		return &InvalidStateError{Op: "stop", State: e.State()}
	}

	close(e.stopCh)
	e.wg.Wait()
	e.activeWorkers.Store(0)

	drops := 0
	for {
		if _, ok := e.queue.Dequeue(); !ok {
			break
		}
		drops++
	}
	e.dropped.Add(uint64(drops))

	e.logger.Info("engine stopped",
		"completed", e.completed.Load(),
		"dropped_at_shutdown", drops,
	)
	return nil
}

// Pause transitions Running→Paused. Workers suspend without draining the
// queue: queued tasks stay queued and run after Resume. Pausing a paused
// engine is a no-op.
func (e *Engine) Pause() error {
	if e.State() == StatePaused {
		return nil
	}
	if !e.state.CompareAndSwap(int32(StateRunning), int32(StatePaused)) {
		return &InvalidStateError{Op: "pause", State: e.State()}
	}
	e.logger.Info("engine paused", "queue_depth", e.queue.Size())
	return nil
}

// Resume transitions Paused→Running and wakes all workers. Resuming a
// running engine is a no-op.
func (e *Engine) Resume() error {
	if e.State() == StateRunning {
		return nil
	}
	if !e.state.CompareAndSwap(int32(StatePaused), int32(StateRunning)) {
		return &InvalidStateError{Op: "resume", State: e.State()}
	}
	for i := 0; i < e.cfg.Workers; i++ {
		select {
		case e.wakeCh <- struct{}{}:
		default:
		}
	}
	e.logger.Info("engine resumed")
	return nil
}

// Submit enqueues a task for execution. Permitted while Running or Paused
// (paused submissions queue up and survive the pause). Returns ErrQueueFull
// as backpressure when the ring is at capacity; it never blocks and never
// grows the queue.
func (e *Engine) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}
	switch e.State() {
	case StateRunning, StatePaused:
	default:
		return &InvalidStateError{Op: "submit", State: e.State()}
	}
	if err := e.queue.Enqueue(task); err != nil {
		return err
	}
	e.submitted.Add(1)
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Metrics returns a point-in-time aggregated snapshot. It never coordinates
// with workers, but the aggregator pointer itself is read under mu so a
// snapshot concurrent with SetConfig sees either the old or the new
// aggregator, never a torn one.
func (e *Engine) Metrics() Snapshot {
	e.mu.Lock()
	m := e.metrics
	e.mu.Unlock()
	return m.Snapshot()
}

// ResetMetrics zeroes the aggregator counters and restarts its uptime
// clock. See Aggregator.Reset for the concurrency tradeoff.
func (e *Engine) ResetMetrics() {
	e.mu.Lock()
	m := e.metrics
	e.mu.Unlock()
	m.Reset()
}

// Config returns the current configuration value.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SetConfig replaces the configuration and reallocates the queue, block
// pool, and sample buffer to the new sizes. Only permitted while Stopped.
func (e *Engine) SetConfig(cfg Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() != StateStopped {
		return &InvalidStateError{Op: "set config", State: e.State()}
	}
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return err
	}

	queue, err := NewRingQueue[Task](cfg.QueueCapacity)
	if err != nil {
		return err
	}
	alloc, err := NewBlockAllocator(cfg.BlockSize, cfg.BlockCount)
	if err != nil {
		return err
	}

	e.cfg = cfg
	e.queue = queue
	e.alloc = alloc
	e.metrics = NewAggregator(cfg.SampleCapacity)
	e.wakeCh = make(chan struct{}, cfg.Workers)
	return nil
}

// Stats returns an occupancy snapshot for the control layer. The counter
// values are racy with respect to each other; the queue, allocator, and
// config references are read under mu so Stats never observes a SetConfig
// replacement mid-swap.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	workers := e.cfg.Workers
	queue := e.queue
	alloc := e.alloc
	e.mu.Unlock()

	return Stats{
		State:         e.State().String(),
		Workers:       workers,
		ActiveWorkers: int(e.activeWorkers.Load()),
		QueueDepth:    queue.Size(),
		QueueCapacity: queue.Capacity(),
		FillRatio:     queue.FillRatio(),
		Submitted:     e.submitted.Load(),
		Completed:     e.completed.Load(),
		Dropped:       e.dropped.Load(),
		Allocator:     alloc.Stats(),
	}
}

// Allocator exposes the scratch-block pool so collaborators can lease
// buffers outside the worker path.
func (e *Engine) Allocator() *BlockAllocator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alloc
}
