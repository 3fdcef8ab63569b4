package engine

import "time"

// worker is the loop run by each pool goroutine between Start and Stop.
//
// Idle workers block on the wake channel that Submit signals, with a short
// fallback poll as a backstop against missed wakeups. Paused workers park
// the same way without draining the queue. A panic escaping the task
// boundary is impossible (runTask recovers), so a panic here is an internal
// fault: it moves the engine to the Error state instead of silently killing
// the pool.
func (e *Engine) worker(id int, stopCh, wakeCh chan struct{}) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.state.Store(int32(StateError))
			e.logger.Error("worker loop fault", "worker", id, "panic", r)
		}
	}()

	for {
		switch e.State() {
		case StateStopped, StateError:
			return
		case StatePaused:
			select {
			case <-stopCh:
				return
			case <-wakeCh:
			case <-time.After(e.cfg.IdlePoll):
			}
			continue
		}

		ran := 0
		for ran < e.cfg.BatchSize && e.State() == StateRunning {
			task, ok := e.queue.Dequeue()
			if !ok {
				break
			}
			e.runTask(task)
			ran++
		}
		if ran == 0 {
			select {
			case <-stopCh:
				return
			case <-wakeCh:
			case <-time.After(e.cfg.IdlePoll):
			}
		}
	}
}

// runTask executes one task with a leased scratch block, times it, and
// forwards the outcome to the aggregator. One failing task never stops the
// pool.
func (e *Engine) runTask(task Task) {
	var scratch []byte
	blk, leased := e.alloc.Allocate()
	if leased {
		scratch = blk.Bytes()
	}

	start := time.Now()
	err := e.invoke(task, scratch)
	elapsed := time.Since(start)

	if leased {
		if ferr := e.alloc.Free(blk); ferr != nil {
			e.logger.Error("scratch block free", "error", ferr)
		}
	}

	if e.cfg.MetricsEnabled {
		e.metrics.Record(elapsed, err == nil)
	}
	e.completed.Add(1)

	if err != nil {
		e.logger.Warn("task failed", "error", err, "duration_us", elapsed.Microseconds())
	}
}

// invoke is the task-execution boundary: a panic in the task body is caught
// here and surfaced as a TaskPanicError.
func (e *Engine) invoke(task Task, scratch []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskPanicError{Value: r}
		}
	}()
	return task(scratch)
}
