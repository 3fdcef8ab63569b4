// Package engine implements the bounded-capacity task-execution core: a
// fixed-size lock-free ring queue feeding a pool of worker goroutines, a
// pre-allocated scratch-block allocator, and an always-on latency aggregator
// that derives percentile snapshots without blocking producers or consumers.
//
// The engine is an in-process primitive. The HTTP layer and the compute
// kinds are collaborators: they submit task closures through Submit and read
// point-in-time metrics through Metrics. No global mutable state exists;
// multiple independent engines may coexist in one process.
package engine
