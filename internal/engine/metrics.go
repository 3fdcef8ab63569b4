package engine

import (
	"math"
	"slices"
	"sync/atomic"
	"time"
)

// Aggregator accumulates per-task latency and outcome counters lock-free and
// derives percentile snapshots on demand. All counters are safe under
// unbounded concurrent writers.
//
// Latency samples land in a fixed-capacity ring; once full, the oldest
// samples are overwritten, so percentiles describe a bounded recent window
// rather than the full history. That bound is what keeps memory flat on the
// hot path.
type Aggregator struct {
	totalOps   atomic.Uint64
	totalErrs  atomic.Uint64
	latencySum atomic.Uint64
	minLatency atomic.Uint64
	maxLatency atomic.Uint64
	startNS    atomic.Int64

	cursor  atomic.Uint64
	samples []atomic.Uint64
}

// LatencyStats holds microsecond latency statistics. Percentiles use
// idx = floor(N*q) on the ascending sorted window, clamped to N-1; with
// fewer than 1000 samples p999 degenerates to the maximum of the window.
type LatencyStats struct {
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
	P999 float64 `json:"p999"`
	Mean float64 `json:"mean"`
	Min  uint64  `json:"min"`
	Max  uint64  `json:"max"`
}

// Snapshot is an immutable point-in-time metrics view, computed on read.
type Snapshot struct {
	TotalOperations     uint64       `json:"total_operations"`
	TotalErrors         uint64       `json:"total_errors"`
	ErrorRate           float64      `json:"error_rate"`
	Latency             LatencyStats `json:"latency_us"`
	ThroughputOpsPerSec float64      `json:"throughput_ops_per_sec"`
	UptimeSeconds       float64      `json:"uptime_seconds"`
}

// NewAggregator creates an aggregator with a latency-sample window of
// sampleCapacity entries.
func NewAggregator(sampleCapacity int) *Aggregator {
	if sampleCapacity < 1 {
		sampleCapacity = 1
	}
	a := &Aggregator{
		samples: make([]atomic.Uint64, sampleCapacity),
	}
	a.minLatency.Store(math.MaxUint64)
	a.startNS.Store(time.Now().UnixNano())
	return a
}

// Record accumulates one operation outcome. Safe for any number of
// concurrent callers; never blocks and never allocates.
func (a *Aggregator) Record(d time.Duration, success bool) {
	us := uint64(d.Microseconds())

	a.totalOps.Add(1)
	if !success {
		a.totalErrs.Add(1)
	}
	a.latencySum.Add(us)

	// Min/max converge via CAS retry: write only when strictly more extreme
	// than the last observed value.
	for {
		cur := a.minLatency.Load()
		if us >= cur || a.minLatency.CompareAndSwap(cur, us) {
			break
		}
	}
	for {
		cur := a.maxLatency.Load()
		if us <= cur || a.maxLatency.CompareAndSwap(cur, us) {
			break
		}
	}

	idx := a.cursor.Add(1) - 1
	a.samples[idx%uint64(len(a.samples))].Store(us)
}

// Snapshot computes the aggregated view. Percentiles sort a copy of the
// sample window, so the cost is paid by the reader, not the recording hot
// path.
func (a *Aggregator) Snapshot() Snapshot {
	var s Snapshot
	s.TotalOperations = a.totalOps.Load()
	s.TotalErrors = a.totalErrs.Load()
	if s.TotalOperations > 0 {
		s.ErrorRate = float64(s.TotalErrors) / float64(s.TotalOperations)
		s.Latency.Mean = float64(a.latencySum.Load()) / float64(s.TotalOperations)
		s.Latency.Min = a.minLatency.Load()
		s.Latency.Max = a.maxLatency.Load()
	}

	uptime := time.Since(time.Unix(0, a.startNS.Load())).Seconds()
	if uptime < 0 {
		uptime = 0
	}
	s.UptimeSeconds = uptime
	if uptime > 0 {
		s.ThroughputOpsPerSec = float64(s.TotalOperations) / uptime
	}

	window := a.sampleWindow()
	if len(window) > 0 {
		slices.Sort(window)
		s.Latency.P50 = percentile(window, 0.50)
		s.Latency.P95 = percentile(window, 0.95)
		s.Latency.P99 = percentile(window, 0.99)
		s.Latency.P999 = percentile(window, 0.999)
	}
	return s
}

// Reset zeroes all counters and restarts the uptime clock. Records racing
// with a reset may be lost across the boundary; that staleness window is an
// accepted tradeoff of keeping Record lock-free.
func (a *Aggregator) Reset() {
	a.totalOps.Store(0)
	a.totalErrs.Store(0)
	a.latencySum.Store(0)
	a.minLatency.Store(math.MaxUint64)
	a.maxLatency.Store(0)
	a.cursor.Store(0)
	for i := range a.samples {
		a.samples[i].Store(0)
	}
	a.startNS.Store(time.Now().UnixNano())
}

// SampleCapacity returns the fixed size of the latency window.
func (a *Aggregator) SampleCapacity() int { return len(a.samples) }

// sampleWindow copies the live portion of the sample ring.
func (a *Aggregator) sampleWindow() []uint64 {
	n := a.cursor.Load()
	if n > uint64(len(a.samples)) {
		n = uint64(len(a.samples))
	}
	out := make([]uint64, n)
	for i := range out {
		out[i] = a.samples[i].Load()
	}
	return out
}

func percentile(sorted []uint64, q float64) float64 {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx])
}
