package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nexuslabs/nexus/internal/engine"
)

// engineCollector exports engine stats and the metrics snapshot as Prometheus
// metrics. Values are read on scrape; nothing is cached between scrapes.
type engineCollector struct {
	engine *engine.Engine

	queueDepth    *prometheus.Desc
	queueCapacity *prometheus.Desc
	activeWorkers *prometheus.Desc
	submitted     *prometheus.Desc
	completed     *prometheus.Desc
	dropped       *prometheus.Desc
	operations    *prometheus.Desc
	errors        *prometheus.Desc
	latency       *prometheus.Desc
	throughput    *prometheus.Desc
	blocksInUse   *prometheus.Desc
}

func newEngineCollector(eng *engine.Engine) *engineCollector {
	return &engineCollector{
		engine: eng,
		queueDepth: prometheus.NewDesc(
			"nexus_engine_queue_depth",
			"Number of tasks currently queued.", nil, nil),
		queueCapacity: prometheus.NewDesc(
			"nexus_engine_queue_capacity",
			"Fixed capacity of the task queue.", nil, nil),
		activeWorkers: prometheus.NewDesc(
			"nexus_engine_workers_active",
			"Number of live worker goroutines.", nil, nil),
		submitted: prometheus.NewDesc(
			"nexus_engine_tasks_submitted_total",
			"Total tasks accepted by Submit.", nil, nil),
		completed: prometheus.NewDesc(
			"nexus_engine_tasks_completed_total",
			"Total tasks executed to completion.", nil, nil),
		dropped: prometheus.NewDesc(
			"nexus_engine_tasks_dropped_total",
			"Total queued tasks discarded at shutdown.", nil, nil),
		operations: prometheus.NewDesc(
			"nexus_engine_operations_total",
			"Total operations recorded by the metrics aggregator.", nil, nil),
		errors: prometheus.NewDesc(
			"nexus_engine_operation_errors_total",
			"Total failed operations recorded by the metrics aggregator.", nil, nil),
		latency: prometheus.NewDesc(
			"nexus_engine_task_latency_microseconds",
			"Task latency percentiles over the sample window.",
			[]string{"quantile"}, nil),
		throughput: prometheus.NewDesc(
			"nexus_engine_throughput_ops_per_second",
			"Operations per second since start or last reset.", nil, nil),
		blocksInUse: prometheus.NewDesc(
			"nexus_engine_scratch_blocks_in_use",
			"Scratch blocks currently leased from the pool.", nil, nil),
	}
}

func (c *engineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepth
	ch <- c.queueCapacity
	ch <- c.activeWorkers
	ch <- c.submitted
	ch <- c.completed
	ch <- c.dropped
	ch <- c.operations
	ch <- c.errors
	ch <- c.latency
	ch <- c.throughput
	ch <- c.blocksInUse
}

func (c *engineCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.engine.Stats()
	snap := c.engine.Metrics()

	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(stats.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.queueCapacity, prometheus.GaugeValue, float64(stats.QueueCapacity))
	ch <- prometheus.MustNewConstMetric(c.activeWorkers, prometheus.GaugeValue, float64(stats.ActiveWorkers))
	ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(stats.Submitted))
	ch <- prometheus.MustNewConstMetric(c.completed, prometheus.CounterValue, float64(stats.Completed))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(stats.Dropped))
	ch <- prometheus.MustNewConstMetric(c.operations, prometheus.CounterValue, float64(snap.TotalOperations))
	ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(snap.TotalErrors))
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, snap.Latency.P50, "0.5")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, snap.Latency.P95, "0.95")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, snap.Latency.P99, "0.99")
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, snap.Latency.P999, "0.999")
	ch <- prometheus.MustNewConstMetric(c.throughput, prometheus.GaugeValue, snap.ThroughputOpsPerSec)
	ch <- prometheus.MustNewConstMetric(c.blocksInUse, prometheus.GaugeValue, float64(stats.Allocator.AllocatedBlocks))
}
