// Package metrics exposes Prometheus gauges and counters for the graph
// and pipeline, in the same style the teacher uses for cluster health:
// package-level vectors registered once, updated from the components
// that own the underlying state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

var (
	// NodesStale reports how many graph nodes currently have no
	// freshness timestamp (have not been rebuilt since invalidation).
	NodesStale = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lakebox_graph_nodes_stale",
		Help: "Number of graph nodes whose updated_at is unset",
	})

	// TasksCompleted counts tasks that reached the completed phase,
	// across all pipeline runs.
	TasksCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lakebox_pipeline_tasks_completed_total",
		Help: "Total number of pipeline tasks that completed successfully",
	})

	// TasksFailed counts tasks that reached the failed phase, whether
	// by direct execution failure or upstream cascade.
	TasksFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lakebox_pipeline_tasks_failed_total",
		Help: "Total number of pipeline tasks that failed",
	}, []string{"reason"})

	// RunsActive reports how many pipeline runs are currently in the
	// running phase.
	RunsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lakebox_pipeline_runs_active",
		Help: "Number of pipeline runs currently running",
	})
)

func init() {
	prometheus.MustRegister(NodesStale, TasksCompleted, TasksFailed, RunsActive)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
