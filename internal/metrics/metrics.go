// Package metrics records clustering progress as Prometheus metrics.
//
// A Recorder owns its own registry so that separate runs (and tests) never
// share counters. A nil *Recorder is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	reg *prometheus.Registry

	rounds       prometheus.Counter
	edgesMerged  prometheus.Counter
	absorbed     prometheus.Counter
	created      prometheus.Counter
	retries      prometheus.Counter
	workingEdges prometheus.Gauge
	clusterSize  prometheus.Histogram
	roundSeconds prometheus.Histogram
	alignments   *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cogs_rounds_total",
			Help: "Organism rounds committed",
		}),
		edgesMerged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cogs_edges_merged_total",
			Help: "BBH edges merged into the working set",
		}),
		absorbed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cogs_proteins_absorbed_total",
			Help: "Proteins added to existing clusters by extension",
		}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cogs_clusters_created_total",
			Help: "Clusters seeded by triangle discovery",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cogs_round_retries_total",
			Help: "Rounds retried after a store write failure",
		}),
		workingEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cogs_working_edges",
			Help: "Unconsumed edges left in the working set after the last round",
		}),
		clusterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cogs_new_cluster_size",
			Help:    "Size of newly created clusters",
			Buckets: prometheus.LinearBuckets(3, 1, 10),
		}),
		roundSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cogs_round_duration_seconds",
			Help:    "Wall time of a committed round",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		alignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cogs_alignments_total",
			Help: "Cluster alignments by result",
		}, []string{"result"}),
	}
	r.reg.MustRegister(
		r.rounds, r.edgesMerged, r.absorbed, r.created, r.retries,
		r.workingEdges, r.clusterSize, r.roundSeconds, r.alignments,
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Round records a committed round.
func (r *Recorder) Round(edgesMerged, absorbed int, createdSizes []int, workingEdges int, took time.Duration) {
	if r == nil {
		return
	}
	r.rounds.Inc()
	r.edgesMerged.Add(float64(edgesMerged))
	r.absorbed.Add(float64(absorbed))
	r.created.Add(float64(len(createdSizes)))
	for _, n := range createdSizes {
		r.clusterSize.Observe(float64(n))
	}
	r.workingEdges.Set(float64(workingEdges))
	r.roundSeconds.Observe(took.Seconds())
}

func (r *Recorder) Retry() {
	if r == nil {
		return
	}
	r.retries.Inc()
}

// Alignment counts one alignment job; ok=false counts a failure.
func (r *Recorder) Alignment(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	r.alignments.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
