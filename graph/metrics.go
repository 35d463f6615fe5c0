package graph

import (
	"time"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of one graph.
type Metrics struct {
	commits     prometheus.Counter
	rollbacks   prometheus.Counter
	replays     *prometheus.CounterVec
	writeWait   prometheus.Histogram
	readers     prometheus.Gauge
	version     prometheus.Gauge
	snapshotLen prometheus.Histogram
}

// newMetrics creates the collectors of a graph and registers them if reg is not nil.
func newMetrics(graphID string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"graph": graphID}
	m := &Metrics{
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "agstore_graph_commits_total",
			Help:        "Total number of committed write sessions",
			ConstLabels: labels,
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "agstore_graph_rollbacks_total",
			Help:        "Total number of rolled back write sessions",
			ConstLabels: labels,
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "agstore_graph_replays_total",
			Help:        "Total number of undo and redo operations",
			ConstLabels: labels,
		}, []string{"op", "status"}),
		writeWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "agstore_graph_write_wait_seconds",
			Help:        "Time spent waiting for the writable handle",
			ConstLabels: labels,
			Buckets:     []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}),
		readers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "agstore_graph_readers",
			Help:        "Number of outstanding readable handles",
			ConstLabels: labels,
		}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "agstore_graph_version",
			Help:        "Global modification counter of the graph",
			ConstLabels: labels,
		}),
		snapshotLen: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "agstore_graph_snapshot_bytes",
			Help:        "Size of encoded graph snapshots",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.commits, m.rollbacks, m.replays, m.writeWait, m.readers, m.version, m.snapshotLen,
		} {
			if err := reg.Register(c); err != nil {
				if _, dup := err.(prometheus.AlreadyRegisteredError); !dup {
					agstore.Warningf("Unable to register graph metric: %v\n", err)
				}
			}
		}
	}
	return m
}

func (m *Metrics) observeWait(start time.Time) {
	m.writeWait.Observe(time.Since(start).Seconds())
}

func (m *Metrics) replay(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.replays.WithLabelValues(op, status).Inc()
}
