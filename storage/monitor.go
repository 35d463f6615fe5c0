package storage

import (
	"context"
	"sync"
	"time"

	"github.com/janelia-flyem/agstore/agstore"
	"github.com/prometheus/client_golang/prometheus"
)

// Rates are the store traffic of the last full second.
type Rates struct {
	BytesReadPerSec    int
	BytesWrittenPerSec int
	GetsPerSec         int
	PutsPerSec         int
}

// MonitoredStore counts the snapshot traffic of a store.  Totals go to
// Prometheus counters and per-second tallies are kept for Rates.
type MonitoredStore struct {
	Store

	bytesRead    prometheus.Counter
	bytesWritten prometheus.Counter
	ops          *prometheus.CounterVec

	mu      sync.Mutex
	current Rates // tallies up to a second
	last    Rates

	stop     chan struct{}
	stopOnce sync.Once
}

// Monitor wraps s and starts the once-a-second tally.  The collectors are
// registered with reg unless it is nil.
func Monitor(s Store, reg prometheus.Registerer) *MonitoredStore {
	labels := prometheus.Labels{"store": s.String()}
	m := &MonitoredStore{
		Store: s,
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "agstore_store_read_bytes_total",
			Help:        "Snapshot bytes read from the store",
			ConstLabels: labels,
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "agstore_store_written_bytes_total",
			Help:        "Snapshot bytes written to the store",
			ConstLabels: labels,
		}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "agstore_store_operations_total",
			Help:        "Store operations by kind and status",
			ConstLabels: labels,
		}, []string{"op", "status"}),
		stop: make(chan struct{}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.bytesRead, m.bytesWritten, m.ops} {
			if err := reg.Register(c); err != nil {
				if _, dup := err.(prometheus.AlreadyRegisteredError); !dup {
					agstore.Warningf("Unable to register store metric: %v\n", err)
				}
			}
		}
	}
	go m.loop()
	return m
}

func (m *MonitoredStore) loop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.tick()
		case <-m.stop:
			return
		}
	}
}

// tick ends the current second.
func (m *MonitoredStore) tick() {
	m.mu.Lock()
	m.last = m.current
	m.current = Rates{}
	m.mu.Unlock()
}

// Rates returns the traffic of the last full second.
func (m *MonitoredStore) Rates() Rates {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *MonitoredStore) count(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ops.WithLabelValues(op, status).Inc()
}

func (m *MonitoredStore) PutSnapshot(ctx context.Context, graphID string, data []byte) error {
	err := m.Store.PutSnapshot(ctx, graphID, data)
	m.count("put", err)
	if err != nil {
		return err
	}
	m.bytesWritten.Add(float64(len(data)))
	m.mu.Lock()
	m.current.BytesWrittenPerSec += len(data)
	m.current.PutsPerSec++
	m.mu.Unlock()
	return nil
}

func (m *MonitoredStore) GetSnapshot(ctx context.Context, graphID string) ([]byte, error) {
	data, err := m.Store.GetSnapshot(ctx, graphID)
	m.count("get", err)
	if err != nil {
		return nil, err
	}
	m.bytesRead.Add(float64(len(data)))
	m.mu.Lock()
	m.current.BytesReadPerSec += len(data)
	m.current.GetsPerSec++
	m.mu.Unlock()
	return data, nil
}

func (m *MonitoredStore) DeleteSnapshot(ctx context.Context, graphID string) error {
	err := m.Store.DeleteSnapshot(ctx, graphID)
	m.count("delete", err)
	return err
}

// Close stops the tally and closes the wrapped store.
func (m *MonitoredStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return m.Store.Close()
}
