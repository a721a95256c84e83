package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one engine instance
type Metrics struct {
	// Tab metrics
	TabsOpen    prometheus.Gauge
	TabSwitches prometheus.Counter

	// Load metrics
	FileLoads    *prometheus.CounterVec
	StaleLoads   prometheus.Counter
	LoadDuration *prometheus.HistogramVec

	// Tree metrics
	TreeRefreshes prometheus.Counter
	FSErrors      *prometheus.CounterVec

	// Persistence metrics
	PersistWrites *prometheus.CounterVec

	// Snapshot for the command-line stats view
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current values for human-readable output
type Snapshot struct {
	TabsOpen      int
	Loads         int64
	StaleLoads    int64
	PersistErrors int64
}

// NewMetrics registers engine metrics on reg. Each instance needs its own
// registry, e.g. prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TabsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "flick_tabs_open",
				Help: "Number of open tabs",
			},
		),
		TabSwitches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "flick_tab_switches_total",
				Help: "Flush-then-load handovers performed",
			},
		),
		FileLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flick_file_loads_total",
				Help: "File loads by mode (sync, async) and result",
			},
			[]string{"mode", "result"},
		),
		StaleLoads: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "flick_stale_loads_total",
				Help: "Async load completions discarded because a newer request superseded them",
			},
		),
		LoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flick_load_duration_seconds",
				Help:    "File read duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"mode"},
		),
		TreeRefreshes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "flick_tree_refreshes_total",
				Help: "Tree node refreshes",
			},
		),
		FSErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flick_fs_errors_total",
				Help: "Filesystem errors surfaced to the user, by operation",
			},
			[]string{"op"},
		),
		PersistWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flick_persist_writes_total",
				Help: "Session record writes by record and result",
			},
			[]string{"record", "result"},
		),
	}
}

// SetTabsOpen sets the number of open tabs
func (m *Metrics) SetTabsOpen(count int) {
	m.TabsOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.TabsOpen = count
	m.mu.Unlock()
}

// IncTabSwitches counts one flush-then-load handover
func (m *Metrics) IncTabSwitches() {
	m.TabSwitches.Inc()
}

// RecordLoad records a file read
func (m *Metrics) RecordLoad(mode, result string, duration time.Duration) {
	m.FileLoads.WithLabelValues(mode, result).Inc()
	m.LoadDuration.WithLabelValues(mode).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Loads++
	m.mu.Unlock()
}

// IncStaleLoads counts a discarded async completion
func (m *Metrics) IncStaleLoads() {
	m.StaleLoads.Inc()
	m.mu.Lock()
	m.snapshot.StaleLoads++
	m.mu.Unlock()
}

// IncTreeRefreshes counts a tree refresh
func (m *Metrics) IncTreeRefreshes() {
	m.TreeRefreshes.Inc()
}

// RecordFSError counts a filesystem error for op
func (m *Metrics) RecordFSError(op string) {
	m.FSErrors.WithLabelValues(op).Inc()
}

// RecordPersist records a record write
func (m *Metrics) RecordPersist(record string, err error) {
	result := "success"
	if err != nil {
		result = "error"
		m.mu.Lock()
		m.snapshot.PersistErrors++
		m.mu.Unlock()
	}
	m.PersistWrites.WithLabelValues(record, result).Inc()
}

// Snapshot returns current values
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
