// Package observability holds Prometheus collectors for the runtime services
// (pathfinding and chunk streaming) and the HTTP handler exposing them.
package observability

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search results used as label values of osmworld_path_searches_total.
const (
	SearchFound    = "found"
	SearchNotFound = "not_found"
	SearchNotReady = "not_ready"
)

// PathfinderMetrics bundles metrics of the road graph and path searches.
type PathfinderMetrics struct {
	SearchDuration prometheus.Histogram
	Searches       *prometheus.CounterVec
	GraphNodes     prometheus.Gauge
	GraphEdges     prometheus.Gauge
}

// NewPathfinderMetrics registers pathfinder metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewPathfinderMetrics(reg prometheus.Registerer) (*PathfinderMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "osmworld_path_search_duration_seconds",
		Help:    "A* path search latency in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "osmworld_path_search_duration_seconds")
	if err != nil {
		return nil, err
	}
	searches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "osmworld_path_searches_total",
		Help: "Total number of path searches, labeled by result.",
	}, []string{"result"}), "osmworld_path_searches_total")
	if err != nil {
		return nil, err
	}
	nodes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "osmworld_graph_nodes",
		Help: "Current number of nodes in the road graph.",
	}), "osmworld_graph_nodes")
	if err != nil {
		return nil, err
	}
	edges, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "osmworld_graph_edges",
		Help: "Current number of directed edges in the road graph.",
	}), "osmworld_graph_edges")
	if err != nil {
		return nil, err
	}
	return &PathfinderMetrics{
		SearchDuration: duration,
		Searches:       searches,
		GraphNodes:     nodes,
		GraphEdges:     edges,
	}, nil
}

// ObserveSearch records a single search. Safe to call on nil receiver.
func (m *PathfinderMetrics) ObserveSearch(result string, seconds float64) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(result).Inc()
	if result != SearchNotReady {
		m.SearchDuration.Observe(seconds)
	}
}

// SetGraphSize updates graph gauges. Safe to call on nil receiver.
func (m *PathfinderMetrics) SetGraphSize(nodes, edges int) {
	if m == nil {
		return
	}
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

// ChunkMetrics bundles metrics of chunk streaming.
type ChunkMetrics struct {
	Loaded  prometheus.Gauge
	Loads   prometheus.Counter
	Unloads prometheus.Counter
	Errors  prometheus.Counter
}

// NewChunkMetrics registers chunk metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewChunkMetrics(reg prometheus.Registerer) (*ChunkMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	loaded, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "osmworld_chunks_loaded",
		Help: "Current number of loaded chunks.",
	}), "osmworld_chunks_loaded")
	if err != nil {
		return nil, err
	}
	loads, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "osmworld_chunk_loads_total",
		Help: "Total number of chunk loads.",
	}), "osmworld_chunk_loads_total")
	if err != nil {
		return nil, err
	}
	unloads, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "osmworld_chunk_unloads_total",
		Help: "Total number of chunk unloads.",
	}), "osmworld_chunk_unloads_total")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "osmworld_chunk_load_errors_total",
		Help: "Total number of chunk loads rejected by the renderer.",
	}), "osmworld_chunk_load_errors_total")
	if err != nil {
		return nil, err
	}
	return &ChunkMetrics{
		Loaded:  loaded,
		Loads:   loads,
		Unloads: unloads,
		Errors:  failures,
	}, nil
}

// ChunkLoaded records successful load. Safe to call on nil receiver.
func (m *ChunkMetrics) ChunkLoaded() {
	if m == nil {
		return
	}
	m.Loads.Inc()
	m.Loaded.Inc()
}

// ChunkUnloaded records unload. Safe to call on nil receiver.
func (m *ChunkMetrics) ChunkUnloaded() {
	if m == nil {
		return
	}
	m.Unloads.Inc()
	m.Loaded.Dec()
}

// ChunkFailed records load rejected by the renderer. Safe to call on nil receiver.
func (m *ChunkMetrics) ChunkFailed() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}

// Handler exposes a ready-to-use /metrics handler for the given gatherer,
// defaulting to the global Prometheus registry when nil.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
