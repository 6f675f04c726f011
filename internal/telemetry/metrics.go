package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the build metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "densky").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for build and phase durations.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the build metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "densky",
		// Builds take milliseconds, not seconds.
		Buckets:  []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Metrics records what the build pipeline does. A nil *Metrics records
// nothing.
type Metrics struct {
	buildsTotal      *prometheus.CounterVec
	buildDuration    prometheus.Histogram
	phaseDuration    *prometheus.HistogramVec
	routesDiscovered prometheus.Gauge
	treeNodes        prometheus.Gauge
	artifactsWritten prometheus.Counter
	nodeErrors       *prometheus.CounterVec
	duplicateRoutes  prometheus.Gauge
	reloadClients    prometheus.Gauge
}

// NewMetrics registers the build metrics:
//   - densky_builds_total: builds by status (success, partial, failure)
//   - densky_build_duration_seconds: whole build duration
//   - densky_phase_duration_seconds: duration by pipeline phase
//   - densky_routes_discovered: route files found by the last build
//   - densky_tree_nodes: nodes in the last tree
//   - densky_artifacts_written_total: dispatchers written
//   - densky_node_errors_total: failed nodes by error code
//   - densky_duplicate_routes: conflicts reported by the last build
//   - densky_reload_clients: connected dev mode reload clients
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	counter := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	gauge := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	histogram := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}
	}

	return &Metrics{
		buildsTotal:      factory.NewCounterVec(counter("builds_total", "Total number of builds by status"), []string{"status"}),
		buildDuration:    factory.NewHistogram(histogram("build_duration_seconds", "Build duration in seconds")),
		phaseDuration:    factory.NewHistogramVec(histogram("phase_duration_seconds", "Build phase duration in seconds"), []string{"phase"}),
		routesDiscovered: factory.NewGauge(gauge("routes_discovered", "Route files found by the last build")),
		treeNodes:        factory.NewGauge(gauge("tree_nodes", "Nodes in the last routing tree")),
		artifactsWritten: factory.NewCounter(counter("artifacts_written_total", "Total number of dispatchers written")),
		nodeErrors:       factory.NewCounterVec(counter("node_errors_total", "Total number of nodes that failed to generate"), []string{"code"}),
		duplicateRoutes:  factory.NewGauge(gauge("duplicate_routes", "Route conflicts reported by the last build")),
		reloadClients:    factory.NewGauge(gauge("reload_clients", "Connected dev mode reload clients")),
	}
}

// ObserveBuild records a finished build.
func (m *Metrics) ObserveBuild(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(status).Inc()
	m.buildDuration.Observe(d.Seconds())
}

// ObservePhase records the duration of one pipeline phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// SetTree records the size of the last tree.
func (m *Metrics) SetTree(routes, nodes int) {
	if m == nil {
		return
	}
	m.routesDiscovered.Set(float64(routes))
	m.treeNodes.Set(float64(nodes))
}

// AddArtifacts records n written dispatchers.
func (m *Metrics) AddArtifacts(n int) {
	if m == nil {
		return
	}
	m.artifactsWritten.Add(float64(n))
}

// NodeError records a node that failed with code.
func (m *Metrics) NodeError(code string) {
	if m == nil {
		return
	}
	if code == "" {
		code = "unknown"
	}
	m.nodeErrors.WithLabelValues(code).Inc()
}

// SetDuplicates records the conflicts of the last build.
func (m *Metrics) SetDuplicates(n int) {
	if m == nil {
		return
	}
	m.duplicateRoutes.Set(float64(n))
}

// SetReloadClients records the connected reload clients.
func (m *Metrics) SetReloadClients(n int) {
	if m == nil {
		return
	}
	m.reloadClients.Set(float64(n))
}
