package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DefaultNamespace prefixes every metric name unless configured otherwise
const DefaultNamespace = "timedata"

// Registry manages Prometheus metric registration
type Registry struct {
	registry *prometheus.Registry
	metrics  *TimeDataMetrics
}

// NewRegistry creates a registry using the default namespace and no subsystem
func NewRegistry() *Registry {
	return NewRegistryWithConfig(DefaultNamespace, "")
}

// NewRegistryWithConfig creates a registry with custom namespace and subsystem
func NewRegistryWithConfig(namespace, subsystem string) *Registry {
	return &Registry{
		registry: prometheus.NewRegistry(),
		metrics:  NewTimeDataMetricsWithConfig(namespace, subsystem),
	}
}

// Register registers the timedata metrics plus Go runtime and process collectors
func (r *Registry) Register() error {
	if err := r.registry.Register(r.metrics); err != nil {
		return err
	}

	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return nil
}

// GetRegistry returns the underlying Prometheus registry
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// GetMetrics returns the timedata metrics instance
func (r *Registry) GetMetrics() *TimeDataMetrics {
	return r.metrics
}

// MustRegister registers all metrics and panics on error
func (r *Registry) MustRegister() {
	if err := r.Register(); err != nil {
		panic(err)
	}
}
