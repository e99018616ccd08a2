// Package metric manages Prometheus metric registration for camera
// instances and their frame rings. Each camera registers its metrics under
// its own name so one process can expose many cameras side by side.
package metric

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/camerakit/errors"
)

// Registry manages the registration and lifecycle of camera metrics.
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Core               *CoreMetrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewRegistry creates a metrics registry with core platform metrics and
// Go runtime collectors pre-registered.
func NewRegistry() *Registry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &Registry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.Core = NewCoreMetrics()
	registry.registerCore()

	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Handler returns an HTTP handler serving the registry in Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
}

func (r *Registry) registerCore() {
	r.prometheusRegistry.MustRegister(
		r.Core.CamerasOpen,
		r.Core.OpenFailures,
		r.Core.LifecycleTransitions,
	)
}

func (r *Registry) register(cameraName, metricName string, collector prometheus.Collector, op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", cameraName, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapConfig(
			fmt.Errorf("metric %s already registered for camera %s", metricName, cameraName),
			"Registry", op, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapConfig(err, "Registry", op,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapConfig(err, "Registry", op, "prometheus registration")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// RegisterCounter registers a counter metric for a camera.
func (r *Registry) RegisterCounter(cameraName, metricName string, counter prometheus.Counter) error {
	return r.register(cameraName, metricName, counter, "RegisterCounter")
}

// RegisterGauge registers a gauge metric for a camera.
func (r *Registry) RegisterGauge(cameraName, metricName string, gauge prometheus.Gauge) error {
	return r.register(cameraName, metricName, gauge, "RegisterGauge")
}

// RegisterHistogram registers a histogram metric for a camera.
func (r *Registry) RegisterHistogram(cameraName, metricName string, histogram prometheus.Histogram) error {
	return r.register(cameraName, metricName, histogram, "RegisterHistogram")
}

// Unregister removes a camera metric. It reports whether the metric was
// registered.
func (r *Registry) Unregister(cameraName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", cameraName, metricName)
	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	r.prometheusRegistry.Unregister(collector)
	delete(r.registeredMetrics, key)
	return true
}

// UnregisterCamera removes every metric registered under a camera name.
// Close paths use this so a re-opened camera can register cleanly.
func (r *Registry) UnregisterCamera(cameraName string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefix := cameraName + "."
	removed := 0
	for key, collector := range r.registeredMetrics {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			r.prometheusRegistry.Unregister(collector)
			delete(r.registeredMetrics, key)
			removed++
		}
	}
	return removed
}

// CoreMetrics contains platform-level metrics shared by all cameras.
type CoreMetrics struct {
	CamerasOpen          prometheus.Gauge
	OpenFailures         prometheus.Counter
	LifecycleTransitions *prometheus.CounterVec
}

// NewCoreMetrics creates the platform-level metric set.
func NewCoreMetrics() *CoreMetrics {
	return &CoreMetrics{
		CamerasOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "camerakit",
			Subsystem: "platform",
			Name:      "cameras_open",
			Help:      "Number of camera instances currently open",
		}),
		OpenFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "camerakit",
			Subsystem: "platform",
			Name:      "open_failures_total",
			Help:      "Total failed Open attempts across all cameras",
		}),
		LifecycleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camerakit",
			Subsystem: "platform",
			Name:      "lifecycle_transitions_total",
			Help:      "Lifecycle transitions by camera and target state",
		}, []string{"camera", "state"}),
	}
}
