package framebuf

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/camerakit/metric"
)

// ringMetrics holds Prometheus metrics for ring operations.
type ringMetrics struct {
	pushes prometheus.Counter
	reads  prometheus.Counter
	drops  prometheus.Counter

	size        prometheus.Gauge
	utilization prometheus.Gauge
}

// newRingMetrics creates and registers ring metrics with the provided registry.
func newRingMetrics(registry *metric.Registry, prefix string) (*ringMetrics, error) {
	m := &ringMetrics{
		pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "camerakit",
			Subsystem:   "framebuf",
			Name:        "pushes_total",
			ConstLabels: prometheus.Labels{"camera": prefix},
			Help:        "Total frames pushed into the ring",
		}),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "camerakit",
			Subsystem:   "framebuf",
			Name:        "reads_total",
			ConstLabels: prometheus.Labels{"camera": prefix},
			Help:        "Total frames read from the ring",
		}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "camerakit",
			Subsystem:   "framebuf",
			Name:        "drops_total",
			ConstLabels: prometheus.Labels{"camera": prefix},
			Help:        "Total unread frames dropped by overflow",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "camerakit",
			Subsystem:   "framebuf",
			Name:        "size",
			ConstLabels: prometheus.Labels{"camera": prefix},
			Help:        "Current number of unread frames",
		}),
		utilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "camerakit",
			Subsystem:   "framebuf",
			Name:        "utilization_ratio",
			ConstLabels: prometheus.Labels{"camera": prefix},
			Help:        "Ring usage (0-1) showing consumer backpressure",
		}),
	}

	if err := registry.RegisterCounter(prefix, "framebuf_pushes", m.pushes); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "framebuf_reads", m.reads); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "framebuf_drops", m.drops); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "framebuf_size", m.size); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "framebuf_utilization", m.utilization); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *ringMetrics) recordPush(size, capacity int) {
	m.pushes.Inc()
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordRead(size, capacity int) {
	m.reads.Inc()
	m.updateSize(size, capacity)
}

func (m *ringMetrics) recordDrop() {
	m.drops.Inc()
}

func (m *ringMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	if capacity > 0 {
		m.utilization.Set(float64(size) / float64(capacity))
	}
}
