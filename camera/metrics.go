package camera

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/camerakit/metric"
)

// camMetrics holds the per-camera Prometheus instruments. They are
// registered when the device opens and removed when it closes so a
// reopened camera does not collide with its previous registration.
type camMetrics struct {
	framesCaptured  prometheus.Counter
	framesDelivered prometheus.Counter
	deviceFaults    prometheus.Counter
	captureInterval prometheus.Histogram
}

func newCamMetrics(registry *metric.Registry, name string) (*camMetrics, error) {
	m := &camMetrics{
		framesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "camerakit",
			Subsystem:   "camera",
			Name:        "frames_captured_total",
			Help:        "Frames read from the device by the acquisition loop",
			ConstLabels: prometheus.Labels{"camera": name},
		}),
		framesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "camerakit",
			Subsystem:   "camera",
			Name:        "frames_delivered_total",
			Help:        "Frames handed to consumers through GetFrame",
			ConstLabels: prometheus.Labels{"camera": name},
		}),
		deviceFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "camerakit",
			Subsystem:   "camera",
			Name:        "device_faults_total",
			Help:        "Terminal device faults observed during acquisition",
			ConstLabels: prometheus.Labels{"camera": name},
		}),
		captureInterval: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "camerakit",
			Subsystem:   "camera",
			Name:        "capture_interval_seconds",
			Help:        "Time between consecutive frame captures",
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 14),
			ConstLabels: prometheus.Labels{"camera": name},
		}),
	}

	if err := registry.RegisterCounter(name, "frames_captured_total", m.framesCaptured); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "frames_delivered_total", m.framesDelivered); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(name, "device_faults_total", m.deviceFaults); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(name, "capture_interval_seconds", m.captureInterval); err != nil {
		return nil, err
	}
	return m, nil
}
