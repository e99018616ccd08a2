package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/c360/camerakit/camera"
)

// Monitor tracks the health of multiple cameras. Cameras are polled on
// an interval by Watch, or pushed directly with Update; both paths are
// safe for concurrent use.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty fleet monitor.
func NewMonitor() *Monitor {
	return &Monitor{statuses: make(map[string]Status)}
}

// Update records a status under the camera's name.
func (m *Monitor) Update(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[status.Camera] = status
}

// Observe takes one health snapshot of a camera and records it.
func (m *Monitor) Observe(cam *camera.Camera) Status {
	status := FromCamera(cam)
	m.Update(status)
	return status
}

// Watch polls a camera on the given interval until ctx ends, recording
// each snapshot. It blocks; run it in its own goroutine. The camera is
// removed from the monitor when the watch ends.
func (m *Monitor) Watch(ctx context.Context, cam *camera.Camera, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	m.Observe(cam)
	defer m.Remove(cam.Name())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Observe(cam)
		}
	}
}

// Get returns the recorded status for one camera.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[name]
	return status, ok
}

// All returns the recorded statuses sorted by camera name.
func (m *Monitor) All() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]Status, 0, len(m.statuses))
	for _, status := range m.statuses {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Camera < statuses[j].Camera })
	return statuses
}

// Remove drops a camera from the fleet.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, name)
}

// Count returns the number of monitored cameras.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}

// Fleet returns the aggregate status of every monitored camera.
func (m *Monitor) Fleet(name string) Status {
	return Aggregate(name, m.All())
}

// fleetReport is the wire form served by Handler.
type fleetReport struct {
	Fleet   Status   `json:"fleet"`
	Cameras []Status `json:"cameras"`
}

// Handler serves the fleet report as JSON. The HTTP status follows the
// aggregate: 200 while healthy or degraded, 503 when unhealthy, so the
// endpoint drops straight into liveness probes.
func (m *Monitor) Handler(fleetName string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		report := fleetReport{
			Fleet:   m.Fleet(fleetName),
			Cameras: m.All(),
		}

		w.Header().Set("Content-Type", "application/json")
		if report.Fleet.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(report)
	})
}
