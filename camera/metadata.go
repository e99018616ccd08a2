package camera

import "time"

// Metadata describes a camera instance for registries and dashboards.
type Metadata struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Kind Kind   `json:"kind"`
}

// Meta returns the instance metadata.
func (c *Camera) Meta() Metadata {
	return Metadata{Name: c.name, ID: c.id, Kind: c.driver.Kind()}
}

// HealthStatus is a point-in-time health snapshot.
type HealthStatus struct {
	Healthy         bool          `json:"healthy"`
	State           string        `json:"state"`
	FramesDelivered int64         `json:"frames_delivered"`
	DroppedFrames   uint64        `json:"dropped_frames"`
	DeviceFaults    int64         `json:"device_faults"`
	Uptime          time.Duration `json:"uptime"`
	LastCheck       time.Time     `json:"last_check"`
}

// Health reports the instance's current health. A camera is healthy when
// it is open and has recorded no device faults since Open.
func (c *Camera) Health() HealthStatus {
	c.mu.Lock()
	state := c.state
	openedAt := c.openedAt
	c.mu.Unlock()

	var uptime time.Duration
	if state == StateOpen && !openedAt.IsZero() {
		uptime = time.Since(openedAt)
	}

	faults := c.faults.Load()
	return HealthStatus{
		Healthy:         state == StateOpen && faults == 0,
		State:           state.String(),
		FramesDelivered: c.framesDelivered.Load(),
		DroppedFrames:   c.droppedTotal.Load(),
		DeviceFaults:    faults,
		Uptime:          uptime,
		LastCheck:       time.Now(),
	}
}
