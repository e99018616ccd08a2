// Package events publishes camera lifecycle and acquisition events for
// live monitoring. Events are always logged through slog; when a NATS
// connection is supplied they are additionally published to
// camera.events.<name> so dashboards can follow a fleet of cameras
// without polling.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Type identifies what happened to a camera.
type Type string

const (
	// TypeState is a lifecycle state transition.
	TypeState Type = "state"
	// TypeFrameDrop reports unread frames lost to buffer overflow.
	TypeFrameDrop Type = "frame_drop"
	// TypeDeviceFault reports a transport or hardware fault.
	TypeDeviceFault Type = "device_fault"
	// TypeProperty reports a runtime property change.
	TypeProperty Type = "property"
)

// Event is the wire form published to NATS.
type Event struct {
	Timestamp string `json:"timestamp"` // RFC3339Nano
	Camera    string `json:"camera"`
	CameraID  string `json:"camera_id"`
	Type      Type   `json:"type"`
	State     string `json:"state,omitempty"`
	Property  string `json:"property,omitempty"`
	Message   string `json:"message,omitempty"`
	Drops     uint64 `json:"drops,omitempty"`
}

// Publisher emits events for one camera instance. The zero-value-like
// nil Publisher is safe: every method is a no-op on nil, so cameras can
// carry an optional publisher without guarding call sites.
type Publisher struct {
	camera   string
	cameraID string
	nc       *nats.Conn
	logger   *slog.Logger
	enabled  bool
}

// NewPublisher creates an event publisher. nc may be nil, which disables
// NATS publishing and keeps local logging only.
func NewPublisher(cameraName, cameraID string, nc *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		camera:   cameraName,
		cameraID: cameraID,
		nc:       nc,
		logger:   logger.With("camera", cameraName),
		enabled:  nc != nil,
	}
}

// StateChanged reports a lifecycle transition.
func (p *Publisher) StateChanged(from, to string) {
	if p == nil {
		return
	}
	p.logger.Info("lifecycle transition", "from", from, "to", to)
	p.publish(Event{Type: TypeState, State: to, Message: fmt.Sprintf("%s -> %s", from, to)})
}

// FrameDrop reports unread frames lost to overflow since the previous
// successful read.
func (p *Publisher) FrameDrop(count uint64) {
	if p == nil || count == 0 {
		return
	}
	p.logger.Warn("frames dropped", "count", count)
	p.publish(Event{Type: TypeFrameDrop, Drops: count})
}

// DeviceFault reports a transport or hardware fault.
func (p *Publisher) DeviceFault(err error) {
	if p == nil || err == nil {
		return
	}
	p.logger.Error("device fault", "error", err)
	p.publish(Event{Type: TypeDeviceFault, Message: err.Error()})
}

// PropertyChanged reports a runtime property change.
func (p *Publisher) PropertyChanged(property string, value float64, auto bool) {
	if p == nil {
		return
	}
	p.logger.Debug("property changed", "property", property, "value", value, "auto", auto)
	p.publish(Event{
		Type:     TypeProperty,
		Property: property,
		Message:  fmt.Sprintf("%s=%g auto=%t", property, value, auto),
	})
}

// Subject returns the NATS subject events for this camera are published to.
func (p *Publisher) Subject() string {
	return "camera.events." + p.camera
}

// publish sends an event to NATS, best effort. Publish failures are
// logged locally and never propagate to the camera's call path.
func (p *Publisher) publish(event Event) {
	if !p.enabled {
		return
	}

	event.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	event.Camera = p.camera
	event.CameraID = p.cameraID

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "error", err)
		return
	}

	nc := p.nc
	if nc == nil {
		return
	}
	if err := nc.Publish(p.Subject(), data); err != nil {
		p.logger.Error("failed to publish event", "error", err, "subject", p.Subject())
	}
}
