// Package health aggregates the health of a camera fleet. Each camera
// reports a point-in-time status; the monitor tracks them by name,
// derives a three-state level from acquisition behavior, and serves the
// aggregate over HTTP for probes and dashboards.
package health

import (
	"time"

	"github.com/c360/camerakit/camera"
)

// Level is a camera's health level.
type Level string

const (
	// LevelHealthy means the camera is open and delivering frames.
	LevelHealthy Level = "healthy"
	// LevelDegraded means the camera works but is losing frames to
	// overflow, so consumers see gaps.
	LevelDegraded Level = "degraded"
	// LevelUnhealthy means the camera is not open or has faulted.
	LevelUnhealthy Level = "unhealthy"
)

// Status is the health of one camera at one point in time.
type Status struct {
	Camera    string    `json:"camera"`
	Level     Level     `json:"level"`
	State     string    `json:"state"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Metrics   *Metrics  `json:"metrics,omitempty"`
}

// Metrics carries the acquisition counters behind a status.
type Metrics struct {
	FramesDelivered int64         `json:"frames_delivered"`
	DroppedFrames   uint64        `json:"dropped_frames"`
	DeviceFaults    int64         `json:"device_faults"`
	Uptime          time.Duration `json:"uptime"`
}

// IsHealthy reports whether the status level is healthy.
func (s Status) IsHealthy() bool { return s.Level == LevelHealthy }

// IsDegraded reports whether the status level is degraded.
func (s Status) IsDegraded() bool { return s.Level == LevelDegraded }

// IsUnhealthy reports whether the status level is unhealthy.
func (s Status) IsUnhealthy() bool { return s.Level == LevelUnhealthy }

// FromCamera derives a fleet status from a camera's own health
// snapshot. Device faults and a non-open state are unhealthy; frame
// loss on an otherwise working camera is degraded.
func FromCamera(cam *camera.Camera) Status {
	snapshot := cam.Health()

	status := Status{
		Camera:    cam.Name(),
		State:     snapshot.State,
		Timestamp: snapshot.LastCheck,
		Metrics: &Metrics{
			FramesDelivered: snapshot.FramesDelivered,
			DroppedFrames:   snapshot.DroppedFrames,
			DeviceFaults:    snapshot.DeviceFaults,
			Uptime:          snapshot.Uptime,
		},
	}

	switch {
	case snapshot.DeviceFaults > 0:
		status.Level = LevelUnhealthy
		status.Message = "device faulted during acquisition"
	case snapshot.State != camera.StateOpen.String():
		status.Level = LevelUnhealthy
		status.Message = "camera is " + snapshot.State
	case snapshot.DroppedFrames > 0:
		status.Level = LevelDegraded
		status.Message = "frames lost to buffer overflow"
	default:
		status.Level = LevelHealthy
	}

	return status
}

// Aggregate folds camera statuses into one fleet status: unhealthy if
// any camera is unhealthy, degraded if any is degraded, healthy
// otherwise. An empty fleet is unhealthy; a probe with nothing behind
// it must not pass.
func Aggregate(fleet string, statuses []Status) Status {
	level := LevelHealthy
	message := ""

	if len(statuses) == 0 {
		level = LevelUnhealthy
		message = "no cameras monitored"
	}

	for _, s := range statuses {
		switch {
		case s.IsUnhealthy():
			level = LevelUnhealthy
			message = s.Camera + ": " + s.Message
		case s.IsDegraded() && level == LevelHealthy:
			level = LevelDegraded
			message = s.Camera + ": " + s.Message
		}
		if level == LevelUnhealthy {
			break
		}
	}

	return Status{
		Camera:    fleet,
		Level:     level,
		State:     string(level),
		Message:   message,
		Timestamp: time.Now(),
	}
}
