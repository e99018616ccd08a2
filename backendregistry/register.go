// Package backendregistry registers the in-tree camera backends.
// Vendor SDK drivers (Imaging Source, AVT Pike, IDS uEye, OS video
// capture) need cgo bindings to their SDKs and are registered from
// separate modules against the same registry.
package backendregistry

import (
	stderrors "errors"

	"github.com/c360/camerakit/backend/axis"
	"github.com/c360/camerakit/backend/replay"
	"github.com/c360/camerakit/backend/sim"
	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/errors"
)

// Register adds every in-tree backend to the provided registry:
//
//   - virtual: file-replay from an image directory
//   - simulated: deterministic synthetic frames, no hardware
//   - axis: Axis IP cameras over HTTP
func Register(registry *camera.Registry) error {
	if registry == nil {
		return errors.WrapConfig(
			stderrors.New("registry cannot be nil"),
			"BackendRegistry", "Register", "registry validation")
	}

	if err := replay.Register(registry); err != nil {
		return errors.Wrap(err, "BackendRegistry", "Register", "replay backend registration")
	}
	if err := sim.Register(registry); err != nil {
		return errors.Wrap(err, "BackendRegistry", "Register", "simulated backend registration")
	}
	if err := axis.Register(registry); err != nil {
		return errors.Wrap(err, "BackendRegistry", "Register", "axis backend registration")
	}
	return nil
}

// RegisterDefault adds the in-tree backends to the process-wide default
// registry used by camera.New and the per-backend constructors.
func RegisterDefault() error {
	return Register(camera.DefaultRegistry())
}
