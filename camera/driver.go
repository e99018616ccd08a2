package camera

import (
	"context"

	"github.com/c360/camerakit/config"
)

// Driver is the contract a concrete backend implements. The Camera
// wrapping it enforces every cross-backend guarantee (lifecycle ordering,
// property validation, frame buffering and delivery semantics); drivers
// only talk to their device.
//
// A driver is used by one Camera at a time. Open and Close are always
// paired by the Camera, Close is never called twice without an
// intervening Open, and ReadFrame is only called between the two.
type Driver interface {
	// Kind identifies the backend.
	Kind() Kind

	// Open allocates device resources using the resolved parameters.
	// On failure the driver must hold no resources.
	Open(ctx context.Context, params *config.CameraParameters) error

	// Close releases device resources. It must succeed in releasing even
	// after a failed operation, and must unblock a concurrent ReadFrame.
	Close() error

	// ReadFrame blocks until the device captures the next frame, at the
	// device's native pace, and returns it in a freshly allocated buffer.
	// The returned error is terminal for the acquisition: a driver that
	// can recover internally must do so before returning.
	ReadFrame(ctx context.Context) (Frame, error)

	// Properties returns the supported property kinds with their ranges
	// and factory defaults. The result must be constant while open.
	Properties() map[PropertyKind]Range

	// SetProperty applies one validated property to the device. The
	// Camera only passes kinds present in Properties with in-range
	// (or pre-clamped) values, so any failure here is a device fault.
	SetProperty(p Property) error

	// GetProperty reads one property's live value from the device.
	GetProperty(kind PropertyKind) (Property, error)
}

// ImageSource is implemented by replay-style drivers with a finite,
// addressable image set. Backends without it report UnboundedImages and
// treat the path operations as harmless no-ops.
type ImageSource interface {
	// NumberOfImages returns the number of images available.
	NumberOfImages() int

	// SetPathToImages points the driver at a new image directory.
	SetPathToImages(path string) error

	// ResetImages rewinds playback to the first image.
	ResetImages() error
}

// ParameterPersister is implemented by drivers that round-trip live
// device state into the camera parameters on Close, so a later
// SaveParameters captures what the device actually settled on.
type ParameterPersister interface {
	// PersistParameters updates params in place with device state worth
	// keeping across sessions.
	PersistParameters(params *config.CameraParameters) error
}
