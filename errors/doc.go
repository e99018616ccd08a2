// Package errors provides standardized error handling for camerakit backends.
//
// # Overview
//
// Every fallible camera operation reports a specific failure Kind rather than
// a generic failure: configuration problems, bad camera indices, lifecycle
// violations, unavailable devices, unsupported properties, out-of-range
// values, device faults, timeouts, and persistence failures. The unifying
// layer never downgrades a backend error to success, and callers never need
// to match error strings to pick a recovery strategy.
//
// # Error Kinds
//
//   - KindConfig: missing or malformed configuration source (do not retry)
//   - KindIndex: no camera entry at the requested index (do not retry)
//   - KindLifecycle: operation invalid for the current state (caller bug)
//   - KindUnavailable: device/resource acquisition failed (retry Open later)
//   - KindUnsupportedProperty: backend has no such property
//   - KindOutOfRange: property value outside the backend's valid range
//   - KindDevice: transport or hardware fault during an otherwise valid call
//   - KindTimeout: no frame or response within the configured timeout
//   - KindIO: parameter persistence failed
//
// # Quick Start
//
// Return standard variables for known conditions:
//
//	if !cam.IsOpen() {
//	    return errors.ErrNotOpen
//	}
//
// Wrap backend errors with call-site context:
//
//	if err := drv.Open(ctx, params); err != nil {
//	    return errors.WrapUnavailable(err, "Camera", "Open", "driver open")
//	}
//
// Branch on failure class:
//
//	frame, err := cam.GetFrame(ctx, false)
//	switch {
//	case errors.IsTimeout(err):
//	    // producer stalled, try again
//	case errors.IsDevice(err):
//	    // transport fault, close and re-open
//	}
//
// # Error Wrapping Pattern
//
// All wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// The Wrap family applies this pattern while carrying the Kind through the
// chain, so classification survives any number of wraps. errors.Is and
// errors.As from the standard library work on every error this package
// produces.
//
// # Thread Safety
//
// Error variables are immutable and safe for concurrent use. CameraError
// values are safe to share across goroutines after creation.
package errors
