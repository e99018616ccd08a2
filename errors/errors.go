// Package errors provides the error taxonomy shared by every camera backend.
// It defines one Kind per failure class, standard error variables for common
// conditions, and helper functions for consistent error wrapping so callers
// can branch on failure class instead of matching error strings.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a camera error so callers can decide how to react
// without knowing which backend produced it.
type Kind int

const (
	// KindConfig indicates a missing or malformed configuration source.
	KindConfig Kind = iota
	// KindIndex indicates no camera entry exists at the requested index.
	KindIndex
	// KindLifecycle indicates an operation invalid for the current state.
	KindLifecycle
	// KindUnavailable indicates device or resource acquisition failed.
	KindUnavailable
	// KindUnsupportedProperty indicates the backend has no such property.
	KindUnsupportedProperty
	// KindOutOfRange indicates a property value outside the valid range.
	KindOutOfRange
	// KindDevice indicates a transport or hardware fault during a valid call.
	KindDevice
	// KindTimeout indicates no result arrived within the configured timeout.
	KindTimeout
	// KindIO indicates a persistence (read/write) failure.
	KindIO
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIndex:
		return "index"
	case KindLifecycle:
		return "lifecycle"
	case KindUnavailable:
		return "unavailable"
	case KindUnsupportedProperty:
		return "unsupported-property"
	case KindOutOfRange:
		return "out-of-range"
	case KindDevice:
		return "device"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Lifecycle errors
	ErrNotInitialized = errors.New("camera not initialized")
	ErrNotOpen        = errors.New("camera not open")
	ErrAlreadyOpen    = errors.New("camera already open")
	ErrReleased       = errors.New("camera handle released")

	// Configuration errors
	ErrMissingConfig  = errors.New("missing configuration source")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrNoSuchCamera   = errors.New("no camera at requested index")
	ErrUnknownBackend = errors.New("unknown camera backend")

	// Property errors
	ErrUnsupportedProperty = errors.New("property not supported by backend")
	ErrOutOfRange          = errors.New("property value out of range")

	// Device and acquisition errors
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrDeviceFault       = errors.New("device fault")
	ErrNoFrames          = errors.New("no frames available")
	ErrFrameTimeout      = errors.New("frame acquisition timeout")

	// Persistence errors
	ErrWriteFailed = errors.New("parameter write failed")
)

// CameraError attaches a failure Kind and call-site context to an error.
type CameraError struct {
	Kind      Kind
	Err       error
	Component string
	Operation string
}

// Error implements the error interface.
func (ce *CameraError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying error.
func (ce *CameraError) Unwrap() error {
	return ce.Err
}

// KindOf returns the Kind of an error, searching the wrap chain.
// Unclassified errors map to KindDevice: a backend fault is the only
// failure class the unifying layer can assume without more context.
func KindOf(err error) Kind {
	var ce *CameraError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	switch {
	case errors.Is(err, ErrNotInitialized),
		errors.Is(err, ErrNotOpen),
		errors.Is(err, ErrAlreadyOpen),
		errors.Is(err, ErrReleased):
		return KindLifecycle
	case errors.Is(err, ErrMissingConfig),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnknownBackend):
		return KindConfig
	case errors.Is(err, ErrNoSuchCamera):
		return KindIndex
	case errors.Is(err, ErrUnsupportedProperty):
		return KindUnsupportedProperty
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	case errors.Is(err, ErrDeviceUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrFrameTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrWriteFailed):
		return KindIO
	}
	return KindDevice
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// IsLifecycle reports whether err is a lifecycle violation.
func IsLifecycle(err error) bool { return Is(err, KindLifecycle) }

// IsConfig reports whether err is a configuration failure.
func IsConfig(err error) bool { return Is(err, KindConfig) }

// IsIndex reports whether err is a bad-index failure.
func IsIndex(err error) bool { return Is(err, KindIndex) }

// IsUnavailable reports whether err is a resource acquisition failure.
func IsUnavailable(err error) bool { return Is(err, KindUnavailable) }

// IsUnsupportedProperty reports whether err is an unsupported-property failure.
func IsUnsupportedProperty(err error) bool { return Is(err, KindUnsupportedProperty) }

// IsOutOfRange reports whether err is an out-of-range failure.
func IsOutOfRange(err error) bool { return Is(err, KindOutOfRange) }

// IsDevice reports whether err is a transport or hardware fault.
func IsDevice(err error) bool { return Is(err, KindDevice) }

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool { return Is(err, KindTimeout) }

// IsIO reports whether err is a persistence failure.
func IsIO(err error) bool { return Is(err, KindIO) }

// newClassified creates a new classified error.
// This is an internal helper - use the WrapX functions instead.
func newClassified(kind Kind, err error, component, operation string) *CameraError {
	return &CameraError{
		Kind:      kind,
		Err:       err,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w". The original error's Kind is
// preserved through the chain.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
	return newClassified(KindOf(err), wrapped, component, method)
}

// WrapKind wraps an error with context and an explicit Kind.
func WrapKind(kind Kind, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
	return newClassified(kind, wrapped, component, method)
}

// WrapConfig wraps an error as a configuration failure with context.
func WrapConfig(err error, component, method, action string) error {
	return WrapKind(KindConfig, err, component, method, action)
}

// WrapIndex wraps an error as a bad-index failure with context.
func WrapIndex(err error, component, method, action string) error {
	return WrapKind(KindIndex, err, component, method, action)
}

// WrapLifecycle wraps an error as a lifecycle violation with context.
func WrapLifecycle(err error, component, method, action string) error {
	return WrapKind(KindLifecycle, err, component, method, action)
}

// WrapUnavailable wraps an error as a resource acquisition failure with context.
func WrapUnavailable(err error, component, method, action string) error {
	return WrapKind(KindUnavailable, err, component, method, action)
}

// WrapDevice wraps an error as a device fault with context.
func WrapDevice(err error, component, method, action string) error {
	return WrapKind(KindDevice, err, component, method, action)
}

// WrapTimeout wraps an error as a timeout with context.
func WrapTimeout(err error, component, method, action string) error {
	return WrapKind(KindTimeout, err, component, method, action)
}

// WrapIO wraps an error as a persistence failure with context.
func WrapIO(err error, component, method, action string) error {
	return WrapKind(KindIO, err, component, method, action)
}
