package camera

import (
	"sync/atomic"

	"github.com/c360/camerakit/errors"
)

// Handle is a reference-counted grip on a camera instance. Several
// consumers may share one physical device; the device is closed when the
// last handle is released, never before.
type Handle struct {
	cam  *Camera
	refs atomic.Int64
}

func newHandle(cam *Camera) *Handle {
	h := &Handle{cam: cam}
	h.refs.Store(1)
	return h
}

// Camera returns the underlying instance, or nil if every reference has
// been released.
func (h *Handle) Camera() *Camera {
	if h.refs.Load() <= 0 {
		return nil
	}
	return h.cam
}

// Retain adds a reference. It fails once the last reference is gone; a
// released handle cannot be revived.
func (h *Handle) Retain() error {
	for {
		n := h.refs.Load()
		if n <= 0 {
			return errors.WrapLifecycle(errors.ErrReleased, "Handle", "Retain", "reference check")
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Refs returns the current reference count.
func (h *Handle) Refs() int64 {
	n := h.refs.Load()
	if n < 0 {
		return 0
	}
	return n
}

// Release drops one reference. The camera is closed when the count
// reaches zero; releasing past zero is a lifecycle error.
func (h *Handle) Release() error {
	n := h.refs.Add(-1)
	switch {
	case n > 0:
		return nil
	case n == 0:
		return h.cam.Close()
	default:
		h.refs.Add(1)
		return errors.WrapLifecycle(errors.ErrReleased, "Handle", "Release", "reference check")
	}
}
