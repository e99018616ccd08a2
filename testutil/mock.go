// Package testutil provides test doubles and fixtures shared by the
// camerakit test suites. Nothing here touches real hardware.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
)

// MockDriver is a scriptable camera.Driver for testing. Every method
// can be overridden through its corresponding func field; unset fields
// fall back to a well-behaved default, so tests only script what they
// assert on.
type MockDriver struct {
	mu sync.Mutex

	// Overrides
	OpenFunc        func(ctx context.Context, params *config.CameraParameters) error
	CloseFunc       func() error
	ReadFrameFunc   func(ctx context.Context) (camera.Frame, error)
	SetPropertyFunc func(p camera.Property) error
	GetPropertyFunc func(kind camera.PropertyKind) (camera.Property, error)

	// DriverKind is reported by Kind. Defaults to "simulated".
	DriverKind camera.Kind

	// Ranges is the property table reported by Properties.
	Ranges map[camera.PropertyKind]camera.Range

	// Applied holds the last value accepted per property kind.
	Applied map[camera.PropertyKind]camera.Property

	// Call counts for verification
	OpenCalls        int
	CloseCalls       int
	ReadFrameCalls   int
	SetPropertyCalls int
	GetPropertyCalls int

	// OpenParams records the parameters passed to the last Open.
	OpenParams *config.CameraParameters

	frameSeq int
}

// NewMockDriver creates a mock driver with a small default property
// table and a frame generator that produces 4x4 gray frames forever.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		DriverKind: camera.KindSimulated,
		Ranges: map[camera.PropertyKind]camera.Range{
			camera.PropBrightness: {Min: 0, Max: 100, Default: 50, SupportsAuto: true},
			camera.PropGain:       {Min: 0, Max: 24, Default: 0},
			camera.PropShutter:    {Min: 1, Max: 4000, Default: 60, Clamps: true},
		},
		Applied: make(map[camera.PropertyKind]camera.Property),
	}
}

// Kind returns the configured backend kind.
func (m *MockDriver) Kind() camera.Kind {
	if m.DriverKind == "" {
		return camera.KindSimulated
	}
	return m.DriverKind
}

// Open records the call and delegates to OpenFunc when set.
func (m *MockDriver) Open(ctx context.Context, params *config.CameraParameters) error {
	m.mu.Lock()
	m.OpenCalls++
	m.OpenParams = params
	fn := m.OpenFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, params)
	}
	return nil
}

// Close records the call and delegates to CloseFunc when set.
func (m *MockDriver) Close() error {
	m.mu.Lock()
	m.CloseCalls++
	fn := m.CloseFunc
	m.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// ReadFrame records the call and delegates to ReadFrameFunc when set,
// otherwise generates a gray test frame.
func (m *MockDriver) ReadFrame(ctx context.Context) (camera.Frame, error) {
	m.mu.Lock()
	m.ReadFrameCalls++
	m.frameSeq++
	seq := m.frameSeq
	fn := m.ReadFrameFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}

	// Pace the default generator so an acquisition loop over it does not
	// spin hot.
	select {
	case <-ctx.Done():
		return camera.Frame{}, ctx.Err()
	case <-time.After(time.Millisecond):
	}
	return GrayFrame(4, 4, byte(seq%256)), nil
}

// Properties returns the configured property table.
func (m *MockDriver) Properties() map[camera.PropertyKind]camera.Range {
	return m.Ranges
}

// SetProperty records the applied value and delegates to
// SetPropertyFunc when set.
func (m *MockDriver) SetProperty(p camera.Property) error {
	m.mu.Lock()
	m.SetPropertyCalls++
	fn := m.SetPropertyFunc
	m.mu.Unlock()

	if fn != nil {
		if err := fn(p); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.Applied[p.Kind] = p
	m.mu.Unlock()
	return nil
}

// GetProperty returns the last applied value, falling back to the
// range default, unless GetPropertyFunc overrides it.
func (m *MockDriver) GetProperty(kind camera.PropertyKind) (camera.Property, error) {
	m.mu.Lock()
	m.GetPropertyCalls++
	fn := m.GetPropertyFunc
	applied, ok := m.Applied[kind]
	rng := m.Ranges[kind]
	m.mu.Unlock()

	if fn != nil {
		return fn(kind)
	}
	if ok {
		return applied, nil
	}
	return camera.Property{Kind: kind, Value: rng.Default, Auto: rng.DefaultAuto}, nil
}

// ReadFrameCount returns the number of ReadFrame calls so far. Tests
// poll it to know how far an acquisition loop has advanced.
func (m *MockDriver) ReadFrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ReadFrameCalls
}

// AppliedValue returns the last value accepted for a property kind.
func (m *MockDriver) AppliedValue(kind camera.PropertyKind) (camera.Property, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Applied[kind]
	return p, ok
}
