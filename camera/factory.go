package camera

import (
	"fmt"
	"sort"
	"sync"

	"github.com/c360/camerakit/errors"
)

// Factory creates a Driver for one backend kind. Factories perform no
// hardware probing; I/O belongs in the driver's Open.
type Factory func() (Driver, error)

// Registry manages driver factories keyed by backend kind. In-tree
// backends register through the backendregistry package; vendor SDK
// drivers ship in separate modules and register themselves the same way.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// NewRegistry creates an empty driver registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Kind]Factory)}
}

// Register adds a factory for a backend kind. Registering a kind twice
// is a configuration error.
func (r *Registry) Register(kind Kind, factory Factory) error {
	if kind == "" {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Registry", "Register", "kind validation")
	}
	if factory == nil {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Registry", "Register", "factory validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[kind]; exists {
		return errors.WrapConfig(
			fmt.Errorf("backend %q is already registered", kind),
			"Registry", "Register", "duplicate backend check")
	}
	r.factories[kind] = factory
	return nil
}

// Lookup returns the factory for a backend kind.
func (r *Registry) Lookup(kind Kind) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[kind]
	return factory, ok
}

// Kinds returns the registered backend kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide driver registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a factory to the default registry.
func Register(kind Kind, factory Factory) error {
	return defaultRegistry.Register(kind, factory)
}

// New constructs a camera instance for an explicitly selected backend
// kind and returns a shared handle to it. The instance starts
// Uninitialized; drive it through Init and Open before acquiring frames.
func New(kind Kind, opts ...Option) (*Handle, error) {
	factory, ok := defaultRegistry.Lookup(kind)
	if !ok {
		return nil, errors.WrapConfig(
			fmt.Errorf("%w: %s", errors.ErrUnknownBackend, kind),
			"camera", "New", "backend lookup")
	}

	driver, err := factory()
	if err != nil {
		return nil, errors.WrapUnavailable(err, "camera", "New", "driver construction")
	}

	return NewFromDriver(driver, opts...), nil
}

// NewFromDriver wraps an already constructed driver. External driver
// modules and tests use this directly; everything else goes through New.
func NewFromDriver(driver Driver, opts ...Option) *Handle {
	return newHandle(newCamera(driver, opts...))
}

// NewVirtualCamera constructs a file-replay virtual camera.
func NewVirtualCamera(opts ...Option) (*Handle, error) { return New(KindVirtual, opts...) }

// NewSimulatedCamera constructs a synthetic frame generator.
func NewSimulatedCamera(opts ...Option) (*Handle, error) { return New(KindSimulated, opts...) }

// NewICCamera constructs an Imaging Source FireWire camera.
func NewICCamera(opts ...Option) (*Handle, error) { return New(KindIC, opts...) }

// NewAxisCamera constructs an Axis IP camera.
func NewAxisCamera(opts ...Option) (*Handle, error) { return New(KindAxis, opts...) }

// NewPikeCamera constructs an AVT Pike FireWire camera.
func NewPikeCamera(opts ...Option) (*Handle, error) { return New(KindPike, opts...) }

// NewVideoCaptureCamera constructs a generic OS video-capture camera.
func NewVideoCaptureCamera(opts ...Option) (*Handle, error) { return New(KindVideoCapture, opts...) }

// NewUEyeCamera constructs an IDS uEye USB camera.
func NewUEyeCamera(opts ...Option) (*Handle, error) { return New(KindUEye, opts...) }
