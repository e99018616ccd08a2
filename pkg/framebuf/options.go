package framebuf

import (
	"github.com/c360/camerakit/metric"
)

// Option configures a Ring using the functional options pattern.
type Option[T any] func(*ringOptions[T])

// DropCallback is invoked with each item dropped by overflow.
type DropCallback[T any] func(item T)

// ringOptions holds internal configuration for Ring instances.
// Statistics are always collected; Prometheus export is opt-in.
type ringOptions[T any] struct {
	dropCallback DropCallback[T]

	metricsReg    *metric.Registry
	metricsPrefix string
}

// WithDropCallback sets a callback invoked for every item dropped due to
// overflow. The callback runs outside the ring lock.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(opts *ringOptions[T]) {
		opts.dropCallback = callback
	}
}

// WithMetrics enables Prometheus export of ring statistics. A nil
// registry or empty prefix disables the option.
func WithMetrics[T any](registry *metric.Registry, prefix string) Option[T] {
	return func(opts *ringOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

func applyOptions[T any](options ...Option[T]) *ringOptions[T] {
	opts := &ringOptions[T]{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
