package camera

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/errors"
	"github.com/c360/camerakit/events"
	"github.com/c360/camerakit/metric"
	"github.com/c360/camerakit/pkg/framebuf"
	"github.com/c360/camerakit/pkg/retry"
)

const (
	// DefaultBufferSize is the frame ring capacity when the configuration
	// leaves buffer_size unset.
	DefaultBufferSize = 8

	// DefaultAcquireTimeout bounds GetFrame when the caller's context
	// carries no deadline of its own.
	DefaultAcquireTimeout = 5 * time.Second

	// closeTimeout bounds how long Close waits for the acquisition loop
	// to confirm shutdown before giving up on the confirmation.
	closeTimeout = 5 * time.Second
)

// Option configures a camera instance at construction time.
type Option func(*Camera)

// WithName overrides the generated instance name. The name keys log
// lines, events and metric registrations.
func WithName(name string) Option {
	return func(c *Camera) { c.name = name }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Camera) { c.baseLogger = logger }
}

// WithEvents enables NATS event publishing on camera.events.<name>.
func WithEvents(nc *nats.Conn) Option {
	return func(c *Camera) { c.natsConn = nc }
}

// WithMetrics registers the camera's Prometheus instruments with the
// given registry while the camera is open.
func WithMetrics(registry *metric.Registry) Option {
	return func(c *Camera) { c.metricsReg = registry }
}

// WithAcquireTimeout overrides DefaultAcquireTimeout. Zero disables the
// implicit deadline; GetFrame then blocks until the caller's context
// ends.
func WithAcquireTimeout(d time.Duration) Option {
	return func(c *Camera) { c.acquireTimeout = d }
}

// WithOpenRetry overrides the retry policy applied to driver Open.
func WithOpenRetry(cfg retry.Config) Option {
	return func(c *Camera) { c.openRetry = cfg }
}

// Camera unifies one backend driver behind the shared contract: the
// lifecycle state machine, parameter resolution, property validation and
// frame delivery all live here, identically for every backend. Drivers
// are reduced to device I/O.
//
// A Camera is safe for concurrent use, but frame consumption assumes a
// single reader; two goroutines calling GetFrame split the stream
// between them.
type Camera struct {
	name       string
	id         string
	driver     Driver
	baseLogger *slog.Logger
	logger     *slog.Logger
	natsConn   *nats.Conn
	events     *events.Publisher
	metricsReg *metric.Registry

	openRetry      retry.Config
	acquireTimeout time.Duration

	mu          sync.Mutex
	state       State
	params      *config.CameraParameters
	configPath  string
	configIndex int
	openedAt    time.Time
	metrics     *camMetrics

	ring     *framebuf.Ring[Frame]
	loopStop context.CancelFunc
	loopDone chan struct{}

	seq             atomic.Uint64
	framesDelivered atomic.Int64
	droppedTotal    atomic.Uint64
	faults          atomic.Int64
}

func newCamera(driver Driver, opts ...Option) *Camera {
	c := &Camera{
		driver:         driver,
		id:             uuid.New().String(),
		state:          StateUninitialized,
		openRetry:      retry.DeviceOpen(),
		acquireTimeout: DefaultAcquireTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.name == "" {
		c.name = fmt.Sprintf("%s-%s", driver.Kind(), c.id[:8])
	}
	if c.baseLogger == nil {
		c.baseLogger = slog.Default()
	}
	c.logger = c.baseLogger.With("camera", c.name, "kind", driver.Kind().String())
	c.events = events.NewPublisher(c.name, c.id, c.natsConn, c.baseLogger)

	return c
}

// Name returns the instance name.
func (c *Camera) Name() string { return c.name }

// ID returns the unique instance identifier.
func (c *Camera) ID() string { return c.id }

// Kind returns the backend kind.
func (c *Camera) Kind() Kind { return c.driver.Kind() }

// State returns the current lifecycle state.
func (c *Camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsInitialized reports whether Init has completed at least once.
func (c *Camera) IsInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateUninitialized
}

// IsOpen reports whether the device is open and acquiring.
func (c *Camera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateOpen
}

// Parameters returns a copy of the resolved parameters, or nil before
// Init.
func (c *Camera) Parameters() *config.CameraParameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		return nil
	}
	return c.params.Clone()
}

// Init loads the configuration document at path, selects the camera at
// index and resolves its parameters. Unset fields become DEFAULT; the
// document is validated against the configuration schema before use.
// Init may be repeated while the device is not open.
func (c *Camera) Init(path string, index int) error {
	params, err := config.Load(path, index)
	if err != nil {
		return errors.Wrap(err, "Camera", "Init", "parameter resolution")
	}
	if err := c.InitParameters(params); err != nil {
		return err
	}

	c.mu.Lock()
	c.configPath = path
	c.configIndex = index
	c.mu.Unlock()
	return nil
}

// InitParameters initializes from already resolved parameters. Callers
// that assemble parameters programmatically use this instead of Init.
func (c *Camera) InitParameters(params *config.CameraParameters) error {
	if params == nil {
		return errors.WrapConfig(errors.ErrMissingConfig, "Camera", "Init", "parameter validation")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateOpen {
		return errors.WrapLifecycle(errors.ErrAlreadyOpen, "Camera", "Init", "state check")
	}

	prev := c.state
	c.params = params.Clone()
	c.state = StateInitialized
	c.transitioned(prev, c.state)
	return nil
}

// Open allocates device resources and starts frame acquisition. It
// requires a prior Init; opening an open camera is a lifecycle error.
// Transient device failures are retried per the open retry policy.
func (c *Camera) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateUninitialized:
		return errors.WrapLifecycle(errors.ErrNotInitialized, "Camera", "Open", "state check")
	case StateOpen:
		return errors.WrapLifecycle(errors.ErrAlreadyOpen, "Camera", "Open", "state check")
	}

	if err := retry.Do(ctx, c.openRetry, func() error {
		return c.driver.Open(ctx, c.params)
	}); err != nil {
		if c.metricsReg != nil {
			c.metricsReg.Core.OpenFailures.Inc()
		}
		// Drivers classify their own configuration failures; everything
		// else is an unavailable device.
		var classified *errors.CameraError
		if stderrors.As(err, &classified) {
			return errors.Wrap(err, "Camera", "Open", "device open")
		}
		return errors.WrapUnavailable(err, "Camera", "Open", "device open")
	}

	ring, err := c.buildRing()
	if err != nil {
		_ = c.driver.Close()
		if c.metricsReg != nil {
			c.metricsReg.UnregisterCamera(c.name)
		}
		return err
	}
	c.ring = ring

	if c.metricsReg != nil {
		m, merr := newCamMetrics(c.metricsReg, c.name)
		if merr != nil {
			_ = c.driver.Close()
			c.metricsReg.UnregisterCamera(c.name)
			return merr
		}
		c.metrics = m
		c.metricsReg.Core.CamerasOpen.Inc()
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.loopStop = cancel
	c.loopDone = done
	c.seq.Store(0)

	go func() {
		defer close(done)
		c.acquireLoop(loopCtx, ring)
	}()

	prev := c.state
	c.state = StateOpen
	c.openedAt = time.Now()
	c.transitioned(prev, c.state)
	return nil
}

// buildRing sizes and creates the frame ring. Replay-style backends with
// a finite image set cap the ring at the set size so the whole set can
// never be silently dropped past.
func (c *Camera) buildRing() (*framebuf.Ring[Frame], error) {
	capacity := DefaultBufferSize
	if c.params != nil {
		capacity = c.params.BufferSize.IntOr(DefaultBufferSize)
	}
	if src, ok := c.driver.(ImageSource); ok {
		if n := src.NumberOfImages(); n > 0 && n < capacity {
			capacity = n
		}
	}

	var ringOpts []framebuf.Option[Frame]
	if c.metricsReg != nil {
		ringOpts = append(ringOpts, framebuf.WithMetrics[Frame](c.metricsReg, c.name))
	}

	ring, err := framebuf.New[Frame](capacity, ringOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "Camera", "Open", "frame ring setup")
	}
	return ring, nil
}

// acquireLoop pulls frames from the driver at the device's pace and
// pushes them into the ring. A driver error outside shutdown is a
// terminal fault: it is recorded on the ring so consumers observe it
// once buffered frames drain, instead of blocking forever.
func (c *Camera) acquireLoop(ctx context.Context, ring *framebuf.Ring[Frame]) {
	var lastCapture time.Time

	for {
		frame, err := c.driver.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fault := errors.WrapDevice(err, "Camera", "GetFrame", "frame acquisition")
			c.faults.Add(1)
			if c.metrics != nil {
				c.metrics.deviceFaults.Inc()
			}
			c.events.DeviceFault(fault)
			ring.Fail(fault)
			return
		}

		frame.Seq = c.seq.Add(1)
		if frame.Timestamp.IsZero() {
			frame.Timestamp = time.Now()
		}

		if c.metrics != nil {
			c.metrics.framesCaptured.Inc()
			if !lastCapture.IsZero() {
				c.metrics.captureInterval.Observe(frame.Timestamp.Sub(lastCapture).Seconds())
			}
		}
		lastCapture = frame.Timestamp

		if err := ring.Push(frame); err != nil {
			return
		}
	}
}

// GetFrame returns one frame. With latest set it waits for at least one
// buffered frame and returns the newest, discarding the backlog; without
// it, frames come back in capture order, oldest unread first. Frames
// lost to overflow since the previous read are reported in the returned
// frame's Dropped field.
//
// When ctx carries no deadline the acquire timeout applies, so a stalled
// device surfaces as a Timeout error instead of an indefinite block.
func (c *Camera) GetFrame(ctx context.Context, latest bool) (Frame, error) {
	c.mu.Lock()
	if c.state != StateOpen {
		c.mu.Unlock()
		return Frame{}, errors.WrapLifecycle(errors.ErrNotOpen, "Camera", "GetFrame", "state check")
	}
	ring := c.ring
	timeout := c.acquireTimeout
	metrics := c.metrics
	c.mu.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		frame Frame
		drops uint64
		err   error
	)
	if latest {
		frame, drops, err = ring.Latest(ctx)
	} else {
		frame, drops, err = ring.Next(ctx)
	}
	if err != nil {
		switch {
		case stderrors.Is(err, framebuf.ErrClosed):
			return Frame{}, errors.WrapLifecycle(errors.ErrNotOpen, "Camera", "GetFrame", "frame wait")
		case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
			return Frame{}, errors.WrapTimeout(
				fmt.Errorf("%w: %v", errors.ErrFrameTimeout, err),
				"Camera", "GetFrame", "frame wait")
		default:
			return Frame{}, errors.Wrap(err, "Camera", "GetFrame", "frame wait")
		}
	}

	frame.Dropped = drops
	if drops > 0 {
		c.droppedTotal.Add(drops)
		c.events.FrameDrop(drops)
	}
	c.framesDelivered.Add(1)
	if metrics != nil {
		metrics.framesDelivered.Inc()
	}
	return frame, nil
}

// DroppedFrames returns the total number of frames lost to buffer
// overflow since Open.
func (c *Camera) DroppedFrames() uint64 {
	return c.droppedTotal.Load()
}

// SetProperty validates and applies a runtime property. Unsupported
// kinds and AUTO requests the device cannot honor fail with
// UnsupportedProperty; out-of-range values fail with OutOfRange unless
// the device's documented behavior is clamping, in which case the
// clamped value is applied. The returned Property is what was actually
// applied.
func (c *Camera) SetProperty(p Property) (Property, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return Property{}, errors.WrapLifecycle(errors.ErrNotOpen, "Camera", "SetProperty", "state check")
	}

	rng, ok := c.driver.Properties()[p.Kind]
	if !ok {
		return Property{}, errors.WrapKind(errors.KindUnsupportedProperty,
			fmt.Errorf("%w: %s", errors.ErrUnsupportedProperty, p.Kind),
			"Camera", "SetProperty", "property support check")
	}

	if p.Auto && !rng.SupportsAuto {
		return Property{}, errors.WrapKind(errors.KindUnsupportedProperty,
			fmt.Errorf("%w: %s auto mode", errors.ErrUnsupportedProperty, p.Kind),
			"Camera", "SetProperty", "auto support check")
	}

	applied := p
	if !p.Auto && !rng.Contains(p.Value) {
		if !rng.Clamps {
			return Property{}, errors.WrapKind(errors.KindOutOfRange,
				fmt.Errorf("%w: %s=%g outside [%g, %g]",
					errors.ErrOutOfRange, p.Kind, p.Value, rng.Min, rng.Max),
				"Camera", "SetProperty", "range check")
		}
		applied.Value = rng.Clamp(p.Value)
		c.logger.Debug("property value clamped",
			"property", p.Kind.String(), "requested", p.Value, "applied", applied.Value)
	}

	if err := c.driver.SetProperty(applied); err != nil {
		return Property{}, errors.WrapDevice(err, "Camera", "SetProperty", "device apply")
	}

	c.events.PropertyChanged(p.Kind.String(), applied.Value, applied.Auto)
	return applied, nil
}

// GetProperty reads the live value of a runtime property from the
// device.
func (c *Camera) GetProperty(kind PropertyKind) (Property, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return Property{}, errors.WrapLifecycle(errors.ErrNotOpen, "Camera", "GetProperty", "state check")
	}

	if _, ok := c.driver.Properties()[kind]; !ok {
		return Property{}, errors.WrapKind(errors.KindUnsupportedProperty,
			fmt.Errorf("%w: %s", errors.ErrUnsupportedProperty, kind),
			"Camera", "GetProperty", "property support check")
	}

	p, err := c.driver.GetProperty(kind)
	if err != nil {
		return Property{}, errors.WrapDevice(err, "Camera", "GetProperty", "device read")
	}
	return p, nil
}

// SetPropertyDefaults resets every supported property to its factory
// default, atomically: if any reset fails, properties already changed
// are rolled back to their prior values and the error is reported.
func (c *Camera) SetPropertyDefaults() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return errors.WrapLifecycle(errors.ErrNotOpen, "Camera", "SetPropertyDefaults", "state check")
	}

	ranges := c.driver.Properties()
	kinds := make([]PropertyKind, 0, len(ranges))
	for kind := range ranges {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	// Snapshot current values first so a partial failure can be undone.
	snapshot := make([]Property, len(kinds))
	for i, kind := range kinds {
		cur, err := c.driver.GetProperty(kind)
		if err != nil {
			return errors.WrapDevice(err, "Camera", "SetPropertyDefaults",
				fmt.Sprintf("%s snapshot", kind))
		}
		snapshot[i] = cur
	}

	for i, kind := range kinds {
		rng := ranges[kind]
		def := Property{Kind: kind, Value: rng.Default, Auto: rng.DefaultAuto}
		if err := c.driver.SetProperty(def); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := c.driver.SetProperty(snapshot[j]); rerr != nil {
					c.logger.Error("rollback failed",
						"property", snapshot[j].Kind.String(), "error", rerr)
				}
			}
			return errors.WrapDevice(err, "Camera", "SetPropertyDefaults",
				fmt.Sprintf("%s reset", kind))
		}
	}

	c.logger.Info("properties reset to factory defaults", "count", len(kinds))
	return nil
}

// GetNumberOfImages returns the size of the backend's image set.
// Backends with an endless frame supply report UnboundedImages.
func (c *Camera) GetNumberOfImages() int {
	if src, ok := c.driver.(ImageSource); ok {
		return src.NumberOfImages()
	}
	return UnboundedImages
}

// SetPathToImages points a replay backend at a new image directory.
// On backends without an image set this succeeds as a no-op, so callers
// can configure a replay path without branching on backend kind.
func (c *Camera) SetPathToImages(path string) error {
	src, ok := c.driver.(ImageSource)
	if !ok {
		return nil
	}
	if err := src.SetPathToImages(path); err != nil {
		return errors.Wrap(err, "Camera", "SetPathToImages", "image path update")
	}
	return nil
}

// ResetImages rewinds a replay backend to the start of its image set.
// A no-op success on backends without one.
func (c *Camera) ResetImages() error {
	src, ok := c.driver.(ImageSource)
	if !ok {
		return nil
	}
	if err := src.ResetImages(); err != nil {
		return errors.Wrap(err, "Camera", "ResetImages", "image rewind")
	}
	return nil
}

// SaveParameters writes the resolved parameters to filename as a
// single-camera configuration document. While open, live property values
// are merged in first so the file reflects what the device is actually
// using; properties in AUTO mode are written as the AUTO token.
func (c *Camera) SaveParameters(filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.params == nil {
		return errors.WrapLifecycle(errors.ErrNotInitialized, "Camera", "SaveParameters", "state check")
	}

	snapshot := c.params.Clone()
	if c.state == StateOpen {
		c.mergeLiveProperties(snapshot)
	}

	if err := config.Save(filename, snapshot); err != nil {
		return errors.Wrap(err, "Camera", "SaveParameters", "document write")
	}

	c.logger.Info("parameters saved", "file", filename)
	return nil
}

// mergeLiveProperties overwrites parameter fields with the device's
// current property values. Read failures skip the field; saving must not
// fail because one property could not be read back.
func (c *Camera) mergeLiveProperties(params *config.CameraParameters) {
	for kind := range c.driver.Properties() {
		p, err := c.driver.GetProperty(kind)
		if err != nil {
			c.logger.Warn("skipping unreadable property in save",
				"property", kind.String(), "error", err)
			continue
		}

		var s config.Setting
		if p.Auto {
			s = config.Auto()
		} else {
			s = config.LiteralFloat(p.Value)
		}

		switch kind {
		case PropBrightness:
			params.Brightness = s
		case PropShutter:
			params.Shutter = s
		case PropExposureTime:
			params.ExposureTime = s
		case PropGain:
			params.Gain = s
		case PropGamma:
			params.Gamma = s
		case PropHue:
			params.Hue = s
		case PropSaturation:
			params.Saturation = s
		case PropWhiteBalanceU:
			params.WhiteBalanceU = s
		case PropWhiteBalanceV:
			params.WhiteBalanceV = s
		case PropFrameRate:
			params.FrameRate = s
		}
	}
}

// Close stops acquisition and releases device resources. Closing a
// camera that is not open is a no-op; a closed camera can be re-opened.
// Consumers blocked in GetFrame are unblocked with a lifecycle error.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return nil
	}

	if c.loopStop != nil {
		c.loopStop()
	}
	if c.ring != nil {
		_ = c.ring.Close()
	}
	if c.loopDone != nil {
		select {
		case <-c.loopDone:
		case <-time.After(closeTimeout):
			c.logger.Warn("acquisition loop did not confirm shutdown", "timeout", closeTimeout)
		}
	}

	if persister, ok := c.driver.(ParameterPersister); ok && c.params != nil {
		if err := persister.PersistParameters(c.params); err != nil {
			c.logger.Warn("parameter persistence failed", "error", err)
		}
	}

	closeErr := c.driver.Close()

	c.ring = nil
	c.loopStop = nil
	c.loopDone = nil
	c.metrics = nil
	if c.metricsReg != nil {
		c.metricsReg.UnregisterCamera(c.name)
		c.metricsReg.Core.CamerasOpen.Dec()
	}

	prev := c.state
	c.state = StateClosed
	c.transitioned(prev, c.state)

	if closeErr != nil {
		return errors.WrapDevice(closeErr, "Camera", "Close", "device close")
	}
	return nil
}

// transitioned records a state change. Callers hold c.mu.
func (c *Camera) transitioned(from, to State) {
	c.events.StateChanged(from.String(), to.String())
	if c.metricsReg != nil {
		c.metricsReg.Core.LifecycleTransitions.WithLabelValues(c.name, to.String()).Inc()
	}
}
