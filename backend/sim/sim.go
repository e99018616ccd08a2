// Package sim implements a deterministic synthetic camera. It needs no
// hardware or image files, carries the full property table, and can be
// told to fail at specific points, which makes it the backend of choice
// for tests and bring-up.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
)

const (
	defaultFrameRate = 30.0
	defaultWidth     = 640
	defaultHeight    = 480
)

// Option configures a simulated driver.
type Option func(*Driver)

// WithFrameSize overrides the generated frame dimensions.
func WithFrameSize(width, height int) Option {
	return func(d *Driver) {
		d.width = width
		d.height = height
	}
}

// WithOpenError makes Open fail with err, for exercising open retry and
// unavailable-device paths.
func WithOpenError(err error) Option {
	return func(d *Driver) { d.openErr = err }
}

// WithFailAfter makes acquisition fail terminally after n frames, for
// exercising device-fault delivery.
func WithFailAfter(n int) Option {
	return func(d *Driver) { d.failAfter = n }
}

// Driver generates a deterministic pixel pattern at the configured frame
// rate. Frame n is fully determined by n, so tests can assert on
// content.
type Driver struct {
	mu sync.Mutex

	width     int
	height    int
	frameRate float64

	properties map[camera.PropertyKind]camera.Property

	produced  int
	failAfter int
	openErr   error
	open      bool
}

// New creates a simulated driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		width:     defaultWidth,
		height:    defaultHeight,
		frameRate: defaultFrameRate,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds the simulated backend to a driver registry.
func Register(registry *camera.Registry) error {
	return registry.Register(camera.KindSimulated, func() (camera.Driver, error) {
		return New(), nil
	})
}

// Kind returns the simulated backend kind.
func (d *Driver) Kind() camera.Kind { return camera.KindSimulated }

// Open resets the generator and seeds every property with its default.
func (d *Driver) Open(_ context.Context, params *config.CameraParameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.openErr != nil {
		return d.openErr
	}

	if params != nil {
		d.width = params.ImageWidth.IntOr(d.width)
		d.height = params.ImageHeight.IntOr(d.height)
		d.frameRate = params.FrameRate.FloatOr(d.frameRate)
	}

	d.properties = make(map[camera.PropertyKind]camera.Property, len(propertyTable))
	for kind, rng := range propertyTable {
		d.properties[kind] = camera.Property{Kind: kind, Value: rng.Default, Auto: rng.DefaultAuto}
	}

	d.produced = 0
	d.open = true
	return nil
}

// Close stops the generator.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

// ReadFrame generates the next frame at the configured rate. With an
// induced fault configured, frame failAfter+1 returns the fault.
func (d *Driver) ReadFrame(ctx context.Context) (camera.Frame, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return camera.Frame{}, fmt.Errorf("simulated device is closed")
	}
	if d.failAfter > 0 && d.produced >= d.failAfter {
		d.mu.Unlock()
		return camera.Frame{}, fmt.Errorf("induced fault after %d frames", d.failAfter)
	}
	d.produced++
	n := d.produced
	width, height := d.width, d.height
	rate := d.frameRate
	d.mu.Unlock()

	if rate <= 0 {
		rate = defaultFrameRate
	}
	select {
	case <-ctx.Done():
		return camera.Frame{}, ctx.Err()
	case <-time.After(time.Duration(float64(time.Second) / rate)):
	}

	return generateFrame(n, width, height), nil
}

// generateFrame renders a moving diagonal gradient. Pixel (x, y) of
// frame n is (x + y + n) mod 256.
func generateFrame(n, width, height int) camera.Frame {
	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = byte((x + y + n) % 256)
		}
	}
	return camera.Frame{
		Data:     data,
		Width:    width,
		Height:   height,
		Encoding: "gray8",
	}
}

// propertyTable is the full simulated property surface. Ranges loosely
// follow the FireWire cameras the simulator stands in for.
var propertyTable = map[camera.PropertyKind]camera.Range{
	camera.PropBrightness:    {Min: 0, Max: 255, Default: 128, SupportsAuto: true},
	camera.PropShutter:       {Min: 1, Max: 4095, Default: 500, Clamps: true},
	camera.PropExposureTime:  {Min: 10, Max: 100000, Default: 20000, SupportsAuto: true, DefaultAuto: true},
	camera.PropGain:          {Min: 0, Max: 680, Default: 0},
	camera.PropGamma:         {Min: 0, Max: 2, Default: 1},
	camera.PropHue:           {Min: -180, Max: 180, Default: 0},
	camera.PropSaturation:    {Min: 0, Max: 200, Default: 100},
	camera.PropWhiteBalanceU: {Min: 0, Max: 1023, Default: 512, SupportsAuto: true},
	camera.PropWhiteBalanceV: {Min: 0, Max: 1023, Default: 512, SupportsAuto: true},
	camera.PropFrameRate:     {Min: 1, Max: 240, Default: defaultFrameRate, Clamps: true},
}

// Properties returns the full simulated property table.
func (d *Driver) Properties() map[camera.PropertyKind]camera.Range {
	return propertyTable
}

// SetProperty stores a validated property value.
func (d *Driver) SetProperty(p camera.Property) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.properties == nil {
		d.properties = make(map[camera.PropertyKind]camera.Property)
	}
	d.properties[p.Kind] = p
	if p.Kind == camera.PropFrameRate && !p.Auto {
		d.frameRate = p.Value
	}
	return nil
}

// GetProperty reads a property's current value.
func (d *Driver) GetProperty(kind camera.PropertyKind) (camera.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.properties[kind]; ok {
		return p, nil
	}
	rng, ok := propertyTable[kind]
	if !ok {
		return camera.Property{}, fmt.Errorf("property %s not simulated", kind)
	}
	return camera.Property{Kind: kind, Value: rng.Default, Auto: rng.DefaultAuto}, nil
}

// FramesProduced returns how many frames the generator has emitted.
func (d *Driver) FramesProduced() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.produced
}
