// Package replay implements the file-replay virtual camera. It plays an
// image directory back at a configured frame rate, exposing the set size
// through the camera.ImageSource interface. PNG and JPEG files are
// decoded to raw RGBA; anything else is served as raw bytes with the
// configured image dimensions.
package replay

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/errors"
)

const (
	defaultFrameRate = 30.0
	defaultWidth     = 640
	defaultHeight    = 480
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".raw":  true,
	".gray": true,
}

// Driver replays an image directory as a camera. The directory comes
// from the address parameter, or from SetPathToImages at any time.
type Driver struct {
	mu sync.Mutex

	dir       string
	dirPinned bool // set by SetPathToImages, wins over the address parameter
	files     []string
	pos       int

	frameRate float64
	width     int
	height    int

	open bool
}

// New creates a replay driver. The image directory is taken from the
// parameters on Open.
func New() *Driver {
	return &Driver{frameRate: defaultFrameRate, width: defaultWidth, height: defaultHeight}
}

// Register adds the replay backend to a driver registry under the
// virtual kind.
func Register(registry *camera.Registry) error {
	return registry.Register(camera.KindVirtual, func() (camera.Driver, error) {
		return New(), nil
	})
}

// Kind returns the virtual backend kind.
func (d *Driver) Kind() camera.Kind { return camera.KindVirtual }

// Open resolves the image directory and frame pacing from the
// parameters and scans the directory. An empty image set is not an open
// failure; it surfaces as a device fault on the first frame read, so
// lifecycle and acquisition errors stay distinct.
func (d *Driver) Open(_ context.Context, params *config.CameraParameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if params != nil {
		if dir, ok := params.Address.Value(); ok && !d.dirPinned {
			d.dir = dir
		}
		d.frameRate = params.FrameRate.FloatOr(defaultFrameRate)
		d.width = params.ImageWidth.IntOr(defaultWidth)
		d.height = params.ImageHeight.IntOr(defaultHeight)
	}

	if d.dir != "" {
		files, err := scanImageDir(d.dir)
		if err != nil {
			return err
		}
		d.files = files
	}

	d.pos = 0
	d.open = true
	return nil
}

// Close releases the playback position. The scanned set is kept so a
// re-open resumes from the start of the same directory.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

// ReadFrame returns the next image in the set, paced to the configured
// frame rate. An empty or exhausted set is a terminal fault.
func (d *Driver) ReadFrame(ctx context.Context) (camera.Frame, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return camera.Frame{}, errors.WrapDevice(errors.ErrDeviceFault,
			"replay", "ReadFrame", "closed device read")
	}
	if d.pos >= len(d.files) {
		count := len(d.files)
		d.mu.Unlock()
		if count == 0 {
			return camera.Frame{}, fmt.Errorf("image set in %q is empty", d.dir)
		}
		return camera.Frame{}, fmt.Errorf("image set exhausted after %d frames", count)
	}
	file := d.files[d.pos]
	d.pos++
	interval := d.interval()
	width, height := d.width, d.height
	d.mu.Unlock()

	select {
	case <-ctx.Done():
		return camera.Frame{}, ctx.Err()
	case <-time.After(interval):
	}

	return loadFrame(file, width, height)
}

func (d *Driver) interval() time.Duration {
	rate := d.frameRate
	if rate <= 0 {
		rate = defaultFrameRate
	}
	return time.Duration(float64(time.Second) / rate)
}

// Properties exposes frame rate as the only tunable: replay has no
// sensor to adjust.
func (d *Driver) Properties() map[camera.PropertyKind]camera.Range {
	return map[camera.PropertyKind]camera.Range{
		camera.PropFrameRate: {Min: 1, Max: 240, Default: defaultFrameRate},
	}
}

// SetProperty applies a validated property.
func (d *Driver) SetProperty(p camera.Property) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p.Kind == camera.PropFrameRate {
		d.frameRate = p.Value
	}
	return nil
}

// GetProperty reads a property's current value.
func (d *Driver) GetProperty(kind camera.PropertyKind) (camera.Property, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if kind == camera.PropFrameRate {
		return camera.Property{Kind: kind, Value: d.frameRate}, nil
	}
	return camera.Property{}, fmt.Errorf("property %s not readable on replay", kind)
}

// NumberOfImages returns the size of the scanned image set.
func (d *Driver) NumberOfImages() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files)
}

// SetPathToImages switches playback to a new directory and rewinds. The
// directory is scanned immediately so a bad path fails here, not during
// acquisition.
func (d *Driver) SetPathToImages(path string) error {
	files, err := scanImageDir(path)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.dir = path
	d.dirPinned = true
	d.files = files
	d.pos = 0
	return nil
}

// ResetImages rewinds playback to the first image.
func (d *Driver) ResetImages() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pos = 0
	return nil
}

// scanImageDir lists the image files in a directory in lexical order.
func scanImageDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapIO(err, "replay", "SetPathToImages", "directory scan")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// loadFrame reads one image file. Encoded formats are decoded to RGBA;
// raw files pass through with the configured dimensions.
func loadFrame(path string, rawWidth, rawHeight int) (camera.Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return camera.Frame{}, fmt.Errorf("read image %s: %w", filepath.Base(path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return camera.Frame{}, fmt.Errorf("decode image %s: %w", filepath.Base(path), err)
		}
		bounds := img.Bounds()
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
		return camera.Frame{
			Data:     rgba.Pix,
			Width:    bounds.Dx(),
			Height:   bounds.Dy(),
			Encoding: "rgba",
		}, nil
	default:
		return camera.Frame{
			Data:     data,
			Width:    rawWidth,
			Height:   rawHeight,
			Encoding: "gray8",
		}, nil
	}
}
