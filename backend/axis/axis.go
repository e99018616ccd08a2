// Package axis implements the Axis IP camera backend. Frames come over
// HTTP using the VAPIX-style endpoints: single JPEG snapshots polled at
// the configured frame rate, or a continuous MJPEG stream when the video
// mode selects it. Image properties map to the camera's sensor
// parameters through param.cgi.
package axis

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/errors"
)

const (
	snapshotPath = "/axis-cgi/jpg/image.cgi"
	mjpegPath    = "/axis-cgi/mjpg/video.cgi"
	paramPath    = "/axis-cgi/param.cgi"

	defaultFrameRate = 10.0

	// maxFrameBytes caps a single JPEG read from the device.
	maxFrameBytes = 8 << 20
)

// ModeMJPEG is the video_mode value selecting the MJPEG stream instead
// of snapshot polling.
const ModeMJPEG = "mjpeg"

// sensorParams maps property kinds to VAPIX sensor parameter names.
var sensorParams = map[camera.PropertyKind]string{
	camera.PropBrightness: "ImageSource.I0.Sensor.Brightness",
	camera.PropSaturation: "ImageSource.I0.Sensor.ColorLevel",
}

// Driver talks to one Axis camera over HTTP.
type Driver struct {
	mu sync.Mutex

	client    *http.Client
	baseURL   string
	mode      string
	frameRate float64

	stream       *mjpegStream
	streamCancel context.CancelFunc

	open bool
}

// New creates an Axis driver with a default HTTP client.
func New() *Driver {
	return &Driver{
		client:    &http.Client{Timeout: 30 * time.Second},
		frameRate: defaultFrameRate,
	}
}

// Register adds the Axis backend to a driver registry.
func Register(registry *camera.Registry) error {
	return registry.Register(camera.KindAxis, func() (camera.Driver, error) {
		return New(), nil
	})
}

// Kind returns the Axis backend kind.
func (d *Driver) Kind() camera.Kind { return camera.KindAxis }

// Open resolves the device address and probes the snapshot endpoint so
// an unreachable camera fails here, where the open retry policy applies.
func (d *Driver) Open(ctx context.Context, params *config.CameraParameters) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	address, ok := params.Address.Value()
	if !ok || address == "" {
		return errors.WrapConfig(
			fmt.Errorf("%w: axis backend requires a device address", errors.ErrMissingConfig),
			"axis", "Open", "address resolution")
	}
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	parsed, err := url.Parse(address)
	if err != nil {
		return errors.WrapConfig(err, "axis", "Open", "address parsing")
	}
	d.baseURL = strings.TrimRight(parsed.String(), "/")

	d.mode = ""
	if mode, ok := params.VideoMode.Value(); ok {
		d.mode = strings.ToLower(mode)
	}
	d.frameRate = params.FrameRate.FloatOr(defaultFrameRate)

	if err := d.probe(ctx); err != nil {
		return err
	}

	d.open = true
	return nil
}

// probe fetches one snapshot to confirm the device responds.
func (d *Driver) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+snapshotPath, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("device unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFrameBytes))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device returned HTTP %d on snapshot probe", resp.StatusCode)
	}
	return nil
}

// Close drops the MJPEG stream if one is active.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.open = false
	if d.streamCancel != nil {
		d.streamCancel()
		d.streamCancel = nil
	}
	if d.stream != nil {
		d.stream.close()
		d.stream = nil
	}
	return nil
}

// ReadFrame fetches the next JPEG from the device: the next part of the
// MJPEG stream, or a fresh snapshot paced to the frame rate.
func (d *Driver) ReadFrame(ctx context.Context) (camera.Frame, error) {
	d.mu.Lock()
	if !d.open {
		d.mu.Unlock()
		return camera.Frame{}, fmt.Errorf("device is closed")
	}
	mode := d.mode
	d.mu.Unlock()

	if mode == ModeMJPEG {
		return d.readStreamFrame(ctx)
	}
	return d.readSnapshot(ctx)
}

func (d *Driver) readSnapshot(ctx context.Context) (camera.Frame, error) {
	d.mu.Lock()
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

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+snapshotPath, nil)
	if err != nil {
		return camera.Frame{}, fmt.Errorf("build snapshot request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return camera.Frame{}, fmt.Errorf("snapshot fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return camera.Frame{}, fmt.Errorf("snapshot fetch returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFrameBytes))
	if err != nil {
		return camera.Frame{}, fmt.Errorf("snapshot read: %w", err)
	}
	return jpegFrame(data)
}

func (d *Driver) readStreamFrame(ctx context.Context) (camera.Frame, error) {
	stream, err := d.ensureStream()
	if err != nil {
		return camera.Frame{}, err
	}

	data, err := stream.nextPart(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return camera.Frame{}, ctx.Err()
		}
		return camera.Frame{}, fmt.Errorf("mjpeg stream: %w", err)
	}
	return jpegFrame(data)
}

// ensureStream opens the MJPEG stream on first use. The stream outlives
// individual ReadFrame contexts and is torn down by Close.
func (d *Driver) ensureStream() (*mjpegStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		return d.stream, nil
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, d.baseURL+mjpegPath, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build stream request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stream connect: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream connect returned HTTP %d", resp.StatusCode)
	}

	stream, err := newMJPEGStream(resp)
	if err != nil {
		resp.Body.Close()
		cancel()
		return nil, err
	}

	d.stream = stream
	d.streamCancel = cancel
	return stream, nil
}

// jpegFrame wraps raw JPEG bytes in a Frame, reading the dimensions
// from the header without a full decode.
func jpegFrame(data []byte) (camera.Frame, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return camera.Frame{}, fmt.Errorf("parse jpeg header: %w", err)
	}
	return camera.Frame{
		Data:     data,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Encoding: "jpeg",
	}, nil
}

// mjpegStream wraps a multipart/x-mixed-replace response body. A single
// goroutine owns the multipart reader and hands parts over a channel,
// so an abandoned read is picked up by the next one instead of leaving
// two readers on the same stream.
type mjpegStream struct {
	body      io.ReadCloser
	parts     chan streamPart
	done      chan struct{}
	closeOnce sync.Once
}

type streamPart struct {
	data []byte
	err  error
}

func newMJPEGStream(resp *http.Response) (*mjpegStream, error) {
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("parse stream content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil, fmt.Errorf("unexpected stream content type %q", mediaType)
	}

	s := &mjpegStream{
		body:  resp.Body,
		parts: make(chan streamPart),
		done:  make(chan struct{}),
	}
	go s.readParts(multipart.NewReader(resp.Body, params["boundary"]))
	return s, nil
}

// readParts is the only goroutine touching the multipart reader. The
// first read error is terminal and is redelivered to every later read.
func (s *mjpegStream) readParts(reader *multipart.Reader) {
	for {
		data, err := readOnePart(reader)
		select {
		case s.parts <- streamPart{data: data, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			for {
				select {
				case s.parts <- streamPart{err: err}:
				case <-s.done:
					return
				}
			}
		}
	}
}

func readOnePart(reader *multipart.Reader) ([]byte, error) {
	part, err := reader.NextPart()
	if err != nil {
		return nil, err
	}
	defer part.Close()
	return io.ReadAll(io.LimitReader(part, maxFrameBytes))
}

func (s *mjpegStream) nextPart(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, fmt.Errorf("stream closed")
	case p := <-s.parts:
		return p.data, p.err
	}
}

func (s *mjpegStream) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.body.Close()
	})
}

// Properties exposes the sensor parameters reachable through param.cgi.
func (d *Driver) Properties() map[camera.PropertyKind]camera.Range {
	return map[camera.PropertyKind]camera.Range{
		camera.PropBrightness: {Min: 0, Max: 100, Default: 50},
		camera.PropSaturation: {Min: 0, Max: 100, Default: 50},
	}
}

// SetProperty updates one sensor parameter on the device.
func (d *Driver) SetProperty(p camera.Property) error {
	name, ok := sensorParams[p.Kind]
	if !ok {
		return fmt.Errorf("property %s has no sensor parameter", p.Kind)
	}

	query := url.Values{}
	query.Set("action", "update")
	query.Set(name, fmt.Sprintf("%g", p.Value))

	resp, err := d.client.Get(d.baseURL + paramPath + "?" + query.Encode())
	if err != nil {
		return fmt.Errorf("parameter update: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("parameter update returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// GetProperty reads one sensor parameter back from the device.
func (d *Driver) GetProperty(kind camera.PropertyKind) (camera.Property, error) {
	name, ok := sensorParams[kind]
	if !ok {
		return camera.Property{}, fmt.Errorf("property %s has no sensor parameter", kind)
	}

	query := url.Values{}
	query.Set("action", "list")
	query.Set("group", name)

	resp, err := d.client.Get(d.baseURL + paramPath + "?" + query.Encode())
	if err != nil {
		return camera.Property{}, fmt.Errorf("parameter read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return camera.Property{}, fmt.Errorf("parameter read returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return camera.Property{}, fmt.Errorf("parameter read: %w", err)
	}

	// Responses look like "root.ImageSource.I0.Sensor.Brightness=42".
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found || !strings.HasSuffix(key, name) {
			continue
		}
		var v float64
		if _, err := fmt.Sscanf(value, "%g", &v); err != nil {
			return camera.Property{}, fmt.Errorf("parse parameter value %q: %w", value, err)
		}
		return camera.Property{Kind: kind, Value: v}, nil
	}
	return camera.Property{}, fmt.Errorf("parameter %s missing from device response", name)
}
