package camera_test

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/errors"
	"github.com/c360/camerakit/metric"
	"github.com/c360/camerakit/testutil"
)

// frameSource returns a ReadFrame override fed from a channel. The
// source blocks until a frame arrives or the context ends; closing the
// channel makes the next read a device fault.
func frameSource(frames <-chan camera.Frame) func(ctx context.Context) (camera.Frame, error) {
	return func(ctx context.Context) (camera.Frame, error) {
		select {
		case f, ok := <-frames:
			if !ok {
				return camera.Frame{}, stderrors.New("frame source exhausted")
			}
			return f, nil
		case <-ctx.Done():
			return camera.Frame{}, ctx.Err()
		}
	}
}

func newTestCamera(t *testing.T, driver *testutil.MockDriver, opts ...camera.Option) *camera.Camera {
	t.Helper()

	handle := camera.NewFromDriver(driver, opts...)
	cam := handle.Camera()
	require.NotNil(t, cam)
	t.Cleanup(func() { _ = cam.Close() })
	return cam
}

func openTestCamera(t *testing.T, driver *testutil.MockDriver, opts ...camera.Option) *camera.Camera {
	t.Helper()

	cam := newTestCamera(t, driver, opts...)
	require.NoError(t, cam.InitParameters(testutil.TestParameters()))
	require.NoError(t, cam.Open(context.Background()))
	return cam
}

func TestLifecycleOrdering(t *testing.T) {
	cam := newTestCamera(t, testutil.NewMockDriver())

	assert.Equal(t, camera.StateUninitialized, cam.State())
	assert.False(t, cam.IsInitialized())

	err := cam.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsLifecycle(err))
	assert.ErrorIs(t, err, errors.ErrNotInitialized)

	_, err = cam.GetFrame(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsLifecycle(err))
	assert.ErrorIs(t, err, errors.ErrNotOpen)

	_, err = cam.SetProperty(camera.Property{Kind: camera.PropGain, Value: 1})
	assert.True(t, errors.IsLifecycle(err))

	require.NoError(t, cam.InitParameters(testutil.TestParameters()))
	assert.Equal(t, camera.StateInitialized, cam.State())
	assert.True(t, cam.IsInitialized())

	require.NoError(t, cam.Open(context.Background()))
	assert.True(t, cam.IsOpen())

	err = cam.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyOpen)

	err = cam.InitParameters(testutil.TestParameters())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyOpen)

	require.NoError(t, cam.Close())
	assert.Equal(t, camera.StateClosed, cam.State())
	assert.True(t, cam.IsInitialized())

	// Closing again is a no-op, and a closed camera re-opens.
	require.NoError(t, cam.Close())
	require.NoError(t, cam.Open(context.Background()))
	assert.True(t, cam.IsOpen())
}

func TestInitFromFile(t *testing.T) {
	path := testutil.WriteConfigFile(t, testutil.SingleCameraDoc)
	cam := newTestCamera(t, testutil.NewMockDriver())

	require.NoError(t, cam.Init(path, 0))

	params := cam.Parameters()
	require.NotNil(t, params)
	width, err := params.ImageWidth.Int()
	require.NoError(t, err)
	assert.Equal(t, 640, width)

	// Every field is resolved after Init, absent ones to DEFAULT.
	assert.True(t, params.Gain.IsDefault())
}

func TestInitIndexOutOfRange(t *testing.T) {
	path := testutil.WriteConfigFile(t, testutil.SingleCameraDoc)
	cam := newTestCamera(t, testutil.NewMockDriver())

	err := cam.Init(path, 7)
	require.Error(t, err)
	assert.True(t, errors.IsIndex(err))
	assert.ErrorIs(t, err, errors.ErrNoSuchCamera)
	assert.False(t, cam.IsInitialized())
}

func TestInitMissingFile(t *testing.T) {
	cam := newTestCamera(t, testutil.NewMockDriver())

	err := cam.Init(filepath.Join(t.TempDir(), "absent.json"), 0)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestOpenRetriesThenFails(t *testing.T) {
	driver := testutil.NewMockDriver()
	driver.OpenFunc = func(context.Context, *config.CameraParameters) error {
		return stderrors.New("no such device")
	}

	cam := newTestCamera(t, driver)
	require.NoError(t, cam.InitParameters(testutil.TestParameters()))

	err := cam.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
	assert.Greater(t, driver.OpenCalls, 1, "open should be retried")
	assert.Equal(t, camera.StateInitialized, cam.State())
}

func TestGetFrameCaptureOrder(t *testing.T) {
	frames := make(chan camera.Frame, 3)
	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(frames)

	cam := openTestCamera(t, driver)

	for i := 0; i < 3; i++ {
		frames <- testutil.GrayFrame(4, 4, byte(10+i))
	}

	for i := 0; i < 3; i++ {
		frame, err := cam.GetFrame(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), frame.Seq)
		assert.Equal(t, byte(10+i), frame.Data[0])
		assert.Zero(t, frame.Dropped)
		assert.False(t, frame.Timestamp.IsZero())
	}
}

func TestGetFrameLatestDiscardsBacklog(t *testing.T) {
	frames := make(chan camera.Frame, 3)
	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(frames)

	cam := openTestCamera(t, driver)

	for i := 0; i < 3; i++ {
		frames <- testutil.GrayFrame(4, 4, byte(i))
	}
	// The fourth ReadFrame call blocks on the channel, which means the
	// first three frames have all been pushed.
	require.Eventually(t, func() bool { return driver.ReadFrameCount() >= 4 },
		time.Second, time.Millisecond)

	frame, err := cam.GetFrame(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), frame.Seq)
	// Skipped backlog was discarded on request, not dropped.
	assert.Zero(t, frame.Dropped)
	assert.Zero(t, cam.DroppedFrames())
}

func TestOverflowDropAdvisory(t *testing.T) {
	const doc = `{"cameras":[{"role":"master","buffer_size":2}]}`
	params, err := config.Parse([]byte(doc), 0)
	require.NoError(t, err)

	frames := make(chan camera.Frame, 5)
	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(frames)

	cam := newTestCamera(t, driver)
	require.NoError(t, cam.InitParameters(params))
	require.NoError(t, cam.Open(context.Background()))

	for i := 0; i < 5; i++ {
		frames <- testutil.GrayFrame(4, 4, byte(i))
	}
	require.Eventually(t, func() bool { return driver.ReadFrameCount() >= 6 },
		time.Second, time.Millisecond)

	// Capacity 2: frames 1..3 were dropped oldest-first, 4 and 5 remain.
	frame, err := cam.GetFrame(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), frame.Seq)
	assert.Equal(t, uint64(3), frame.Dropped)

	frame, err = cam.GetFrame(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), frame.Seq)
	assert.Zero(t, frame.Dropped, "drops are reported once")

	assert.Equal(t, uint64(3), cam.DroppedFrames())
}

func TestDeviceFaultSurfacesAfterDrain(t *testing.T) {
	frames := make(chan camera.Frame, 1)
	frames <- testutil.GrayFrame(4, 4, 1)
	close(frames)

	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(frames)

	cam := openTestCamera(t, driver)

	// The buffered frame is still delivered before the fault.
	frame, err := cam.GetFrame(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), frame.Seq)

	_, err = cam.GetFrame(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsDevice(err))

	health := cam.Health()
	assert.False(t, health.Healthy)
	assert.Equal(t, int64(1), health.DeviceFaults)
}

func TestGetFrameTimeout(t *testing.T) {
	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(nil) // blocks until ctx ends

	cam := openTestCamera(t, driver, camera.WithAcquireTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := cam.GetFrame(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.ErrorIs(t, err, errors.ErrFrameTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGetFrameCallerDeadlineWins(t *testing.T) {
	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(nil)

	cam := openTestCamera(t, driver, camera.WithAcquireTimeout(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cam.GetFrame(ctx, false)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
}

func TestCloseUnblocksGetFrame(t *testing.T) {
	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(nil)

	cam := openTestCamera(t, driver, camera.WithAcquireTimeout(0))

	errCh := make(chan error, 1)
	go func() {
		_, err := cam.GetFrame(context.Background(), false)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cam.Close())

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, errors.IsLifecycle(err))
	case <-time.After(time.Second):
		t.Fatal("GetFrame was not unblocked by Close")
	}
	assert.Equal(t, 1, driver.CloseCalls)
}

func TestGetFrameConcurrentWithClose(t *testing.T) {
	driver := testutil.NewMockDriver()
	cam := openTestCamera(t, driver,
		camera.WithMetrics(metric.NewRegistry()),
		camera.WithAcquireTimeout(200*time.Millisecond))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := cam.GetFrame(context.Background(), false); err != nil {
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cam.Close())
	wg.Wait()
	assert.Equal(t, camera.StateClosed, cam.State())
}

func TestSetProperty(t *testing.T) {
	tests := []struct {
		name      string
		prop      camera.Property
		wantValue float64
		wantErr   func(error) bool
	}{
		{
			name:      "valid value is applied",
			prop:      camera.Property{Kind: camera.PropGain, Value: 12},
			wantValue: 12,
		},
		{
			name:      "auto on a supporting property",
			prop:      camera.Property{Kind: camera.PropBrightness, Value: 50, Auto: true},
			wantValue: 50,
		},
		{
			name:    "unsupported kind",
			prop:    camera.Property{Kind: camera.PropHue, Value: 1},
			wantErr: errors.IsUnsupportedProperty,
		},
		{
			name:    "auto on a non-supporting property",
			prop:    camera.Property{Kind: camera.PropGain, Auto: true},
			wantErr: errors.IsUnsupportedProperty,
		},
		{
			name:    "out of range without clamping",
			prop:    camera.Property{Kind: camera.PropGain, Value: 100},
			wantErr: errors.IsOutOfRange,
		},
		{
			name:      "out of range with clamping applies the bound",
			prop:      camera.Property{Kind: camera.PropShutter, Value: 9999},
			wantValue: 4000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := testutil.NewMockDriver()
			cam := openTestCamera(t, driver)

			applied, err := cam.SetProperty(tt.prop)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err))
				_, touched := driver.AppliedValue(tt.prop.Kind)
				assert.False(t, touched, "rejected property must not reach the device")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, applied.Value)
			assert.Equal(t, tt.prop.Auto, applied.Auto)

			devProp, ok := driver.AppliedValue(tt.prop.Kind)
			require.True(t, ok)
			assert.Equal(t, tt.wantValue, devProp.Value)
		})
	}
}

func TestGetProperty(t *testing.T) {
	driver := testutil.NewMockDriver()
	cam := openTestCamera(t, driver)

	// Before any set, properties read back their defaults.
	p, err := cam.GetProperty(camera.PropBrightness)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.Value)

	_, err = cam.SetProperty(camera.Property{Kind: camera.PropBrightness, Value: 80})
	require.NoError(t, err)

	p, err = cam.GetProperty(camera.PropBrightness)
	require.NoError(t, err)
	assert.Equal(t, 80.0, p.Value)

	_, err = cam.GetProperty(camera.PropHue)
	require.Error(t, err)
	assert.True(t, errors.IsUnsupportedProperty(err))
}

func TestSetPropertyDefaults(t *testing.T) {
	driver := testutil.NewMockDriver()
	cam := openTestCamera(t, driver)

	_, err := cam.SetProperty(camera.Property{Kind: camera.PropBrightness, Value: 80})
	require.NoError(t, err)
	_, err = cam.SetProperty(camera.Property{Kind: camera.PropGain, Value: 10})
	require.NoError(t, err)

	require.NoError(t, cam.SetPropertyDefaults())

	for kind, rng := range driver.Ranges {
		p, ok := driver.AppliedValue(kind)
		require.True(t, ok, "default for %s was never applied", kind)
		assert.Equal(t, rng.Default, p.Value, "%s", kind)
		assert.Equal(t, rng.DefaultAuto, p.Auto, "%s", kind)
	}
}

func TestSetPropertyDefaultsRollsBackOnFailure(t *testing.T) {
	driver := testutil.NewMockDriver()
	driver.SetPropertyFunc = func(p camera.Property) error {
		if p.Kind == camera.PropShutter {
			return stderrors.New("shutter stuck")
		}
		return nil
	}

	cam := openTestCamera(t, driver)

	_, err := cam.SetProperty(camera.Property{Kind: camera.PropBrightness, Value: 80})
	require.NoError(t, err)

	err = cam.SetPropertyDefaults()
	require.Error(t, err)
	assert.True(t, errors.IsDevice(err))

	// Brightness was reset before the shutter failure and must be back
	// at its pre-call value.
	p, ok := driver.AppliedValue(camera.PropBrightness)
	require.True(t, ok)
	assert.Equal(t, 80.0, p.Value)
}

func TestSaveParametersRoundTrip(t *testing.T) {
	path := testutil.WriteConfigFile(t, testutil.SingleCameraDoc)
	cam := newTestCamera(t, testutil.NewMockDriver())
	require.NoError(t, cam.Init(path, 0))

	out := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, cam.SaveParameters(out))

	reloaded, err := config.Load(out, 0)
	require.NoError(t, err)
	assert.True(t, cam.Parameters().Equal(reloaded),
		"closed-camera save must round-trip identically")
}

func TestSaveParametersMergesLiveProperties(t *testing.T) {
	driver := testutil.NewMockDriver()
	cam := openTestCamera(t, driver)

	_, err := cam.SetProperty(camera.Property{Kind: camera.PropGain, Value: 7})
	require.NoError(t, err)
	_, err = cam.SetProperty(camera.Property{Kind: camera.PropBrightness, Auto: true})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.json")
	require.NoError(t, cam.SaveParameters(out))

	reloaded, err := config.Load(out, 0)
	require.NoError(t, err)

	gain, err := reloaded.Gain.Float()
	require.NoError(t, err)
	assert.Equal(t, 7.0, gain)
	assert.True(t, reloaded.Brightness.IsAuto())
}

func TestSaveParametersRequiresInit(t *testing.T) {
	cam := newTestCamera(t, testutil.NewMockDriver())

	err := cam.SaveParameters(filepath.Join(t.TempDir(), "saved.json"))
	require.Error(t, err)
	assert.True(t, errors.IsLifecycle(err))
}

func TestImageSourcePassthroughOnLiveBackend(t *testing.T) {
	cam := openTestCamera(t, testutil.NewMockDriver())

	assert.Equal(t, camera.UnboundedImages, cam.GetNumberOfImages())
	assert.NoError(t, cam.SetPathToImages("/anywhere"))
	assert.NoError(t, cam.ResetImages())
}

func TestHealthSnapshot(t *testing.T) {
	frames := make(chan camera.Frame, 1)
	frames <- testutil.GrayFrame(4, 4, 1)

	driver := testutil.NewMockDriver()
	driver.ReadFrameFunc = frameSource(frames)

	cam := openTestCamera(t, driver)

	_, err := cam.GetFrame(context.Background(), false)
	require.NoError(t, err)

	health := cam.Health()
	assert.True(t, health.Healthy)
	assert.Equal(t, "open", health.State)
	assert.Equal(t, int64(1), health.FramesDelivered)
	assert.Zero(t, health.DeviceFaults)

	require.NoError(t, cam.Close())
	health = cam.Health()
	assert.False(t, health.Healthy)
	assert.Equal(t, "closed", health.State)
}
