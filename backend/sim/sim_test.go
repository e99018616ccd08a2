package sim_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/camerakit/backend/sim"
	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/errors"
	"github.com/c360/camerakit/pkg/retry"
)

func simParams(t *testing.T) *config.CameraParameters {
	t.Helper()

	const doc = `{"cameras":[{
		"role": "master",
		"frame_rate": 200,
		"image_width": 8,
		"image_height": 8,
		"buffer_size": 8
	}]}`
	params, err := config.Parse([]byte(doc), 0)
	require.NoError(t, err)
	return params
}

func TestSimFramesAreDeterministic(t *testing.T) {
	driver := sim.New()
	require.NoError(t, driver.Open(context.Background(), simParams(t)))
	defer driver.Close()

	frame, err := driver.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, frame.Width)

	// Pixel (x, y) of frame n is (x + y + n) mod 256.
	assert.Equal(t, byte(1), frame.Data[0])
	assert.Equal(t, byte(4), frame.Data[3])
	assert.Equal(t, byte(1+2+1), frame.Data[2*8+1])

	frame, err = driver.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(2), frame.Data[0])
	assert.Equal(t, 2, driver.FramesProduced())
}

func TestSimFullPropertyTable(t *testing.T) {
	handle := camera.NewFromDriver(sim.New())
	cam := handle.Camera()
	defer handle.Release()

	require.NoError(t, cam.InitParameters(simParams(t)))
	require.NoError(t, cam.Open(context.Background()))

	ranges := sim.New().Properties()
	assert.Len(t, ranges, 10, "simulator carries the full property surface")

	for kind, rng := range ranges {
		applied, err := cam.SetProperty(camera.Property{Kind: kind, Value: rng.Default})
		require.NoError(t, err, "set %s", kind)

		read, err := cam.GetProperty(kind)
		require.NoError(t, err, "get %s", kind)
		assert.Equal(t, applied.Value, read.Value, "%s", kind)
	}
}

func TestSimInducedFault(t *testing.T) {
	handle := camera.NewFromDriver(sim.New(sim.WithFailAfter(2)))
	cam := handle.Camera()
	defer handle.Release()

	require.NoError(t, cam.InitParameters(simParams(t)))
	require.NoError(t, cam.Open(context.Background()))

	for i := 0; i < 2; i++ {
		_, err := cam.GetFrame(context.Background(), false)
		require.NoError(t, err)
	}

	_, err := cam.GetFrame(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsDevice(err))
	assert.False(t, cam.Health().Healthy)
}

func TestSimOpenFault(t *testing.T) {
	driver := sim.New(sim.WithOpenError(stderrors.New("simulated bus error")))
	handle := camera.NewFromDriver(driver,
		camera.WithOpenRetry(retry.Config{MaxAttempts: 2, InitialDelay: 1, MaxDelay: 1, Multiplier: 1}))
	cam := handle.Camera()
	defer handle.Release()

	require.NoError(t, cam.InitParameters(simParams(t)))

	err := cam.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
	assert.Equal(t, camera.StateInitialized, cam.State())
}

func TestSimSelfTest(t *testing.T) {
	handle := camera.NewFromDriver(sim.New(), camera.WithName("sim-selftest"))
	cam := handle.Camera()
	defer handle.Release()

	require.NoError(t, cam.InitParameters(simParams(t)))

	results, passed := cam.SelfTest(context.Background())
	require.True(t, passed)
	assert.Len(t, results, 5)
	assert.Equal(t, camera.StateClosed, cam.State(), "self-test closes the device it opened")
}

func TestSimWithFrameSize(t *testing.T) {
	driver := sim.New(sim.WithFrameSize(16, 2))
	require.NoError(t, driver.Open(context.Background(), nil))
	defer driver.Close()

	frame, err := driver.ReadFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 16, frame.Width)
	assert.Equal(t, 2, frame.Height)
	assert.Len(t, frame.Data, 32)
}
