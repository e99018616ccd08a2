package camera_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
	"github.com/c360/camerakit/pkg/retry"
	"github.com/c360/camerakit/testutil"
)

func stepsByName(results []camera.StepResult) map[string]camera.StepResult {
	byName := make(map[string]camera.StepResult, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	return byName
}

func TestSelfTestDrivesFullLifecycle(t *testing.T) {
	driver := testutil.NewMockDriver()
	cam := newTestCamera(t, driver)
	require.NoError(t, cam.InitParameters(testutil.TestParameters()))

	results, passed := cam.SelfTest(context.Background())
	assert.True(t, passed)
	require.Len(t, results, 5)

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		assert.True(t, r.Passed, "step %s: %s", r.Name, r.Detail)
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, []string{"parameters", "open", "properties", "acquisition", "close"}, names)

	assert.Equal(t, 1, driver.OpenCalls, "self-test opens the device itself")
	assert.Equal(t, 1, driver.CloseCalls, "self-test closes the device it opened")
	assert.Equal(t, camera.StateClosed, cam.State())
}

func TestSelfTestFromConfigFile(t *testing.T) {
	path := testutil.WriteConfigFile(t, testutil.SingleCameraDoc)
	cam := newTestCamera(t, testutil.NewMockDriver())

	results, passed := camera.RunSelfTest(context.Background(), cam, path, 0)
	assert.True(t, passed)
	require.Len(t, results, 6)
	assert.Equal(t, "init", results[0].Name)
	assert.True(t, results[0].Passed)
	assert.Equal(t, camera.StateClosed, cam.State())
}

func TestSelfTestReportsOpenFailure(t *testing.T) {
	driver := testutil.NewMockDriver()
	driver.OpenFunc = func(context.Context, *config.CameraParameters) error {
		return stderrors.New("no such device")
	}
	cam := newTestCamera(t, driver,
		camera.WithOpenRetry(retry.Config{MaxAttempts: 2, InitialDelay: 1, MaxDelay: 1, Multiplier: 1}))
	require.NoError(t, cam.InitParameters(testutil.TestParameters()))

	results, passed := cam.SelfTest(context.Background())
	assert.False(t, passed)
	require.Len(t, results, 5, "every step reports even after open fails")

	byName := stepsByName(results)
	assert.True(t, byName["parameters"].Passed)
	assert.False(t, byName["open"].Passed)
	assert.False(t, byName["properties"].Passed)
	assert.False(t, byName["acquisition"].Passed)
	assert.True(t, byName["close"].Passed, "close is a no-op success when open failed")
}

func TestSelfTestReportsInitFailure(t *testing.T) {
	cam := newTestCamera(t, testutil.NewMockDriver())

	results, passed := camera.RunSelfTest(context.Background(), cam, "/nonexistent/cameras.json", 0)
	assert.False(t, passed)
	require.Len(t, results, 6)

	byName := stepsByName(results)
	assert.False(t, byName["init"].Passed)
	assert.False(t, byName["parameters"].Passed)
	assert.False(t, byName["open"].Passed)
	assert.True(t, byName["close"].Passed)
}

func TestPrintInformation(t *testing.T) {
	cam := openTestCamera(t, testutil.NewMockDriver(), camera.WithName("dump-cam"))

	var buf bytes.Buffer
	require.NoError(t, cam.PrintInformation(&buf))

	out := buf.String()
	assert.Contains(t, out, "dump-cam")
	assert.Contains(t, out, "state:   open")
	assert.Contains(t, out, "brightness")
	assert.Contains(t, out, "parameters:")
}
