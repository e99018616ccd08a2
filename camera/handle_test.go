package camera_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/errors"
	"github.com/c360/camerakit/testutil"
)

func TestHandleLastReleaseCloses(t *testing.T) {
	driver := testutil.NewMockDriver()
	handle := camera.NewFromDriver(driver)
	cam := handle.Camera()
	require.NotNil(t, cam)

	require.NoError(t, cam.InitParameters(testutil.TestParameters()))
	require.NoError(t, cam.Open(context.Background()))

	require.NoError(t, handle.Retain())
	assert.Equal(t, int64(2), handle.Refs())

	// First release keeps the device open for the remaining holder.
	require.NoError(t, handle.Release())
	assert.Zero(t, driver.CloseCalls)
	assert.True(t, cam.IsOpen())

	require.NoError(t, handle.Release())
	assert.Equal(t, 1, driver.CloseCalls)
	assert.Nil(t, handle.Camera())
}

func TestHandleReleasedCannotRevive(t *testing.T) {
	handle := camera.NewFromDriver(testutil.NewMockDriver())
	require.NoError(t, handle.Release())

	err := handle.Retain()
	require.Error(t, err)
	assert.True(t, errors.IsLifecycle(err))
	assert.ErrorIs(t, err, errors.ErrReleased)

	err = handle.Release()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrReleased)
	assert.Zero(t, handle.Refs())
}

func TestHandleConcurrentRetainRelease(t *testing.T) {
	driver := testutil.NewMockDriver()
	handle := camera.NewFromDriver(driver)
	cam := handle.Camera()
	require.NoError(t, cam.InitParameters(testutil.TestParameters()))
	require.NoError(t, cam.Open(context.Background()))

	const holders = 16
	for i := 0; i < holders; i++ {
		require.NoError(t, handle.Retain())
	}

	var wg sync.WaitGroup
	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, handle.Release())
		}()
	}
	wg.Wait()

	// The original reference is still held.
	assert.Equal(t, int64(1), handle.Refs())
	assert.Zero(t, driver.CloseCalls)

	require.NoError(t, handle.Release())
	assert.Equal(t, 1, driver.CloseCalls)
}
