package camera_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/errors"
	"github.com/c360/camerakit/testutil"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := camera.NewRegistry()

	require.NoError(t, reg.Register(camera.KindSimulated, func() (camera.Driver, error) {
		return testutil.NewMockDriver(), nil
	}))

	factory, ok := reg.Lookup(camera.KindSimulated)
	require.True(t, ok)
	driver, err := factory()
	require.NoError(t, err)
	assert.Equal(t, camera.KindSimulated, driver.Kind())

	_, ok = reg.Lookup(camera.KindAxis)
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := camera.NewRegistry()
	factory := func() (camera.Driver, error) { return testutil.NewMockDriver(), nil }

	require.NoError(t, reg.Register(camera.KindSimulated, factory))

	err := reg.Register(camera.KindSimulated, factory)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestRegistryRejectsInvalidInput(t *testing.T) {
	reg := camera.NewRegistry()

	err := reg.Register("", func() (camera.Driver, error) { return testutil.NewMockDriver(), nil })
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))

	err = reg.Register(camera.KindSimulated, nil)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestRegistryKindsSorted(t *testing.T) {
	reg := camera.NewRegistry()
	factory := func() (camera.Driver, error) { return testutil.NewMockDriver(), nil }

	require.NoError(t, reg.Register(camera.KindVirtual, factory))
	require.NoError(t, reg.Register(camera.KindAxis, factory))
	require.NoError(t, reg.Register(camera.KindSimulated, factory))

	assert.Equal(t,
		[]camera.Kind{camera.KindAxis, camera.KindSimulated, camera.KindVirtual},
		reg.Kinds())
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := camera.New(camera.Kind("nonexistent-backend"))
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.ErrorIs(t, err, errors.ErrUnknownBackend)
}

func TestNewPropagatesFactoryFailure(t *testing.T) {
	kind := camera.Kind("broken-test-backend")
	require.NoError(t, camera.Register(kind, func() (camera.Driver, error) {
		return nil, stderrors.New("sdk not present")
	}))

	_, err := camera.New(kind)
	require.Error(t, err)
	assert.True(t, errors.IsUnavailable(err))
}

func TestNewFromDriver(t *testing.T) {
	driver := testutil.NewMockDriver()
	handle := camera.NewFromDriver(driver, camera.WithName("bench-cam"))

	cam := handle.Camera()
	require.NotNil(t, cam)
	assert.Equal(t, "bench-cam", cam.Name())
	assert.Equal(t, camera.KindSimulated, cam.Kind())
	assert.NotEmpty(t, cam.ID())

	require.NoError(t, handle.Release())
}
