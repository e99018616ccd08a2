package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/camerakit/errors"
)

const twoCameraDoc = `{
  "cameras": [
    {
      "role": "master",
      "video_format": "7",
      "color_mode": "RGB8",
      "frame_rate": "30",
      "shutter": "AUTO",
      "exposure_time": "AUTO",
      "gain": "DEFAULT",
      "image_width": 640,
      "image_height": 480,
      "interface": "firewire",
      "buffer_size": "4"
    },
    {
      "role": "slave",
      "color_mode": "Mono8",
      "frame_rate": "15",
      "image_width": "320",
      "image_height": "240",
      "interface": "ethernet",
      "address": "192.168.0.42"
    }
  ]
}`

func TestParseTwoCameraDocument(t *testing.T) {
	master, err := Parse([]byte(twoCameraDoc), 0)
	require.NoError(t, err)

	role, ok := master.Role.Value()
	require.True(t, ok)
	assert.Equal(t, RoleMaster, role)
	assert.Equal(t, 640, master.ImageWidth.IntOr(0))
	assert.Equal(t, 480, master.ImageHeight.IntOr(0))
	assert.Equal(t, 4, master.BufferSize.IntOr(0))
	assert.True(t, master.Shutter.IsAuto())
	assert.True(t, master.Gain.IsDefault())

	slave, err := Parse([]byte(twoCameraDoc), 1)
	require.NoError(t, err)

	role, ok = slave.Role.Value()
	require.True(t, ok)
	assert.Equal(t, RoleSlave, role)
	addr, ok := slave.Address.Value()
	require.True(t, ok)
	assert.Equal(t, "192.168.0.42", addr)
}

func TestParseIndexOutOfRange(t *testing.T) {
	_, err := Parse([]byte(twoCameraDoc), 5)
	require.Error(t, err)
	assert.True(t, errors.IsIndex(err), "index 5 against a 2-camera document must be an index error")

	_, err = Parse([]byte(twoCameraDoc), -1)
	require.Error(t, err)
	assert.True(t, errors.IsIndex(err))
}

func TestParseResolvesAbsentFieldsToDefault(t *testing.T) {
	params, err := Parse([]byte(`{"cameras":[{"role":"master"}]}`), 0)
	require.NoError(t, err)

	// Every field must be resolved after a successful load.
	for _, f := range params.fields() {
		assert.True(t, f.setting.IsSet(), "field %s left unset", f.name)
	}
	assert.True(t, params.Shutter.IsDefault())
	assert.True(t, params.FrameRate.IsDefault())
}

func TestParseMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"cameras": [`},
		{"missing cameras key", `{"devices": []}`},
		{"unknown field", `{"cameras":[{"roel":"master"}]}`},
		{"bad token type", `{"cameras":[{"role": true}]}`},
		{"bad role", `{"cameras":[{"role":"primary"}]}`},
		{"bad interface", `{"cameras":[{"interface":"serial"}]}`},
		{"negative width", `{"cameras":[{"image_width":"-1"}]}`},
		{"zero frame rate", `{"cameras":[{"frame_rate":"0"}]}`},
		{"non-numeric width", `{"cameras":[{"image_width":"wide"}]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.doc), 0)
			require.Error(t, err)
			assert.True(t, errors.IsConfig(err), "expected config error, got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"), 0)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestSaveRoundTrip(t *testing.T) {
	original, err := Parse([]byte(twoCameraDoc), 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "camera0.json")
	require.NoError(t, Save(path, original))

	reloaded, err := Load(path, 0)
	require.NoError(t, err)

	assert.True(t, original.Equal(reloaded),
		"round trip mismatch: %s", cmp.Diff(original, reloaded, cmp.AllowUnexported(Setting{})))
}

func TestSaveWriteFailure(t *testing.T) {
	params, err := Parse([]byte(twoCameraDoc), 0)
	require.NoError(t, err)

	err = Save(filepath.Join(t.TempDir(), "no", "such", "dir", "out.json"), params)
	require.Error(t, err)
	assert.True(t, errors.IsIO(err))
}

func TestDocumentSaveMultipleCameras(t *testing.T) {
	doc, err := ParseDocument([]byte(twoCameraDoc))
	require.NoError(t, err)
	require.Len(t, doc.Cameras, 2)

	path := filepath.Join(t.TempDir(), "all.json")
	require.NoError(t, doc.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	reloaded, err := ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, reloaded.Cameras, 2)
	for i := range doc.Cameras {
		assert.True(t, doc.Cameras[i].Equal(&reloaded.Cameras[i]), "camera %d differs", i)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	params, err := Parse([]byte(twoCameraDoc), 0)
	require.NoError(t, err)

	clone := params.Clone()
	clone.Gain = LiteralFloat(2.5)

	assert.True(t, params.Gain.IsDefault(), "mutating a clone must not touch the original")
	assert.False(t, params.Equal(clone))
}
