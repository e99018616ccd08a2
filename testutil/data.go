package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360/camerakit/camera"
	"github.com/c360/camerakit/config"
)

// GrayFrame returns a width x height 8-bit grayscale frame filled with
// one value.
func GrayFrame(width, height int, value byte) camera.Frame {
	data := make([]byte, width*height)
	for i := range data {
		data[i] = value
	}
	return camera.Frame{
		Data:     data,
		Width:    width,
		Height:   height,
		Encoding: "gray8",
	}
}

// GradientFrame returns a frame whose pixel values ramp across rows, so
// two frames with different offsets are distinguishable in asserts.
func GradientFrame(width, height int, offset byte) camera.Frame {
	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = byte(int(offset) + y)
		}
	}
	return camera.Frame{
		Data:     data,
		Width:    width,
		Height:   height,
		Encoding: "gray8",
	}
}

// SingleCameraDoc is a minimal valid configuration document with one
// master camera.
const SingleCameraDoc = `{
  "cameras": [
    {
      "role": "master",
      "image_width": 640,
      "image_height": 480,
      "frame_rate": 30,
      "buffer_size": 4
    }
  ]
}`

// TestParameters returns fully resolved parameters for a minimal valid
// camera.
func TestParameters() *config.CameraParameters {
	params, err := config.Parse([]byte(SingleCameraDoc), 0)
	if err != nil {
		panic(fmt.Sprintf("testutil: invalid fixture document: %v", err))
	}
	return params
}

// WriteConfigFile writes a configuration document into a temp directory
// and returns its path. The file is removed with the test's temp dir.
func WriteConfigFile(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cameras.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config document: %v", err)
	}
	return path
}

// WriteImageDir creates a directory of count raw image files for the
// replay backend and returns its path. Files sort in capture order and
// each carries a distinct first byte so tests can check ordering.
func WriteImageDir(t *testing.T, count, width, height int) string {
	t.Helper()

	dir := t.TempDir()
	for i := 0; i < count; i++ {
		frame := GrayFrame(width, height, byte(i))
		name := filepath.Join(dir, fmt.Sprintf("frame_%04d.raw", i))
		if err := os.WriteFile(name, frame.Data, 0o644); err != nil {
			t.Fatalf("write image file: %v", err)
		}
	}
	return dir
}
