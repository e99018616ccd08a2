package events

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	// None of these may panic.
	p.StateChanged("initialized", "open")
	p.FrameDrop(3)
	p.DeviceFault(assert.AnError)
	p.PropertyChanged("gain", 1.5, false)
}

func TestPublisherLogsLocallyWithoutNATS(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p := NewPublisher("cam0", "id-1234", nil, logger)
	p.StateChanged("uninitialized", "initialized")
	p.FrameDrop(2)
	p.DeviceFault(assert.AnError)
	p.PropertyChanged("shutter", 0.02, true)

	out := buf.String()
	assert.Contains(t, out, "lifecycle transition")
	assert.Contains(t, out, "frames dropped")
	assert.Contains(t, out, "device fault")
	assert.Contains(t, out, "property changed")
	assert.Contains(t, out, "camera=cam0")
}

func TestFrameDropZeroIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	p := NewPublisher("cam0", "id", nil, logger)
	p.FrameDrop(0)
	assert.Empty(t, buf.String(), "zero drops produce no event")
}

func TestSubject(t *testing.T) {
	p := NewPublisher("bench-left", "id", nil, nil)
	require.Equal(t, "camera.events.bench-left", p.Subject())
}
