package camera

import (
	"math"
	"time"
)

// UnboundedImages is returned by GetNumberOfImages for live backends
// whose frame supply has no fixed end.
const UnboundedImages = math.MaxInt32

// Frame is one acquired image. The Data slice is owned by the receiver:
// drivers hand a fresh buffer to the acquisition loop for every capture,
// so frames returned from GetFrame are never reused or overwritten by a
// later acquisition.
type Frame struct {
	Data     []byte
	Width    int
	Height   int
	Encoding string

	// Seq is the acquisition sequence number, starting at 1 for the
	// first frame captured after Open.
	Seq uint64

	// Timestamp is the capture time recorded by the acquisition loop.
	Timestamp time.Time

	// Dropped counts unread frames lost to buffer overflow between the
	// previous successful GetFrame return and this one. Zero means no
	// frames were missed.
	Dropped uint64
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	copied := f
	if f.Data != nil {
		copied.Data = make([]byte, len(f.Data))
		copy(copied.Data, f.Data)
	}
	return copied
}
