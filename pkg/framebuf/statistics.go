package framebuf

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks ring activity. Counters use atomics so the producer
// and consumer never contend on the statistics themselves.
type Statistics struct {
	pushes int64
	reads  int64
	skips  int64
	drops  int64

	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Push records a producer write.
func (s *Statistics) Push() {
	atomic.AddInt64(&s.pushes, 1)
}

// Read records a consumer read.
func (s *Statistics) Read() {
	atomic.AddInt64(&s.reads, 1)
}

// Skip records an item discarded by a latest-frame read.
func (s *Statistics) Skip() {
	atomic.AddInt64(&s.skips, 1)
}

// Drop records an item lost to overflow.
func (s *Statistics) Drop() {
	atomic.AddInt64(&s.drops, 1)
}

// UpdateSize updates the current and high-water sizes.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
}

// Pushes returns the total number of producer writes.
func (s *Statistics) Pushes() uint64 {
	return uint64(atomic.LoadInt64(&s.pushes))
}

// Reads returns the total number of consumer reads.
func (s *Statistics) Reads() uint64 {
	return uint64(atomic.LoadInt64(&s.reads))
}

// Skips returns the total number of items discarded by latest-frame reads.
func (s *Statistics) Skips() uint64 {
	return uint64(atomic.LoadInt64(&s.skips))
}

// Drops returns the total number of items lost to overflow.
func (s *Statistics) Drops() uint64 {
	return uint64(atomic.LoadInt64(&s.drops))
}

// Size returns the current number of unread items.
func (s *Statistics) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the high-water mark of unread items.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// Uptime returns the time elapsed since the ring was created.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}
