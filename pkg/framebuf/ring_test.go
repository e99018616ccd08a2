package framebuf

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRingBasicOrder(t *testing.T) {
	ring, err := New[int](4)
	require.NoError(t, err, "Failed to create ring")
	defer ring.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, ring.Push(i))
	}

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		item, drops, err := ring.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, i, item, "items must come back in push order")
		require.Zero(t, drops)
	}
}

func TestRingOverflowDropsOldest(t *testing.T) {
	ring, err := New[int](3)
	require.NoError(t, err)
	defer ring.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, ring.Push(i))
	}

	// 1 and 2 were dropped; first read reports both drops.
	item, drops, err := ring.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, item)
	require.Equal(t, uint64(2), drops, "drop advisory must arrive with the next read")

	// Advisory is reported once, not repeated.
	item, drops, err = ring.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, item)
	require.Zero(t, drops)

	require.Equal(t, uint64(2), ring.Dropped(), "cumulative drop count persists")
}

func TestRingLatestDiscardsBacklog(t *testing.T) {
	ring, err := New[int](8)
	require.NoError(t, err)
	defer ring.Close()

	for i := 1; i <= 5; i++ {
		require.NoError(t, ring.Push(i))
	}

	item, _, err := ring.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, item, "Latest must return the newest item")
	require.Zero(t, ring.Len(), "Latest must drain the backlog")
	require.Equal(t, uint64(4), ring.Stats().Skips())
	require.Zero(t, ring.Dropped(), "deliberate discards are not overflow drops")
}

func TestRingNextBlocksUntilPush(t *testing.T) {
	ring, err := New[int](2)
	require.NoError(t, err)
	defer ring.Close()

	var wg sync.WaitGroup
	wg.Add(1)

	var got int
	go func() {
		defer wg.Done()
		item, _, err := ring.Next(context.Background())
		require.NoError(t, err)
		got = item
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ring.Push(42))
	wg.Wait()
	require.Equal(t, 42, got)
}

func TestRingNextContextDeadline(t *testing.T) {
	ring, err := New[int](2)
	require.NoError(t, err)
	defer ring.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, _, err = ring.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRingCloseUnblocksReader(t *testing.T) {
	ring, err := New[int](2)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := ring.Next(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ring.Close())

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock the reader")
	}
}

func TestRingFailReportedAfterDrain(t *testing.T) {
	ring, err := New[int](4)
	require.NoError(t, err)
	defer ring.Close()

	require.NoError(t, ring.Push(1))
	fault := errors.New("transport fault")
	ring.Fail(fault)

	// Buffered item still readable first.
	item, _, err := ring.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, item)

	// Drained ring surfaces the fault instead of blocking.
	_, _, err = ring.Next(context.Background())
	require.ErrorIs(t, err, fault)
}

func TestRingFailUnblocksWaiter(t *testing.T) {
	ring, err := New[int](2)
	require.NoError(t, err)
	defer ring.Close()

	done := make(chan error, 1)
	go func() {
		_, _, err := ring.Next(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	fault := errors.New("no frames ever")
	ring.Fail(fault)

	select {
	case err := <-done:
		require.ErrorIs(t, err, fault)
	case <-time.After(time.Second):
		t.Fatal("Fail did not unblock the reader")
	}
}

func TestRingPushAfterClose(t *testing.T) {
	ring, err := New[int](2)
	require.NoError(t, err)
	require.NoError(t, ring.Close())
	require.ErrorIs(t, ring.Push(1), ErrClosed)
	require.NoError(t, ring.Close(), "Close must be idempotent")
}

func TestRingDropCallback(t *testing.T) {
	var dropped []int
	ring, err := New[int](2, WithDropCallback[int](func(item int) {
		dropped = append(dropped, item)
	}))
	require.NoError(t, err)
	defer ring.Close()

	for i := 1; i <= 4; i++ {
		require.NoError(t, ring.Push(i))
	}
	require.Equal(t, []int{1, 2}, dropped)
}

func TestRingDropCallbackMayReenter(t *testing.T) {
	var ring *Ring[int]
	var seenLen []int
	ring, err := New[int](1, WithDropCallback[int](func(item int) {
		// Calling back into the ring must not deadlock the producer.
		seenLen = append(seenLen, ring.Len())
	}))
	require.NoError(t, err)
	defer ring.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, ring.Push(1))
		require.NoError(t, ring.Push(2))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("drop callback deadlocked the producer")
	}
	require.Equal(t, []int{1}, seenLen)

	item, drops, err := ring.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, item)
	require.Equal(t, uint64(1), drops)
}

func TestRingTryNext(t *testing.T) {
	ring, err := New[int](2)
	require.NoError(t, err)
	defer ring.Close()

	_, _, ok := ring.TryNext()
	require.False(t, ok, "TryNext on empty ring must not block")

	require.NoError(t, ring.Push(7))
	item, drops, ok := ring.TryNext()
	require.True(t, ok)
	require.Equal(t, 7, item)
	require.Zero(t, drops)
}

func TestRingMinimumCapacity(t *testing.T) {
	ring, err := New[int](0)
	require.NoError(t, err)
	defer ring.Close()
	require.Equal(t, 1, ring.Cap())
}

func TestRingConcurrentProducerConsumer(t *testing.T) {
	ring, err := New[int](16)
	require.NoError(t, err)
	defer ring.Close()

	const total = 500
	go func() {
		for i := 0; i < total; i++ {
			_ = ring.Push(i)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	last := -1
	read := 0
	var drops uint64
	for read+int(drops) < total {
		item, d, err := ring.Next(ctx)
		require.NoError(t, err)
		require.Greater(t, item, last, "items must never repeat or reorder")
		last = item
		read++
		drops += d
	}
	require.Equal(t, total, read+int(drops))
}
