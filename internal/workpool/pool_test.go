package workpool

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSize(t *testing.T) {
	assert.Equal(t, 3, New(3).Size())
	assert.Equal(t, runtime.NumCPU(), New(0).Size())
	assert.Equal(t, runtime.NumCPU(), New(-1).Size())
}

func TestMapPreservesOrder(t *testing.T) {
	p := New(4)
	items := []int{5, 4, 3, 2, 1, 0}

	got, err := Map(context.Background(), p, items, func(_ context.Context, n int) (int, error) {
		// Later items finish first.
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{25, 16, 9, 4, 1, 0}, got)
}

func TestMapEmpty(t *testing.T) {
	got, err := Map(context.Background(), New(2), nil, func(_ context.Context, n int) (int, error) {
		t.Fatal("must not be called")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMapError(t *testing.T) {
	boom := errors.New("boom")
	p := New(2)

	got, err := Map(context.Background(), p, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task 2")
	assert.Nil(t, got)
}

func TestMapBoundedConcurrency(t *testing.T) {
	const size = 3
	p := New(size)

	var running, peak atomic.Int32
	items := make([]int, 30)
	_, err := Map(context.Background(), p, items, func(_ context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(size))
}

func TestMapSharedPoolAcrossCallers(t *testing.T) {
	const size = 2
	p := New(size)

	var running, peak atomic.Int32
	task := func(_ context.Context, _ int) (int, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return 0, nil
	}

	errs := make(chan error, 3)
	for range 3 {
		go func() {
			_, err := Map(context.Background(), p, make([]int, 10), task)
			errs <- err
		}()
	}
	for range 3 {
		require.NoError(t, <-errs)
	}
	assert.LessOrEqual(t, peak.Load(), int32(size), "callers share the pool slots")
}

func TestMapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := Map(ctx, New(2), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
