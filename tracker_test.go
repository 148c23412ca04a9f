package jobpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTracker_Counters(t *testing.T) {
	t.Parallel()
	tr := newTracker()

	require.False(t, tr.busy())
	require.Equal(t, uint64(1), tr.submit())
	require.Equal(t, uint64(2), tr.submit())
	require.True(t, tr.busy())

	tr.complete()
	require.True(t, tr.busy())
	tr.complete()
	require.False(t, tr.busy())

	tr.submit()
	tr.reset()
	require.False(t, tr.busy())
	require.Zero(t, tr.submitted.Load())
	require.Zero(t, tr.completed.Load())
}

func TestTracker_Wait_ReleasedOnDrain(t *testing.T) {
	t.Parallel()
	tr := newTracker()

	const n = 50
	for range n {
		tr.submit()
	}

	done := make(chan struct{})
	go func() {
		tr.wait()
		close(done)
	}()

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.complete()
		}()
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait not released after all completions")
	}
	require.False(t, tr.busy())
}

func TestTracker_Wait_NeverReturnsEarly(t *testing.T) {
	t.Parallel()
	tr := newTracker()
	tr.submit()
	tr.submit()

	done := make(chan struct{})
	go func() {
		tr.wait()
		close(done)
	}()

	tr.complete()
	select {
	case <-done:
		t.Fatal("wait returned with work outstanding")
	case <-time.After(50 * time.Millisecond):
	}

	tr.complete()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait not released")
	}
}

func TestTracker_ResetReleasesWaiters(t *testing.T) {
	t.Parallel()
	tr := newTracker()
	tr.submit()

	done := make(chan struct{})
	go func() {
		tr.wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	tr.reset()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reset did not release waiter")
	}
}

func TestTracker_WaitContextAndSpin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		wait func(*tracker, context.Context) error
	}{
		{name: "cond", wait: (*tracker).waitContext},
		{name: "spin", wait: (*tracker).spin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tr := newTracker()

			require.NoError(t, tt.wait(tr, context.Background()), "idle tracker")

			tr.submit()
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			require.ErrorIs(t, tt.wait(tr, ctx), context.Canceled)

			go func() {
				time.Sleep(10 * time.Millisecond)
				tr.complete()
			}()
			require.NoError(t, tt.wait(tr, context.Background()))
			require.False(t, tr.busy())
		})
	}
}
