package jobpool

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// helper: receive from chan error with timeout
func recvErr(t *testing.T, ch <-chan error, d time.Duration) (error, bool) {
	t.Helper()
	select {
	case v := <-ch:
		return v, true
	case <-time.After(d):
		return nil, false
	}
}

func newTestReporter(t *testing.T, opts ...Option) (*failureReporter, *bytes.Buffer, *int) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := defaultConfig()
	require.NoError(t, WithLogger(logger)(&cfg))
	for _, opt := range opts {
		require.NoError(t, opt(&cfg))
	}

	panics := 0
	return newFailureReporter(&cfg, func() { panics++ }), &logs, &panics
}

func TestFailureReporter_ChannelDisabled(t *testing.T) {
	r, logs, panics := newTestReporter(t)
	require.Nil(t, r.errors)

	r.report(newJobPanicError("boom", nil, 7, 1))

	require.Equal(t, 1, *panics)
	require.Contains(t, logs.String(), "job panicked")
	require.Contains(t, logs.String(), "seq=7")
}

func TestFailureReporter_DropsWhenBufferFull(t *testing.T) {
	r, logs, _ := newTestReporter(t, WithErrorsBuffer(1))

	first := newJobPanicError("first", nil, 1, 0)
	r.report(first)
	r.report(newJobPanicError("second", nil, 2, 0))

	got, ok := recvErr(t, r.errors, time.Second)
	require.True(t, ok)
	require.Same(t, first, got)

	_, ok = recvErr(t, r.errors, 10*time.Millisecond)
	require.False(t, ok)
	require.Contains(t, logs.String(), "errors buffer full")
}

func TestFailureReporter_HandlerReceivesError(t *testing.T) {
	var got error
	r, _, _ := newTestReporter(t, WithPanicHandler(func(err error) { got = err }))

	r.report(newJobPanicError("boom", nil, 3, 2))

	require.ErrorIs(t, got, ErrJobPanicked)
	var pe *JobPanicError
	require.True(t, errors.As(got, &pe))
	require.Equal(t, 2, pe.Worker())
}

func TestFailureReporter_HandlerPanicRecovered(t *testing.T) {
	r, logs, panics := newTestReporter(t,
		WithErrorsBuffer(1),
		WithPanicHandler(func(error) { panic("handler") }),
	)

	require.NotPanics(t, func() { r.report(newJobPanicError("boom", nil, 1, 0)) })
	require.Equal(t, 1, *panics)
	require.Contains(t, logs.String(), "panic handler panicked")

	// Delivery to the channel still happens after a handler panic.
	_, ok := recvErr(t, r.errors, time.Second)
	require.True(t, ok)
}
