package jobpool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobPanicError(t *testing.T) {
	t.Parallel()
	err := newJobPanicError("kaboom", []byte("stack trace"), 7, 3)

	require.ErrorIs(t, err, ErrJobPanicked)
	require.Equal(t, "jobpool: job execution panicked: kaboom", err.Error())
	require.Equal(t, err.Error(), fmt.Sprintf("%v", err))
	require.Equal(t, err.Error(), fmt.Sprintf("%s", err))
	require.Equal(t, fmt.Sprintf("%q", err.Error()), fmt.Sprintf("%q", err))
	require.Equal(t, "job(seq=7,worker=3): jobpool: job execution panicked: kaboom\nstack trace", fmt.Sprintf("%+v", err))

	wrapped := fmt.Errorf("outer: %w", err)
	seq, ok := ExtractJobSeq(wrapped)
	require.True(t, ok)
	require.Equal(t, uint64(7), seq)
	w, ok := ExtractWorker(wrapped)
	require.True(t, ok)
	require.Equal(t, 3, w)
}

func TestExtract_NoMetadata(t *testing.T) {
	t.Parallel()
	_, ok := ExtractJobSeq(errors.New("plain"))
	require.False(t, ok)
	_, ok = ExtractWorker(nil)
	require.False(t, ok)
}

func TestQueuedJob_Run(t *testing.T) {
	t.Parallel()

	ran := false
	require.NoError(t, queuedJob{job: func() { ran = true }, seq: 1}.run(0))
	require.True(t, ran)

	err := queuedJob{job: func() { panic(errors.New("inner")) }, seq: 9}.run(4)
	var pe *JobPanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, uint64(9), pe.Seq())
	require.Equal(t, 4, pe.Worker())
	require.EqualError(t, pe.Value().(error), "inner")
	require.Contains(t, string(pe.Stack()), "goroutine")
}
