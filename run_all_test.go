package jobpool_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/jobpool"
)

func TestRunAll(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	var handled atomic.Int32
	jobs := []jobpool.Job{
		func() { ran.Add(1) },
		func() { panic("first") },
		nil,
		func() { ran.Add(1) },
		func() { panic("second") },
	}

	err := jobpool.RunAll(jobs, jobpool.WithPanicHandler(func(error) { handled.Add(1) }))

	require.Equal(t, int32(2), ran.Load())
	require.Equal(t, int32(2), handled.Load(), "user handler still called")
	require.ErrorIs(t, err, jobpool.ErrJobPanicked)
	require.ErrorIs(t, err, jobpool.ErrNilJob)
	require.Contains(t, err.Error(), "job 2")

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	require.Len(t, joined.Unwrap(), 3)
}

func TestRunAll_Empty(t *testing.T) {
	t.Parallel()
	require.NoError(t, jobpool.RunAll(nil))
}

func TestRunAll_InvalidOption(t *testing.T) {
	t.Parallel()
	err := jobpool.RunAll([]jobpool.Job{func() {}}, jobpool.WithLogger(nil))
	require.ErrorIs(t, err, jobpool.ErrInvalidConfig)
}

func TestForEach(t *testing.T) {
	t.Parallel()

	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	var sum atomic.Int64
	require.NoError(t, jobpool.ForEach(items, func(n int) { sum.Add(int64(n)) }))
	require.Equal(t, int64(999*1000/2), sum.Load())

	require.NoError(t, jobpool.ForEach[int](nil, func(int) { t.Fatal("called") }))
}
