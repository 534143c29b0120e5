package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteKeepsInputOrder(t *testing.T) {
	pool := NewPool[int, int](3, func(_ context.Context, n int) (int, error) {
		return n * n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3, 4, 5})
	require.Len(t, tasks, 5)
	for i, task := range tasks {
		assert.True(t, task.Done)
		assert.Equal(t, i+1, task.Input)
		assert.Equal(t, (i+1)*(i+1), task.Result)
	}
	assert.NoError(t, FirstError(context.Background(), tasks))
}

func TestFirstErrorReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	pool := NewPool[int, int](2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	tasks := pool.Execute(context.Background(), []int{1, 2, 3})
	assert.ErrorIs(t, FirstError(context.Background(), tasks), boom)
}

func TestFailFastStopsDispatch(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32
	pool := NewPool[int, int](1, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n == 0 {
			return 0, boom
		}
		return n, nil
	}).FailFast()

	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}
	tasks := pool.Execute(context.Background(), inputs)

	assert.ErrorIs(t, FirstError(context.Background(), tasks), boom)
	assert.Less(t, int(ran.Load()), len(inputs))
}

func TestFirstErrorOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewPool[int, int](2, func(_ context.Context, n int) (int, error) { return n, nil })
	tasks := pool.Execute(ctx, []int{1, 2, 3})
	assert.ErrorIs(t, FirstError(ctx, tasks), context.Canceled)
}

func TestBatch(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batch([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Batch([]int{1, 2}, 0))
	assert.Nil(t, Batch([]int{}, 3))
}
