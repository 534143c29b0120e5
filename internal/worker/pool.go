package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task holds one input and what processing it produced.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Done is false when the task never ran because the pool stopped early.
	Done bool
}

// ProcessFunc is the function signature for processing a single task.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool is a generic worker pool with configurable concurrency.
type Pool[T any, R any] struct {
	workers  int
	process  ProcessFunc[T, R]
	failFast bool
}

// NewPool creates a new worker pool.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// FailFast makes the pool stop handing out work after the first failure.
// Tasks already running see their context cancelled.
func (p *Pool[T, R]) FailFast() *Pool[T, R] {
	p.failFast = true
	return p
}

// Execute runs all inputs through the worker pool and returns one task per
// input, in input order.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i].Input = inputs[i]
	}
	inputCh := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx].Result = result
				results[idx].Err = err
				results[idx].Done = true
				if err != nil {
					log.Error().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
					if p.failFast {
						cancel()
					}
				}
			}
		}(w)
	}

	for i := range inputs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case inputCh <- i:
		}
	}
	close(inputCh)

	wg.Wait()
	return results
}

// FirstError returns the first task error in input order, preferring real
// failures over cancellations caused by them, or ctx's error if some task
// never ran.
func FirstError[T any, R any](ctx context.Context, tasks []Task[T, R]) error {
	var cancelled error
	for _, t := range tasks {
		switch {
		case t.Err == nil:
		case errors.Is(t.Err, context.Canceled):
			if cancelled == nil {
				cancelled = t.Err
			}
		default:
			return t.Err
		}
	}
	if cancelled != nil {
		return cancelled
	}
	for _, t := range tasks {
		if !t.Done {
			if err := ctx.Err(); err != nil {
				return err
			}
			return context.Canceled
		}
	}
	return nil
}

// Batch splits items into consecutive slices of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
