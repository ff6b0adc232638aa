// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool runs independent tasks in goroutines, with a soft limit on how many run
// at the same time.
package workerspool

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Pool of workers. The zero value is not usable, create one with New.
type Pool struct {
	// maxParallelism is the limit of tasks running at the same time.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning is decreased.
	numRunning     int
}

// New returns a new Pool of workers with the default parallelism (runtime.NumCPU()).
func New() *Pool {
	w := &Pool{}
	w.maxParallelism = runtime.NumCPU()
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// IsEnabled returns whether parallelism is enabled (maxParallelism is != 0)
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// IsUnlimited returns whether parallelism is unlimited (maxParallelism < 0)
func (w *Pool) IsUnlimited() bool {
	return w.maxParallelism < 0
}

// MaxParallelism is the limit of tasks running at the same time.
// If set to 0 parallelism is disabled.
// If set to -1 parallelism is unlimited.
func (w *Pool) MaxParallelism() int {
	return w.maxParallelism
}

// SetMaxParallelism sets the maxParallelism and returns the pool, so it can be chained with New.
//
// You should only change the parallelism before any workers start running. If changed during the execution
// the behavior is undefined.
func (w *Pool) SetMaxParallelism(maxParallelism int) *Pool {
	w.maxParallelism = maxParallelism
	return w
}

// lockedIsFull returns whether all available workers are in use.
//
// It must be called with Pool.mu acquired.
func (w *Pool) lockedIsFull() bool {
	if w.maxParallelism == 0 {
		return true
	} else if w.maxParallelism < 0 {
		return false
	}
	return w.numRunning >= w.maxParallelism
}

// WaitToStart waits until there is a worker available to run the task.
//
// If parallelism is disabled (maxParallelism is 0), it runs the task inline and returns when it is finished.
func (w *Pool) WaitToStart(task func()) {
	if w.IsUnlimited() {
		go task()
		return

	} else if w.maxParallelism == 0 {
		task()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedRunTaskInGoroutine(task)
}

// lockedRunTaskInGoroutine and keep tabs on w.numRunning.
//
// It must be called with Pool.mu acquired.
func (w *Pool) lockedRunTaskInGoroutine(task func()) {
	w.numRunning++
	go func() {
		defer func() {
			w.mu.Lock()
			w.numRunning--
			w.cond.Signal()
			w.mu.Unlock()
		}()
		task()
	}()
}

// StartIfAvailable runs the task in a separate goroutine, if there are enough workers left.
// It returns true if it found workers to run the function, false otherwise.
//
// It's up to the client to synchronize the end of the function execution.
func (w *Pool) StartIfAvailable(task func()) bool {
	if w.IsUnlimited() {
		go task()
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lockedIsFull() {
		return false
	}
	w.lockedRunTaskInGoroutine(task)
	return true
}

// ForEach calls fn(i) for i in [0, n) using the pool's workers, and waits for all of them to finish.
//
// It stops starting new calls once ctx is cancelled or a call fails. It returns the error of
// the failed call with the lowest index, or the context error.
func (w *Pool) ForEach(ctx context.Context, n int, fn func(i int) error) error {
	errs := make([]error, n)
	var (
		wg      sync.WaitGroup
		failed  sync.Once
		stopped = make(chan struct{})
	)
	stop := func() { failed.Do(func() { close(stopped) }) }

	var cancelErr error
schedule:
	for i := range n {
		select {
		case <-ctx.Done():
			cancelErr = ctx.Err()
			break schedule
		case <-stopped:
			break schedule
		default:
		}
		wg.Add(1)
		w.WaitToStart(func() {
			defer wg.Done()
			if err := fn(i); err != nil {
				errs[i] = err
				stop()
			}
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return errors.WithMessagef(err, "task #%d of %d", i, n)
		}
	}
	return cancelErr
}

// Map applies fn to each of the inputs using the pool's workers. The outputs are returned in
// the order of the inputs. See Pool.ForEach for how errors and cancellation are handled.
func Map[In, Out any](ctx context.Context, w *Pool, inputs []In, fn func(In) (Out, error)) ([]Out, error) {
	outputs := make([]Out, len(inputs))
	err := w.ForEach(ctx, len(inputs), func(i int) error {
		var err error
		outputs[i], err = fn(inputs[i])
		return err
	})
	if err != nil {
		return nil, err
	}
	return outputs, nil
}
