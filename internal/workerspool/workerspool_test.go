// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_WaitToStart(t *testing.T) {
	pool := New().SetMaxParallelism(3)
	var running, maxRunning atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		pool.WaitToStart(func() {
			defer wg.Done()
			current := running.Add(1)
			for {
				prev := maxRunning.Load()
				if current <= prev || maxRunning.CompareAndSwap(prev, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			runtime.Gosched()
			running.Add(-1)
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, int(maxRunning.Load()), 3)
	assert.GreaterOrEqual(t, int(maxRunning.Load()), 1)

	// No parallelism: tasks run inline.
	pool.SetMaxParallelism(0)
	require.False(t, pool.IsEnabled())
	var count int
	pool.WaitToStart(func() { count++ })
	assert.Equal(t, 1, count)
	assert.False(t, pool.StartIfAvailable(func() { count++ }))
	assert.Equal(t, 1, count)
}

func TestPool_StartIfAvailable(t *testing.T) {
	pool := New().SetMaxParallelism(1)
	release := make(chan struct{})
	done := make(chan struct{})
	require.True(t, pool.StartIfAvailable(func() {
		<-release
		close(done)
	}))
	assert.False(t, pool.StartIfAvailable(func() {}))
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for task to finish.")
	}

	pool.SetMaxParallelism(-1)
	require.True(t, pool.IsUnlimited())
	started := make(chan struct{})
	require.True(t, pool.StartIfAvailable(func() { close(started) }))
	<-started
}

func TestMap(t *testing.T) {
	inputs := make([]int, 100)
	for i := range inputs {
		inputs[i] = i
	}
	for _, parallelism := range []int{-1, 0, 1, 4} {
		pool := New().SetMaxParallelism(parallelism)
		outputs, err := Map(context.Background(), pool, inputs, func(x int) (int, error) {
			runtime.Gosched()
			return x * x, nil
		})
		require.NoError(t, err)
		require.Len(t, outputs, len(inputs))
		for i, out := range outputs {
			require.Equal(t, i*i, out)
		}
	}
}

func TestForEach_Errors(t *testing.T) {
	errBad := errors.New("bad input")
	pool := New().SetMaxParallelism(2)
	err := pool.ForEach(context.Background(), 10, func(i int) error {
		if i == 3 || i == 7 {
			return errBad
		}
		return nil
	})
	require.ErrorIs(t, err, errBad)
	require.Contains(t, err.Error(), "task #3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var calls atomic.Int32
	err = pool.ForEach(ctx, 10, func(int) error {
		calls.Add(1)
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls.Load())

	require.NoError(t, pool.ForEach(context.Background(), 0, func(int) error { return errBad }))
}
