// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package workerspool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Limit(t *testing.T) {
	pool := New()
	const maxParallelism = 3
	pool.SetMaxParallelism(maxParallelism)
	require.True(t, pool.IsEnabled())
	require.False(t, pool.IsUnlimited())

	var running, maxRunning, done atomic.Int32
	for range 20 {
		pool.WaitToStart(func() {
			n := running.Add(1)
			for {
				current := maxRunning.Load()
				if n <= current || maxRunning.CompareAndSwap(current, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
			done.Add(1)
		})
	}
	pool.Wait()
	assert.Equal(t, int32(20), done.Load())
	assert.LessOrEqual(t, maxRunning.Load(), int32(maxParallelism))
	assert.Equal(t, int32(0), running.Load())
}

func TestPool_Inline(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(0)
	require.False(t, pool.IsEnabled())
	var count int
	pool.WaitToStart(func() { count++ })
	// Ran inline: no synchronization needed.
	assert.Equal(t, 1, count)
	assert.False(t, pool.StartIfAvailable(func() { count++ }))
	assert.Equal(t, 1, count)
}

func TestPool_StartIfAvailable(t *testing.T) {
	pool := New()
	pool.SetMaxParallelism(1)
	release := make(chan struct{})
	require.True(t, pool.StartIfAvailable(func() { <-release }))
	require.False(t, pool.StartIfAvailable(func() {}))
	close(release)
	pool.Wait()

	pool.SetMaxParallelism(-1)
	require.True(t, pool.IsUnlimited())
	var count atomic.Int32
	for range 10 {
		require.True(t, pool.StartIfAvailable(func() { count.Add(1) }))
	}
	pool.Wait()
	assert.Equal(t, int32(10), count.Load())
}
