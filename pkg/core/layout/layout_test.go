// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddr(t *testing.T) {
	topo := DefaultTopology()
	require.Equal(t, 4, topo.BytesPerElement)
	l := New("A", topo, Shape{Rows: 3, Cols: 5}, 0x100)
	assert.Equal(t, 0x100, l.Addr(0, 0))
	assert.Equal(t, 0x100+4, l.Addr(0, 1))
	assert.Equal(t, 0x100+5*4, l.Addr(1, 0))
	assert.Equal(t, 0x100+(2*5+4)*4, l.Addr(2, 4))
	assert.Equal(t, 60, l.Footprint())
	assert.Equal(t, 0x100+60, l.End())

	// Injective over the whole index space.
	for _, shape := range []Shape{{1, 1}, {2, 3}, {7, 4}, {16, 9}} {
		l := New("X", topo, shape, 1024)
		seen := make(map[int]bool)
		for i := range shape.Rows {
			for j := range shape.Cols {
				addr := l.Addr(i, j)
				require.Falsef(t, seen[addr], "address %d repeated for shape %s at (%d, %d)", addr, shape, i, j)
				seen[addr] = true
				require.GreaterOrEqual(t, addr, l.Base())
				require.Less(t, addr, l.End())
			}
		}
		require.Len(t, seen, shape.Size())
	}
}

func TestCore(t *testing.T) {
	topo := DefaultTopology()
	l := New("A", topo, Shape{Rows: 20, Cols: 20}, 0)
	for i := range 20 {
		for j := range 20 {
			core := l.Core(i, j)
			require.GreaterOrEqual(t, core, 0)
			require.Less(t, core, topo.NumCores)
			require.Equal(t, ((i/2)+(j/2))%8, core)

			// Adjacent tiles differ by exactly one core, mod 8.
			next := l.Core(i, j+2)
			require.Equal(t, (core+1)%8, next)
		}
	}

	// 2x2 tiles share a core.
	assert.Equal(t, l.Core(0, 0), l.Core(1, 1))
	assert.Equal(t, l.Core(2, 0), l.Core(3, 1))
	assert.NotEqual(t, l.Core(1, 1), l.Core(2, 2))

	// Independent of the matrix dimensions.
	other := New("B", topo, Shape{Rows: 3, Cols: 40}, 4096)
	for i := range 3 {
		for j := range 20 {
			require.Equal(t, l.Core(i, j), other.Core(i, j))
		}
	}
}

func TestCoreOfOutsideMatrix(t *testing.T) {
	topo := DefaultTopology()
	assert.Equal(t, 1, topo.CoreOf(100, -98))
	// Floor division: (-1)/2 -> -1, and (-1 + 0) mod 8 -> 7.
	assert.Equal(t, 7, topo.CoreOf(-1, 0))
	assert.Equal(t, 0, topo.CoreOf(-1, 2))
}

func TestAllocateBases(t *testing.T) {
	topo := DefaultTopology()
	a, b, c := AllocateBases(topo, Shape{2, 3}, Shape{3, 2}, DefaultBaseAddress)
	assert.Equal(t, 0x100, a.Base())
	assert.Equal(t, 0x100+24, b.Base())
	assert.Equal(t, 0x100+48, c.Base())
	assert.Equal(t, Shape{2, 2}, c.Shape())
	assert.False(t, Overlaps(a, b))
	assert.False(t, Overlaps(b, c))
	assert.False(t, Overlaps(a, c))
	assert.True(t, Overlaps(a, New("X", topo, Shape{1, 1}, 0x100+20)))
	assert.False(t, Overlaps(a, New("X", topo, Shape{1, 1}, 0x100+24)))
}
