// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package layout maps the logical index space of a matrix onto the pPIM accelerator:
// a byte address for each element, and the core that owns it.
//
// Elements are stored row-major with no padding. Cores are assigned block-cyclically:
// the index space is tiled in BlockSize x BlockSize blocks, and block (bi, bj) goes
// to core (bi + bj) mod NumCores. The assignment doesn't depend on the matrix own dimensions,
// so position (i, j) of A, B and C always lands on the same core.
package layout

import (
	"fmt"
)

// Shape of a matrix.
type Shape struct {
	Rows, Cols int
}

// Size returns the number of elements.
func (s Shape) Size() int { return s.Rows * s.Cols }

// IsValid returns whether both dimensions are positive.
func (s Shape) IsValid() bool { return s.Rows > 0 && s.Cols > 0 }

// String implements fmt.Stringer.
func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// Layout is the placement of one matrix in the accelerator's address space.
//
// It is immutable after New.
type Layout struct {
	name     string
	topology Topology
	shape    Shape
	base     int
}

// New creates the Layout of a matrix with the given shape placed at base.
//
// The shape is assumed valid, it's up to the caller to check it.
func New(name string, topology Topology, shape Shape, base int) *Layout {
	return &Layout{name: name, topology: topology, shape: shape, base: base}
}

// Name of the matrix, used only for logging.
func (l *Layout) Name() string { return l.name }

// Topology used to assign cores.
func (l *Layout) Topology() Topology { return l.topology }

// Shape of the matrix.
func (l *Layout) Shape() Shape { return l.shape }

// Rows of the matrix.
func (l *Layout) Rows() int { return l.shape.Rows }

// Cols of the matrix.
func (l *Layout) Cols() int { return l.shape.Cols }

// Base byte address.
func (l *Layout) Base() int { return l.base }

// Footprint is the number of bytes used by the matrix.
func (l *Layout) Footprint() int { return l.shape.Size() * l.topology.BytesPerElement }

// End is the first byte address after the matrix.
func (l *Layout) End() int { return l.base + l.Footprint() }

// Addr returns the byte address of element (i, j).
func (l *Layout) Addr(i, j int) int {
	return l.base + (i*l.shape.Cols+j)*l.topology.BytesPerElement
}

// Core returns the core owning element (i, j).
func (l *Layout) Core(i, j int) int {
	return l.topology.CoreOf(i, j)
}

// AddrAndCore returns both the byte address and the core of element (i, j).
func (l *Layout) AddrAndCore(i, j int) (addr, core int) {
	return l.Addr(i, j), l.Core(i, j)
}

// String implements fmt.Stringer.
func (l *Layout) String() string {
	return fmt.Sprintf("%s[%s @ 0x%x..0x%x]", l.name, l.shape, l.base, l.End())
}

// Overlaps returns whether the byte ranges of the two layouts intersect.
func Overlaps(x, y *Layout) bool {
	if x.Footprint() == 0 || y.Footprint() == 0 {
		return false
	}
	return x.base < y.End() && y.base < x.End()
}

// AllocateBases places A, B and C = A x B back-to-back starting at start: A first,
// B right after A's footprint, and C right after B's.
//
// The shapes are not checked for conformance here.
func AllocateBases(topology Topology, a, b Shape, start int) (la, lb, lc *Layout) {
	la = New("A", topology, a, start)
	lb = New("B", topology, b, la.End())
	lc = New("C", topology, Shape{Rows: a.Rows, Cols: b.Cols}, lb.End())
	return
}
