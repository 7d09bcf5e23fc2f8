// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"

	"github.com/gomlx/ppim/pkg/core/isa"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// CrossCorePolicy defines what to do when an operand read targets a core different from the core holding
// the accumulator of the output element.
//
// The generated stream never moves data between cores: the target is assumed to have a broadcast or
// shared-addressing fabric that makes every operand available to the accumulating core.
type CrossCorePolicy int

const (
	// CrossCoreShared assumes operands are visible from any core. Cross-core reads are only counted.
	CrossCoreShared CrossCorePolicy = iota

	// CrossCoreReject fails the compilation if any operand read targets a core other than the accumulator's.
	CrossCoreReject
)

// String implements fmt.Stringer.
func (p CrossCorePolicy) String() string {
	switch p {
	case CrossCoreShared:
		return "shared"
	case CrossCoreReject:
		return "reject"
	default:
		return fmt.Sprintf("CrossCorePolicy(%d)", int(p))
	}
}

// ParseCrossCorePolicy is the inverse of CrossCorePolicy.String.
func ParseCrossCorePolicy(s string) (CrossCorePolicy, error) {
	switch s {
	case "shared":
		return CrossCoreShared, nil
	case "reject":
		return CrossCoreReject, nil
	}
	return 0, errors.Errorf("unknown cross-core policy %q, valid values are \"shared\" or \"reject\"", s)
}

// checkConformance verifies a, b and c can hold C = A x B, and that they share the same topology.
func checkConformance(a, b, c *layout.Layout) error {
	if !a.Shape().IsValid() || !b.Shape().IsValid() {
		return errors.Wrapf(ErrDimensionExtraction, "matrix dimensions must be positive, got %s, %s", a, b)
	}
	if a.Cols() != b.Rows() {
		return errors.Wrapf(ErrDimensionExtraction, "%s.cols != %s.rows (%d != %d)", a, b, a.Cols(), b.Rows())
	}
	if c.Rows() != a.Rows() || c.Cols() != b.Cols() {
		return errors.Wrapf(ErrDimensionExtraction, "output %s doesn't have shape %dx%d for %s x %s",
			c, a.Rows(), b.Cols(), a, b)
	}
	if a.Topology() != b.Topology() || a.Topology() != c.Topology() {
		return errors.Errorf("layouts %s, %s and %s must share the same topology", a, b, c)
	}
	return a.Topology().Validate()
}

// countCrossCoreReads returns how many operand reads of C = A x B target a core different from
// the one holding the accumulator.
func countCrossCoreReads(a, b, c *layout.Layout) (count int, first string) {
	for i := range a.Rows() {
		for j := range b.Cols() {
			cCore := c.Core(i, j)
			for k := range a.Cols() {
				aCore, bCore := a.Core(i, k), b.Core(k, j)
				if aCore != cCore {
					if count == 0 {
						first = fmt.Sprintf("A[%d][%d] on core %d, accumulator C[%d][%d] on core %d", i, k, aCore, i, j, cCore)
					}
					count++
				}
				if bCore != cCore {
					if count == 0 {
						first = fmt.Sprintf("B[%d][%d] on core %d, accumulator C[%d][%d] on core %d", k, j, bCore, i, j, cCore)
					}
					count++
				}
			}
		}
	}
	return
}

// GenerateMatmul returns the full instruction stream computing C = A x B: the LUT preamble,
// the compute stream and the terminating END.
//
// For each output element (i, j), in row-major order:
//
//  1. EXE wr=1 on C's core at C's address (accumulator write-back);
//  2. for each k: EXE rd=1 of A[i][k] + NOP, EXE rd=1 of B[k][j] + NOP, and EXE compute on C's core.
//
// Row addresses are stored as global addresses, see Program.Words for how they are encoded.
//
// The layouts are checked before anything is emitted, and on error no instruction is returned.
// Streams longer than DefaultMaxInstructions are rejected with ErrDimensionExtraction.
func GenerateMatmul(a, b, c *layout.Layout, policy CrossCorePolicy) ([]isa.Instruction, error) {
	return generateMatmul(a, b, c, policy, DefaultMaxInstructions)
}

func generateMatmul(a, b, c *layout.Layout, policy CrossCorePolicy, maxInstructions int) ([]isa.Instruction, error) {
	if err := checkConformance(a, b, c); err != nil {
		return nil, err
	}
	topology := a.Topology()
	dims := MatmulDims{A: a.Shape(), B: b.Shape()}
	length, err := StreamLength(topology, dims, maxInstructions)
	if err != nil {
		return nil, err
	}
	if policy == CrossCoreReject {
		if count, first := countCrossCoreReads(a, b, c); count > 0 {
			return nil, errors.Wrapf(ErrCrossCore, "%d operand reads cross cores, first: %s", count, first)
		}
	} else if policy != CrossCoreShared {
		return nil, errors.Errorf("unknown cross-core policy %s", policy)
	}

	program := make([]isa.Instruction, 0, length)
	program = appendPreamble(program, topology)
	for i := range a.Rows() {
		for j := range b.Cols() {
			cAddr, cCore := c.AddrAndCore(i, j)
			if klog.V(3).Enabled() {
				klog.Infof("C[%d][%d]: addr=0x%x core=%d, instruction #%d", i, j, cAddr, cCore, len(program))
			}
			program = append(program, isa.WriteBack(cCore, cAddr))
			for k := range a.Cols() {
				aAddr, aCore := a.AddrAndCore(i, k)
				bAddr, bCore := b.AddrAndCore(k, j)
				program = append(program,
					isa.Load(aCore, aAddr), isa.Nop(),
					isa.Load(bCore, bAddr), isa.Nop(),
					isa.Compute(cCore))
			}
		}
	}
	program = append(program, isa.End())
	return program, nil
}
