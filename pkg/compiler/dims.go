// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"math"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
)

// DefaultMaxInstructions is the default limit on the length of a generated instruction stream.
// Compiler.Build().MaxInstructions() changes it.
const DefaultMaxInstructions = 1 << 24

// maxInstructionsLimit bounds any configured limit, so the length arithmetic never overflows.
const maxInstructionsLimit = math.MaxInt32

// MatmulDims are the shapes of the operands of C = A x B.
type MatmulDims struct {
	A, B layout.Shape

	// DType of the elements, informational. The zero value (dtypes.InvalidDType) is taken as dtypes.Int32.
	DType dtypes.DType
}

// C returns the shape of the result.
func (d MatmulDims) C() layout.Shape {
	return layout.Shape{Rows: d.A.Rows, Cols: d.B.Cols}
}

// Validate checks that both shapes are positive and conformant.
// Errors wrap ErrDimensionExtraction.
func (d MatmulDims) Validate() error {
	if !d.A.IsValid() || !d.B.IsValid() {
		return errors.Wrapf(ErrDimensionExtraction, "matrix dimensions must be positive, got A=%s, B=%s", d.A, d.B)
	}
	if d.A.Cols != d.B.Rows {
		return errors.Wrapf(ErrDimensionExtraction,
			"matrix multiplication requires A.cols == B.rows, got A=%s, B=%s", d.A, d.B)
	}
	return nil
}

// String implements fmt.Stringer.
func (d MatmulDims) String() string {
	return fmt.Sprintf("A=%s x B=%s -> C=%s", d.A, d.B, d.C())
}

// ExpectedLength is the closed-form number of instructions of the program for dims:
// the preamble (a PROG and a NOP per core), per output element one write-back plus 5 instructions
// per reduction step (load, NOP, load, NOP, compute), and the final END.
func ExpectedLength(topology layout.Topology, dims MatmulDims) int {
	return 2*topology.NumCores + dims.A.Rows*dims.B.Cols*(1+dims.A.Cols*5) + 1
}

// StreamLength is like ExpectedLength, but it fails with an error wrapping ErrDimensionExtraction
// if the dims are invalid or if the program would have more than maxInstructions instructions.
// It never overflows.
func StreamLength(topology layout.Topology, dims MatmulDims, maxInstructions int) (int, error) {
	if err := dims.Validate(); err != nil {
		return 0, err
	}
	tooLong := func() error {
		return errors.Wrapf(ErrDimensionExtraction,
			"matmul %s requires more than the maximum of %d instructions", dims, maxInstructions)
	}
	overhead := 2*topology.NumCores + 1
	if maxInstructions <= overhead {
		return 0, tooLong()
	}
	budget := maxInstructions - overhead
	if dims.A.Cols > (budget-1)/5 {
		return 0, tooLong()
	}
	perOutput := 1 + 5*dims.A.Cols
	if dims.A.Rows > budget/perOutput || dims.B.Cols > budget/perOutput/dims.A.Rows {
		return 0, tooLong()
	}
	return overhead + dims.A.Rows*dims.B.Cols*perOutput, nil
}
