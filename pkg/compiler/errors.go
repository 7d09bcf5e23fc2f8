// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import "github.com/pkg/errors"

// Error kinds reported by the compiler. Errors returned wrap one of these, test with errors.Is.
var (
	// ErrDimensionExtraction is returned when the matrix shapes are missing, non-positive or
	// non-conformant (A.Cols != B.Rows).
	ErrDimensionExtraction = errors.New("dimension extraction failed")

	// ErrStreamConsistency is returned when the generated stream doesn't have the expected length.
	// It indicates a bug in the generator.
	ErrStreamConsistency = errors.New("instruction stream consistency check failed")

	// ErrCrossCore is returned under CrossCoreReject when an operand lives in a core different
	// from the accumulator's.
	ErrCrossCore = errors.New("cross-core operand")
)
