// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package irscan extracts the matrix dimensions of a matrix multiplication from LLVM IR text.
//
// It looks for stack allocations of two-dimensional arrays of 32-bit integers,
// e.g. `%1 = alloca [2 x [3 x i32]], align 16`, and takes the first two found, in textual order,
// as the operands A and B.
package irscan

import (
	"os"
	"regexp"
	"strconv"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/ppim/pkg/compiler"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var allocaRegexp = regexp.MustCompile(`alloca \[(\d+) x \[(\d+) x i32\]\]`)

// Allocation is one two-dimensional array allocation found in the IR.
type Allocation struct {
	Shape layout.Shape
	DType dtypes.DType

	// Offset of the match in the IR text.
	Offset int
}

// Allocations returns all two-dimensional i32 array allocations in ir, in textual order.
func Allocations(ir string) ([]Allocation, error) {
	var allocations []Allocation
	for _, match := range allocaRegexp.FindAllStringSubmatchIndex(ir, -1) {
		rows, err := strconv.Atoi(ir[match[2]:match[3]])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing rows of %q", ir[match[0]:match[1]])
		}
		cols, err := strconv.Atoi(ir[match[4]:match[5]])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing columns of %q", ir[match[0]:match[1]])
		}
		allocations = append(allocations, Allocation{
			Shape:  layout.Shape{Rows: rows, Cols: cols},
			DType:  dtypes.Int32,
			Offset: match[0],
		})
	}
	return allocations, nil
}

// Scan returns the dimensions of the first two matrices allocated in ir.
//
// Fewer than two allocations, zero dimensions, or A.Cols != B.Rows are reported as errors
// wrapping compiler.ErrDimensionExtraction.
func Scan(ir string) (compiler.MatmulDims, error) {
	allocations, err := Allocations(ir)
	if err != nil {
		return compiler.MatmulDims{}, errors.Wrap(compiler.ErrDimensionExtraction, err.Error())
	}
	if len(allocations) < 2 {
		return compiler.MatmulDims{}, errors.Wrapf(compiler.ErrDimensionExtraction,
			"could not find sufficient matrix allocations in LLVM IR: found %d, need 2", len(allocations))
	}
	if len(allocations) > 2 {
		klog.V(1).Infof("found %d matrix allocations in LLVM IR, using the first two", len(allocations))
	}
	dims := compiler.MatmulDims{
		A:     allocations[0].Shape,
		B:     allocations[1].Shape,
		DType: allocations[0].DType,
	}
	if err := dims.Validate(); err != nil {
		return compiler.MatmulDims{}, err
	}
	klog.V(1).Infof("detected matrix sizes: %s", dims)
	return dims, nil
}

// ScanFile reads the LLVM IR file and calls Scan.
func ScanFile(path string) (compiler.MatmulDims, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return compiler.MatmulDims{}, errors.Wrapf(err, "failed to read LLVM IR from %q", path)
	}
	dims, err := Scan(string(contents))
	if err != nil {
		return compiler.MatmulDims{}, errors.WithMessagef(err, "scanning %q", path)
	}
	return dims, nil
}
