// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"github.com/gomlx/ppim/pkg/core/isa"
	"github.com/gomlx/ppim/pkg/core/layout"
)

// PreambleLength is the number of instructions emitted by Preamble.
func PreambleLength(topology layout.Topology) int {
	return 2 * topology.NumCores
}

// Preamble returns the LUT programming sequence that must precede any computation:
// for each core, in increasing order, a PROG of its lookup table followed by a NOP to let it settle.
func Preamble(topology layout.Topology) []isa.Instruction {
	return appendPreamble(make([]isa.Instruction, 0, PreambleLength(topology)), topology)
}

func appendPreamble(program []isa.Instruction, topology layout.Topology) []isa.Instruction {
	for core := range topology.NumCores {
		program = append(program, isa.Prog(core, topology.ProgrammingRow(core)), isa.Nop())
	}
	return program
}
