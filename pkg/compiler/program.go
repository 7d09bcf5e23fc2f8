// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"

	"github.com/gomlx/ppim/pkg/core/isa"
	"github.com/gomlx/ppim/pkg/core/layout"
	"github.com/pkg/errors"
)

// Stats summarizes a program.
type Stats struct {
	// OpcodeCounts indexed by isa.Opcode.
	OpcodeCounts [4]int

	// Loads, WriteBacks and Computes break down the EXE instructions.
	Loads, WriteBacks, Computes int

	// CoreCounts is the number of EXE instructions targeting each core.
	CoreCounts []int

	// CrossCoreReads is the number of operand reads targeting a core other than the accumulator's.
	CrossCoreReads int

	// LUTRowAliases is the number of EXE reads and write-backs whose encoded row is the same
	// as the LUT row programmed on their core by the preamble.
	// With layout.RowAddrLocal, global addresses differing by a multiple of the row span
	// share a local row.
	LUTRowAliases int
}

func computeStats(topology layout.Topology, instructions []isa.Instruction) Stats {
	stats := Stats{CoreCounts: make([]int, topology.NumCores)}
	accumulatorCore := -1
	var pendingReads []int
	for _, inst := range instructions {
		stats.OpcodeCounts[inst.Op]++
		if inst.Op != isa.EXE {
			continue
		}
		if inst.Pointer >= 0 && inst.Pointer < len(stats.CoreCounts) {
			stats.CoreCounts[inst.Pointer]++
		}
		if (inst.Read || inst.Write) && aliasesLUTRow(topology, inst) {
			stats.LUTRowAliases++
		}
		switch {
		case inst.IsLoad():
			stats.Loads++
			pendingReads = append(pendingReads, inst.Pointer)
		case inst.IsWriteBack():
			stats.WriteBacks++
			accumulatorCore = inst.Pointer
		default:
			stats.Computes++
			for _, core := range pendingReads {
				if core != accumulatorCore {
					stats.CrossCoreReads++
				}
			}
			pendingReads = pendingReads[:0]
		}
	}
	return stats
}

// aliasesLUTRow returns whether the encoded row of inst is its core's encoded LUT row.
func aliasesLUTRow(topology layout.Topology, inst isa.Instruction) bool {
	row, err := topology.RowAddr(inst.RowAddr)
	if err != nil {
		return false
	}
	lutRow, err := topology.RowAddr(topology.ProgrammingRow(inst.Pointer))
	if err != nil {
		return false
	}
	return row == lutRow
}

// Program is the result of a compilation: the ordered instruction stream and how it was derived.
//
// It is immutable: the slices returned by its methods must not be modified.
type Program struct {
	name         string
	dims         MatmulDims
	topology     layout.Topology
	policy       CrossCorePolicy
	a, b, c      *layout.Layout
	instructions []isa.Instruction
	words        []isa.Word
	stats        Stats
}

// Name given to the compilation, used for reporting.
func (p *Program) Name() string { return p.name }

// Dims of the matrix multiplication.
func (p *Program) Dims() MatmulDims { return p.dims }

// Topology the program was generated for.
func (p *Program) Topology() layout.Topology { return p.topology }

// CrossCorePolicy used during generation.
func (p *Program) CrossCorePolicy() CrossCorePolicy { return p.policy }

// Layouts of A, B and C.
func (p *Program) Layouts() (a, b, c *layout.Layout) { return p.a, p.b, p.c }

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.instructions) }

// Instructions in emission order.
func (p *Program) Instructions() []isa.Instruction { return p.instructions }

// Words are the encoded instructions, with the row addresses mapped by the topology's RowAddrMode.
func (p *Program) Words() []isa.Word { return p.words }

// Stats of the program.
func (p *Program) Stats() Stats { return p.stats }

// Memory is the number of bytes used by the three matrices.
func (p *Program) Memory() int {
	return p.a.Footprint() + p.b.Footprint() + p.c.Footprint()
}

// String implements fmt.Stringer.
func (p *Program) String() string {
	return fmt.Sprintf("Program(%q, %s, %d instructions)", p.name, p.dims, len(p.instructions))
}

// EncodeInstruction maps the row address of inst according to the topology and encodes it.
func EncodeInstruction(topology layout.Topology, inst isa.Instruction) (isa.Word, error) {
	rowAddr, err := topology.RowAddr(inst.RowAddr)
	if err != nil {
		return 0, errors.WithMessagef(err, "mapping row address of %s", inst)
	}
	inst.RowAddr = rowAddr
	return isa.Encode(inst)
}

func encodeAll(topology layout.Topology, instructions []isa.Instruction) ([]isa.Word, error) {
	words := make([]isa.Word, len(instructions))
	for ii, inst := range instructions {
		w, err := EncodeInstruction(topology, inst)
		if err != nil {
			return nil, errors.WithMessagef(err, "instruction #%d", ii)
		}
		words[ii] = w
	}
	return words, nil
}

// verifyStream checks the structure of a generated stream: its length matches ExpectedLength,
// it starts with the preamble, every operand load is followed by a NOP, and it ends with a single END.
// Errors wrap ErrStreamConsistency.
func verifyStream(topology layout.Topology, dims MatmulDims, instructions []isa.Instruction) error {
	want := ExpectedLength(topology, dims)
	if len(instructions) != want {
		return errors.Wrapf(ErrStreamConsistency, "generated %d instructions for %s, expected %d",
			len(instructions), dims, want)
	}
	for core := range topology.NumCores {
		prog, nop := instructions[2*core], instructions[2*core+1]
		if prog != isa.Prog(core, topology.ProgrammingRow(core)) || nop != isa.Nop() {
			return errors.Wrapf(ErrStreamConsistency, "preamble for core %d is (%s, %s)", core, prog, nop)
		}
	}
	last := len(instructions) - 1
	for ii := PreambleLength(topology); ii < last; ii++ {
		inst := instructions[ii]
		switch {
		case inst.Op == isa.END:
			return errors.Wrapf(ErrStreamConsistency, "END found at position %d of %d", ii, len(instructions))
		case inst.Op == isa.PROG:
			return errors.Wrapf(ErrStreamConsistency, "PROG found after the preamble at position %d", ii)
		case inst.IsLoad() && instructions[ii+1] != isa.Nop():
			return errors.Wrapf(ErrStreamConsistency, "load at position %d not followed by a NOP", ii)
		case inst.Op == isa.NOP && !instructions[ii-1].IsLoad():
			return errors.Wrapf(ErrStreamConsistency, "NOP at position %d doesn't follow a load", ii)
		}
	}
	if instructions[last] != isa.End() {
		return errors.Wrapf(ErrStreamConsistency, "last instruction is %s, expected END", instructions[last])
	}
	return nil
}
