// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package isa defines the pPIM instruction word and its 24-bit binary encoding.
//
// The word layout, most-significant bit first:
//
//	[ opcode:2 ][ pointer:6 ][ rd:1 ][ wr:1 ][ row_addr:8 ][ reserved:6 ]
//
// The pointer names a core. The reserved bits are always 0.
package isa

import (
	"fmt"
)

// Instruction is one pPIM machine instruction. It is a value type, and it is never modified after creation.
//
// RowAddr holds the row address as the generator computed it. It must fit the 8-bit field by the time
// the instruction is encoded, see Encode.
type Instruction struct {
	Op      Opcode
	Pointer int
	Read    bool
	Write   bool
	RowAddr int
}

// Nop returns a NOP instruction.
func Nop() Instruction { return Instruction{Op: NOP} }

// End returns the END instruction that terminates a stream.
func End() Instruction { return Instruction{Op: END} }

// Prog returns a PROG instruction programming the lookup table of core, stored at row.
func Prog(core, row int) Instruction {
	return Instruction{Op: PROG, Pointer: core, RowAddr: row}
}

// Load returns an EXE instruction reading the operand at row into core.
func Load(core, row int) Instruction {
	return Instruction{Op: EXE, Pointer: core, Read: true, RowAddr: row}
}

// WriteBack returns an EXE instruction writing the accumulator of core to row.
func WriteBack(core, row int) Instruction {
	return Instruction{Op: EXE, Pointer: core, Write: true, RowAddr: row}
}

// Compute returns an EXE instruction performing a multiply-accumulate step on core.
func Compute(core int) Instruction {
	return Instruction{Op: EXE, Pointer: core}
}

// IsLoad returns whether the instruction is an EXE reading an operand.
func (inst Instruction) IsLoad() bool { return inst.Op == EXE && inst.Read }

// IsWriteBack returns whether the instruction is an EXE writing the accumulator.
func (inst Instruction) IsWriteBack() bool { return inst.Op == EXE && !inst.Read && inst.Write }

// IsCompute returns whether the instruction is an EXE multiply-accumulate step.
func (inst Instruction) IsCompute() bool { return inst.Op == EXE && !inst.Read && !inst.Write }

// Comment classifies the instruction for human readers, from its own fields only.
func (inst Instruction) Comment() string {
	switch inst.Op {
	case PROG:
		return fmt.Sprintf("PROG core %d", inst.Pointer)
	case EXE:
		switch {
		case inst.Read:
			return fmt.Sprintf("EXE read core %d", inst.Pointer)
		case inst.Write:
			return fmt.Sprintf("EXE write core %d", inst.Pointer)
		default:
			return fmt.Sprintf("EXE compute core %d", inst.Pointer)
		}
	case END:
		return "END"
	default:
		return "NOP"
	}
}

// String implements fmt.Stringer.
func (inst Instruction) String() string {
	switch inst.Op {
	case NOP, END:
		return inst.Op.String()
	case PROG:
		return fmt.Sprintf("PROG(core=%d, row=%d)", inst.Pointer, inst.RowAddr)
	}
	return fmt.Sprintf("%s(core=%d, rd=%d, wr=%d, row=%d)",
		inst.Op, inst.Pointer, boolToBit(inst.Read), boolToBit(inst.Write), inst.RowAddr)
}

func boolToBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
