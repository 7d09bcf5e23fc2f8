// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package isa

// Opcode of a pPIM instruction: 2 bits.
type Opcode uint8

//go:generate go tool enumer -type=Opcode -output=gen_opcode_enumer.go opcode.go

const (
	// NOP does nothing, it only inserts latency.
	NOP Opcode = 0b00

	// PROG programs the lookup table of the core given by the pointer, stored at row_addr.
	PROG Opcode = 0b01

	// EXE executes a core operation: a read (rd=1), a write-back of the accumulator (wr=1)
	// or, with both flags off, a multiply-accumulate step with the operands already loaded.
	EXE Opcode = 0b10

	// END terminates the instruction stream.
	END Opcode = 0b11
)
