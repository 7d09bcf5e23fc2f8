// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package isa

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// WordBits is the width of an encoded instruction.
const WordBits = 24

// Field widths.
const (
	OpcodeBits   = 2
	PointerBits  = 6
	RowAddrBits  = 8
	ReservedBits = 6
)

// Field offsets, from the least significant bit.
const (
	OpcodeShift  = 22
	PointerShift = 16
	ReadShift    = 15
	WriteShift   = 14
	RowAddrShift = 6
)

// Word is an encoded instruction. Only the lower WordBits bits are used.
type Word uint32

// String returns the zero-padded 24-digit binary rendering of the word.
func (w Word) String() string {
	return fmt.Sprintf("%0*b", WordBits, uint32(w))
}

// ParseWord parses the 24-digit binary rendering of a word.
func ParseWord(s string) (Word, error) {
	if len(s) != WordBits {
		return 0, errors.Errorf("instruction word %q must have exactly %d binary digits, got %d", s, WordBits, len(s))
	}
	var w Word
	for ii, c := range s {
		switch c {
		case '0':
			w <<= 1
		case '1':
			w = w<<1 | 1
		default:
			return 0, errors.Errorf("invalid character %q at position %d of instruction word %q", c, ii, s)
		}
	}
	return w, nil
}

// OverflowError is returned by Encode when a field value doesn't fit its declared width.
type OverflowError struct {
	Field string
	Value int
	Bits  int
}

// Error implements error.
func (e *OverflowError) Error() string {
	return fmt.Sprintf("encoding overflow: field %s=%d doesn't fit in %d bits (valid range [0, %d])",
		e.Field, e.Value, e.Bits, (1<<e.Bits)-1)
}

func checkWidth[T constraints.Integer](field string, value T, bits int) error {
	if value < 0 || uint64(value) >= uint64(1)<<bits {
		return &OverflowError{Field: field, Value: int(value), Bits: bits}
	}
	return nil
}

// Encode packs the instruction into its 24-bit word.
//
// Fields are not truncated: if any of them is out of range, an *OverflowError is returned.
func Encode(inst Instruction) (Word, error) {
	if err := checkWidth("opcode", inst.Op, OpcodeBits); err != nil {
		return 0, errors.WithMessagef(err, "encoding %s", inst)
	}
	if err := checkWidth("pointer", inst.Pointer, PointerBits); err != nil {
		return 0, errors.WithMessagef(err, "encoding %s", inst)
	}
	if err := checkWidth("row_addr", inst.RowAddr, RowAddrBits); err != nil {
		return 0, errors.WithMessagef(err, "encoding %s", inst)
	}
	w := uint32(inst.Op)<<OpcodeShift |
		uint32(inst.Pointer)<<PointerShift |
		boolToBit(inst.Read)<<ReadShift |
		boolToBit(inst.Write)<<WriteShift |
		uint32(inst.RowAddr)<<RowAddrShift
	return Word(w), nil
}

// MustEncode is like Encode, but panics on error.
func MustEncode(inst Instruction) Word {
	w, err := Encode(inst)
	if err != nil {
		panic(err)
	}
	return w
}

func fieldOf(w Word, shift, bits int) uint32 {
	return (uint32(w) >> shift) & ((1 << bits) - 1)
}

// Decode unpacks a word. It fails if bits above WordBits or any reserved bit are set.
func Decode(w Word) (Instruction, error) {
	if uint32(w)>>WordBits != 0 {
		return Instruction{}, errors.Errorf("word 0x%x has bits set beyond the %d-bit instruction", uint32(w), WordBits)
	}
	if reserved := fieldOf(w, 0, ReservedBits); reserved != 0 {
		return Instruction{}, errors.Errorf("word %s has reserved bits set (0b%06b)", w, reserved)
	}
	return Instruction{
		Op:      Opcode(fieldOf(w, OpcodeShift, OpcodeBits)),
		Pointer: int(fieldOf(w, PointerShift, PointerBits)),
		Read:    fieldOf(w, ReadShift, 1) == 1,
		Write:   fieldOf(w, WriteShift, 1) == 1,
		RowAddr: int(fieldOf(w, RowAddrShift, RowAddrBits)),
	}, nil
}
