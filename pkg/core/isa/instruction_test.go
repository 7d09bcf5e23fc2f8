// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComment(t *testing.T) {
	assert.Equal(t, "PROG core 3", Prog(3, 192).Comment())
	assert.Equal(t, "EXE read core 4", Load(4, 12).Comment())
	assert.Equal(t, "EXE write core 5", WriteBack(5, 12).Comment())
	assert.Equal(t, "EXE compute core 6", Compute(6).Comment())
	assert.Equal(t, "END", End().Comment())
	assert.Equal(t, "NOP", Nop().Comment())
}

func TestClassification(t *testing.T) {
	assert.True(t, Load(1, 2).IsLoad())
	assert.False(t, Load(1, 2).IsCompute())
	assert.True(t, WriteBack(1, 2).IsWriteBack())
	assert.True(t, Compute(1).IsCompute())
	assert.False(t, Prog(1, 2).IsLoad())
	assert.False(t, Nop().IsCompute())
}

func TestOpcode(t *testing.T) {
	assert.Equal(t, "NOP", NOP.String())
	assert.Equal(t, "PROG", PROG.String())
	assert.Equal(t, "EXE", EXE.String())
	assert.Equal(t, "END", END.String())
	assert.Equal(t, "Opcode(9)", Opcode(9).String())
	op, err := OpcodeString("exe")
	require.NoError(t, err)
	assert.Equal(t, EXE, op)
	_, err = OpcodeString("JMP")
	require.Error(t, err)
	assert.Equal(t, []string{"NOP", "PROG", "EXE", "END"}, OpcodeStrings())
	assert.False(t, Opcode(4).IsAOpcode())
}

func TestInstructionString(t *testing.T) {
	assert.Equal(t, "PROG(core=2, row=128)", Prog(2, 128).String())
	assert.Equal(t, "EXE(core=1, rd=1, wr=0, row=4)", Load(1, 4).String())
	assert.Equal(t, "NOP", Nop().String())
}
