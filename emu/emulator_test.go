package emu_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkorepanov/mipt-mips/emu"
)

// encodeR/encodeI mirror insts' decoder tests: small local helpers rather
// than importing the insts package's unexported encoding logic.
func encodeR(opcode, rs, rt, rd, shamt, funct uint32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | rd<<11 | shamt<<6 | funct
}

func encodeI(opcode, rs, rt uint32, imm int32) uint32 {
	return opcode<<26 | rs<<21 | rt<<16 | (uint32(imm) & 0xFFFF)
}

func TestStepExecutesAddAndAdvancesPC(t *testing.T) {
	// addiu $1, $0, 5; add $2, $1, $1
	prog := []byte{}
	prog = append(prog, word(encodeI(0x09, 0, 1, 5))...)
	prog = append(prog, word(encodeR(0, 1, 1, 2, 0, 0x20))...)

	mem := emu.NewMemory(prog, 0)
	e := emu.New(emu.WithMemory(mem))

	_, err := e.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), e.RegFile().Read(1))
	assert.Equal(t, uint32(4), e.RegFile().PC)

	_, err = e.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), e.RegFile().Read(2))
	assert.Equal(t, uint32(8), e.RegFile().PC)
}

func TestStepTraceWriterReceivesLine(t *testing.T) {
	prog := word(encodeI(0x09, 0, 1, 7))
	mem := emu.NewMemory(prog, 0)

	var buf bytes.Buffer
	e := emu.New(emu.WithMemory(mem), emu.WithTraceWriter(&buf))

	_, err := e.Step()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "addiu")
}

func TestStepUnknownInstructionErrors(t *testing.T) {
	prog := word(0xFFFFFFFF)
	mem := emu.NewMemory(prog, 0)
	e := emu.New(emu.WithMemory(mem))

	_, err := e.Step()
	assert.Error(t, err)
}

func TestRunStopsOnFirstError(t *testing.T) {
	prog := append(word(encodeI(0x09, 0, 1, 1)), word(0xFFFFFFFF)...)
	mem := emu.NewMemory(prog, 0)
	e := emu.New(emu.WithMemory(mem))

	err := e.Run(5)
	assert.Error(t, err)
	assert.Equal(t, uint64(1), e.InstructionCount())
}

func TestRegisterZeroNeverWritten(t *testing.T) {
	// add $0, $1, $1 should be a no-op write.
	prog := word(encodeR(0, 1, 1, 0, 0, 0x20))
	mem := emu.NewMemory(prog, 0)
	e := emu.New(emu.WithMemory(mem))
	e.RegFile().Write(1, 3)

	_, err := e.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), e.RegFile().Read(0))
}

func word(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}
