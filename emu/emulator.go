// Package emu implements the reference functional model: the external
// FuncMemory and the checker that spec §1/§4.6 name but leave out of scope
// for the core. It decodes and executes one instruction at a time against
// its own register file and memory, with no pipelining, no prediction and
// no stalls — it exists purely to be compared against the timing model.
package emu

import (
	"fmt"
	"io"

	"github.com/gkorepanov/mipt-mips/insts"
)

// Emulator is a straight-line MIPS interpreter used as the checker's
// functional reference (spec §4.6/C6).
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder

	trace io.Writer

	instructionCount uint64
}

// Option configures an Emulator at construction, in the teacher's
// functional-options idiom (timing/pipeline.PipelineOption in the source
// this module started from).
type Option func(*Emulator)

// WithRegFile installs a pre-populated register file.
func WithRegFile(rf *RegFile) Option {
	return func(e *Emulator) { e.regFile = rf }
}

// WithMemory installs the memory image to execute against.
func WithMemory(m *Memory) Option {
	return func(e *Emulator) { e.memory = m }
}

// WithTraceWriter directs each Step's rendered trace line to w in addition
// to returning it.
func WithTraceWriter(w io.Writer) Option {
	return func(e *Emulator) { e.trace = w }
}

// New constructs an Emulator. Without WithMemory the emulator has nothing
// to execute; New itself never fails — a missing memory surfaces as an
// error from the first Step.
func New(opts ...Option) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.memory != nil {
		e.regFile.PC = e.memory.StartPC()
	}
	return e
}

// RegFile returns the emulator's own architectural register file.
func (e *Emulator) RegFile() *RegFile { return e.regFile }

// InstructionCount returns the number of instructions stepped so far.
func (e *Emulator) InstructionCount() uint64 { return e.instructionCount }

// Step decodes and executes one instruction at the current PC, advances
// PC, and returns a one-line textual trace for checker comparison
// ("<pc>: <mnemonic> -> rd=<dst>=<val>" style, per SPEC_FULL.md §10.2).
func (e *Emulator) Step() (string, error) {
	if e.memory == nil {
		return "", fmt.Errorf("emu: no memory installed")
	}

	pc := e.regFile.PC
	word, err := e.memory.Read32(pc)
	if err != nil {
		return "", fmt.Errorf("emu: fetch at 0x%x: %w", pc, err)
	}

	instr := e.decoder.Decode(word, pc)
	if instr.Op == insts.OpUnknown {
		return "", fmt.Errorf("emu: unknown instruction 0x%08x at 0x%x", word, pc)
	}

	instr.Execute(e.regFile.Read(instr.Src1), e.regFile.Read(instr.Src2))

	if instr.IsLoadInstr() {
		v, err := e.memory.ReadWidth(instr.MemAddr, instr.MemWidth, instr.MemSigned)
		if err != nil {
			return "", fmt.Errorf("emu: load at 0x%x: %w", instr.MemAddr, err)
		}
		instr.Result = v
	}
	if instr.IsStoreInstr() {
		if err := e.memory.WriteWidth(instr.MemAddr, instr.MemWidth, e.regFile.Read(instr.Src2)); err != nil {
			return "", fmt.Errorf("emu: store at 0x%x: %w", instr.MemAddr, err)
		}
	}

	e.regFile.Write(instr.Dst, instr.Result)
	e.regFile.PC = instr.NewPC
	e.instructionCount++

	line := instr.Trace()
	if e.trace != nil {
		fmt.Fprintln(e.trace, line)
	}

	return line, nil
}

// Run steps up to numSteps instructions, stopping early on the first
// error. Used by the CLI's --functional-only mode (SPEC_FULL.md §13).
func (e *Emulator) Run(numSteps uint64) error {
	for i := uint64(0); i < numSteps; i++ {
		if _, err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}
