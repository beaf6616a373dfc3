package pipeline

import (
	"fmt"

	"github.com/gkorepanov/mipt-mips/emu"
	"github.com/gkorepanov/mipt-mips/insts"
	"github.com/gkorepanov/mipt-mips/timing/bpu"
	"github.com/gkorepanov/mipt-mips/timing/port"
	"github.com/gkorepanov/mipt-mips/timing/rf"
)

// MemoryStage is the MEM stage (spec §4.4.4): the misprediction point. It
// trains the BPU with every branch/jump's real outcome and, on a
// misprediction, flushes the three stages ahead of it plus its own input.
type MemoryStage struct {
	memory *emu.Memory
	bpu    *bpu.BPU
	rf     *rf.RegFile

	fromExecute port.ReadPort[*insts.Instruction]
	toWriteback port.WritePort[*insts.Instruction]
	selfFlushIn port.ReadPort[bool]

	flushToFetch  port.WritePort[bool]
	flushToDecode port.WritePort[bool]
	flushToExec   port.WritePort[bool]
	flushToSelf   port.WritePort[bool]
	targetToFetch port.WritePort[uint32]
}

func newMemoryStage(
	memory *emu.Memory, b *bpu.BPU, regs *rf.RegFile,
	fromExecute port.ReadPort[*insts.Instruction],
	toWriteback port.WritePort[*insts.Instruction],
	selfFlushIn port.ReadPort[bool],
	flushToFetch, flushToDecode, flushToExec, flushToSelf port.WritePort[bool],
	targetToFetch port.WritePort[uint32],
) *MemoryStage {
	return &MemoryStage{
		memory: memory, bpu: b, rf: regs,
		fromExecute: fromExecute, toWriteback: toWriteback, selfFlushIn: selfFlushIn,
		flushToFetch: flushToFetch, flushToDecode: flushToDecode, flushToExec: flushToExec, flushToSelf: flushToSelf,
		targetToFetch: targetToFetch,
	}
}

// Tick executes one MEM cycle, per spec §4.4.4's numbered steps.
func (m *MemoryStage) Tick(cycle uint64) (Outcome, error) {
	if selfFlushed, _ := m.selfFlushIn.Read(cycle); selfFlushed {
		m.fromExecute.Read(cycle)
		return Outcome{Trace: "flush", Flushed: true}, nil
	}

	instr, ok := m.fromExecute.Read(cycle)
	if !ok {
		return Outcome{Trace: "bubble"}, nil
	}

	actuallyTaken := instr.IsJump && instr.JumpExecuted
	realTarget := instr.NewPC

	// Trains the BTB's LRU occupancy/eviction dynamics for every retiring
	// instruction, not just branches/jumps — a non-branch PC is trained
	// with actuallyTaken=false, per perf_sim.cpp's MemoryAccess::operate().
	m.bpu.Update(actuallyTaken, uint64(instr.PC), uint64(realTarget))

	if instr.Misprediction() {
		if err := m.broadcastFlush(cycle, realTarget); err != nil {
			return Outcome{}, fmt.Errorf("memory: %w", err)
		}

		// The destination was speculatively invalidated in Decode; since
		// this instruction will never retire, undo that so the scoreboard
		// stays balanced (spec §8's in-flight-destination invariant).
		m.rf.Validate(instr.Dst)

		return Outcome{Trace: "misprediction", Flushed: true}, nil
	}

	if instr.IsLoadInstr() {
		v, err := m.memory.ReadWidth(instr.MemAddr, instr.MemWidth, instr.MemSigned)
		if err != nil {
			return Outcome{}, fmt.Errorf("memory: load: %w", err)
		}
		instr.Result = v
	}
	if instr.IsStoreInstr() {
		if err := m.memory.WriteWidth(instr.MemAddr, instr.MemWidth, instr.Src2Value); err != nil {
			return Outcome{}, fmt.Errorf("memory: store: %w", err)
		}
	}

	if err := m.toWriteback.Write(instr, cycle); err != nil {
		return Outcome{}, fmt.Errorf("memory: %w", err)
	}

	return Outcome{Trace: instr.String()}, nil
}

func (m *MemoryStage) broadcastFlush(cycle uint64, target uint32) error {
	for _, w := range []port.WritePort[bool]{m.flushToFetch, m.flushToDecode, m.flushToExec, m.flushToSelf} {
		if err := w.Write(true, cycle); err != nil {
			return err
		}
	}
	return m.targetToFetch.Write(target, cycle)
}
