package pipeline

import (
	"fmt"

	"github.com/gkorepanov/mipt-mips/emu"
	"github.com/gkorepanov/mipt-mips/timing/bpu"
	"github.com/gkorepanov/mipt-mips/timing/port"
)

// Fetch is the IF stage (spec §4.4.1): it owns the program counter and asks
// the BPU for a direction/target prediction on every fetch.
type Fetch struct {
	pc uint32

	memory *emu.Memory
	bpu    *bpu.BPU

	toDecode      port.WritePort[IfIdData]
	stallFromID   port.ReadPort[bool]
	flushFromMem  port.ReadPort[bool]
	targetFromMem port.ReadPort[uint32]
}

func newFetch(memory *emu.Memory, b *bpu.BPU, toDecode port.WritePort[IfIdData], stallFromID port.ReadPort[bool], flushFromMem port.ReadPort[bool], targetFromMem port.ReadPort[uint32]) *Fetch {
	return &Fetch{
		pc:            memory.StartPC(),
		memory:        memory,
		bpu:           b,
		toDecode:      toDecode,
		stallFromID:   stallFromID,
		flushFromMem:  flushFromMem,
		targetFromMem: targetFromMem,
	}
}

// Tick executes one IF cycle, per spec §4.4.1's numbered steps.
//
// The stall check runs before the fetch itself, not after: Decode's stall
// signal (raised last cycle) is read first, and a stalled cycle fetches and
// writes nothing at all. Checking it only after writing — the literal
// reading of "write every cycle, then check stall" — lets Fetch re-enqueue
// the same packet on every stalled cycle while Decode's buffer is still
// full, so the duplicates back up in the port and get delivered out of
// order once Decode drains. Holding position is instead an emergent
// property of the PC simply not advancing while stalled.
func (f *Fetch) Tick(cycle uint64) (Outcome, error) {
	if flushed, _ := f.flushFromMem.Read(cycle); flushed {
		if target, ok := f.targetFromMem.Read(cycle); ok {
			f.pc = target
		}
		return Outcome{Trace: "flush", Flushed: true}, nil
	}

	if stalled, _ := f.stallFromID.Read(cycle); stalled {
		return Outcome{Trace: "bubble (stall)", Stalled: true}, nil
	}

	raw, err := f.memory.Read32(f.pc)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch: %w", err)
	}

	taken := f.bpu.PredictTaken(uint64(f.pc))
	var target uint32
	if taken {
		target = uint32(f.bpu.GetTarget(uint64(f.pc)))
	} else {
		target = f.pc + 4
	}

	if err := f.toDecode.Write(IfIdData{
		Raw:             raw,
		PC:              f.pc,
		PredictedTaken:  taken,
		PredictedTarget: target,
	}, cycle); err != nil {
		return Outcome{}, fmt.Errorf("fetch: %w", err)
	}

	f.pc = target

	return Outcome{Trace: fmt.Sprintf("fetch 0x%08x", raw)}, nil
}
