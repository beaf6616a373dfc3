package pipeline

import (
	"fmt"

	"github.com/gkorepanov/mipt-mips/insts"
	"github.com/gkorepanov/mipt-mips/timing/port"
	"github.com/gkorepanov/mipt-mips/timing/rf"
)

// Decode is the ID stage (spec §4.4.2). It retains its buffered fetch
// packet across cycles while a hazard holds it, and only reads a fresh one
// once that buffer empties — Fetch never re-writes while stalled, so the
// port never accumulates more than the one packet Decode hasn't consumed
// yet.
type Decode struct {
	decoder *insts.Decoder
	rf      *rf.RegFile

	buffered *IfIdData

	fromFetch    port.ReadPort[IfIdData]
	toExecute    port.WritePort[*insts.Instruction]
	stallToIF    port.WritePort[bool]
	flushFromMem port.ReadPort[bool]
}

func newDecode(decoder *insts.Decoder, regs *rf.RegFile, fromFetch port.ReadPort[IfIdData], toExecute port.WritePort[*insts.Instruction], stallToIF port.WritePort[bool], flushFromMem port.ReadPort[bool]) *Decode {
	return &Decode{
		decoder:      decoder,
		rf:           regs,
		fromFetch:    fromFetch,
		toExecute:    toExecute,
		stallToIF:    stallToIF,
		flushFromMem: flushFromMem,
	}
}

// Tick executes one ID cycle, per spec §4.4.2's numbered steps.
func (d *Decode) Tick(cycle uint64) (Outcome, error) {
	if flushed, _ := d.flushFromMem.Read(cycle); flushed {
		d.fromFetch.Read(cycle) // drain one pending packet, if any
		d.buffered = nil
		return Outcome{Trace: "flush", Flushed: true}, nil
	}

	if d.buffered == nil {
		entry, gotFresh := d.fromFetch.Read(cycle)
		if !gotFresh {
			return Outcome{Trace: "bubble"}, nil
		}
		d.buffered = &entry
	}

	instr := d.decoder.Decode(d.buffered.Raw, d.buffered.PC)
	instr.PredictedTaken = d.buffered.PredictedTaken
	instr.PredictedTarget = d.buffered.PredictedTarget

	if !d.rf.HazardFree(instr) {
		if err := d.stallToIF.Write(true, cycle); err != nil {
			return Outcome{}, fmt.Errorf("decode: %w", err)
		}
		return Outcome{Trace: "bubble (data hazard)", Stalled: true}, nil
	}

	instr.Src1Value = d.rf.ReadSrc1(instr)
	instr.Src2Value = d.rf.ReadSrc2(instr)
	d.rf.Invalidate(instr.Dst)
	d.buffered = nil

	if err := d.toExecute.Write(instr, cycle); err != nil {
		return Outcome{}, fmt.Errorf("decode: %w", err)
	}

	return Outcome{Trace: instr.String()}, nil
}
