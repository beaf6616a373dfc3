// Package pipeline implements C4 (spec §4.4): the five classic stages —
// Fetch, Decode, Execute, Memory, Writeback — each a function over its
// input/output ports, with no forwarding/bypassing (spec §1's Non-goals):
// the register scoreboard's stalls are the only hazard mechanism.
package pipeline

import (
	"fmt"

	"github.com/gkorepanov/mipt-mips/emu"
	"github.com/gkorepanov/mipt-mips/insts"
	"github.com/gkorepanov/mipt-mips/timing/bpu"
	"github.com/gkorepanov/mipt-mips/timing/checker"
	"github.com/gkorepanov/mipt-mips/timing/port"
	"github.com/gkorepanov/mipt-mips/timing/rf"
)

// Named ports, grounded on the original source's own naming convention
// (perf_sim.h's "DECODE_2_FETCH_STALL", "FETCH_2_DECODE" style), extended
// here to the flush/target ports spec §4.4.4 ¶5 requires.
const (
	portFetchToDecode     = "FETCH_2_DECODE"
	portDecodeToExecute   = "DECODE_2_EXECUTE"
	portExecuteToMemory   = "EXECUTE_2_MEMORY"
	portMemoryToWriteback = "MEMORY_2_WRITEBACK"

	portDecodeToFetchStall = "DECODE_2_FETCH_STALL"

	portMemoryToFetchFlush   = "MEMORY_2_FETCH_FLUSH"
	portMemoryToDecodeFlush  = "MEMORY_2_DECODE_FLUSH"
	portMemoryToExecuteFlush = "MEMORY_2_EXECUTE_FLUSH"
	portMemoryToMemoryFlush  = "MEMORY_2_MEMORY_FLUSH"
	portMemoryToFetchTarget  = "MEMORY_2_FETCH_TARGET"
)

const portLatency = 1
const portBandwidth = 1

// Pipeline wires the five stages together through a simulator-owned
// port.Registry (Design Note 9), exposing only a per-cycle Tick.
type Pipeline struct {
	fetch     *Fetch
	decode    *Decode
	execute   *ExecuteStage
	memory    *MemoryStage
	writeback *WritebackStage

	registry *port.Registry
}

// New builds a Pipeline fetching from memory, predicting branches with b,
// scoreboarding registers with regs, and checking retired instructions
// against c (nil disables checking — used by tests that exercise the
// timing model alone).
func New(memory *emu.Memory, b *bpu.BPU, regs *rf.RegFile, c *checker.Checker) (*Pipeline, error) {
	reg := port.NewRegistry()

	declarations := []func() error{
		func() error { return port.Declare[IfIdData](reg, portFetchToDecode, portLatency, portBandwidth) },
		func() error { return port.Declare[*insts.Instruction](reg, portDecodeToExecute, portLatency, portBandwidth) },
		func() error { return port.Declare[*insts.Instruction](reg, portExecuteToMemory, portLatency, portBandwidth) },
		func() error { return port.Declare[*insts.Instruction](reg, portMemoryToWriteback, portLatency, portBandwidth) },
		func() error { return port.Declare[bool](reg, portDecodeToFetchStall, portLatency, portBandwidth) },
		func() error { return port.Declare[bool](reg, portMemoryToFetchFlush, portLatency, portBandwidth) },
		func() error { return port.Declare[bool](reg, portMemoryToDecodeFlush, portLatency, portBandwidth) },
		func() error { return port.Declare[bool](reg, portMemoryToExecuteFlush, portLatency, portBandwidth) },
		func() error { return port.Declare[bool](reg, portMemoryToMemoryFlush, portLatency, portBandwidth) },
		func() error { return port.Declare[uint32](reg, portMemoryToFetchTarget, portLatency, portBandwidth) },
	}
	for _, declare := range declarations {
		if err := declare(); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	fetchToDecodeW, err := port.WriterOf[IfIdData](reg, portFetchToDecode)
	if err != nil {
		return nil, err
	}
	fetchToDecodeR, err := port.ReaderOf[IfIdData](reg, portFetchToDecode)
	if err != nil {
		return nil, err
	}
	decodeToExecW, err := port.WriterOf[*insts.Instruction](reg, portDecodeToExecute)
	if err != nil {
		return nil, err
	}
	decodeToExecR, err := port.ReaderOf[*insts.Instruction](reg, portDecodeToExecute)
	if err != nil {
		return nil, err
	}
	execToMemW, err := port.WriterOf[*insts.Instruction](reg, portExecuteToMemory)
	if err != nil {
		return nil, err
	}
	execToMemR, err := port.ReaderOf[*insts.Instruction](reg, portExecuteToMemory)
	if err != nil {
		return nil, err
	}
	memToWbW, err := port.WriterOf[*insts.Instruction](reg, portMemoryToWriteback)
	if err != nil {
		return nil, err
	}
	memToWbR, err := port.ReaderOf[*insts.Instruction](reg, portMemoryToWriteback)
	if err != nil {
		return nil, err
	}
	stallW, err := port.WriterOf[bool](reg, portDecodeToFetchStall)
	if err != nil {
		return nil, err
	}
	stallR, err := port.ReaderOf[bool](reg, portDecodeToFetchStall)
	if err != nil {
		return nil, err
	}
	flushFetchW, err := port.WriterOf[bool](reg, portMemoryToFetchFlush)
	if err != nil {
		return nil, err
	}
	flushFetchR, err := port.ReaderOf[bool](reg, portMemoryToFetchFlush)
	if err != nil {
		return nil, err
	}
	flushDecodeW, err := port.WriterOf[bool](reg, portMemoryToDecodeFlush)
	if err != nil {
		return nil, err
	}
	flushDecodeR, err := port.ReaderOf[bool](reg, portMemoryToDecodeFlush)
	if err != nil {
		return nil, err
	}
	flushExecW, err := port.WriterOf[bool](reg, portMemoryToExecuteFlush)
	if err != nil {
		return nil, err
	}
	flushExecR, err := port.ReaderOf[bool](reg, portMemoryToExecuteFlush)
	if err != nil {
		return nil, err
	}
	flushSelfW, err := port.WriterOf[bool](reg, portMemoryToMemoryFlush)
	if err != nil {
		return nil, err
	}
	flushSelfR, err := port.ReaderOf[bool](reg, portMemoryToMemoryFlush)
	if err != nil {
		return nil, err
	}
	targetW, err := port.WriterOf[uint32](reg, portMemoryToFetchTarget)
	if err != nil {
		return nil, err
	}
	targetR, err := port.ReaderOf[uint32](reg, portMemoryToFetchTarget)
	if err != nil {
		return nil, err
	}

	if err := reg.Freeze(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	decoder := insts.NewDecoder()

	p := &Pipeline{
		fetch:     newFetch(memory, b, fetchToDecodeW, stallR, flushFetchR, targetR),
		decode:    newDecode(decoder, regs, fetchToDecodeR, decodeToExecW, stallW, flushDecodeR),
		execute:   newExecuteStage(decodeToExecR, execToMemW, flushExecR),
		memory:    newMemoryStage(memory, b, regs, execToMemR, memToWbW, flushSelfR, flushFetchW, flushDecodeW, flushExecW, flushSelfW, targetW),
		writeback: newWritebackStage(regs, c, memToWbR),
		registry:  reg,
	}

	return p, nil
}

// CycleOutcome collects every stage's Outcome for one cycle, in program
// order IF→ID→EX→MEM→WB, per spec §2/§4.5.
type CycleOutcome struct {
	Fetch, Decode, Execute, Memory, Writeback Outcome
}

// Tick clocks all five stages once, in program order, per spec §4.5's run
// loop. It returns early with an error on the first stage failure (port
// bandwidth violation, out-of-bounds memory access, or checker mismatch);
// all of those are fatal conditions per spec §7.
func (p *Pipeline) Tick(cycle uint64) (CycleOutcome, error) {
	var out CycleOutcome
	var err error

	out.Fetch, err = p.fetch.Tick(cycle)
	if err != nil {
		return out, err
	}
	out.Decode, err = p.decode.Tick(cycle)
	if err != nil {
		return out, err
	}
	out.Execute, err = p.execute.Tick(cycle)
	if err != nil {
		return out, err
	}
	out.Memory, err = p.memory.Tick(cycle)
	if err != nil {
		return out, err
	}
	out.Writeback, err = p.writeback.Tick(cycle)
	if err != nil {
		return out, err
	}

	return out, nil
}
