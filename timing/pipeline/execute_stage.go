package pipeline

import (
	"fmt"

	"github.com/gkorepanov/mipt-mips/insts"
	"github.com/gkorepanov/mipt-mips/timing/port"
)

// ExecuteStage is the EX stage (spec §4.4.3). It is named ExecuteStage,
// not Execute, to keep it distinct from insts.Instruction.Execute, the ALU
// semantics method it delegates to.
type ExecuteStage struct {
	fromDecode   port.ReadPort[*insts.Instruction]
	toMemory     port.WritePort[*insts.Instruction]
	flushFromMem port.ReadPort[bool]
}

func newExecuteStage(fromDecode port.ReadPort[*insts.Instruction], toMemory port.WritePort[*insts.Instruction], flushFromMem port.ReadPort[bool]) *ExecuteStage {
	return &ExecuteStage{fromDecode: fromDecode, toMemory: toMemory, flushFromMem: flushFromMem}
}

// Tick executes one EX cycle, per spec §4.4.3.
func (e *ExecuteStage) Tick(cycle uint64) (Outcome, error) {
	if flushed, _ := e.flushFromMem.Read(cycle); flushed {
		e.fromDecode.Read(cycle)
		return Outcome{Trace: "flush", Flushed: true}, nil
	}

	instr, ok := e.fromDecode.Read(cycle)
	if !ok {
		return Outcome{Trace: "bubble"}, nil
	}

	instr.Execute(instr.Src1Value, instr.Src2Value)

	if err := e.toMemory.Write(instr, cycle); err != nil {
		return Outcome{}, fmt.Errorf("execute: %w", err)
	}

	return Outcome{Trace: instr.String()}, nil
}
