package pipeline

import (
	"fmt"

	"github.com/gkorepanov/mipt-mips/insts"
	"github.com/gkorepanov/mipt-mips/timing/checker"
	"github.com/gkorepanov/mipt-mips/timing/port"
	"github.com/gkorepanov/mipt-mips/timing/rf"
)

// WritebackStage is the WB stage (spec §4.4.5). It commits the destination
// register and invokes the checker (C6): a mismatch between the reference
// model's trace and this instruction's own rendering is fatal.
type WritebackStage struct {
	rf      *rf.RegFile
	checker *checker.Checker

	fromMemory port.ReadPort[*insts.Instruction]
}

func newWritebackStage(regs *rf.RegFile, c *checker.Checker, fromMemory port.ReadPort[*insts.Instruction]) *WritebackStage {
	return &WritebackStage{rf: regs, checker: c, fromMemory: fromMemory}
}

// Tick executes one WB cycle, per spec §4.4.5.
func (w *WritebackStage) Tick(cycle uint64) (Outcome, error) {
	instr, ok := w.fromMemory.Read(cycle)
	if !ok {
		return Outcome{Trace: "bubble"}, nil
	}

	w.rf.WriteDst(instr)

	trace := instr.Trace()
	if w.checker != nil {
		if err := w.checker.Check(trace); err != nil {
			return Outcome{}, fmt.Errorf("writeback: %w", err)
		}
	}

	return Outcome{Trace: trace, Retired: true}, nil
}
