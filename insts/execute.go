package insts

import "fmt"

// Execute computes the instruction's result and next-PC from its two
// register operand values, mirroring FuncInstr::execute() in the original
// simulator: a pure function of (decoded fields, operand values) with no
// side effects beyond populating the instruction's own result fields.
func (i *Instruction) Execute(rs1Value, rs2Value uint32) {
	nextSequential := i.PC + 4
	i.NewPC = nextSequential

	switch i.Op {
	case OpADD, OpADDU:
		i.Result = rs1Value + rs2Value
	case OpSUB, OpSUBU:
		i.Result = rs1Value - rs2Value
	case OpAND:
		i.Result = rs1Value & rs2Value
	case OpOR:
		i.Result = rs1Value | rs2Value
	case OpXOR:
		i.Result = rs1Value ^ rs2Value
	case OpNOR:
		i.Result = ^(rs1Value | rs2Value)
	case OpSLT:
		i.Result = boolToWord(int32(rs1Value) < int32(rs2Value))
	case OpSLTU:
		i.Result = boolToWord(rs1Value < rs2Value)

	case OpADDI, OpADDIU:
		i.Result = rs1Value + uint32(i.Imm)
	case OpSLTI:
		i.Result = boolToWord(int32(rs1Value) < i.Imm)
	case OpSLTIU:
		i.Result = boolToWord(rs1Value < uint32(i.Imm))
	case OpANDI:
		i.Result = rs1Value & i.ImmUnsigned
	case OpORI:
		i.Result = rs1Value | i.ImmUnsigned
	case OpXORI:
		i.Result = rs1Value ^ i.ImmUnsigned
	case OpLUI:
		i.Result = i.ImmUnsigned << 16

	case OpLW, OpLB, OpLBU, OpLH, OpLHU:
		i.MemAddr = rs1Value + uint32(i.Imm)
	case OpSW, OpSB, OpSH:
		i.MemAddr = rs1Value + uint32(i.Imm)

	case OpBEQ:
		i.JumpExecuted = rs1Value == rs2Value
	case OpBNE:
		i.JumpExecuted = rs1Value != rs2Value
	case OpBLEZ:
		i.JumpExecuted = int32(rs1Value) <= 0
	case OpBGTZ:
		i.JumpExecuted = int32(rs1Value) > 0
	case OpBLTZ:
		i.JumpExecuted = int32(rs1Value) < 0
	case OpBGEZ:
		i.JumpExecuted = int32(rs1Value) >= 0

	case OpJ:
		i.JumpExecuted = true
	case OpJAL:
		i.Result = nextSequential
		i.JumpExecuted = true
	case OpJR:
		i.JumpExecuted = true
	case OpJALR:
		i.Result = nextSequential
		i.JumpExecuted = true
	}

	if i.IsJump && i.JumpExecuted {
		switch i.Op {
		case OpJ, OpJAL:
			i.NewPC = i.Target
		case OpJR, OpJALR:
			i.NewPC = rs1Value
		default:
			// Branch: PC-relative, offset counted in words from the
			// delay-slot-free next-sequential address.
			i.NewPC = uint32(int32(nextSequential) + i.Imm*4)
		}
	}
}

// IsLoadInstr reports whether the instruction reads memory.
func (i *Instruction) IsLoadInstr() bool { return i.IsLoad }

// IsStoreInstr reports whether the instruction writes memory.
func (i *Instruction) IsStoreInstr() bool { return i.IsStore }

// Misprediction reports whether the direction or target predicted at Fetch
// disagrees with the actual outcome determined after Execute, per spec §4.4.4.
func (i *Instruction) Misprediction() bool {
	actuallyTaken := i.IsJump && i.JumpExecuted
	if actuallyTaken != i.PredictedTaken {
		return true
	}
	return i.PredictedTarget != i.NewPC
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// String renders a one-line disassembly, used for pipeline stage trace
// output (spec §13's supplemented disassembly feature).
func (i *Instruction) String() string {
	return fmt.Sprintf("0x%08x: %s $%d, $%d, $%d (imm=%d)",
		i.PC, mnemonics[i.Op], i.Dst, i.Src1, i.Src2, i.Imm)
}

// Trace renders the canonical one-line retirement record the checker
// compares byte-for-byte (spec §4.6/C6): the disassembly plus the
// committed destination register and its value, with register 0 always
// rendered as 0 regardless of what the ALU computed into it, matching the
// hardwired-zero convention both the timing RegFile and emu.RegFile honour.
func (i *Instruction) Trace() string {
	dstValue := i.Result
	if i.Dst == 0 {
		dstValue = 0
	}
	return fmt.Sprintf("%s -> rd=$%d=0x%08x", i.String(), i.Dst, dstValue)
}

var mnemonics = map[Op]string{
	OpUnknown: "unknown",
	OpADD:     "add", OpADDU: "addu", OpSUB: "sub", OpSUBU: "subu",
	OpAND: "and", OpOR: "or", OpXOR: "xor", OpNOR: "nor",
	OpSLT: "slt", OpSLTU: "sltu",
	OpADDI: "addi", OpADDIU: "addiu", OpANDI: "andi", OpORI: "ori",
	OpXORI: "xori", OpSLTI: "slti", OpSLTIU: "sltiu", OpLUI: "lui",
	OpLW: "lw", OpLB: "lb", OpLBU: "lbu", OpLH: "lh", OpLHU: "lhu",
	OpSW: "sw", OpSB: "sb", OpSH: "sh",
	OpBEQ: "beq", OpBNE: "bne", OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpBLTZ: "bltz", OpBGEZ: "bgez",
	OpJ: "j", OpJAL: "jal", OpJR: "jr", OpJALR: "jalr",
}
