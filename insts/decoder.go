package insts

// Op identifies a decoded MIPS-like operation.
type Op uint8

// Supported operations.
const (
	OpUnknown Op = iota

	// R-type ALU
	OpADD
	OpADDU
	OpSUB
	OpSUBU
	OpAND
	OpOR
	OpXOR
	OpNOR
	OpSLT
	OpSLTU

	// I-type ALU
	OpADDI
	OpADDIU
	OpANDI
	OpORI
	OpXORI
	OpSLTI
	OpSLTIU
	OpLUI

	// Loads / stores
	OpLW
	OpLB
	OpLBU
	OpLH
	OpLHU
	OpSW
	OpSB
	OpSH

	// Branches
	OpBEQ
	OpBNE
	OpBLEZ
	OpBGTZ
	OpBLTZ
	OpBGEZ

	// Jumps
	OpJ
	OpJAL
	OpJR
	OpJALR
)

// Format is the instruction encoding shape.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatJ
)

// Opcode field values (bits [31:26]).
const (
	opcodeSPECIAL = 0x00
	opcodeREGIMM  = 0x01
	opcodeJ       = 0x02
	opcodeJAL     = 0x03
	opcodeBEQ     = 0x04
	opcodeBNE     = 0x05
	opcodeBLEZ    = 0x06
	opcodeBGTZ    = 0x07
	opcodeADDI    = 0x08
	opcodeADDIU   = 0x09
	opcodeSLTI    = 0x0A
	opcodeSLTIU   = 0x0B
	opcodeANDI    = 0x0C
	opcodeORI     = 0x0D
	opcodeXORI    = 0x0E
	opcodeLUI     = 0x0F
	opcodeLB      = 0x20
	opcodeLH      = 0x21
	opcodeLW      = 0x23
	opcodeLBU     = 0x24
	opcodeLHU     = 0x25
	opcodeSB      = 0x28
	opcodeSH      = 0x29
	opcodeSW      = 0x2B
)

// funct field values for opcodeSPECIAL (bits [5:0]).
const (
	functADD  = 0x20
	functADDU = 0x21
	functSUB  = 0x22
	functSUBU = 0x23
	functAND  = 0x24
	functOR   = 0x25
	functXOR  = 0x26
	functNOR  = 0x27
	functSLT  = 0x2A
	functSLTU = 0x2B
	functJR   = 0x08
	functJALR = 0x09
)

// rt field values for opcodeREGIMM (bits [20:16]).
const (
	regimmBLTZ = 0x00
	regimmBGEZ = 0x01
)

// Instruction is a decoded MIPS-like instruction, the role that spec.md's
// FuncInstr plays for the pipeline core.
type Instruction struct {
	Word   uint32
	Op     Op
	Format Format

	Src1 uint8 // source register 1; register 0 when unused
	Src2 uint8 // source register 2; register 0 when unused
	Dst  uint8 // destination register; register 0 when the op writes nothing

	Imm       int32  // sign-extended 16-bit immediate (I-type ALU/load/store/branch offset in words)
	ImmUnsigned uint32 // zero-extended 16-bit immediate (ANDI/ORI/XORI/LUI)
	Target    uint32 // absolute jump target (J-type, word-aligned)

	IsLoad  bool
	IsStore bool
	MemWidth  int  // bytes: 1, 2 or 4
	MemSigned bool // sign-extend loaded value

	IsJump bool // branch or unconditional jump

	// PC is the address this instruction was fetched from. Stamped by Fetch.
	PC uint32

	// PredictedTaken/PredictedTarget are stamped by Fetch from the BPU's
	// prediction at fetch time, per spec §4.4.1.
	PredictedTaken  bool
	PredictedTarget uint32

	// NewPC, Result and JumpExecuted are populated by Execute, per spec §4.4.3.
	NewPC        uint32
	Result       uint32 // ALU result, or the loaded/stored value's destination slot
	JumpExecuted bool

	// MemAddr is the computed effective address for loads/stores, set by Execute.
	MemAddr uint32

	// Src1Value/Src2Value are the operand values Decode reads out of the
	// register file once the hazard test passes (spec §4.4.2 step 5); they
	// are the arguments Execute's Execute(rs1, rs2) call forwards on.
	Src1Value uint32
	Src2Value uint32
}

// Decoder decodes MIPS-like machine code into Instruction values.
type Decoder struct{}

// NewDecoder creates a decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word fetched from address pc.
func (d *Decoder) Decode(word uint32, pc uint32) *Instruction {
	inst := &Instruction{Word: word, PC: pc, Op: OpUnknown}

	opcode := (word >> 26) & 0x3F

	switch opcode {
	case opcodeSPECIAL:
		d.decodeSPECIAL(word, inst)
	case opcodeREGIMM:
		d.decodeREGIMM(word, inst)
	case opcodeJ, opcodeJAL:
		d.decodeJType(word, opcode, inst)
	case opcodeBEQ, opcodeBNE, opcodeBLEZ, opcodeBGTZ:
		d.decodeBranch(word, opcode, inst)
	case opcodeADDI, opcodeADDIU, opcodeSLTI, opcodeSLTIU,
		opcodeANDI, opcodeORI, opcodeXORI, opcodeLUI:
		d.decodeIALU(word, opcode, inst)
	case opcodeLB, opcodeLH, opcodeLW, opcodeLBU, opcodeLHU,
		opcodeSB, opcodeSH, opcodeSW:
		d.decodeMem(word, opcode, inst)
	default:
		// Unknown opcode: leave OpUnknown.
	}

	return inst
}

// decodeSPECIAL decodes opcode 0 R-type instructions: funct | rs | rt | rd | shamt.
func (d *Decoder) decodeSPECIAL(word uint32, inst *Instruction) {
	inst.Format = FormatR
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	rd := uint8((word >> 11) & 0x1F)
	funct := word & 0x3F

	switch funct {
	case functADD:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpADD, rs, rt, rd
	case functADDU:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpADDU, rs, rt, rd
	case functSUB:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpSUB, rs, rt, rd
	case functSUBU:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpSUBU, rs, rt, rd
	case functAND:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpAND, rs, rt, rd
	case functOR:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpOR, rs, rt, rd
	case functXOR:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpXOR, rs, rt, rd
	case functNOR:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpNOR, rs, rt, rd
	case functSLT:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpSLT, rs, rt, rd
	case functSLTU:
		inst.Op, inst.Src1, inst.Src2, inst.Dst = OpSLTU, rs, rt, rd
	case functJR:
		inst.Op, inst.Src1, inst.IsJump = OpJR, rs, true
	case functJALR:
		dst := rd
		if dst == 0 {
			dst = 31
		}
		inst.Op, inst.Src1, inst.Dst, inst.IsJump = OpJALR, rs, dst, true
	}
}

// decodeREGIMM decodes opcode 1: BLTZ/BGEZ, discriminated by the rt field.
func (d *Decoder) decodeREGIMM(word uint32, inst *Instruction) {
	inst.Format = FormatI
	rs := uint8((word >> 21) & 0x1F)
	rt := (word >> 16) & 0x1F
	imm16 := int32(int16(word & 0xFFFF))

	inst.Src1 = rs
	inst.Imm = imm16
	inst.IsJump = true

	switch rt {
	case regimmBLTZ:
		inst.Op = OpBLTZ
	case regimmBGEZ:
		inst.Op = OpBGEZ
	}
}

// decodeJType decodes J and JAL: opcode | imm26 (word address, shifted left 2).
func (d *Decoder) decodeJType(word uint32, opcode uint32, inst *Instruction) {
	inst.Format = FormatJ
	imm26 := word & 0x3FFFFFF

	// Target replaces the low 28 bits of (PC+4); the high 4 bits come from
	// the current PC's own segment, matching standard MIPS J/JAL semantics.
	inst.Target = ((inst.PC + 4) & 0xF0000000) | (imm26 << 2)
	inst.IsJump = true

	if opcode == opcodeJAL {
		inst.Op = OpJAL
		inst.Dst = 31
	} else {
		inst.Op = OpJ
	}
}

// decodeBranch decodes BEQ/BNE/BLEZ/BGTZ: opcode | rs | rt | imm16.
func (d *Decoder) decodeBranch(word uint32, opcode uint32, inst *Instruction) {
	inst.Format = FormatI
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	imm16 := int32(int16(word & 0xFFFF))

	inst.Src1 = rs
	inst.Imm = imm16
	inst.IsJump = true

	switch opcode {
	case opcodeBEQ:
		inst.Op, inst.Src2 = OpBEQ, rt
	case opcodeBNE:
		inst.Op, inst.Src2 = OpBNE, rt
	case opcodeBLEZ:
		inst.Op = OpBLEZ
	case opcodeBGTZ:
		inst.Op = OpBGTZ
	}
}

// decodeIALU decodes I-type ALU ops: opcode | rs | rt | imm16.
func (d *Decoder) decodeIALU(word uint32, opcode uint32, inst *Instruction) {
	inst.Format = FormatI
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	imm16 := word & 0xFFFF

	inst.Dst = rt
	inst.ImmUnsigned = imm16
	inst.Imm = int32(int16(imm16))

	switch opcode {
	case opcodeADDI:
		inst.Op, inst.Src1 = OpADDI, rs
	case opcodeADDIU:
		inst.Op, inst.Src1 = OpADDIU, rs
	case opcodeSLTI:
		inst.Op, inst.Src1 = OpSLTI, rs
	case opcodeSLTIU:
		inst.Op, inst.Src1 = OpSLTIU, rs
	case opcodeANDI:
		inst.Op, inst.Src1 = OpANDI, rs
	case opcodeORI:
		inst.Op, inst.Src1 = OpORI, rs
	case opcodeXORI:
		inst.Op, inst.Src1 = OpXORI, rs
	case opcodeLUI:
		inst.Op = OpLUI
	}
}

// decodeMem decodes load/store ops: opcode | rs(base) | rt | imm16(offset).
func (d *Decoder) decodeMem(word uint32, opcode uint32, inst *Instruction) {
	inst.Format = FormatI
	rs := uint8((word >> 21) & 0x1F)
	rt := uint8((word >> 16) & 0x1F)
	imm16 := int32(int16(word & 0xFFFF))

	inst.Src1 = rs
	inst.Imm = imm16

	switch opcode {
	case opcodeLB:
		inst.Op, inst.Dst, inst.IsLoad, inst.MemWidth, inst.MemSigned = OpLB, rt, true, 1, true
	case opcodeLBU:
		inst.Op, inst.Dst, inst.IsLoad, inst.MemWidth, inst.MemSigned = OpLBU, rt, true, 1, false
	case opcodeLH:
		inst.Op, inst.Dst, inst.IsLoad, inst.MemWidth, inst.MemSigned = OpLH, rt, true, 2, true
	case opcodeLHU:
		inst.Op, inst.Dst, inst.IsLoad, inst.MemWidth, inst.MemSigned = OpLHU, rt, true, 2, false
	case opcodeLW:
		inst.Op, inst.Dst, inst.IsLoad, inst.MemWidth = OpLW, rt, true, 4
	case opcodeSB:
		inst.Op, inst.Src2, inst.IsStore, inst.MemWidth = OpSB, rt, true, 1
	case opcodeSH:
		inst.Op, inst.Src2, inst.IsStore, inst.MemWidth = OpSH, rt, true, 2
	case opcodeSW:
		inst.Op, inst.Src2, inst.IsStore, inst.MemWidth = OpSW, rt, true, 4
	}
}
