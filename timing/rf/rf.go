// Package rf implements the register scoreboard (spec §3/§4.3): 32
// architectural general-purpose registers, each guarded by a validity bit,
// plus HI/LO, which are stored but carry no validity bit. The scoreboard
// never blocks on its own — Decode reads the bits and stalls itself when a
// hazard is found.
//
// Register 0 is hardwired valid forever: MIPS wires $zero to the constant
// 0, so no instruction can ever leave it with an in-flight writer.
package rf

import "github.com/gkorepanov/mipt-mips/insts"

const (
	numGPR  = 32
	zeroReg = 0
)

// RegFile is the pipeline's register scoreboard and value store. It is
// owned by the simulator driver and mutated by Decode (invalidate),
// Writeback (validate+write) and Memory (validate on squash), per spec §5.
type RegFile struct {
	values [numGPR]uint32
	valid  [numGPR]bool
	hi, lo uint32
}

// New returns a scoreboard with every register initially valid.
func New() *RegFile {
	rf := &RegFile{}
	for r := range rf.valid {
		rf.valid[r] = true
	}
	return rf
}

// Check reports whether r currently holds a committed value (true) or has
// a writer in flight (false). Register 0 is always valid.
func (rf *RegFile) Check(r uint8) bool {
	if r == zeroReg {
		return true
	}
	return rf.valid[r]
}

// Invalidate marks r as having a writer in flight. Register 0 is never
// invalidated: the caller is expected not to invalidate it, but a guard
// here keeps the invariant true regardless.
func (rf *RegFile) Invalidate(r uint8) {
	if r == zeroReg {
		return
	}
	rf.valid[r] = false
}

// Validate marks r as committed again without changing its stored value.
// Used by Memory to undo a Decode-side invalidation when an instruction is
// squashed on misprediction before it reaches Writeback.
func (rf *RegFile) Validate(r uint8) {
	rf.valid[r] = true
}

// Read returns the current value of r. Register 0 always reads as 0.
func (rf *RegFile) Read(r uint8) uint32 {
	if r == zeroReg {
		return 0
	}
	return rf.values[r]
}

// HI and LO return the two extra ABI registers used by multiply/divide.
func (rf *RegFile) HI() uint32 { return rf.hi }
func (rf *RegFile) LO() uint32 { return rf.lo }

// SetHI and SetLO update the two extra ABI registers.
func (rf *RegFile) SetHI(v uint32) { rf.hi = v }
func (rf *RegFile) SetLO(v uint32) { rf.lo = v }

// ReadSrc1 and ReadSrc2 read an instruction's two source operands. Decode
// calls these only after the hazard test has passed.
func (rf *RegFile) ReadSrc1(instr *insts.Instruction) uint32 {
	return rf.Read(instr.Src1)
}

func (rf *RegFile) ReadSrc2(instr *insts.Instruction) uint32 {
	return rf.Read(instr.Src2)
}

// HazardFree reports whether decoding instr right now would violate the
// at-most-one-in-flight-writer invariant: every register it touches — both
// sources and the destination — must currently be valid.
func (rf *RegFile) HazardFree(instr *insts.Instruction) bool {
	return rf.Check(instr.Src1) && rf.Check(instr.Src2) && rf.Check(instr.Dst)
}

// WriteDst commits an instruction's result to its destination register and
// validates it, per spec §4.4.5. Instructions with no destination (branches,
// stores) carry Dst == 0, which is a no-op store into the always-valid zero
// register.
func (rf *RegFile) WriteDst(instr *insts.Instruction) {
	if instr.Dst != zeroReg {
		rf.values[instr.Dst] = instr.Result
	}
	rf.Validate(instr.Dst)
}
