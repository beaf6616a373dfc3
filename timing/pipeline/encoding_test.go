package pipeline_test

import "encoding/binary"

// Minimal MIPS-like encoders mirroring insts/decoder.go's field layout,
// kept local to the test package rather than exported from insts: tests
// build raw machine words the same way an assembler would, independent of
// the decoder they exercise.

const (
	opcodeSPECIAL = 0x00
	opcodeBEQ     = 0x04
	opcodeADDIU   = 0x09
	opcodeLW      = 0x23
	opcodeSW      = 0x2B

	functADD = 0x20
)

func rType(funct, rs, rt, rd uint32) uint32 {
	return (rs&0x1F)<<21 | (rt&0x1F)<<16 | (rd&0x1F)<<11 | (funct & 0x3F)
}

func iType(opcode, rs, rt uint32, imm int16) uint32 {
	return (opcode&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | uint32(uint16(imm))
}

func add(rd, rs, rt uint32) uint32      { return rType(functADD, rs, rt, rd) }
func addiu(rt, rs uint32, imm int16) uint32 { return iType(opcodeADDIU, rs, rt, imm) }
func beq(rs, rt uint32, imm int16) uint32   { return iType(opcodeBEQ, rs, rt, imm) }
func lw(rt, rs uint32, imm int16) uint32    { return iType(opcodeLW, rs, rt, imm) }
func sw(rt, rs uint32, imm int16) uint32    { return iType(opcodeSW, rs, rt, imm) }

// buildImage lays out words sequentially starting at address 0 and pads
// the result to at least minSize bytes so load/store tests have scratch
// space past the last fetched instruction.
func buildImage(minSize int, words ...uint32) []byte {
	size := len(words) * 4
	if size < minSize {
		size = minSize
	}
	buf := make([]byte, size)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}
