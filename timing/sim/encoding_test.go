package sim_test

import "encoding/binary"

const (
	opcodeADDIU = 0x09
)

func iType(opcode, rs, rt uint32, imm int16) uint32 {
	return (opcode&0x3F)<<26 | (rs&0x1F)<<21 | (rt&0x1F)<<16 | uint32(uint16(imm))
}

func addiu(rt, rs uint32, imm int16) uint32 { return iType(opcodeADDIU, rs, rt, imm) }

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
