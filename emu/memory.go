package emu

import "fmt"

// Memory is a flat byte-addressable image: the external FuncMemory that
// spec §1 names as out of scope for the core. It is loaded once from a
// loader.Image and is never resized afterward.
type Memory struct {
	bytes   []byte
	startPC uint32
}

// NewMemory wraps image as the emulator's flat address space, starting
// execution at startPC.
func NewMemory(image []byte, startPC uint32) *Memory {
	return &Memory{bytes: image, startPC: startPC}
}

// StartPC is the address execution begins at.
func (m *Memory) StartPC() uint32 {
	return m.startPC
}

func (m *Memory) checkBounds(addr uint32, width int) error {
	if uint64(addr)+uint64(width) > uint64(len(m.bytes)) {
		return fmt.Errorf("emu: address 0x%x (width %d) out of bounds (image size %d)", addr, width, len(m.bytes))
	}
	return nil
}

// Read32 reads a little-endian 32-bit word at addr.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	if err := m.checkBounds(addr, 4); err != nil {
		return 0, err
	}
	b := m.bytes[addr : addr+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// Read16 reads a little-endian 16-bit halfword at addr.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	if err := m.checkBounds(addr, 2); err != nil {
		return 0, err
	}
	b := m.bytes[addr : addr+2]
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// Read8 reads the byte at addr.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	if err := m.checkBounds(addr, 1); err != nil {
		return 0, err
	}
	return m.bytes[addr], nil
}

// Write32 stores a little-endian 32-bit word at addr.
func (m *Memory) Write32(addr uint32, v uint32) error {
	if err := m.checkBounds(addr, 4); err != nil {
		return err
	}
	b := m.bytes[addr : addr+4]
	b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return nil
}

// Write16 stores a little-endian 16-bit halfword at addr.
func (m *Memory) Write16(addr uint32, v uint16) error {
	if err := m.checkBounds(addr, 2); err != nil {
		return err
	}
	b := m.bytes[addr : addr+2]
	b[0], b[1] = byte(v), byte(v>>8)
	return nil
}

// Write8 stores the byte v at addr.
func (m *Memory) Write8(addr uint32, v uint8) error {
	if err := m.checkBounds(addr, 1); err != nil {
		return err
	}
	m.bytes[addr] = v
	return nil
}

// ReadWidth and WriteWidth dispatch on a byte width in {1,2,4}, matching
// insts.Instruction.MemWidth, for the pipeline's Memory stage (spec
// §4.4.4 ¶6) and the checker's own stepping.
func (m *Memory) ReadWidth(addr uint32, width int, signed bool) (uint32, error) {
	switch width {
	case 1:
		v, err := m.Read8(addr)
		if err != nil {
			return 0, err
		}
		if signed {
			return uint32(int32(int8(v))), nil
		}
		return uint32(v), nil
	case 2:
		v, err := m.Read16(addr)
		if err != nil {
			return 0, err
		}
		if signed {
			return uint32(int32(int16(v))), nil
		}
		return uint32(v), nil
	case 4:
		return m.Read32(addr)
	default:
		return 0, fmt.Errorf("emu: unsupported memory access width %d", width)
	}
}

func (m *Memory) WriteWidth(addr uint32, width int, v uint32) error {
	switch width {
	case 1:
		return m.Write8(addr, uint8(v))
	case 2:
		return m.Write16(addr, uint16(v))
	case 4:
		return m.Write32(addr, v)
	default:
		return fmt.Errorf("emu: unsupported memory access width %d", width)
	}
}
