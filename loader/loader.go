// Package loader reads the flat binary image format used by this module
// (SPEC_FULL.md §10.3): an 8-byte little-endian startPC header followed by
// the raw image, loaded at address 0. Spec §6 treats the binary format as
// opaque to the core; this is the only concrete format the CLI accepts.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"
)

const headerSize = 8

// Image is a loaded program: its raw bytes and the PC execution begins at.
type Image struct {
	bytes   []byte
	startPC uint32
}

// Load reads path and parses its 8-byte startPC header plus image body.
func Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	return Parse(raw)
}

// Parse decodes raw bytes already read into memory, without touching the
// filesystem. Exposed so tests and --functional-only tooling can build an
// Image from an in-memory buffer.
func Parse(raw []byte) (*Image, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("loader: image too small for an %d-byte header (got %d bytes)", headerSize, len(raw))
	}

	startPC := binary.LittleEndian.Uint32(raw[:4])
	// raw[4:8] is reserved for a future format revision; ignored here.

	return &Image{bytes: raw[headerSize:], startPC: startPC}, nil
}

// Bytes returns the raw program image, excluding the header.
func (img *Image) Bytes() []byte {
	return img.bytes
}

// StartPC is the address execution begins at.
func (img *Image) StartPC() uint32 {
	return img.startPC
}
