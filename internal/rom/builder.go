// Package rom assembles a flat payload (as produced by internal/asm) into a
// loadable cartridge image, matching the header internal/memory/cartridge.go
// validates on load.
package rom

import (
	"encoding/binary"
	"fmt"
	"os"

	"sm166/internal/memory"
)

// Builder accumulates a full ROM image byte by byte (addresses 0.. are the
// literal file offsets internal/asm's evaluator assigns, including the
// interrupt vector table below 0x100), then stamps the fixed-offset header
// the cartridge loader expects on top of it. This keeps the teacher's
// "accumulate then wrap with one BuildROM call" shape, adapted from a
// word-oriented instruction buffer to the byte-oriented flat image our
// assembler actually emits (the assembler, not this package, knows how to
// pack instruction words).
type Builder struct {
	image []byte
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetImage installs an already-assembled flat image (internal/asm's
// LinearizeROM output, addresses 0-based), overwriting anything previously
// written directly.
func (b *Builder) SetImage(data []byte) {
	b.image = data
}

// AddByte appends one byte.
func (b *Builder) AddByte(v uint8) { b.image = append(b.image, v) }

// AddWord appends a little-endian 16-bit value.
func (b *Builder) AddWord(v uint16) {
	b.image = append(b.image, uint8(v), uint8(v>>8))
}

// AddLong appends a little-endian 32-bit value.
func (b *Builder) AddLong(v uint32) {
	b.image = append(b.image, uint8(v), uint8(v>>8), uint8(v>>16), uint8(v>>24))
}

// Len reports the image length so far, in bytes.
func (b *Builder) Len() int { return len(b.image) }

// Header carries the fields the assembler source or CLI supplies but the
// payload bytes themselves don't: SRAM size and the two free-text fields.
type Header struct {
	SRAMSize uint32
	Title    string
	Author   string
}

// Build produces the complete ROM image: the accumulated flat image with
// the fixed header fields stamped on top at their documented offsets
// (overwriting whatever the source wrote there, if anything — the header
// always wins). The image is zero-padded up to MinROMSize if the source
// left the payload region short.
func (b *Builder) Build(h Header) ([]byte, error) {
	if h.SRAMSize > memory.SRAMSize {
		return nil, fmt.Errorf("SRAM size 0x%X exceeds maximum 0x%X", h.SRAMSize, memory.SRAMSize)
	}
	// Each field needs room for its NUL terminator, which the loader requires.
	if len(h.Title) >= memory.HeaderTitleLen {
		return nil, fmt.Errorf("title %q exceeds %d bytes", h.Title, memory.HeaderTitleLen-1)
	}
	if len(h.Author) >= memory.HeaderAuthorLen {
		return nil, fmt.Errorf("author %q exceeds %d bytes", h.Author, memory.HeaderAuthorLen-1)
	}

	total := len(b.image)
	if total < memory.MinROMSize {
		total = memory.MinROMSize
	}
	if total > memory.MaxROMSize {
		return nil, fmt.Errorf("ROM too large: %d bytes (maximum %d)", total, memory.MaxROMSize)
	}
	out := make([]byte, total)
	copy(out, b.image)

	binary.LittleEndian.PutUint32(out[memory.HeaderMagicOffset:], memory.HeaderMagic)
	binary.LittleEndian.PutUint32(out[memory.HeaderSRAMSizeOffset:], h.SRAMSize)
	copy(out[memory.HeaderTitleOffset:memory.HeaderTitleOffset+memory.HeaderTitleLen], h.Title)
	copy(out[memory.HeaderAuthorOffset:memory.HeaderAuthorOffset+memory.HeaderAuthorLen], h.Author)

	return out, nil
}

// WriteFile builds and writes the image to path.
func (b *Builder) WriteFile(path string, h Header) error {
	data, err := b.Build(h)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
