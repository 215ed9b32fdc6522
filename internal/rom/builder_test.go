package rom

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sm166/internal/memory"
)

func TestBuildStampsHeaderWithoutLosingLowBytes(t *testing.T) {
	b := NewBuilder()
	image := make([]byte, 0x300)
	// Vector-table byte below the header, must survive stamping.
	image[0x90] = 0xAB
	// Payload byte at the conventional entry point.
	image[0x200] = 0xCD
	b.SetImage(image)

	out, err := b.Build(Header{SRAMSize: 0x100, Title: "GAME", Author: "DEV"})
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), out[0x90], "interrupt-vector-table byte below the header should survive")
	assert.Equal(t, uint8(0xCD), out[0x200], "payload byte at the entry point should survive")

	magic := binary.LittleEndian.Uint32(out[memory.HeaderMagicOffset:])
	assert.Equal(t, uint32(memory.HeaderMagic), magic)
	sram := binary.LittleEndian.Uint32(out[memory.HeaderSRAMSizeOffset:])
	assert.Equal(t, uint32(0x100), sram)
}

func TestBuildPadsToMinROMSize(t *testing.T) {
	b := NewBuilder()
	b.SetImage(make([]byte, 4))
	out, err := b.Build(Header{})
	require.NoError(t, err)
	assert.Len(t, out, memory.MinROMSize, "padded to minimum")
}

func TestBuildRejectsOversizedTitle(t *testing.T) {
	b := NewBuilder()
	b.SetImage(make([]byte, memory.MinROMSize))
	longTitle := make([]byte, memory.HeaderTitleLen+1)
	for i := range longTitle {
		longTitle[i] = 'A'
	}
	_, err := b.Build(Header{Title: string(longTitle)})
	assert.Error(t, err, "expected an error for an oversized title field")
}

func TestAddByteWordLongAccumulate(t *testing.T) {
	b := NewBuilder()
	b.AddByte(0x01)
	b.AddWord(0x0302)
	b.AddLong(0x07060504)
	require.Equal(t, 7, b.Len())

	out, err := b.Build(Header{})
	require.NoError(t, err)
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}
	assert.Equal(t, want, out[:len(want)])
}
