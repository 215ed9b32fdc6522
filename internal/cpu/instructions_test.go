package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMem is a flat byte-addressable memory backing, enough to drive the
// CPU's fetch/load/store paths without pulling in the full MMU.
type fakeMem struct {
	data [0x10000]uint8
}

func (m *fakeMem) ReadByte(a uint32) uint8     { return m.data[uint16(a)] }
func (m *fakeMem) WriteByte(a uint32, v uint8) { m.data[uint16(a)] = v }

func (m *fakeMem) ReadWord(a uint32) uint16 {
	return uint16(m.ReadByte(a)) | uint16(m.ReadByte(a+1))<<8
}
func (m *fakeMem) WriteWord(a uint32, v uint16) {
	m.WriteByte(a, uint8(v))
	m.WriteByte(a+1, uint8(v>>8))
}
func (m *fakeMem) ReadLong(a uint32) uint32 {
	return uint32(m.ReadByte(a)) | uint32(m.ReadByte(a+1))<<8 |
		uint32(m.ReadByte(a+2))<<16 | uint32(m.ReadByte(a+3))<<24
}
func (m *fakeMem) WriteLong(a uint32, v uint32) {
	m.WriteByte(a, uint8(v))
	m.WriteByte(a+1, uint8(v>>8))
	m.WriteByte(a+2, uint8(v>>16))
	m.WriteByte(a+3, uint8(v>>24))
}

// Push/Pop deliberately use a different byte order than Read/Write*, per
// the documented MMU quirk; a minimal high-byte-first stack is enough to
// exercise push/pop round-trips without reproducing the real MMU.
func (m *fakeMem) PushWord(sp *uint16, v uint16) {
	*sp -= 2
	m.WriteByte(uint32(*sp), uint8(v>>8))
	m.WriteByte(uint32(*sp)+1, uint8(v))
}
func (m *fakeMem) PopWord(sp *uint16) uint16 {
	hi := m.ReadByte(uint32(*sp))
	lo := m.ReadByte(uint32(*sp) + 1)
	*sp += 2
	return uint16(hi)<<8 | uint16(lo)
}
func (m *fakeMem) PushLong(sp *uint16, v uint32) {
	m.PushWord(sp, uint16(v>>16))
	m.PushWord(sp, uint16(v))
}
func (m *fakeMem) PopLong(sp *uint16) uint32 {
	lo := m.PopWord(sp)
	hi := m.PopWord(sp)
	return uint32(hi)<<16 | uint32(lo)
}

func newTestCPU() (*CPU, *fakeMem) {
	mem := &fakeMem{}
	return New(mem, nil), mem
}

func word(class, mode, reg1, reg2 uint8) uint16 {
	return uint16(class)<<12 | uint16(mode)<<8 | uint16(reg1)<<4 | uint16(reg2)
}

func TestLoadImm8(t *testing.T) {
	c, mem := newTestCPU()
	mem.WriteWord(c.PC, word(classLoad, loadModeLoad, loadVariantImm8, 3))
	mem.WriteByte(c.PC+2, 0x42)

	res := c.Step()
	require.False(t, res.Fatal, "unexpected fatal at PC %#x opcode %#x", res.PC, res.Opcode)
	assert.Equal(t, uint8(0x42), c.B[3])
	assert.Equal(t, uint32(initialPC+3), c.PC)
}

func TestAddAccumulatorFlags(t *testing.T) {
	c, mem := newTestCPU()
	c.B[0] = 0xFF
	mem.WriteWord(c.PC, word(classArith, arithModeAddAdc, 0, 0)) // ADD i8
	mem.WriteByte(c.PC+2, 0x01)

	c.Step()
	assert.Equal(t, uint8(0x00), c.B[0])
	assert.True(t, c.CheckFlag(FlagZ), "expected Z flag set on overflow to zero")
	assert.True(t, c.CheckFlag(FlagC), "expected C flag set on overflow")
}

func TestIncDecR8Flags(t *testing.T) {
	c, _ := newTestCPU()
	c.B[2] = 0xFF
	c.incFlags8(0xFF, 0x00)
	assert.True(t, c.CheckFlag(FlagZ), "expected Z after wrap to 0")
	assert.True(t, c.CheckFlag(FlagH), "expected H after 0xFF + 1 half-carry")

	c.decFlags8(0x10, 0x0F)
	assert.False(t, c.CheckFlag(FlagZ), "expected Z clear after 0x10 - 1")
	assert.True(t, c.CheckFlag(FlagH), "expected H after 0x10 - 1 borrows from the low nibble")
	assert.True(t, c.CheckFlag(FlagN), "expected N set by a decrement")
}

func TestPushPopLongRoundTrip(t *testing.T) {
	c, mem := newTestCPU()
	c.B[0], c.B[1], c.B[2], c.B[3] = 0x11, 0x22, 0x33, 0x44
	mem.WriteWord(c.PC, word(classLoad, loadModePushPop, 0, 0)) // push L0
	c.Step()
	mem.WriteWord(c.PC, word(classLoad, loadModePushPop, 1, 1)) // pop into L1
	c.Step()

	require.Equal(t, c.ReadLongReg(0), c.ReadLongReg(1))
}

func TestJmpConditional(t *testing.T) {
	c, mem := newTestCPU()
	c.SetFlag(FlagZ, true)
	mem.WriteWord(c.PC, word(classFlow, 0x0, 0, condZ))
	mem.WriteLong(c.PC+2, 0x1000)

	c.Step()
	assert.Equal(t, uint32(0x1000), c.PC)
}

func TestJmpConditionalNotTaken(t *testing.T) {
	c, mem := newTestCPU()
	c.SetFlag(FlagZ, false)
	start := c.PC
	mem.WriteWord(c.PC, word(classFlow, 0x0, 0, condZ))
	mem.WriteLong(c.PC+2, 0x1000)

	c.Step()
	assert.Equal(t, start+6, c.PC, "condition not met, should fall through")
}

func TestCallRet(t *testing.T) {
	c, mem := newTestCPU()
	entry := c.PC
	mem.WriteWord(c.PC, word(classFlow, 0x2, 0, condNone))
	mem.WriteLong(c.PC+2, 0x2000)
	c.Step()
	require.Equal(t, uint32(0x2000), c.PC)

	mem.WriteWord(c.PC, word(classFlow, 0x3, 0, condNone)) // RET
	c.Step()
	assert.Equal(t, entry+6, c.PC)
}

func TestRstVector(t *testing.T) {
	c, mem := newTestCPU()
	mem.WriteWord(c.PC, word(classFlow, 0x3, 5, 3)) // RST 3

	c.Step()
	assert.Equal(t, uint32(interruptVectorBase+interruptVectorStep*3), c.PC)
}

func TestBitSetRes(t *testing.T) {
	c, mem := newTestCPU()
	c.B[0] = 0x00
	mem.WriteWord(c.PC, word(classBit, 1, 0, 0)) // SET bit 3, B0
	mem.WriteByte(c.PC+2, 3)
	c.Step()
	require.Equal(t, uint8(0x08), c.B[0])

	mem.WriteWord(c.PC, word(classBit, 0, 0, 0)) // BIT 3, B0
	mem.WriteByte(c.PC+2, 3)
	c.Step()
	assert.False(t, c.CheckFlag(FlagZ), "BIT 3 on a set bit should clear Z")

	mem.WriteWord(c.PC, word(classBit, 2, 0, 0)) // RES bit 3, B0
	mem.WriteByte(c.PC+2, 3)
	c.Step()
	assert.Equal(t, uint8(0x00), c.B[0])
}

func TestInterruptPriorityLowestIDWins(t *testing.T) {
	c, mem := newTestCPU()
	c.IE = 0xFF
	c.IR = (1 << IntTimer) | (1 << IntVBlank)
	mem.WriteWord(c.PC, word(classControl, ctrlNOP, 0, 0))

	c.Step()
	assert.Equal(t, uint32(interruptVectorBase+interruptVectorStep*IntVBlank), c.PC, "lowest interrupt id should win")
	assert.Zero(t, c.IR&(1<<IntVBlank), "VBlank request bit should be cleared after service")
	assert.NotZero(t, c.IR&(1<<IntTimer), "Timer request bit should remain pending")
}

func TestHaltWakesOnPendingInterrupt(t *testing.T) {
	c, _ := newTestCPU()
	c.SetFlag(FlagT, true)
	c.IE = 1 << IntVBlank
	c.IR = 1 << IntVBlank

	c.Step()
	assert.False(t, c.CheckFlag(FlagT), "expected HALT to clear on a pending, enabled interrupt")
}

func TestFatalOnUndefinedOpcode(t *testing.T) {
	c, mem := newTestCPU()
	mem.WriteWord(c.PC, 0xFFFF)

	res := c.Step()
	assert.True(t, res.Fatal, "expected Fatal for an undefined opcode")
}
