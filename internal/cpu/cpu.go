// Package cpu implements the SM166 instruction interpreter: sixteen
// byte-addressable general registers with word/long views, a 32-bit program
// counter, a 16-bit stack pointer, flag/interrupt-mask bytes, and a
// per-cycle hook that is the only channel through which peripherals observe
// CPU timing.
package cpu

// Flag bit positions within the flags byte.
const (
	FlagZ = 1 << 7 // zero
	FlagN = 1 << 6 // subtract
	FlagH = 1 << 5 // half-carry
	FlagC = 1 << 4 // carry
	FlagD = 1 << 3 // interrupt-disable
	FlagE = 1 << 2 // interrupt-enable pending (EI delay slot)
	FlagT = 1 << 1 // halt
	FlagS = 1 << 0 // stop
)

const (
	initialPC = 0x200
	initialSP = 0xFFFF
)

// Interrupt vector base: handler i lives at 0x80 + 0x10*i.
const (
	interruptVectorBase = 0x80
	interruptVectorStep = 0x10
)

// Interrupt IDs, in priority order (lowest id wins when several are
// pending). Peripherals call RequestInterrupt with one of these.
const (
	IntVBlank = iota
	IntLCD
	IntTimer
	IntSerial
	IntJoypad
	IntRealtime
)

// Memory is the CPU's view of the MMU: byte/word/long access plus the
// stack push/pop helpers, whose byte order intentionally diverges from
// plain word/long access (see memory.MMU's doc comments).
type Memory interface {
	ReadByte(address uint32) uint8
	WriteByte(address uint32, value uint8)
	ReadWord(address uint32) uint16
	WriteWord(address uint32, value uint16)
	ReadLong(address uint32) uint32
	WriteLong(address uint32, value uint32)
	PushWord(sp *uint16, value uint16)
	PopWord(sp *uint16) uint16
	PushLong(sp *uint16, value uint32)
	PopLong(sp *uint16) uint32
}

// Hook is called once per dot tick consumed by an instruction; it is the
// CPU's only channel for driving peripheral timing.
type Hook func(tick uint64)

// StepResult is returned by Step. Fatal carries the offending opcode and the
// PC it was fetched from; per spec §9 this replaces a thrown exception.
type StepResult struct {
	Fatal  bool
	Opcode uint16
	PC     uint32
}

// CPU is the SM166 interpreter. Registers, flags, and the IE/IR masks are
// exported directly (read_register/write_register in spec terms are plain
// field/method access in Go); Mem and Tick are supplied by the owner.
type CPU struct {
	B  [16]uint8
	PC uint32
	SP uint16

	Flags uint8
	IE    uint8
	IR    uint8

	Cycles uint64

	Mem  Memory
	Tick Hook
}

// New returns a CPU wired to mem, with tick as its per-cycle peripheral hook.
// tick may be nil, in which case Cycle is a no-op timing source.
func New(mem Memory, tick Hook) *CPU {
	c := &CPU{Mem: mem, Tick: tick}
	c.Initialize()
	return c
}

// Initialize resets every piece of CPU state to its power-on value.
func (c *CPU) Initialize() {
	c.B = [16]uint8{}
	c.PC = initialPC
	c.SP = initialSP
	c.Flags = 0
	c.IE = 0
	c.IR = 0
	c.Cycles = 0
}

// Cycle advances the clock by n machine cycles (4 dot ticks each), invoking
// the peripheral hook once per dot tick with the running tick counter.
func (c *CPU) Cycle(n uint32) {
	for i := uint32(0); i < n*4; i++ {
		c.Cycles++
		if c.Tick != nil {
			c.Tick(c.Cycles)
		}
	}
}

// InterruptEnable/InterruptRequest/Set* satisfy memory.InterruptDevice, so
// the MMU's I/O window can route IE (0xFF) and IR (0x0F) without importing
// the cpu package.
func (c *CPU) InterruptEnable() uint8         { return c.IE }
func (c *CPU) SetInterruptEnable(v uint8)     { c.IE = v }
func (c *CPU) InterruptRequest() uint8        { return c.IR }
func (c *CPU) SetInterruptRequest(v uint8)    { c.IR = v }

// RequestInterrupt sets bit id (0..7) of IR. Peripherals call this through a
// capability callback, never by holding a reference back to the CPU.
func (c *CPU) RequestInterrupt(id uint8) {
	c.IR |= 1 << (id & 7)
}

// CheckFlag reports whether every bit in mask is set in Flags.
func (c *CPU) CheckFlag(mask uint8) bool {
	return c.Flags&mask == mask
}

// SetFlag sets or clears the bits in mask.
func (c *CPU) SetFlag(mask uint8, set bool) {
	if set {
		c.Flags |= mask
	} else {
		c.Flags &^= mask
	}
}

// ReadWordReg/WriteWordReg access the word view W0..W7 = (B[2k]<<8)|B[2k+1].
func (c *CPU) ReadWordReg(k int) uint16 {
	return uint16(c.B[2*k])<<8 | uint16(c.B[2*k+1])
}

func (c *CPU) WriteWordReg(k int, v uint16) {
	c.B[2*k] = uint8(v >> 8)
	c.B[2*k+1] = uint8(v)
}

// ReadLongReg/WriteLongReg access the long view L0..L3, big-endian
// concatenation of four consecutive bytes (spec §3.1).
func (c *CPU) ReadLongReg(k int) uint32 {
	base := 4 * k
	return uint32(c.B[base])<<24 | uint32(c.B[base+1])<<16 | uint32(c.B[base+2])<<8 | uint32(c.B[base+3])
}

func (c *CPU) WriteLongReg(k int, v uint32) {
	base := 4 * k
	c.B[base] = uint8(v >> 24)
	c.B[base+1] = uint8(v >> 16)
	c.B[base+2] = uint8(v >> 8)
	c.B[base+3] = uint8(v)
}

// fetchByte/fetchWord/fetchLong read an immediate at PC, advance PC, and
// spend the dot ticks the fetch costs (1 cycle per byte of width, per the
// per-cycle hook contract).
func (c *CPU) fetchByte() uint8 {
	v := c.Mem.ReadByte(c.PC)
	c.PC++
	c.Cycle(1)
	return v
}

func (c *CPU) fetchWord() uint16 {
	v := c.Mem.ReadWord(c.PC)
	c.PC += 2
	c.Cycle(2)
	return v
}

func (c *CPU) fetchLong() uint32 {
	v := c.Mem.ReadLong(c.PC)
	c.PC += 4
	c.Cycle(4)
	return v
}

// Step dispatches exactly one instruction (or one idle tick while halted),
// then runs the interrupt-handling algorithm described in spec §4.1.
func (c *CPU) Step() StepResult {
	if c.CheckFlag(FlagT) {
		c.Cycle(1)
		c.handleInterruptWindow()
		return StepResult{}
	}

	opcodePC := c.PC
	opcode := c.Mem.ReadWord(c.PC)
	c.PC += 2
	c.Cycle(1)

	if !c.dispatch(opcode) {
		return StepResult{Fatal: true, Opcode: opcode, PC: opcodePC}
	}

	c.handleInterruptWindow()
	return StepResult{}
}

// handleInterruptWindow implements the three-step algorithm from spec §4.1
// "Interrupt handling", run after every instruction (and every halted tick).
func (c *CPU) handleInterruptWindow() {
	if !c.CheckFlag(FlagD) {
		for i := uint8(0); i < 8; i++ {
			bit := uint8(1) << i
			if c.IE&bit != 0 && c.IR&bit != 0 {
				c.Mem.PushLong(&c.SP, c.PC)
				c.PC = interruptVectorBase + interruptVectorStep*uint32(i)
				c.IR &^= bit
				c.SetFlag(FlagT, false)
				c.SetFlag(FlagD, true)
				c.Cycle(2)
				break
			}
		}
	}

	if c.CheckFlag(FlagE) {
		c.SetFlag(FlagD, false)
		c.SetFlag(FlagE, false)
	}

	if c.CheckFlag(FlagT) && c.IR != 0 {
		c.SetFlag(FlagT, false)
	}
}
