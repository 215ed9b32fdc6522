package memory

import "sm166/internal/debug"

// I/O window offsets, recovered from the reference bus dispatch table
// (spec §6.6 names this table as "partial"; the full case list below is
// supplemented from the original firmware's read_io/write_io).
const (
	regJOYB = 0x00
	regJOYD = 0x01
	regJOYC = 0x02
	regDIV  = 0x04
	regTIMA = 0x05
	regTMA  = 0x06
	regTAC  = 0x07
	regRTS  = 0x08
	regRTM  = 0x09
	regRTH  = 0x0A
	regRTDL = 0x0B
	regRTDH = 0x0C
	regRTC  = 0x0D
	regIR   = 0x0F
	regNR10 = 0x10
	regNR52 = 0x26
	regLCDC = 0x40
	regOPRI = 0x6C
	regIE   = 0xFF
)

func (m *MMU) readIO(offset uint8) uint8 {
	switch {
	case offset == regJOYB || offset == regJOYD || offset == regJOYC:
		if m.Input != nil {
			return m.Input.Read8(uint16(offset))
		}
	case offset >= regDIV && offset <= regTAC:
		if m.Timer != nil {
			return m.Timer.Read8(uint16(offset - regDIV))
		}
	case offset >= regRTS && offset <= regRTC:
		if m.RTC != nil {
			return m.RTC.Read8(uint16(offset - regRTS))
		}
	case offset == regIR:
		if m.CPU != nil {
			return m.CPU.InterruptRequest()
		}
	case offset >= regNR10 && offset <= regNR52:
		if m.APU != nil {
			return m.APU.Read8(uint16(offset - regNR10))
		}
	case offset >= regLCDC && offset <= regOPRI:
		if m.PPU != nil {
			return m.PPU.Read8(uint16(offset-regLCDC) + VRAMSize + OAMSize)
		}
	case offset == regIE:
		if m.CPU != nil {
			return m.CPU.InterruptEnable()
		}
	}
	return 0xFF
}

func (m *MMU) writeIO(offset uint8, value uint8) {
	if m.logger != nil && m.logger.IsComponentEnabled(debug.ComponentMemory) {
		m.logger.LogMemory(debug.LogLevelTrace, "io write", map[string]interface{}{"offset": offset, "value": value})
	}
	switch {
	case offset == regJOYC:
		if m.Input != nil {
			m.Input.Write8(uint16(offset), value)
		}
	case offset >= regDIV && offset <= regTAC:
		if m.Timer != nil {
			m.Timer.Write8(uint16(offset-regDIV), value)
		}
	case offset == regRTC:
		if m.RTC != nil {
			m.RTC.Write8(uint16(offset-regRTS), value)
		}
	case offset == regIR:
		if m.CPU != nil {
			m.CPU.SetInterruptRequest(value)
		}
	case offset >= regNR10 && offset <= regNR52:
		if m.APU != nil {
			m.APU.Write8(uint16(offset-regNR10), value)
		}
	case offset >= regLCDC && offset <= regOPRI:
		if m.PPU != nil {
			m.PPU.Write8(uint16(offset-regLCDC)+VRAMSize+OAMSize, value)
		}
	case offset == regIE:
		if m.CPU != nil {
			m.CPU.SetInterruptEnable(value)
		}
	}
}
