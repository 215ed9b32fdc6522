// Package apu implements the audio channel register surface (I/O offsets
// 0x10-0x26, NR10-NR52) and its tick hook. Sound-mixing DSP is an explicit
// non-goal (spec §1); only the register window and the per-cycle tick the
// CPU drives are implemented.
package apu

import "math"

// Channel holds one audio channel's register file. Field names mirror the
// conventional NRxx register groups (sweep/duty-length/volume-envelope/
// frequency-low/frequency-high-and-trigger), plus a phase accumulator used
// only by GenerateSamples.
type Channel struct {
	Sweep    uint8
	DutyLen  uint8
	Envelope uint8
	FreqLo   uint8
	FreqHi   uint8

	phase    uint32
	phaseInc uint32
}

// APU holds the four channel register files plus the master control pair
// (NR50 master volume/panning, NR51 channel routing, NR52 power/status).
type APU struct {
	Channels   [4]Channel
	NR50       uint8
	NR51       uint8
	NR52       uint8
	SampleRate uint32

	// NR34 (offset 0x0E) has no case in Read8/Write8: writes to it are
	// dropped and reads return 0xFF, so channel 2's FreqHi is never set
	// through the I/O window.
}

// DefaultSampleRate is the rate GenerateSamples produces when the caller
// hasn't overridden it; it matches the rate the host audio sink opens its
// player at.
const DefaultSampleRate = 44100

// NewAPU returns an APU with every register zeroed.
func NewAPU() *APU {
	return &APU{SampleRate: DefaultSampleRate}
}

// Tick is the per-cycle hook; the register surface has no internal timing of
// its own beyond what GenerateSamples derives on demand.
func (a *APU) Tick(ticks uint64) {}

const powerBit = 0x80

// channelFrequency reconstructs a channel's programmed frequency from its
// 11-bit FreqLo/FreqHi pair the same way the reference register layout packs
// it (low 8 bits in FreqLo, high 3 bits in the low bits of FreqHi).
func channelFrequency(ch *Channel) uint32 {
	raw := uint32(ch.FreqLo) | uint32(ch.FreqHi&0x07)<<8
	if raw >= 2048 {
		return 0
	}
	// Same period-to-frequency relationship as the reference hardware's
	// square channels: f = 131072 / (2048 - raw).
	return 131072 / (2048 - raw)
}

// dutyThreshold maps the two duty-length bits to a fraction of the phase
// period the square wave stays high, matching the conventional 12.5/25/50/75%
// duty steps.
func dutyThreshold(dutyLen uint8) uint32 {
	switch (dutyLen >> 6) & 0x03 {
	case 0:
		return math.MaxUint32 / 8
	case 1:
		return math.MaxUint32 / 4
	case 2:
		return math.MaxUint32 / 2
	default:
		return (math.MaxUint32 / 4) * 3
	}
}

// GenerateSamples renders count signed 16-bit mono samples directly from the
// register surface: channels 1 and 2 (the only ones with a frequency pair
// wired here) produce a duty-cycle square wave gated by NR52's power bit, and
// channel 3/4 contribute silence. This is intentionally not a faithful sound
// chip: envelope sweep, length counters, and noise LFSR timing are all out of
// scope (sound-mixing DSP is a non-goal); it exists so a host audio sink has
// real, register-driven PCM to drain instead of dead silence.
func (a *APU) GenerateSamples(count int) []int16 {
	out := make([]int16, count)
	if a.NR52&powerBit == 0 || a.SampleRate == 0 {
		return out
	}

	for ch := 0; ch < 2; ch++ {
		c := &a.Channels[ch]
		freq := channelFrequency(c)
		if freq == 0 {
			continue
		}
		c.phaseInc = uint32((uint64(freq) * 0x100000000) / uint64(a.SampleRate))
		threshold := dutyThreshold(c.DutyLen)
		volume := int32(c.Envelope>>4) * 2

		for i := range out {
			var sample int32
			if c.phase < threshold {
				sample = volume * 1000
			} else {
				sample = -volume * 1000
			}
			out[i] += int16(sample)
			c.phase += c.phaseInc
		}
	}
	return out
}

// register offsets, relative to NR10 (I/O offset 0x10).
const (
	offCh1Sweep = 0x00
	offCh1Len   = 0x01
	offCh1Vol   = 0x02
	offCh1FrLo  = 0x03
	offCh1FrHi  = 0x04
	offCh2Len   = 0x06
	offCh2Vol   = 0x07
	offCh2FrLo  = 0x08
	offCh2FrHi  = 0x09
	offCh3Ctrl  = 0x0A
	offCh3Len   = 0x0B
	offNR50     = 0x14
	offNR51     = 0x15
	offNR52     = 0x16
)

// Read8 reads an audio register, offset relative to NR10 (0x10).
func (a *APU) Read8(offset uint16) uint8 {
	switch offset {
	case offCh1Sweep:
		return a.Channels[0].Sweep
	case offCh1Len:
		return a.Channels[0].DutyLen
	case offCh1Vol:
		return a.Channels[0].Envelope
	case offCh1FrLo:
		return a.Channels[0].FreqLo
	case offCh1FrHi:
		return a.Channels[0].FreqHi
	case offCh2Len:
		return a.Channels[1].DutyLen
	case offCh2Vol:
		return a.Channels[1].Envelope
	case offCh2FrLo:
		return a.Channels[1].FreqLo
	case offCh2FrHi:
		return a.Channels[1].FreqHi
	case offCh3Ctrl:
		return a.Channels[2].Sweep
	case offCh3Len:
		return a.Channels[2].DutyLen
	case offNR50:
		return a.NR50
	case offNR51:
		return a.NR51
	case offNR52:
		return a.NR52
	default:
		return 0xFF
	}
}

// Write8 writes an audio register, offset relative to NR10 (0x10).
func (a *APU) Write8(offset uint16, value uint8) {
	switch offset {
	case offCh1Sweep:
		a.Channels[0].Sweep = value
	case offCh1Len:
		a.Channels[0].DutyLen = value
	case offCh1Vol:
		a.Channels[0].Envelope = value
	case offCh1FrLo:
		a.Channels[0].FreqLo = value
	case offCh1FrHi:
		a.Channels[0].FreqHi = value
	case offCh2Len:
		a.Channels[1].DutyLen = value
	case offCh2Vol:
		a.Channels[1].Envelope = value
	case offCh2FrLo:
		a.Channels[1].FreqLo = value
	case offCh2FrHi:
		a.Channels[1].FreqHi = value
	case offCh3Ctrl:
		a.Channels[2].Sweep = value
	case offCh3Len:
		a.Channels[2].DutyLen = value
	case offNR50:
		a.NR50 = value
	case offNR51:
		a.NR51 = value
	case offNR52:
		a.NR52 = value
	}
}
