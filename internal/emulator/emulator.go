// Package emulator wires the CPU, MMU, PPU, APU, timer, realtime clock,
// and joypad into a runnable system, and drives it one frame at a time.
package emulator

import (
	"fmt"

	"sm166/internal/apu"
	"sm166/internal/clock"
	"sm166/internal/cpu"
	"sm166/internal/debug"
	"sm166/internal/input"
	"sm166/internal/memory"
	"sm166/internal/peripherals"
	"sm166/internal/ppu"
)

// Emulator owns every component and is the sole place that wires the
// capability callbacks (interrupt requests, the per-dot hook, OAM DMA's
// bus handle) that let the pieces talk to each other without holding
// back-references to one another.
type Emulator struct {
	CPU   *cpu.CPU
	MMU   *memory.MMU
	PPU   *ppu.PPU
	APU   *apu.APU
	Input *input.Joypad
	Timer *peripherals.Timer
	RTC   *peripherals.RTC

	Logger *debug.Logger
	Pacer  *clock.FramePacer

	FrameCount uint64
}

// NewEmulator constructs a fully-wired, ROM-less emulator.
func NewEmulator() *Emulator {
	return newEmulator(nil)
}

// NewEmulatorWithLogger is the same, with component tracing attached.
func NewEmulatorWithLogger(logger *debug.Logger) *Emulator {
	return newEmulator(logger)
}

func newEmulator(logger *debug.Logger) *Emulator {
	e := &Emulator{
		MMU:   memory.NewMMU(),
		PPU:   ppu.New(),
		APU:   apu.NewAPU(),
		Input: input.NewJoypad(),
		Timer: peripherals.NewTimer(),
		RTC:   peripherals.NewRTC(),

		Logger: logger,
		Pacer:  clock.NewFramePacer(),
	}

	e.CPU = cpu.New(e.MMU, e.tick)

	e.MMU.PPU = e.PPU
	e.MMU.APU = e.APU
	e.MMU.Input = e.Input
	e.MMU.Timer = e.Timer
	e.MMU.RTC = e.RTC
	e.MMU.CPU = e.CPU

	e.PPU.Bus = e.MMU
	e.PPU.RequestInterrupt = e.CPU.RequestInterrupt
	e.Timer.RequestInterrupt = func() { e.CPU.RequestInterrupt(cpu.IntTimer) }
	e.Input.RequestInterrupt = func() { e.CPU.RequestInterrupt(cpu.IntJoypad) }

	if logger != nil {
		e.MMU.SetLogger(logger)
		e.PPU.SetLogger(logger)
	}

	return e
}

// tick is the CPU's per-dot hook: it drives every peripheral that has its
// own free-running timing. The timer is not ticked while the CPU's stop
// flag is set, matching the original firmware's DIV-halt-while-stopped
// behavior.
func (e *Emulator) tick(dotCount uint64) {
	if !e.CPU.CheckFlag(cpu.FlagS) {
		e.Timer.Tick()
	}
	e.RTC.Tick()
	e.PPU.Tick(dotCount)
	e.APU.Tick(dotCount)
}

// LoadROM validates and installs a ROM image, then resets the CPU to its
// power-on state so execution starts from the cartridge's entry point.
func (e *Emulator) LoadROM(data []byte) error {
	if err := e.MMU.Cartridge.LoadROM(data); err != nil {
		return fmt.Errorf("load ROM: %w", err)
	}
	e.CPU.Initialize()
	return nil
}

// SetFrameLimit enables or disables wall-clock frame pacing.
func (e *Emulator) SetFrameLimit(limited bool) {
	e.Pacer.SetEnabled(limited)
}

// GetFPS returns the most recently measured frames-per-second.
func (e *Emulator) GetFPS() float64 {
	return e.Pacer.FPS()
}

// RunFrame steps the CPU until the PPU has produced one complete frame's
// worth of dots (clock.DotsPerFrame), then paces to wall-clock time.
func (e *Emulator) RunFrame() {
	target := e.CPU.Cycles + clock.DotsPerFrame
	for e.CPU.Cycles < target {
		if result := e.CPU.Step(); result.Fatal {
			if e.Logger != nil {
				e.Logger.LogCPU(debug.LogLevelError, "fatal opcode", map[string]interface{}{
					"opcode": result.Opcode,
					"pc":     result.PC,
				})
			}
			return
		}
	}
	e.FrameCount++
	e.Pacer.EndFrame()
}

// SetButton and SetDPad forward host input to the joypad, which performs
// its own edge-triggered interrupt logic.
func (e *Emulator) SetButton(mask uint8, pressed bool) {
	e.Input.SetButton(mask, pressed)
}

func (e *Emulator) SetDPad(mask uint8, pressed bool) {
	e.Input.SetDPad(mask, pressed)
}
