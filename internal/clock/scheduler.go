// Package clock paces emulated frames against wall-clock time. The CPU's
// per-dot hook (cpu.Hook) is the only scheduling primitive the rest of the
// system needs for correctness; this package exists purely to keep an
// unlimited-speed emulation loop from running faster than a real display
// would, by sleeping off whatever time a frame finished early.
package clock

import "time"

// DotClockHz is the emulated dot clock rate. The specification fixes the
// dot count per frame (70224) but not a wall-clock rate; this value
// matches the class of handheld hardware the system targets and yields a
// ~59.7 Hz frame rate, the same family of refresh rate as comparable
// historical hardware.
const DotClockHz = 4194304

// DotsPerFrame is the fixed number of dot ticks in one complete frame:
// 154 lines * 456 dots/line.
const DotsPerFrame = 154 * 456

// FramePacer throttles RunFrame-style loops to DotClockHz/DotsPerFrame
// frames per second, and reports a smoothed measured FPS for display.
type FramePacer struct {
	frameDuration time.Duration
	nextDeadline  time.Time
	enabled       bool

	lastSample  time.Time
	framesSince uint64
	fps         float64
}

// NewFramePacer returns a pacer enabled by default.
func NewFramePacer() *FramePacer {
	p := &FramePacer{
		frameDuration: time.Second * DotsPerFrame / DotClockHz,
		enabled:       true,
	}
	p.lastSample = time.Now()
	p.nextDeadline = p.lastSample
	return p
}

// SetEnabled turns wall-clock throttling on or off; disabling it lets an
// emulation loop run at whatever speed the host CPU allows.
func (p *FramePacer) SetEnabled(enabled bool) {
	p.enabled = enabled
}

// EndFrame records that one frame's worth of dots just finished, updates
// the FPS estimate, and — if pacing is enabled — sleeps until the
// frame's wall-clock deadline before returning.
func (p *FramePacer) EndFrame() {
	p.framesSince++
	if elapsed := time.Since(p.lastSample); elapsed >= time.Second {
		p.fps = float64(p.framesSince) / elapsed.Seconds()
		p.framesSince = 0
		p.lastSample = time.Now()
	}

	p.nextDeadline = p.nextDeadline.Add(p.frameDuration)
	if !p.enabled {
		return
	}

	if wait := time.Until(p.nextDeadline); wait > 0 {
		time.Sleep(wait)
	} else {
		// Running behind: don't try to catch up by bursting frames.
		p.nextDeadline = time.Now()
	}
}

// FPS returns the most recently measured frames-per-second.
func (p *FramePacer) FPS() float64 {
	return p.fps
}
