// Package input implements the joypad register surface (I/O offsets
// 0x00-0x02): JOYB (button bitmap), JOYD (d-pad bitmap), JOYC (enable/select).
package input

// Button bit positions within the button bitmap.
const (
	ButtonA = 1 << iota
	ButtonB
	ButtonX
	ButtonY
	ButtonL
	ButtonR
	ButtonSelect
	ButtonStart
)

// D-pad bit positions within the d-pad bitmap.
const (
	DPadUp = 1 << iota
	DPadDown
	DPadLeft
	DPadRight
)

// JOYC control bits: overall enable, and a separate select bit for each of
// the button and d-pad bitmaps.
const (
	controlEnabled = 1 << 0
	controlButtons = 1 << 1
	controlDPad    = 1 << 2
)

// Joypad holds the live button/d-pad state and the enable/select control. A
// rising edge on a button or d-pad bit requests the joypad interrupt,
// provided both the overall enable and the relevant select bit are set.
type Joypad struct {
	Buttons uint8
	DPad    uint8
	Control uint8

	RequestInterrupt func()
}

// NewJoypad returns a joypad with no buttons pressed and every control bit
// set, matching the reference power-on state.
func NewJoypad() *Joypad {
	return &Joypad{Control: controlEnabled | controlButtons | controlDPad}
}

// SetButton sets or clears a single bit of the button bitmap.
func (j *Joypad) SetButton(mask uint8, pressed bool) {
	old := j.Buttons&mask != 0
	if pressed {
		j.Buttons |= mask
	} else {
		j.Buttons &^= mask
	}
	if !old && pressed && j.Control&controlEnabled != 0 && j.Control&controlButtons != 0 {
		if j.RequestInterrupt != nil {
			j.RequestInterrupt()
		}
	}
}

// SetDPad sets or clears a single bit of the d-pad bitmap.
func (j *Joypad) SetDPad(mask uint8, pressed bool) {
	old := j.DPad&mask != 0
	if pressed {
		j.DPad |= mask
	} else {
		j.DPad &^= mask
	}
	if !old && pressed && j.Control&controlEnabled != 0 && j.Control&controlDPad != 0 {
		if j.RequestInterrupt != nil {
			j.RequestInterrupt()
		}
	}
}

// Read8 reads JOYB/JOYD/JOYC, offset relative to JOYB (0x00).
func (j *Joypad) Read8(offset uint16) uint8 {
	switch offset {
	case 0:
		if j.Control&controlEnabled == 0 || j.Control&controlButtons == 0 {
			return 0
		}
		return j.Buttons
	case 1:
		if j.Control&controlEnabled == 0 || j.Control&controlDPad == 0 {
			return 0
		}
		return j.DPad
	case 2:
		return j.Control
	default:
		return 0xFF
	}
}

// Write8 writes JOYC; JOYB/JOYD are read-only from the CPU's perspective.
func (j *Joypad) Write8(offset uint16, value uint8) {
	if offset == 2 {
		j.Control = value
	}
}
