// Package ui implements the standalone display and input front end: a
// Fyne window showing the PPU's screen buffer, an SDL2 keyboard-state poll
// merged with Fyne's own key events (the same belt-and-suspenders input
// tracking the teacher's front end used), and an oto-backed PCM sink
// draining the APU's register-driven samples. Debugger/trace panels are
// out of scope; this is display, input, and audio output only.
package ui

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"sm166/internal/apu"
	"sm166/internal/emulator"
	"sm166/internal/input"
	"sm166/internal/ppu"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	otolib "github.com/ebitengine/oto/v3"
	"github.com/veandco/go-sdl2/sdl"
	ximage "golang.org/x/image/draw"
)

// FyneUI is the Fyne-based front end. It owns no emulation state beyond
// what's needed to read the PPU's screen buffer and forward input.
type FyneUI struct {
	app      fyne.App
	window   fyne.Window
	emulator *emulator.Emulator
	scale    int
	running  bool

	screenImage *canvas.Image
	statusLabel *widget.Label
	frameImages [2]*image.RGBA
	frameIdx    int

	keyMu     sync.Mutex
	keyStates map[fyne.KeyName]bool

	sdlReady  bool
	otoCtx    *otolib.Context
	otoPlayer *otolib.Player
	sampleSrc *sampleSource
}

// NewFyneUI builds the window, wires keyboard handlers and the audio sink,
// and returns a UI ready to Run.
func NewFyneUI(emu *emulator.Emulator, scale int) *FyneUI {
	fyneApp := app.NewWithID("sm166.emulator")
	window := fyneApp.NewWindow("SM166 Emulator")

	width := ppu.ScreenWidth * scale
	height := ppu.ScreenHeight * scale

	frame0 := image.NewRGBA(image.Rect(0, 0, width, height))
	frame1 := image.NewRGBA(image.Rect(0, 0, width, height))

	screenImage := canvas.NewImageFromImage(frame0)
	screenImage.FillMode = canvas.ImageFillContain

	statusLabel := widget.NewLabel("FPS: 0.0 | Frame: 0")

	ui := &FyneUI{
		app:         fyneApp,
		window:      window,
		emulator:    emu,
		scale:       scale,
		screenImage: screenImage,
		statusLabel: statusLabel,
		frameImages: [2]*image.RGBA{frame0, frame1},
		keyStates:   make(map[fyne.KeyName]bool),
	}

	content := container.NewBorder(nil, statusLabel, nil, nil, screenImage)
	window.SetContent(content)
	window.Resize(fyne.NewSize(float32(width), float32(height)+40))
	window.CenterOnScreen()

	ui.setupKeyboardInput()
	ui.setupSDL()
	ui.setupAudio()

	return ui
}

// setupKeyboardInput wires desktop key-down/key-up events directly to
// held button state, the same capability the teacher's UI used for
// reliable (non-typed) key tracking.
func (ui *FyneUI) setupKeyboardInput() {
	c, ok := ui.window.Canvas().(desktop.Canvas)
	if !ok {
		return
	}
	c.SetOnKeyDown(func(key *fyne.KeyEvent) {
		ui.keyMu.Lock()
		ui.keyStates[key.Name] = true
		ui.keyMu.Unlock()
		ui.applyInput()
	})
	c.SetOnKeyUp(func(key *fyne.KeyEvent) {
		ui.keyMu.Lock()
		ui.keyStates[key.Name] = false
		ui.keyMu.Unlock()
		ui.applyInput()
	})
}

// setupSDL brings up SDL's event/keyboard subsystem so GetKeyboardState can
// be polled as a fallback alongside Fyne's own key events, the same dual
// tracking the reference front end relied on for keys Fyne's canvas
// sometimes misses (held keys across focus changes). Audio is handled
// separately by oto, so only INIT_VIDEO|INIT_EVENTS is requested.
func (ui *FyneUI) setupSDL() {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		fmt.Printf("sdl init failed, keyboard polling disabled: %v\n", err)
		return
	}
	ui.sdlReady = true
}

// sdlButtonBindings and sdlDPadBindings map SDL scancodes to joypad masks, polled each frame as a
// fallback input source.
var sdlButtonBindings = map[sdl.Scancode]uint8{
	sdl.SCANCODE_Z:         input.ButtonA,
	sdl.SCANCODE_X:         input.ButtonB,
	sdl.SCANCODE_V:         input.ButtonX,
	sdl.SCANCODE_C:         input.ButtonY,
	sdl.SCANCODE_Q:         input.ButtonL,
	sdl.SCANCODE_E:         input.ButtonR,
	sdl.SCANCODE_RETURN:    input.ButtonStart,
	sdl.SCANCODE_BACKSPACE: input.ButtonSelect,
}

var sdlDPadBindings = map[sdl.Scancode]uint8{
	sdl.SCANCODE_UP:    input.DPadUp,
	sdl.SCANCODE_W:     input.DPadUp,
	sdl.SCANCODE_DOWN:  input.DPadDown,
	sdl.SCANCODE_S:     input.DPadDown,
	sdl.SCANCODE_LEFT:  input.DPadLeft,
	sdl.SCANCODE_A:     input.DPadLeft,
	sdl.SCANCODE_RIGHT: input.DPadRight,
	sdl.SCANCODE_D:     input.DPadRight,
}

// pollSDLKeyboard applies SDL's polled keyboard state on top of whatever
// Fyne's key events already set; either source holding a key down wins.
func (ui *FyneUI) pollSDLKeyboard() {
	if !ui.sdlReady {
		return
	}
	sdl.PumpEvents()
	state := sdl.GetKeyboardState()
	if state == nil {
		return
	}
	for scancode, mask := range sdlButtonBindings {
		if state[scancode] != 0 {
			ui.emulator.SetButton(mask, true)
		}
	}
	for scancode, mask := range sdlDPadBindings {
		if state[scancode] != 0 {
			ui.emulator.SetDPad(mask, true)
		}
	}
}

// sampleSource adapts APU.GenerateSamples to the io.Reader oto.NewPlayer
// expects: signed 16-bit little-endian stereo PCM, duplicating the APU's
// mono output across both channels.
type sampleSource struct {
	a *apu.APU
}

func (s *sampleSource) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	samples := s.a.GenerateSamples(frames)
	for i, v := range samples {
		off := i * 4
		p[off+0] = byte(v)
		p[off+1] = byte(v >> 8)
		p[off+2] = byte(v)
		p[off+3] = byte(v >> 8)
	}
	return frames * 4, nil
}

// setupAudio opens an oto player draining the APU's register-driven PCM.
// A failure here (no host audio device, e.g. in a container) is logged and
// otherwise ignored: sound output was never in scope beyond this sink.
func (ui *FyneUI) setupAudio() {
	options := &otolib.NewContextOptions{
		SampleRate:   apu.DefaultSampleRate,
		ChannelCount: 2,
		Format:       otolib.FormatSignedInt16LE,
	}
	ctx, ready, err := otolib.NewContext(options)
	if err != nil {
		fmt.Printf("oto init failed, running without audio: %v\n", err)
		return
	}
	<-ready

	ui.sampleSrc = &sampleSource{a: ui.emulator.APU}
	ui.otoCtx = ctx
	ui.otoPlayer = ctx.NewPlayer(ui.sampleSrc)
	ui.otoPlayer.Play()
}

// buttonBindings and dpadBindings map host keys to joypad button/d-pad masks.
var buttonBindings = map[fyne.KeyName]uint8{
	fyne.KeyZ:         input.ButtonA,
	fyne.KeyX:         input.ButtonB,
	fyne.KeyV:         input.ButtonX,
	fyne.KeyC:         input.ButtonY,
	fyne.KeyQ:         input.ButtonL,
	fyne.KeyE:         input.ButtonR,
	fyne.KeyReturn:    input.ButtonStart,
	fyne.KeyBackspace: input.ButtonSelect,
}

var dpadBindings = map[fyne.KeyName]uint8{
	fyne.KeyUp:    input.DPadUp,
	fyne.KeyW:     input.DPadUp,
	fyne.KeyDown:  input.DPadDown,
	fyne.KeyS:     input.DPadDown,
	fyne.KeyLeft:  input.DPadLeft,
	fyne.KeyA:     input.DPadLeft,
	fyne.KeyRight: input.DPadRight,
	fyne.KeyD:     input.DPadRight,
}

func (ui *FyneUI) applyInput() {
	ui.keyMu.Lock()
	defer ui.keyMu.Unlock()

	for key, mask := range buttonBindings {
		ui.emulator.SetButton(mask, ui.keyStates[key])
	}
	for key, mask := range dpadBindings {
		ui.emulator.SetDPad(mask, ui.keyStates[key])
	}
	ui.pollSDLKeyboard()
}

// renderScreen copies the PPU's packed-RGBA screen buffer into an
// unscaled staging image, then uses x/image/draw's nearest-neighbor
// scaler to blit it up into the double-buffered host image. The two host
// images are reused across frames; the staging image is allocated on each
// call.
func (ui *FyneUI) renderScreen() image.Image {
	img := ui.frameImages[ui.frameIdx]
	ui.frameIdx ^= 1

	staging := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	screen := &ui.emulator.PPU.Screen
	for y := 0; y < ppu.ScreenHeight; y++ {
		for x := 0; x < ppu.ScreenWidth; x++ {
			colorValue := screen[y*ppu.ScreenWidth+x]
			off := staging.PixOffset(x, y)
			staging.Pix[off+0] = uint8(colorValue >> 24)
			staging.Pix[off+1] = uint8(colorValue >> 16)
			staging.Pix[off+2] = uint8(colorValue >> 8)
			staging.Pix[off+3] = uint8(colorValue)
		}
	}

	ximage.NearestNeighbor.Scale(img, img.Bounds(), staging, staging.Bounds(), draw.Src, nil)
	return img
}

// Run starts the emulation/render loop and blocks until the window is
// closed. The UI ticks at a fixed 60Hz and drives one emulator frame
// per tick, so the emulator's own wall-clock pacer is disabled to avoid
// double-throttling.
func (ui *FyneUI) Run() {
	ui.emulator.SetFrameLimit(false)
	ui.running = true

	go ui.runLoop()

	ui.window.ShowAndRun()
	ui.running = false
	ui.shutdownAudio()
	if ui.sdlReady {
		sdl.Quit()
	}
}

func (ui *FyneUI) shutdownAudio() {
	if ui.otoPlayer != nil {
		ui.otoPlayer.Close()
	}
}

func (ui *FyneUI) runLoop() {
	const tickHz = 60
	ticker := time.NewTicker(time.Second / tickHz)
	defer ticker.Stop()

	tickCount := 0
	for ui.running {
		<-ticker.C
		tickCount++

		ui.applyInput()
		ui.emulator.RunFrame()
		img := ui.renderScreen()

		fps := ui.emulator.GetFPS()
		frameCount := ui.emulator.FrameCount

		fyne.Do(func() {
			ui.screenImage.Image = img
			ui.screenImage.Refresh()
			if tickCount%15 == 0 {
				ui.statusLabel.SetText(fmt.Sprintf("FPS: %.1f | Frame: %d", fps, frameCount))
			}
		})
	}
}
