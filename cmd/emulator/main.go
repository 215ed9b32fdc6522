package main

import (
	"flag"
	"fmt"
	"os"

	"sm166/internal/cpu"
	"sm166/internal/debug"
	"sm166/internal/emulator"
	"sm166/internal/ui"
)

func main() {
	var romPath string
	flag.StringVar(&romPath, "program-file", "", "Path to ROM file (required)")
	flag.StringVar(&romPath, "p", "", "Shorthand for -program-file")

	var headless bool
	flag.BoolVar(&headless, "headless", false, "Run without a window, audio, or input, until stop or -frames is reached")
	flag.BoolVar(&headless, "h", false, "Shorthand for -headless")

	unlimited := flag.Bool("unlimited", false, "Run at unlimited speed (no frame limit)")
	scale := flag.Int("scale", 3, "Display scale (1-6)")
	enableLogging := flag.Bool("log", false, "Enable logging (disabled by default)")
	frames := flag.Int("frames", 0, "In -headless mode, stop after this many frames (0 = run forever)")
	flag.Parse()

	if romPath == "" {
		fmt.Println("Usage: sm166 -program-file <path-to-rom>")
		fmt.Println("  -program-file, -p <path>  Path to ROM file (.rom)")
		fmt.Println("  -headless, -h             Run without a window, audio, or input")
		fmt.Println("  -unlimited                Run at unlimited speed")
		fmt.Println("  -scale <1-6>              Display scale (default: 3)")
		fmt.Println("  -log                      Enable logging (disabled by default)")
		os.Exit(1)
	}

	if *scale < 1 || *scale > 6 {
		fmt.Fprintf(os.Stderr, "Error: scale must be between 1 and 6\n")
		os.Exit(1)
	}

	romData, err := os.ReadFile(romPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ROM file: %v\n", err)
		os.Exit(1)
	}

	var emu *emulator.Emulator
	if *enableLogging {
		logger := debug.NewLogger(10000)
		logger.SetComponentEnabled(debug.ComponentCPU, true)
		logger.SetComponentEnabled(debug.ComponentPPU, true)
		logger.SetComponentEnabled(debug.ComponentAPU, true)
		logger.SetComponentEnabled(debug.ComponentMemory, true)
		logger.SetComponentEnabled(debug.ComponentInput, true)
		logger.SetComponentEnabled(debug.ComponentUI, true)
		logger.SetComponentEnabled(debug.ComponentSystem, true)
		emu = emulator.NewEmulatorWithLogger(logger)
	} else {
		emu = emulator.NewEmulator()
	}

	if err := emu.LoadROM(romData); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ROM: %v\n", err)
		os.Exit(1)
	}

	emu.SetFrameLimit(!*unlimited)

	fmt.Println("SM166 Emulator")
	fmt.Println("==============")
	fmt.Printf("ROM loaded: %s\n", romPath)
	fmt.Printf("Frame limit: %v\n", !*unlimited)

	if headless {
		runHeadless(emu, *frames)
		return
	}

	fmt.Printf("Display scale: %dx\n", *scale)
	fmt.Println("\nControls:")
	fmt.Println("  Arrow Keys / WASD - D-pad")
	fmt.Println("  Z/X/V/C - A/B/X/Y")
	fmt.Println("  Q/E - L/R")
	fmt.Println("  Enter - Start, Backspace - Select")

	uiInstance := ui.NewFyneUI(emu, *scale)
	uiInstance.Run()
}

// runHeadless drives the emulator with no window, audio sink, or input
// source wired up at all — useful for running test ROMs or benchmarking the
// CPU/PPU loop in CI, where no display server or audio device exists.
func runHeadless(emu *emulator.Emulator, frameLimit int) {
	fmt.Println("Running headless (no window, no audio, no input)")
	emu.SetFrameLimit(false)
	for (frameLimit <= 0 || emu.FrameCount < uint64(frameLimit)) && !emu.CPU.CheckFlag(cpu.FlagS) {
		emu.RunFrame()
	}
	fmt.Printf("Ran %d frames\n", emu.FrameCount)
}
