package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	sasm "sm166/internal/asm"
	"sm166/internal/rom"
)

func main() {
	var inputPath, outputPath, title, author string
	var lexOnly, astOnly, noOutput bool
	var sramSize uint

	flag.StringVar(&inputPath, "input-filename", "", "assembly source file (required)")
	flag.StringVar(&inputPath, "i", "", "shorthand for --input-filename")
	flag.StringVar(&outputPath, "output-file", "", "output ROM path (required unless a dump-only flag is set)")
	flag.StringVar(&outputPath, "o", "", "shorthand for --output-file")
	flag.BoolVar(&lexOnly, "lex-only", false, "tokenize and print the token stream, then exit")
	flag.BoolVar(&lexOnly, "l", false, "shorthand for --lex-only")
	flag.BoolVar(&astOnly, "ast-only", false, "parse and print the statement tree, then exit")
	flag.BoolVar(&astOnly, "s", false, "shorthand for --ast-only")
	flag.BoolVar(&noOutput, "no-output", false, "assemble but do not write a ROM file")
	flag.BoolVar(&noOutput, "n", false, "shorthand for --no-output")
	flag.StringVar(&title, "title", "", "cartridge title header field")
	flag.StringVar(&author, "author", "", "cartridge author header field")
	flag.UintVar(&sramSize, "sram-size", 0, "cartridge SRAM size in bytes")
	flag.Parse()

	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "error: --input-filename/-i is required")
		flag.Usage()
		os.Exit(1)
	}
	dumpOnly := lexOnly || astOnly || noOutput
	if outputPath == "" && !dumpOnly {
		fmt.Fprintln(os.Stderr, "error: --output-file/-o is required unless --lex-only, --ast-only, or --no-output is set")
		flag.Usage()
		os.Exit(1)
	}

	res, err := sasm.Assemble(sasm.Options{InputPath: inputPath, LexOnly: lexOnly, ASTOnly: astOnly})
	if err != nil {
		fmt.Fprintf(os.Stderr, "assembler error: %v\n", err)
		os.Exit(1)
	}

	// Interactive terminals get a blank separator line before the dump;
	// piped/redirected output (the common case when another tool consumes
	// -l/-s output) skips it.
	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	switch {
	case lexOnly:
		if interactive {
			fmt.Println()
		}
		for _, t := range res.Tokens {
			fmt.Println(t)
		}
		return
	case astOnly:
		if interactive {
			fmt.Println()
		}
		fmt.Printf("%d top-level statement(s)\n", len(res.Program))
		for i, s := range res.Program {
			fmt.Printf("%4d: %T\n", i, s)
		}
		return
	}

	if noOutput {
		fmt.Printf("assembled %d byte(s) across %d label(s), no output written\n",
			len(res.Image.Bytes), len(res.Image.Labels))
		return
	}

	image := sasm.LinearizeROM(res.Image)
	builder := rom.NewBuilder()
	builder.SetImage(image)
	b, err := builder.Build(rom.Header{SRAMSize: uint32(sramSize), Title: title, Author: author})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error building ROM: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputPath, b, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outputPath, err)
		os.Exit(1)
	}
	fmt.Printf("assembled %s -> %s (%d bytes)\n", inputPath, outputPath, len(b))
}
