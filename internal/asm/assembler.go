// Package asm implements the companion assembler for the SM166 toolchain:
// a lexer, a recursive-descent parser, a small expression-language
// evaluator with user-defined functions, and an encoder that packs
// mnemonics into the CPU's opcode words. See assembler.go for the package's
// single entry point.
package asm

import (
	"fmt"
	"os"
	"path/filepath"
)

// Options configures one assembly run.
type Options struct {
	// InputPath is the entry source file.
	InputPath string
	// LexOnly stops after tokenizing and returns a RunResult with only Tokens set.
	LexOnly bool
	// ASTOnly stops after parsing and returns a RunResult with only Program set.
	ASTOnly bool
}

// RunResult carries whichever artifact the requested stage produced.
type RunResult struct {
	Tokens  []token
	Program []Stmt
	Image   *Result
}

// Assemble runs the full pipeline (or stops early per opts.LexOnly/ASTOnly)
// against the file at opts.InputPath, reading include/incbin targets off
// the local filesystem relative to whichever file references them.
func Assemble(opts Options) (*RunResult, error) {
	src, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", opts.InputPath, err)
	}

	toks, err := newLexer(string(src), opts.InputPath).Lex()
	if err != nil {
		return nil, err
	}
	if opts.LexOnly {
		return &RunResult{Tokens: toks}, nil
	}

	stmts, err := ParseProgram(toks, opts.InputPath)
	if err != nil {
		return nil, err
	}
	if opts.ASTOnly {
		return &RunResult{Program: stmts}, nil
	}

	ev := NewEvaluator(os.ReadFile, filepath.Dir(opts.InputPath))
	image, err := ev.Assemble(src, opts.InputPath)
	if err != nil {
		return nil, err
	}
	return &RunResult{Image: image}, nil
}

// LinearizeROM flattens a sparse Result into a contiguous byte slice
// spanning [0, maxAddr], with every untouched address left at 0. cmd/asm
// hands this straight to internal/rom for header assembly.
func LinearizeROM(res *Result) []byte {
	if len(res.Bytes) == 0 {
		return nil
	}
	out := make([]byte, res.MaxROM+1)
	for addr, b := range res.Bytes {
		out[addr] = b
	}
	return out
}
