package asm

import (
	"fmt"
	"math"
	"strings"
)

// installIntrinsics pre-populates the global scope with the boolean
// constants and the numeric/fixed-point function set the evaluator's
// global environment must carry per spec §4.4 "Evaluator".
func installIntrinsics(global *scope) {
	// true/false are reserved keywords, which define rejects, so they are
	// bound directly.
	global.symbols["true"], global.consts["true"] = intValue(1), true
	global.symbols["false"], global.consts["false"] = intValue(0), true

	one := func(f func(float64) float64) nativeFunc {
		return func(args []value, line int) (value, error) {
			if len(args) != 1 {
				return value{}, fmt.Errorf("line %d: expected 1 argument, got %d", line, len(args))
			}
			if args[0].kind != vNumber {
				return value{}, fmt.Errorf("line %d: expected a number argument", line)
			}
			return numberValue(f(args[0].num)), nil
		}
	}
	two := func(f func(a, b float64) float64) nativeFunc {
		return func(args []value, line int) (value, error) {
			if len(args) != 2 {
				return value{}, fmt.Errorf("line %d: expected 2 arguments, got %d", line, len(args))
			}
			if args[0].kind != vNumber || args[1].kind != vNumber {
				return value{}, fmt.Errorf("line %d: expected numeric arguments", line)
			}
			return numberValue(f(args[0].num, args[1].num)), nil
		}
	}

	defineNative(global, "round", one(math.Round))
	defineNative(global, "ceil", one(math.Ceil))
	defineNative(global, "floor", one(math.Floor))
	defineNative(global, "int", one(math.Trunc))
	defineNative(global, "frac", one(func(f float64) float64 { _, frac := math.Modf(f); return frac }))
	defineNative(global, "fmod", two(math.Mod))
	defineNative(global, "pow", two(math.Pow))
	defineNative(global, "log", one(math.Log))
	defineNative(global, "sin", one(math.Sin))
	defineNative(global, "cos", one(math.Cos))
	defineNative(global, "tan", one(math.Tan))

	defineNative(global, "strlen", func(args []value, line int) (value, error) {
		if len(args) != 1 || args[0].kind != vString {
			return value{}, fmt.Errorf("line %d: strlen expects a string", line)
		}
		return intValue(int64(len(args[0].str))), nil
	})
	defineNative(global, "strcmp", func(args []value, line int) (value, error) {
		if len(args) != 2 || args[0].kind != vString || args[1].kind != vString {
			return value{}, fmt.Errorf("line %d: strcmp expects two strings", line)
		}
		return intValue(int64(strings.Compare(args[0].str, args[1].str))), nil
	})

	// fp_* fixed-point variants take the value and an optional second
	// argument giving the number of fractional bits (default 8); a third
	// argument is rejected.
	fpOne := func(f func(float64) float64) nativeFunc {
		return func(args []value, line int) (value, error) {
			if len(args) < 1 || len(args) > 2 {
				return value{}, fmt.Errorf("line %d: expected 1 or 2 arguments", line)
			}
			bits := 8
			if len(args) == 2 {
				n, err := args[1].asInt()
				if err != nil {
					return value{}, err
				}
				bits = int(n)
			}
			result := f(args[0].num)
			scaled := int64(math.Round(result * float64(int64(1)<<uint(bits))))
			v := intValue(scaled)
			v.fpFracBits = bits
			return v, nil
		}
	}
	defineNative(global, "fp_round", fpOne(math.Round))
	defineNative(global, "fp_floor", fpOne(math.Floor))
	defineNative(global, "fp_ceil", fpOne(math.Ceil))
	defineNative(global, "fp_sin", fpOne(math.Sin))
	defineNative(global, "fp_cos", fpOne(math.Cos))
}

func defineNative(s *scope, name string, fn nativeFunc) {
	s.define(name, value{kind: vFunction, native: fn}, true)
}
