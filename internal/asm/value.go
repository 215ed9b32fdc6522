package asm

import "fmt"

// valueKind is the assembler's "value" sum type discriminant (spec §9:
// "the assembler's value type ... should be a sum type").
type valueKind int

const (
	vVoid valueKind = iota
	vRegister
	vCondition
	vAddress
	vNumber
	vString
	vFunction
)

// regClass distinguishes the three general-purpose register widths plus the
// two dedicated pseudo-registers (SP, PC) a handful of instructions name
// directly.
type regClass int

const (
	regByte regClass = iota
	regWord
	regLong
	regSP
	regPC
)

// userFunction is the user-defined subcase of the function value variant;
// native is the other subcase (see nativeFunc in intrinsics.go). Both share
// the single vFunction value kind, dispatched on which field is non-nil.
type userFunction struct {
	params []string
	body   []Stmt
	env    *scope
}

type nativeFunc func(args []value, line int) (value, error)

// value is the polymorphic runtime type every expression evaluates to.
type value struct {
	kind valueKind

	regClass   regClass
	regIndex   int
	indirect   bool // true when this register value came from `[Rn]`
	cond       uint8
	addr       uint32
	num        float64
	isInt      bool
	str        string
	user       *userFunction
	native     nativeFunc
	fpFracBits int // set by fp_* intrinsics producing a fixed-point number
}

func numberValue(n float64) value  { return value{kind: vNumber, num: n} }
func intValue(n int64) value       { return value{kind: vNumber, num: float64(n), isInt: true} }
func stringValue(s string) value   { return value{kind: vString, str: s} }
func addressValue(a uint32) value  { return value{kind: vAddress, addr: a} }
func conditionValue(c uint8) value { return value{kind: vCondition, cond: c} }
func boolValue(b bool) value {
	if b {
		return intValue(1)
	}
	return intValue(0)
}

func (v value) truthy() bool {
	switch v.kind {
	case vNumber:
		return v.num != 0
	case vString:
		return v.str != ""
	case vAddress:
		return true
	default:
		return false
	}
}

func (v value) asInt() (int64, error) {
	if v.kind != vNumber {
		return 0, fmt.Errorf("expected a number, got %s", v.kind)
	}
	return int64(v.num), nil
}

func (k valueKind) String() string {
	switch k {
	case vVoid:
		return "void"
	case vRegister:
		return "register"
	case vCondition:
		return "condition"
	case vAddress:
		return "address"
	case vNumber:
		return "number"
	case vString:
		return "string"
	case vFunction:
		return "function"
	default:
		return "unknown"
	}
}
