package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode classes and per-class modes, mirrored bit-for-bit from
// internal/cpu/instructions.go's dispatch table. Every word this encoder
// produces must decode identically there; see that file's comment for the
// authoritative layout (class<<12 | mode<<8 | reg1<<4 | reg2).
const (
	classControl = 0x0
	classLoad    = 0x1
	classFlow    = 0x2
	classArith   = 0x3
	classLogic   = 0x5
	classBit     = 0x6
	classShift   = 0x7
)

const (
	ctrlNOP = iota
	ctrlSTOP
	ctrlHALT
	ctrlDI
	ctrlEI
	ctrlDAA
	ctrlCPL
	ctrlCCF
	ctrlSCF
)

const (
	loadModeLoad = iota
	loadModeStore
	loadModeMoveB
	loadModeMoveW
	loadModeMoveL
	loadModeMoveSPPC // reg2: 0-7 = MSP into Wn; 8-11 = MPC into Ln (reg2-8)
	loadModePushPop  // reg1 = Lindex; reg2 selects direction: 0 push, 1 pop
)

// addressing variants selected by reg1 inside loadModeLoad/loadModeStore.
const (
	loadVariantImm8  = iota // load only: reg2 0-15 selects Bn
	loadVariantWide         // load only: reg2 0-7 = Wn, 8-11 = Ln (reg2-8)
	loadVariantAbs          // reg2 selects Bn; absolute addr32 follows
	loadVariantInd          // reg2 selects Bn; indirect long register is reg1-indBase
	loadVariantSpecial = 7  // LHB/LHR/LHW (load) or SHB/SHR/SHW/SSP/SPC (store), chosen by reg2
)

// indBase is the reg1 value at which indirect-through-Ln addressing starts,
// mirroring internal/cpu/instructions.go's execLoadVariant/execStoreVariant.
const indBase = 3

const (
	arithModeInc = iota
	arithModeDec
	arithModeAddAdc
	arithModeSubSbc
)

// operand families selected by reg1 inside arithModeInc/arithModeDec, and
// (as reg1's low two bits) inside arithModeAddAdc/arithModeSubSbc.
const (
	arithFamR8 = iota
	arithFamWide
	arithFamAbs
	arithFamInd
)

// arithCarryBit is reg1's bit 2 inside arithModeAddAdc/arithModeSubSbc,
// selecting ADC over ADD (or SBC over SUB).
const arithCarryBit = 0x4

// operand variants shared by ADD/ADC/SUB/SBC (reg1's low two bits) and
// AND/OR/XOR/CMP (reg1 directly) -- see internal/cpu's arithOperand.
const (
	operandImm = iota
	operandReg
	operandAbs
	operandInd
)

const (
	logicModeAnd = iota
	logicModeOr
	logicModeXor
	logicModeCmp
)

const (
	shiftSLA = iota
	shiftSRA
	shiftSRL
	shiftRL
	shiftRLC
	shiftRR
	shiftRRC
	shiftRLA
	shiftRLCA
	shiftRRA
	shiftRRCA
)

// condition indices, shared by JMP/CALL/RET.
const (
	condNone = 0
	condZ    = 1
	condNZ   = 2
	condC    = 3
	condNC   = 4
)

var conditionNames = map[string]uint8{
	"z":  condZ,
	"nz": condNZ,
	"c":  condC,
	"nc": condNC,
}

// resolveBareName recognizes the CPU's register/pseudo-register/condition
// identifiers, which are part of the assembler's grammar but never declared
// as ordinary symbols. It's consulted by the evaluator only after an
// ordinary scope lookup misses.
func resolveBareName(name string) (value, bool) {
	upper := strings.ToUpper(name)
	switch upper {
	case "SP":
		return value{kind: vRegister, regClass: regSP}, true
	case "PC":
		return value{kind: vRegister, regClass: regPC}, true
	}
	if cond, ok := conditionNames[strings.ToLower(name)]; ok {
		return conditionValue(cond), true
	}
	if len(upper) >= 2 {
		var class regClass
		switch upper[0] {
		case 'B':
			class = regByte
		case 'W':
			class = regWord
		case 'L':
			class = regLong
		default:
			return value{}, false
		}
		idx, err := strconv.Atoi(upper[1:])
		if err != nil {
			return value{}, false
		}
		max := map[regClass]int{regByte: 15, regWord: 7, regLong: 3}[class]
		if idx < 0 || idx > max {
			return value{}, false
		}
		return value{kind: vRegister, regClass: class, regIndex: idx}, true
	}
	return value{}, false
}

// mnemonics is the full instruction keyword table; isMnemonic lets the
// parser tell an instruction statement apart from an expression statement
// without the evaluator's environment in scope yet.
var mnemonics = map[string]bool{
	"nop": true, "stop": true, "halt": true, "di": true, "ei": true,
	"daa": true, "cpl": true, "ccf": true, "scf": true,
	"ld": true, "ldh": true, "mov": true, "push": true, "pop": true,
	"jmp": true, "call": true, "ret": true, "reti": true, "rst": true,
	"inc": true, "dec": true,
	"add": true, "adc": true, "sub": true, "sbc": true,
	"and": true, "or": true, "xor": true, "cmp": true,
	"bit": true, "set": true, "res": true,
	"sla": true, "sra": true, "srl": true,
	"rl": true, "rlc": true, "rr": true, "rrc": true,
	"rla": true, "rlca": true, "rra": true, "rrca": true,
}

func isMnemonic(name string) bool {
	return mnemonics[strings.ToLower(name)]
}

// encode dispatches a parsed instruction statement's already-evaluated
// operand values to the handler for its mnemonic.
func (ev *Evaluator) encode(mnemonic string, args []value, line int) error {
	m := strings.ToLower(mnemonic)
	switch m {
	case "nop":
		return ev.emitNoOperand(classControl, ctrlNOP, args, line)
	case "stop":
		return ev.emitNoOperand(classControl, ctrlSTOP, args, line)
	case "halt":
		return ev.emitNoOperand(classControl, ctrlHALT, args, line)
	case "di":
		return ev.emitNoOperand(classControl, ctrlDI, args, line)
	case "ei":
		return ev.emitNoOperand(classControl, ctrlEI, args, line)
	case "daa":
		return ev.emitNoOperand(classControl, ctrlDAA, args, line)
	case "cpl":
		return ev.emitNoOperand(classControl, ctrlCPL, args, line)
	case "ccf":
		return ev.emitNoOperand(classControl, ctrlCCF, args, line)
	case "scf":
		return ev.emitNoOperand(classControl, ctrlSCF, args, line)
	case "ld":
		return ev.encodeLD(args, line)
	case "ldh":
		return ev.encodeLDH(args, line)
	case "mov":
		return ev.encodeMOV(args, line)
	case "push":
		return ev.encodePushPop(args, line, 0)
	case "pop":
		return ev.encodePushPop(args, line, 1)
	case "jmp":
		return ev.encodeFlow(args, line, 0x0)
	case "call":
		return ev.encodeFlow(args, line, 0x2)
	case "ret":
		return ev.encodeRet(args, line)
	case "reti":
		return ev.emitWord(classFlow, 0x3, 4, 0, line)
	case "rst":
		return ev.encodeRst(args, line)
	case "inc":
		return ev.encodeIncDec(args, line, true)
	case "dec":
		return ev.encodeIncDec(args, line, false)
	case "add":
		return ev.encodeArith(args, line, arithModeAddAdc, false)
	case "adc":
		return ev.encodeArith(args, line, arithModeAddAdc, true)
	case "sub":
		return ev.encodeArith(args, line, arithModeSubSbc, false)
	case "sbc":
		return ev.encodeArith(args, line, arithModeSubSbc, true)
	case "and":
		return ev.encodeLogic(args, line, logicModeAnd)
	case "or":
		return ev.encodeLogic(args, line, logicModeOr)
	case "xor":
		return ev.encodeLogic(args, line, logicModeXor)
	case "cmp":
		return ev.encodeLogic(args, line, logicModeCmp)
	case "bit":
		return ev.encodeBitOp(args, line, 0)
	case "set":
		return ev.encodeBitOp(args, line, 1)
	case "res":
		return ev.encodeBitOp(args, line, 2)
	case "sla":
		return ev.encodeShift(args, line, shiftSLA)
	case "sra":
		return ev.encodeShift(args, line, shiftSRA)
	case "srl":
		return ev.encodeShift(args, line, shiftSRL)
	case "rl":
		return ev.encodeShift(args, line, shiftRL)
	case "rlc":
		return ev.encodeShift(args, line, shiftRLC)
	case "rr":
		return ev.encodeShift(args, line, shiftRR)
	case "rrc":
		return ev.encodeShift(args, line, shiftRRC)
	case "rla":
		return ev.emitWord(classShift, shiftRLA, 0, 0, line)
	case "rlca":
		return ev.emitWord(classShift, shiftRLCA, 0, 0, line)
	case "rra":
		return ev.emitWord(classShift, shiftRRA, 0, 0, line)
	case "rrca":
		return ev.emitWord(classShift, shiftRRCA, 0, 0, line)
	default:
		return fmt.Errorf("line %d: unknown mnemonic %q", line, mnemonic)
	}
}

func (ev *Evaluator) emitNoOperand(class, mode uint8, args []value, line int) error {
	if len(args) != 0 {
		return fmt.Errorf("line %d: expected no operands", line)
	}
	return ev.emitWord(class, mode, 0, 0, line)
}

func requireReg(v value, class regClass, what string, line int) (int, error) {
	if v.kind != vRegister || v.regClass != class || v.indirect {
		return 0, fmt.Errorf("line %d: expected %s register", line, what)
	}
	return v.regIndex, nil
}

func (ev *Evaluator) encodeLD(args []value, line int) error {
	if len(args) != 2 {
		return fmt.Errorf("line %d: ld expects 2 operands", line)
	}
	dst, src := args[0], args[1]

	// LD Bn, imm8
	if dst.kind == vRegister && dst.regClass == regByte && !dst.indirect && src.kind == vNumber {
		if err := ev.emitWord(classLoad, loadModeLoad, loadVariantImm8, uint8(dst.regIndex), line); err != nil {
			return err
		}
		return ev.emitByte(uint8(int64(src.num)))
	}
	// LD Wn, imm16 / Ln, imm32
	if dst.kind == vRegister && !dst.indirect && src.kind == vNumber {
		switch dst.regClass {
		case regWord:
			if err := ev.emitWord(classLoad, loadModeLoad, loadVariantWide, uint8(dst.regIndex), line); err != nil {
				return err
			}
			return ev.emitWordLE(uint16(int64(src.num)))
		case regLong:
			if err := ev.emitWord(classLoad, loadModeLoad, loadVariantWide, uint8(dst.regIndex)+8, line); err != nil {
				return err
			}
			return ev.emitLongLE(uint32(int64(src.num)))
		}
	}

	// LD Bn, [addr32]  (absolute) / LD Bn, [Lm]  (indirect)
	if dst.kind == vRegister && dst.regClass == regByte && !dst.indirect && src.kind == vAddress {
		if err := ev.emitWord(classLoad, loadModeLoad, loadVariantAbs, uint8(dst.regIndex), line); err != nil {
			return err
		}
		return ev.emitLongLE(src.addr)
	}
	if dst.kind == vRegister && dst.regClass == regByte && !dst.indirect && src.kind == vRegister && src.regClass == regLong && src.indirect {
		return ev.emitWord(classLoad, loadModeLoad, uint8(indBase)+uint8(src.regIndex), uint8(dst.regIndex), line)
	}

	// LD [addr32], Bn  / LD [Lm], Bn
	if dst.kind == vAddress && src.kind == vRegister && src.regClass == regByte && !src.indirect {
		if err := ev.emitWord(classLoad, loadModeStore, loadVariantAbs, uint8(src.regIndex), line); err != nil {
			return err
		}
		return ev.emitLongLE(dst.addr)
	}
	if dst.kind == vRegister && dst.regClass == regLong && dst.indirect && src.kind == vRegister && src.regClass == regByte && !src.indirect {
		return ev.emitWord(classLoad, loadModeStore, uint8(indBase)+uint8(dst.regIndex), uint8(src.regIndex), line)
	}

	// LD [addr32], SP  / LD [addr32], PC
	if dst.kind == vAddress && src.kind == vRegister && src.regClass == regSP {
		if err := ev.emitWord(classLoad, loadModeStore, loadVariantSpecial, 3, line); err != nil {
			return err
		}
		return ev.emitLongLE(dst.addr)
	}
	if dst.kind == vAddress && src.kind == vRegister && src.regClass == regPC {
		if err := ev.emitWord(classLoad, loadModeStore, loadVariantSpecial, 4, line); err != nil {
			return err
		}
		return ev.emitLongLE(dst.addr)
	}

	return fmt.Errorf("line %d: unsupported ld operand combination", line)
}

// encodeLDH handles the zero-page ($FFFFFF00|offset) forms, LDH B0, [off8]
// and LDH [off8], B0, where off8 is a plain number (not a register). The
// CPU's LHB/SHB opcodes carry no register operand of their own; B0 is
// implicit.
func (ev *Evaluator) encodeLDH(args []value, line int) error {
	if len(args) != 2 {
		return fmt.Errorf("line %d: ldh expects 2 operands", line)
	}
	dst, src := args[0], args[1]
	if dst.kind == vRegister && dst.regClass == regByte && dst.regIndex == 0 && !dst.indirect && src.kind == vAddress {
		if err := ev.emitWord(classLoad, loadModeLoad, loadVariantSpecial, 0, line); err != nil {
			return err
		}
		return ev.emitByte(uint8(src.addr))
	}
	if dst.kind == vAddress && src.kind == vRegister && src.regClass == regByte && src.regIndex == 0 && !src.indirect {
		if err := ev.emitWord(classLoad, loadModeStore, loadVariantSpecial, 0, line); err != nil {
			return err
		}
		return ev.emitByte(uint8(dst.addr))
	}
	return fmt.Errorf("line %d: ldh expects [offset] on one side and B0 on the other", line)
}

func (ev *Evaluator) encodeMOV(args []value, line int) error {
	if len(args) != 2 {
		return fmt.Errorf("line %d: mov expects 2 operands", line)
	}
	dst, src := args[0], args[1]
	if dst.kind != vRegister || dst.indirect {
		return fmt.Errorf("line %d: mov destination must be a register", line)
	}
	if src.kind == vRegister && src.regClass == regSP && dst.regClass == regWord {
		return ev.emitWord(classLoad, loadModeMoveSPPC, 0, uint8(dst.regIndex), line)
	}
	if src.kind == vRegister && src.regClass == regPC && dst.regClass == regLong {
		return ev.emitWord(classLoad, loadModeMoveSPPC, 0, uint8(dst.regIndex)+8, line)
	}
	if src.kind != vRegister || src.indirect || src.regClass != dst.regClass {
		return fmt.Errorf("line %d: mov requires matching register widths", line)
	}
	switch dst.regClass {
	case regByte:
		return ev.emitWord(classLoad, loadModeMoveB, uint8(dst.regIndex), uint8(src.regIndex), line)
	case regWord:
		return ev.emitWord(classLoad, loadModeMoveW, uint8(dst.regIndex), uint8(src.regIndex), line)
	case regLong:
		return ev.emitWord(classLoad, loadModeMoveL, uint8(dst.regIndex), uint8(src.regIndex), line)
	}
	return fmt.Errorf("line %d: unsupported mov operand combination", line)
}

func (ev *Evaluator) encodePushPop(args []value, line int, dir uint8) error {
	if len(args) != 1 {
		return fmt.Errorf("line %d: expected 1 operand", line)
	}
	idx, err := requireReg(args[0], regLong, "long", line)
	if err != nil {
		return err
	}
	return ev.emitWord(classLoad, loadModePushPop, uint8(idx), dir, line)
}

// splitCondAddr pulls an optional leading condition off an operand list
// (JMP/CALL/RET all take `[cond,] addr` or just `cond` for RET).
func splitCondAddr(args []value) (cond uint8, rest []value) {
	if len(args) > 0 && args[0].kind == vCondition {
		return args[0].cond, args[1:]
	}
	return condNone, args
}

func (ev *Evaluator) encodeFlow(args []value, line int, mode uint8) error {
	cond, rest := splitCondAddr(args)
	if len(rest) != 1 || rest[0].kind != vAddress {
		return fmt.Errorf("line %d: expected [condition,] address", line)
	}
	if err := ev.emitWord(classFlow, mode, 0, cond, line); err != nil {
		return err
	}
	return ev.emitLongLE(rest[0].addr)
}

func (ev *Evaluator) encodeRet(args []value, line int) error {
	cond, rest := splitCondAddr(args)
	if len(rest) != 0 {
		return fmt.Errorf("line %d: ret takes at most a condition", line)
	}
	return ev.emitWord(classFlow, 0x3, 0, cond, line)
}

func (ev *Evaluator) encodeRst(args []value, line int) error {
	if len(args) != 1 || args[0].kind != vNumber {
		return fmt.Errorf("line %d: rst expects a vector number", line)
	}
	vec := int64(args[0].num)
	if vec < 0 || vec > 7 {
		return fmt.Errorf("line %d: rst vector must be 0-7", line)
	}
	return ev.emitWord(classFlow, 0x3, 5, uint8(vec), line)
}

func (ev *Evaluator) encodeIncDec(args []value, line int, inc bool) error {
	if len(args) != 1 {
		return fmt.Errorf("line %d: expected 1 operand", line)
	}
	v := args[0]
	mode := uint8(arithModeDec)
	if inc {
		mode = arithModeInc
	}
	switch {
	case v.kind == vRegister && v.regClass == regByte && !v.indirect:
		return ev.emitWord(classArith, mode, arithFamR8, uint8(v.regIndex), line)
	case v.kind == vRegister && v.regClass == regWord && !v.indirect:
		return ev.emitWord(classArith, mode, arithFamWide, uint8(v.regIndex), line)
	case v.kind == vRegister && v.regClass == regLong && !v.indirect:
		return ev.emitWord(classArith, mode, arithFamWide, uint8(v.regIndex)+8, line)
	case v.kind == vAddress:
		if err := ev.emitWord(classArith, mode, arithFamAbs, 0, line); err != nil {
			return err
		}
		return ev.emitLongLE(v.addr)
	case v.kind == vRegister && v.regClass == regLong && v.indirect:
		return ev.emitWord(classArith, mode, arithFamInd, uint8(v.regIndex), line)
	}
	return fmt.Errorf("line %d: unsupported inc/dec operand", line)
}

// encodeArith handles add/adc/sub/sbc: reg1's low two bits select the
// addressing variant (imm8/reg/abs32/indirect-Ln, same scheme encodeLogic
// uses) and reg1's bit 2 (arithCarryBit) picks ADC over ADD or SBC over SUB.
func (ev *Evaluator) encodeArith(args []value, line int, mode uint8, useCarry bool) error {
	if len(args) != 1 {
		return fmt.Errorf("line %d: expected 1 operand", line)
	}
	var carry uint8
	if useCarry {
		carry = arithCarryBit
	}
	v := args[0]
	switch {
	case v.kind == vNumber:
		if err := ev.emitWord(classArith, mode, carry|operandImm, 0, line); err != nil {
			return err
		}
		return ev.emitByte(uint8(int64(v.num)))
	case v.kind == vRegister && v.regClass == regByte && !v.indirect:
		return ev.emitWord(classArith, mode, carry|operandReg, uint8(v.regIndex), line)
	case v.kind == vAddress:
		if err := ev.emitWord(classArith, mode, carry|operandAbs, 0, line); err != nil {
			return err
		}
		return ev.emitLongLE(v.addr)
	case v.kind == vRegister && v.regClass == regLong && v.indirect:
		return ev.emitWord(classArith, mode, carry|operandInd, uint8(v.regIndex), line)
	}
	return fmt.Errorf("line %d: expected a byte register, immediate, address, or indirect long register", line)
}

// encodeLogic handles and/or/xor/cmp, which share encodeArith's addressing
// scheme (reg1 = variant) but carry no carry bit.
func (ev *Evaluator) encodeLogic(args []value, line int, mode uint8) error {
	if len(args) != 1 {
		return fmt.Errorf("line %d: expected 1 operand", line)
	}
	v := args[0]
	switch {
	case v.kind == vNumber:
		if err := ev.emitWord(classLogic, mode, operandImm, 0, line); err != nil {
			return err
		}
		return ev.emitByte(uint8(int64(v.num)))
	case v.kind == vRegister && v.regClass == regByte && !v.indirect:
		return ev.emitWord(classLogic, mode, operandReg, uint8(v.regIndex), line)
	case v.kind == vAddress:
		if err := ev.emitWord(classLogic, mode, operandAbs, 0, line); err != nil {
			return err
		}
		return ev.emitLongLE(v.addr)
	case v.kind == vRegister && v.regClass == regLong && v.indirect:
		return ev.emitWord(classLogic, mode, operandInd, uint8(v.regIndex), line)
	}
	return fmt.Errorf("line %d: expected a byte register, immediate, address, or indirect long register", line)
}

func (ev *Evaluator) encodeBitOp(args []value, line int, mode uint8) error {
	if len(args) != 2 {
		return fmt.Errorf("line %d: expected bit number and register", line)
	}
	bitVal, reg := args[0], args[1]
	if bitVal.kind != vNumber {
		return fmt.Errorf("line %d: expected a numeric bit index", line)
	}
	idx, err := requireReg(reg, regByte, "byte", line)
	if err != nil {
		return err
	}
	if err := ev.emitWord(classBit, mode, uint8(idx), 0, line); err != nil {
		return err
	}
	return ev.emitByte(uint8(int64(bitVal.num)) & 0x7)
}

func (ev *Evaluator) encodeShift(args []value, line int, mode uint8) error {
	if len(args) != 1 {
		return fmt.Errorf("line %d: expected 1 operand", line)
	}
	idx, err := requireReg(args[0], regByte, "byte", line)
	if err != nil {
		return err
	}
	return ev.emitWord(classShift, mode, uint8(idx), 0, line)
}
