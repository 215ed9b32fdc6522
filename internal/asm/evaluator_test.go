package asm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembleSrc(t *testing.T, src string) *Result {
	t.Helper()
	readFile := func(path string) ([]byte, error) { return nil, fmt.Errorf("no includes in this test: %s", path) }
	ev := NewEvaluator(readFile, "test.asm")
	res, err := ev.Assemble([]byte(src), "test.asm")
	require.NoError(t, err, "source:\n%s", src)
	return res
}

func TestUnaryPlusNegatesLikeMinus(t *testing.T) {
	ev := NewEvaluator(nil, "t")
	ev.beginPass(false)
	toks, err := newLexer("+5", "t").Lex()
	require.NoError(t, err)
	stmts, err := ParseProgram(toks, "t")
	require.NoError(t, err)
	exprStmt, ok := stmts[0].(*ExprStmt)
	require.True(t, ok, "expected an expression statement, got %T", stmts[0])

	v, err := ev.evalExpr(exprStmt.Value)
	require.NoError(t, err)
	n, err := v.asInt()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), n, "preserved unary-plus-negates quirk")
}

func TestTwoPassForwardLabelResolution(t *testing.T) {
	src := `
size $300
section rom $200
def start:
jmp [loop]
def loop:
ld B0, 7
`
	res := assembleSrc(t, src)
	loopAddr, ok := res.Labels["loop"]
	require.True(t, ok, "expected label 'loop' to be resolved")
	startAddr, ok := res.Labels["start"]
	require.True(t, ok, "expected label 'start' to be resolved")
	assert.Equal(t, startAddr+6, loopAddr, "start + 6-byte JMP")

	// The JMP operand bytes (offset start+2..start+5) must carry loop's address.
	var operand uint32
	for i := uint32(0); i < 4; i++ {
		operand |= uint32(res.Bytes[startAddr+2+i]) << (8 * i)
	}
	assert.Equal(t, loopAddr, operand, "encoded JMP target")
}

func TestRAMSectionAutoBiased(t *testing.T) {
	src := `
size $300
section ram 0
def counter:
byte 0
section rom $200
ld B0, 1
`
	res := assembleSrc(t, src)
	addr := res.Labels["counter"]
	assert.Equal(t, uint32(wramBase), addr)
	_, wrote := res.Bytes[addr]
	assert.False(t, wrote, "a ram-section byte directive should not emit into the ROM image")
}

func TestShiftDropsLeadingParams(t *testing.T) {
	src := `
size $300
section rom $200
function firstarg(a, b, c) {
shift 1
a
}
ld B0, firstarg(10, 20, 30)
`
	res := assembleSrc(t, src)
	// firstarg(10,20,30) should shift away 10 and return the new first
	// positional argument, 20, as the immediate loaded into B0.
	assert.Equal(t, uint8(20), res.Bytes[romPayloadOffset+2])
}

func TestFunctionReturnsLastExpressionStatement(t *testing.T) {
	src := `
size $300
section rom $200
function double(n) {
n * 2
}
ld B0, double(21)
`
	res := assembleSrc(t, src)
	assert.Equal(t, uint8(42), res.Bytes[romPayloadOffset+2])
}

func TestStringEquality(t *testing.T) {
	ev := NewEvaluator(nil, "t")
	ev.beginPass(false)
	toks, err := newLexer(`"abc" == "abc"`, "t").Lex()
	require.NoError(t, err)
	stmts, err := ParseProgram(toks, "t")
	require.NoError(t, err)

	v, err := ev.evalExpr(stmts[0].(*ExprStmt).Value)
	require.NoError(t, err)
	assert.True(t, v.truthy(), `"abc" == "abc" should be truthy`)
}

func TestDeclaredSizeOverflowRejected(t *testing.T) {
	readFile := func(path string) ([]byte, error) { return nil, nil }
	ev := NewEvaluator(readFile, "t")
	src := `
size $210
section rom $200
long 1
long 2
long 3
long 4
long 5
`
	_, err := ev.Assemble([]byte(src), "t")
	assert.Error(t, err, "expected an error when the image exceeds the declared .size")
}
