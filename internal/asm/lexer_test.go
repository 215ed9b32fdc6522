package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexFloatThenDotThenNumberQuirk(t *testing.T) {
	// Preserved quirk: "1.2.3" lexes as FLOAT(1.2), DOT, NUMBER(3), not an
	// error -- the lexer greedily consumes the first float and just resumes.
	toks, err := newLexer("1.2.3", "t").Lex()
	require.NoError(t, err)

	want := []tokenKind{tokFloat, tokDot, tokNumber, tokEOF}
	require.Len(t, toks, len(want))
	for i, k := range want {
		assert.Equal(t, k, toks[i].kind, "token %d", i)
	}
	assert.Equal(t, 1.2, toks[0].num)
	assert.Equal(t, int64(3), toks[2].ival)
}

func TestLexRadixLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want int64
	}{
		{"$FF", 0xFF},
		{"%1010", 0b1010},
		{"&17", 0o17},
	}
	for _, c := range cases {
		toks, err := newLexer(c.src, "t").Lex()
		require.NoError(t, err, c.src)
		assert.Equal(t, tokNumber, toks[0].kind, c.src)
		assert.Equal(t, c.want, toks[0].ival, c.src)
	}
}

func TestLexAmpersandDisambiguatesFromOctal(t *testing.T) {
	toks, err := newLexer("1 & 2", "t").Lex()
	require.NoError(t, err)
	assert.Equal(t, tokAmp, toks[1].kind, "bitwise-and, not an octal prefix")
}

func TestLexPixelLiteralPacksBitplanes(t *testing.T) {
	// digit 3 = binary 11 -> bit set in both planes; digit 0 -> clear in both.
	toks, err := newLexer("`33000000", "t").Lex()
	require.NoError(t, err)
	require.Equal(t, tokPixel, toks[0].kind)

	// First two pixels (MSB-first) are digit 3: low and high plane bits 7,6 set.
	low := uint8(toks[0].ival & 0xFF)
	high := uint8((toks[0].ival >> 8) & 0xFF)
	assert.Equal(t, uint8(0b1100_0000), low&0b1100_0000)
	assert.Equal(t, uint8(0b1100_0000), high&0b1100_0000)
}

func TestLexPixelLiteralRejectsBadDigit(t *testing.T) {
	_, err := newLexer("`33000004", "t").Lex()
	assert.Error(t, err)
}

func TestLexKeywordsCaseFolded(t *testing.T) {
	toks, err := newLexer("REPEAT Repeat repeat", "t").Lex()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, tokKeyword, toks[i].kind, "token %d (%q)", i, toks[i].lexeme)
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := newLexer(`"a\nb\tc\"d"`, "t").Lex()
	require.NoError(t, err)
	assert.Equal(t, "a\nb\tc\"d", toks[0].lexeme)
}
