package lex_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/lex"
)

func tokenize(t *testing.T, src string) []lex.Line {
	t.Helper()
	lines, err := lex.Tokenize("test.asm", strings.NewReader(src))
	require.NoError(t, err)
	return lines
}

func TestTokenizeBasicLine(t *testing.T) {
	lines := tokenize(t, "push 10")
	require.Len(t, lines, 1)
	require.Equal(t, lex.Literal, lines[0][0].Kind)
	require.Equal(t, "push", lines[0][0].Lexeme)
	require.Equal(t, lex.Int, lines[0][1].Kind)
	require.Equal(t, "10", lines[0][1].Lexeme)
}

func TestTokenizeLabel(t *testing.T) {
	lines := tokenize(t, "_loop:")
	require.Len(t, lines, 1)
	require.Equal(t, lex.Label, lines[0][0].Kind)
	require.Equal(t, "_loop", lines[0][0].Lexeme)
}

func TestTokenizeCommaSeparated(t *testing.T) {
	lines := tokenize(t, "write, 1, 2")
	require.Len(t, lines[0], 3)
	require.Equal(t, "write", lines[0][0].Lexeme)
	require.Equal(t, "1", lines[0][1].Lexeme)
	require.Equal(t, "2", lines[0][2].Lexeme)
}

func TestTokenizeString(t *testing.T) {
	lines := tokenize(t, `spush "hello   world"`)
	require.Equal(t, lex.Str, lines[0][1].Kind)
	require.Equal(t, "hello world", lines[0][1].Lexeme)
}

func TestTokenizeChar(t *testing.T) {
	lines := tokenize(t, "push 'a'")
	require.Equal(t, lex.Char, lines[0][1].Kind)
	require.Equal(t, "a", lines[0][1].Lexeme)
}

func TestTokenizeHexInt(t *testing.T) {
	lines := tokenize(t, "push 0xFF")
	require.Equal(t, lex.Int, lines[0][1].Kind)
	v, err := lex.ParseIntLiteral(lines[0][1].Lexeme)
	require.NoError(t, err)
	require.Equal(t, int64(0xFF), v)
}

func TestTokenizeNegativeInt(t *testing.T) {
	lines := tokenize(t, "push -42")
	v, err := lex.ParseIntLiteral(lines[0][1].Lexeme)
	require.NoError(t, err)
	require.Equal(t, int64(-42), v)
}

func TestTokenizeFloat(t *testing.T) {
	lines := tokenize(t, "push 3.14")
	require.Equal(t, lex.Float, lines[0][1].Kind)
}

func TestTokenizeComment(t *testing.T) {
	lines := tokenize(t, "push 1 ; comment trails off\npush 2")
	require.Len(t, lines, 2)
	require.Len(t, lines[0], 2)
}

func TestTokenizeMacroReference(t *testing.T) {
	lines := tokenize(t, "@double")
	require.Equal(t, lex.Literal, lines[0][0].Kind)
	require.Equal(t, "@double", lines[0][0].Lexeme)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := lex.Tokenize("test.asm", strings.NewReader(`spush "unterminated`))
	require.Error(t, err)
}

func TestTokenizeInvalidCharLiteralErrors(t *testing.T) {
	_, err := lex.Tokenize("test.asm", strings.NewReader("push 'ab'"))
	require.Error(t, err)
}

func TestTokenizeBlankLinesSkipped(t *testing.T) {
	lines := tokenize(t, "\n\npush 1\n\n")
	require.Len(t, lines, 1)
}
