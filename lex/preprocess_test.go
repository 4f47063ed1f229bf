package lex_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/lex"
)

func preprocess(t *testing.T, src string) []lex.Line {
	t.Helper()
	pp := lex.NewPreprocessor("")
	lines, err := pp.Preprocess("main.asm", []byte(src))
	require.NoError(t, err)
	return lines
}

func lexemes(line lex.Line) []string {
	out := make([]string, len(line))
	for i, tok := range line {
		out[i] = tok.Lexeme
	}
	return out
}

func TestPreprocessSingleMacro(t *testing.T) {
	lines := preprocess(t, "#TWO 2\npush @TWO\n")
	require.Len(t, lines, 1)
	require.Equal(t, []string{"push", "2"}, lexemes(lines[0]))
}

func TestPreprocessMultiMacro(t *testing.T) {
	src := "#DOUBLE x {\npush x\npush x\niadd\n}\n@DOUBLE 5\n"
	lines := preprocess(t, src)
	require.Len(t, lines, 3)
	require.Equal(t, []string{"push", "5"}, lexemes(lines[0]))
	require.Equal(t, []string{"push", "5"}, lexemes(lines[1]))
	require.Equal(t, []string{"iadd"}, lexemes(lines[2]))
}

func TestPreprocessUndefinedMacroErrors(t *testing.T) {
	pp := lex.NewPreprocessor("")
	_, err := pp.Preprocess("main.asm", []byte("push @missing\n"))
	require.Error(t, err)
}

func TestPreprocessRecursiveMacroErrors(t *testing.T) {
	src := "#A @B\n#B @A\npush @A\n"
	pp := lex.NewPreprocessor("")
	_, err := pp.Preprocess("main.asm", []byte(src))
	require.Error(t, err)
}

func TestPreprocessInclude(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "consts.asm")
	require.NoError(t, os.WriteFile(inc, []byte("#FIVE 5\n"), 0o600))

	main := filepath.Join(dir, "main.asm")
	src := "#\"consts.asm\"\npush @FIVE\n"

	pp := lex.NewPreprocessor("")
	lines, err := pp.Preprocess(main, []byte(src))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, []string{"push", "5"}, lexemes(lines[0]))
}

func TestPreprocessMacroRedefinitionOverrides(t *testing.T) {
	src := "#X 1\n#X 2\npush @X\n"
	lines := preprocess(t, src)
	require.Equal(t, []string{"push", "2"}, lexemes(lines[0]))
}
