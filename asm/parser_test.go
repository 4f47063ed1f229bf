package asm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/lex"
)

func parse(t *testing.T, src string) *asm.Program {
	t.Helper()
	lines, err := lex.Tokenize("test.asm", strings.NewReader(src))
	require.NoError(t, err)
	prog, err := asm.Parse(lines)
	require.NoError(t, err)
	return prog
}

func TestParseSimpleProgram(t *testing.T) {
	prog := parse(t, "_start:\npush 1\npush 2\niadd\nhalt\n")
	require.Equal(t, 0, prog.Entry)
	require.Len(t, prog.Instrs, 5)
	require.Equal(t, asm.OpLabel, prog.Instrs[0].Op)
	require.Equal(t, asm.OpPush, prog.Instrs[1].Op)
	require.Equal(t, asm.OperandNaN, prog.Instrs[1].Operand.Kind)
	require.Equal(t, asm.OpHalt, prog.Instrs[4].Op)
}

func TestParseMissingEntryPointErrors(t *testing.T) {
	lines, err := lex.Tokenize("test.asm", strings.NewReader("push 1\nhalt\n"))
	require.NoError(t, err)
	_, err = asm.Parse(lines)
	require.Error(t, err)
}

func TestParseUnknownMnemonicErrors(t *testing.T) {
	lines, err := lex.Tokenize("test.asm", strings.NewReader("_start:\nbogus\nhalt\n"))
	require.NoError(t, err)
	_, err = asm.Parse(lines)
	require.Error(t, err)
}

func TestParseMissingOperandErrors(t *testing.T) {
	lines, err := lex.Tokenize("test.asm", strings.NewReader("_start:\npush\nhalt\n"))
	require.NoError(t, err)
	_, err = asm.Parse(lines)
	require.Error(t, err)
}

func TestParseLabelResolution(t *testing.T) {
	prog := parse(t, "_start:\njmp _end\n_end:\nhalt\n")
	ip, ok := prog.ResolveTarget(prog.Instrs[1].Operand)
	require.True(t, ok)
	require.Equal(t, prog.Labels["_end"], ip)
}

func TestParseCharOperand(t *testing.T) {
	prog := parse(t, "_start:\npush 'a'\nhalt\n")
	require.Equal(t, asm.OperandU8, prog.Instrs[1].Operand.Kind)
	require.Equal(t, byte('a'), prog.Instrs[1].Operand.U8)
}

func TestParseStrPushOperand(t *testing.T) {
	prog := parse(t, "_start:\nspush \"hi\"\nhalt\n")
	require.Equal(t, asm.OperandStr, prog.Instrs[1].Operand.Kind)
	require.Equal(t, "hi", prog.Instrs[1].Operand.Str)
}

func TestOpLookupAndString(t *testing.T) {
	op, ok := asm.Lookup("iadd")
	require.True(t, ok)
	require.Equal(t, "iadd", op.String())
	require.True(t, op.IsValid())

	_, ok = asm.Lookup("notareal")
	require.False(t, ok)
}
