package asm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/asm"
)

func TestDisassembleRendersOperands(t *testing.T) {
	prog := parse(t, "_start:\npush 1\npush 2\niadd\ndmpln\nhalt\n")
	out := asm.Disassemble(prog)
	require.True(t, strings.Contains(out, "push"))
	require.True(t, strings.Contains(out, "iadd"))
	require.True(t, strings.Contains(out, "halt"))
	require.Equal(t, len(prog.Instrs), strings.Count(out, "\n"))
}

func TestDisassembleLabel(t *testing.T) {
	prog := parse(t, "_start:\nhalt\n")
	out := asm.Disassemble(prog)
	require.True(t, strings.Contains(out, "_start:"))
}
