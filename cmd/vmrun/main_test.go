package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSourceFile(t *testing.T) {
	require.True(t, isSourceFile("prog.asm"))
	require.True(t, isSourceFile("prog.nbox"))
	require.True(t, isSourceFile("prog"))
	require.False(t, isSourceFile("prog.img"))
}

func TestLoadProgramExpandsMacrosAndDefinesPreprocessor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.asm")
	src := `#double n {
push n
push n
iadd
}
_start:
@double 21
halt
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	prog, pp, err := loadProgram(path, "")
	require.NoError(t, err)
	require.NotNil(t, prog)
	require.NotNil(t, pp)

	macros := pp.Macros.Dump()
	require.Len(t, macros, 1)
	require.Equal(t, "double", macros[0].Name)
}

func TestFormatMacroDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.asm")
	src := `#one
push 1
#two n {
push @n
}
_start:
halt
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	_, pp, err := loadProgram(path, "")
	require.NoError(t, err)

	out := formatMacroDump(pp.Macros.Dump())
	require.Equal(t, "one: single\ntwo: multi(n)\n", out)
}
