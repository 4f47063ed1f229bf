package vmcore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/lex"
	"github.com/nboxvm/nbox/vmcore"
)

func TestNativesRegisterOverwrites(t *testing.T) {
	lines, err := lex.Tokenize("test.asm", strings.NewReader(`_start:
native "f"
halt
`))
	require.NoError(t, err)
	prog, err := asm.Parse(lines)
	require.NoError(t, err)

	n := vmcore.NewNatives()
	calls := 0
	n.Register("f", func(vm *vmcore.Instance) error { calls = 1; return nil }, 0)
	n.Register("f", func(vm *vmcore.Instance) error { calls = 2; return nil }, 0)

	vm, err := vmcore.New(prog, n)
	require.NoError(t, err)
	require.NoError(t, vm.Run())
	require.Equal(t, 2, calls)
}

func TestNativeArgcUnderflowErrors(t *testing.T) {
	lines, err := lex.Tokenize("test.asm", strings.NewReader(`_start:
native "needsargs"
halt
`))
	require.NoError(t, err)
	prog, err := asm.Parse(lines)
	require.NoError(t, err)

	n := vmcore.NewNatives()
	n.Register("needsargs", func(vm *vmcore.Instance) error { return nil }, 2)

	vm, err := vmcore.New(prog, n)
	require.NoError(t, err)
	require.Error(t, vm.Run())
}
