package vmcore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/heap"
	"github.com/nboxvm/nbox/lex"
	"github.com/nboxvm/nbox/vmcore"
)

func minimalProgram(t *testing.T) *asm.Program {
	t.Helper()
	lines, err := lex.Tokenize("test.asm", strings.NewReader("_start:\nhalt\n"))
	require.NoError(t, err)
	prog, err := asm.Parse(lines)
	require.NoError(t, err)
	return prog
}

func TestNewDefaults(t *testing.T) {
	vm, err := vmcore.New(minimalProgram(t), nil)
	require.NoError(t, err)
	require.Equal(t, vmcore.DefaultOperandCap, vm.Operand.Cap())
	require.Equal(t, vmcore.DefaultCallCap, vm.Calls.Cap())
	require.Equal(t, heap.InitialCapacity, vm.Heap.Cap())
}

func TestWithCapacitiesOverrides(t *testing.T) {
	vm, err := vmcore.New(minimalProgram(t), nil, vmcore.WithCapacities(8, 4))
	require.NoError(t, err)
	require.Equal(t, 8, vm.Operand.Cap())
	require.Equal(t, 4, vm.Calls.Cap())
}

func TestWithHeapLimitsOverrides(t *testing.T) {
	vm, err := vmcore.New(minimalProgram(t), nil, vmcore.WithHeapLimits(16, 32))
	require.NoError(t, err)
	require.Equal(t, 16, vm.Heap.Cap())
	require.Equal(t, 32, vm.Heap.Max())
}

func TestStringPushOverMaxLenErrors(t *testing.T) {
	long := strings.Repeat("x", vmcore.MaxStringLen+1)
	src := `_start:
push "` + long + `"
halt
`
	lines, err := lex.Tokenize("test.asm", strings.NewReader(src))
	require.NoError(t, err)
	prog, err := asm.Parse(lines)
	require.NoError(t, err)
	vm, err := vmcore.New(prog, nil)
	require.NoError(t, err)
	require.Error(t, vm.Run())
}

func TestPopDropsWholeString(t *testing.T) {
	src := `_start:
push "abc"
pop
halt
`
	lines, err := lex.Tokenize("test.asm", strings.NewReader(src))
	require.NoError(t, err)
	prog, err := asm.Parse(lines)
	require.NoError(t, err)
	vm, err := vmcore.New(prog, nil)
	require.NoError(t, err)
	require.NoError(t, vm.Run())
	require.Equal(t, 0, vm.Operand.Len())
}
