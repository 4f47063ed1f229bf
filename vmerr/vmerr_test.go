package vmerr_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/vmerr"
)

func TestErrorStringWithPosition(t *testing.T) {
	pos := vmerr.Position{File: "a.asm", Row: 3, Col: 5}
	e := vmerr.New(vmerr.StackUnderflow, pos, "operand stack is empty")
	require.Equal(t, "a.asm:3:5: STACK_UNDERFLOW: operand stack is empty", e.Error())
}

func TestErrorStringWithoutPosition(t *testing.T) {
	e := vmerr.New(vmerr.NoEntryPoint, vmerr.Position{}, "missing _start")
	require.Equal(t, "NO_ENTRY_POINT: missing _start", e.Error())
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("underlying failure")
	e := vmerr.Wrap(vmerr.FailedToReadFile, vmerr.Position{}, cause, "could not read")
	require.ErrorIs(t, e, cause)
}

func TestNewfFormats(t *testing.T) {
	e := vmerr.Newf(vmerr.UndefinedSymbol, vmerr.Position{}, "unknown symbol %q", "frob")
	require.Contains(t, e.Error(), `"frob"`)
}

func TestFormatPlusVIncludesCause(t *testing.T) {
	cause := errors.New("root cause")
	e := vmerr.Wrap(vmerr.FailedToGrow, vmerr.Position{}, cause, "heap grow failed")
	out := fmt.Sprintf("%+v", e)
	require.Contains(t, out, "heap grow failed")
	require.Contains(t, out, "root cause")
}

func TestKindStringUnknown(t *testing.T) {
	var k vmerr.Kind = 9999
	require.Equal(t, "UNKNOWN", k.String())
}

func TestPositionIsValid(t *testing.T) {
	require.False(t, vmerr.Position{}.IsValid())
	require.True(t, vmerr.Position{File: "x.asm"}.IsValid())
}
