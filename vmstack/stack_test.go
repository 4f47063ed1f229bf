package vmstack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/vmstack"
)

func TestPushPop(t *testing.T) {
	s := vmstack.New[int](4)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.Equal(t, 2, s.Len())
	v, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, 2, v)
	require.Equal(t, 1, s.Len())
}

func TestOverflow(t *testing.T) {
	s := vmstack.New[int](2)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.ErrorIs(t, s.Push(3), vmstack.ErrOverflow)
}

func TestUnderflow(t *testing.T) {
	s := vmstack.New[int](2)
	_, err := s.Pop()
	require.ErrorIs(t, err, vmstack.ErrUnderflow)
}

func TestTopAndSwap(t *testing.T) {
	s := vmstack.New[int](4)
	s.Push(10)
	s.Push(20)
	s.Push(30)
	v, err := s.Top(1)
	require.NoError(t, err)
	require.Equal(t, 20, v)

	require.NoError(t, s.Swap(1))
	require.Equal(t, []int{10, 30, 20}, s.Slice())
}

func TestDupUnderflow(t *testing.T) {
	s := vmstack.New[int](4)
	s.Push(1)
	_, err := s.Top(5)
	require.ErrorIs(t, err, vmstack.ErrUnderflow)
	require.ErrorIs(t, s.Swap(5), vmstack.ErrUnderflow)
}
