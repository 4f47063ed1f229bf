package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nboxvm/nbox/heap"
)

func TestAllocDoubles(t *testing.T) {
	h := heap.New()
	require.Equal(t, heap.InitialCapacity, h.Cap())

	off, err := h.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, 0, off)
	require.Equal(t, 100, h.Len())

	off, err = h.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, 100, off)
	require.Greater(t, h.Cap(), heap.InitialCapacity)
}

func TestAllocFailsPastCap(t *testing.T) {
	h := heap.New()
	_, err := h.Alloc(heap.Cap + 1)
	require.ErrorIs(t, err, heap.ErrFailedToGrow)
}

func TestSetAndAt(t *testing.T) {
	h := heap.New()
	_, err := h.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, h.Set(2, 0x42))
	v, err := h.At(2)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), v)

	_, err = h.At(10)
	require.Error(t, err)
}
