// Package heap implements the VM's growable byte buffer: a
// doubling-allocated region capped at a hard maximum size.
package heap

import "github.com/pkg/errors"

// Cap is the hard upper bound on heap size, per the spec.
const Cap = 1 << 20 // 1,048,576 bytes

// InitialCapacity is the heap's starting backing-array size.
const InitialCapacity = 128

// ErrFailedToGrow is returned when Alloc would require growing past Cap.
var ErrFailedToGrow = errors.New("heap: failed to grow past capacity")

// Heap is a doubling byte buffer with a logical usage pointer hp and a
// hard cap on total capacity.
type Heap struct {
	buf []byte
	hp  int
	max int
}

// New creates a Heap with InitialCapacity bytes of backing storage and
// the package's default hard cap.
func New() *Heap {
	return &Heap{buf: make([]byte, InitialCapacity), max: Cap}
}

// NewWithLimits creates a Heap with a custom starting capacity and hard
// cap, for configurations that override the spec's defaults.
func NewWithLimits(initial, max int) *Heap {
	return &Heap{buf: make([]byte, initial), max: max}
}

// Len returns the logical usage pointer (hp).
func (h *Heap) Len() int { return h.hp }

// Cap returns the current backing-array capacity.
func (h *Heap) Cap() int { return len(h.buf) }

// Max returns the hard cap this heap may grow to.
func (h *Heap) Max() int { return h.max }

// Alloc ensures the heap can hold n additional bytes beyond hp, doubling
// the backing array as needed up to its hard cap. It returns
// ErrFailedToGrow if the request cannot be satisfied, and otherwise
// advances hp by n and returns the offset at which the new region
// begins.
func (h *Heap) Alloc(n int) (offset int, err error) {
	need := h.hp + n
	if need > h.max {
		return 0, ErrFailedToGrow
	}
	for need > len(h.buf) {
		grown := len(h.buf) * 2
		if grown > h.max {
			grown = h.max
		}
		if grown <= len(h.buf) {
			return 0, ErrFailedToGrow
		}
		nb := make([]byte, grown)
		copy(nb, h.buf)
		h.buf = nb
	}
	offset = h.hp
	h.hp = need
	return offset, nil
}

// Bytes returns the live (0..hp) portion of the heap. Mutating it is
// reflected in the heap; reslicing is not.
func (h *Heap) Bytes() []byte { return h.buf[:h.hp] }

// At returns the byte at absolute offset idx.
func (h *Heap) At(idx int) (byte, error) {
	if idx < 0 || idx >= h.hp {
		return 0, errors.Errorf("heap: index %d out of range [0,%d)", idx, h.hp)
	}
	return h.buf[idx], nil
}

// Set writes the byte at absolute offset idx.
func (h *Heap) Set(idx int, v byte) error {
	if idx < 0 || idx >= h.hp {
		return errors.Errorf("heap: index %d out of range [0,%d)", idx, h.hp)
	}
	h.buf[idx] = v
	return nil
}
