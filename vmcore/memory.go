package vmcore

import "github.com/nboxvm/nbox/vmerr"

// MemorySize is the fixed size of the VM's linear scratch memory.
const MemorySize = 8192

// Memory is the VM's fixed byte array with a moving pointer mp tracking
// the first unused byte, per the spec's memory model.
type Memory struct {
	buf [MemorySize]byte
	mp  int
}

// MP returns the current memory pointer.
func (m *Memory) MP() int { return m.mp }

// Bytes returns the whole backing array; callers reading a sub-range
// should bounds-check against MemorySize themselves.
func (m *Memory) Bytes() []byte { return m.buf[:] }

// At reads the byte at absolute offset idx.
func (m *Memory) At(idx int) (byte, error) {
	if idx < 0 || idx >= MemorySize {
		return 0, vmerr.Newf(vmerr.IllegalMemoryAccess, vmerr.Position{}, "memory index %d out of range [0,%d)", idx, MemorySize)
	}
	return m.buf[idx], nil
}

// Set writes the byte at absolute offset idx, advancing mp if idx falls
// at or beyond it.
func (m *Memory) Set(idx int, v byte) error {
	if idx < 0 || idx >= MemorySize {
		return vmerr.Newf(vmerr.IllegalMemoryAccess, vmerr.Position{}, "memory index %d out of range [0,%d)", idx, MemorySize)
	}
	m.buf[idx] = v
	if idx >= m.mp {
		m.mp = idx + 1
	}
	return nil
}

// Reserve advances mp by n bytes and returns the start offset of the new
// region, failing if it would run past MemorySize. Used by instructions
// (fread) that append to memory starting at mp.
func (m *Memory) Reserve(n int) (start int, err error) {
	start = m.mp
	if start+n > MemorySize {
		return 0, vmerr.Newf(vmerr.ReadBufOverflow, vmerr.Position{}, "read of %d bytes at mp=%d overflows memory of size %d", n, start, MemorySize)
	}
	m.mp = start + n
	return start, nil
}

// Range returns a copy of buf[start:end], validating bounds.
func (m *Memory) Range(start, end int) ([]byte, error) {
	if start < 0 || end > MemorySize || start > end {
		return nil, vmerr.Newf(vmerr.IllegalMemoryAccess, vmerr.Position{}, "memory range [%d,%d) out of bounds", start, end)
	}
	out := make([]byte, end-start)
	copy(out, m.buf[start:end])
	return out, nil
}
