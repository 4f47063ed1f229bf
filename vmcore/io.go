package vmcore

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
)

// fd routing, per the spec's resolved open question: 1 is read-only
// (stdin), 2 and 3 are write-only (stdout, stderr).
const (
	fdStdin  = 1
	fdStdout = 2
	fdStderr = 3
)

func (vm *Instance) writerFor(fd int64) (io.Writer, error) {
	switch fd {
	case fdStdout:
		return vm.stdout, nil
	case fdStderr:
		return vm.stderr, nil
	default:
		return nil, vmerr.Newf(vmerr.InvalidFD, vm.loc(), "fd %d is not writable", fd)
	}
}

func (vm *Instance) readerFor(fd int64) (io.Reader, error) {
	if fd == fdStdin {
		return vm.stdin, nil
	}
	return nil, vmerr.Newf(vmerr.InvalidFD, vm.loc(), "fd %d is not readable", fd)
}

// execPushMP pushes the current memory pointer.
func (vm *Instance) execPushMP() error {
	return vm.push(value.From(value.I64, int64(vm.Mem.MP())))
}

// execPushSP pushes the current operand stack length.
func (vm *Instance) execPushSP() error {
	n := int64(vm.Operand.Len())
	return vm.push(value.From(value.I64, n))
}

// execWrite stores the byte from ⊤-1 into memory[⊤].
func (vm *Instance) execWrite() error {
	idxVal, err := vm.pop()
	if err != nil {
		return err
	}
	byteVal, err := vm.pop()
	if err != nil {
		return err
	}
	idx := int(idxVal.As(idxVal.Tag()))
	if err := vm.Mem.Set(idx, byte(byteVal.As(byteVal.Tag()))); err != nil {
		return vm.fail(vmerr.IllegalMemoryAccess, err)
	}
	return nil
}

// execRead copies memory[start:start+n] onto the stack as U8 cells,
// start being popped from ⊤ and n the instruction operand.
func (vm *Instance) execRead(n int) error {
	startVal, err := vm.pop()
	if err != nil {
		return err
	}
	start := int(startVal.As(startVal.Tag()))
	bs, err := vm.Mem.Range(start, start+n)
	if err != nil {
		return vm.fail(vmerr.IllegalMemoryAccess, err)
	}
	for _, b := range bs {
		if err := vm.push(value.From(value.U8, int64(b))); err != nil {
			return err
		}
	}
	return nil
}

// execERead reads the single byte at absolute index ⊤.
func (vm *Instance) execERead() error {
	idxVal, err := vm.pop()
	if err != nil {
		return err
	}
	idx := int(idxVal.As(idxVal.Tag()))
	b, err := vm.Mem.At(idx)
	if err != nil {
		return vm.fail(vmerr.IllegalMemoryAccess, err)
	}
	return vm.push(value.From(value.U8, int64(b)))
}

// execFReadFD reads from fd up to a newline delimiter into memory[mp..],
// advancing mp, and pushes the number of bytes read.
func (vm *Instance) execFReadFD(fd int64) error {
	r, err := vm.readerFor(fd)
	if err != nil {
		return err
	}
	line, rerr := bufio.NewReader(r).ReadString('\n')
	if rerr != nil && rerr != io.EOF {
		return vm.fail(vmerr.FailedToReadFile, rerr)
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return vm.reserveAndWrite(line)
}

// execFReadFile reads the whole named file into memory[mp..].
func (vm *Instance) execFReadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied fread path
	if err != nil {
		return vm.fail(vmerr.FailedToReadFile, err)
	}
	return vm.reserveAndWrite(string(data))
}

func (vm *Instance) reserveAndWrite(data string) error {
	start, err := vm.Mem.Reserve(len(data))
	if err != nil {
		return err
	}
	for i := 0; i < len(data); i++ {
		if err := vm.Mem.Set(start+i, data[i]); err != nil {
			return vm.fail(vmerr.IllegalMemoryAccess, err)
		}
	}
	return vm.push(value.From(value.I64, int64(len(data))))
}

// execFWriteFD writes memory[start:end] to fd, start and end popped
// from the stack (end on top).
func (vm *Instance) execFWriteFD(fd int64) error {
	w, err := vm.writerFor(fd)
	if err != nil {
		return err
	}
	endVal, err := vm.pop()
	if err != nil {
		return err
	}
	startVal, err := vm.pop()
	if err != nil {
		return err
	}
	bs, err := vm.Mem.Range(int(startVal.As(startVal.Tag())), int(endVal.As(endVal.Tag())))
	if err != nil {
		return vm.fail(vmerr.IllegalMemoryAccess, err)
	}
	if _, werr := w.Write(bs); werr != nil {
		return vm.fail(vmerr.FailedToReadFile, werr)
	}
	return nil
}

// execFWriteFile writes memory[start:end] to the named file.
func (vm *Instance) execFWriteFile(path string) error {
	endVal, err := vm.pop()
	if err != nil {
		return err
	}
	startVal, err := vm.pop()
	if err != nil {
		return err
	}
	bs, err := vm.Mem.Range(int(startVal.As(startVal.Tag())), int(endVal.As(endVal.Tag())))
	if err != nil {
		return vm.fail(vmerr.IllegalMemoryAccess, err)
	}
	if werr := os.WriteFile(path, bs, 0o666); werr != nil { // #nosec G306 -- operator-supplied fwrite path
		return vm.fail(vmerr.FailedToReadFile, werr)
	}
	return nil
}

// execAlloc ensures the heap can satisfy n additional bytes and pushes
// the offset of the new region.
func (vm *Instance) execAlloc(n int) error {
	offset, err := vm.Heap.Alloc(n)
	if err != nil {
		return vm.fail(vmerr.FailedToGrow, errors.Wrapf(err, "alloc %d bytes", n))
	}
	return vm.push(value.From(value.I64, int64(offset)))
}
