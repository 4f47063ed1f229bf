// Package vmcore implements the VM execution engine: the operand and
// call stacks, linear memory, heap, flags register, native-function
// dispatch, and the single-threaded instruction dispatch loop described
// by the assembler's typed instruction stream.
package vmcore

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/heap"
	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
	"github.com/nboxvm/nbox/vmstack"
)

// Default stack capacities, per the spec's data model.
const (
	DefaultOperandCap = 1024
	DefaultCallCap    = 1024

	// MaxStringLen is the enforced cap on a Str cell's byte length,
	// per the design note on the string-cap open question.
	MaxStringLen = 128
)

// Option configures an Instance at construction time.
type Option func(*Instance) error

// WithStdout overrides the stream fd 2 writes to.
func WithStdout(w io.Writer) Option {
	return func(vm *Instance) error { vm.stdout = w; return nil }
}

// WithStderr overrides the stream fd 3 writes to.
func WithStderr(w io.Writer) Option {
	return func(vm *Instance) error { vm.stderr = w; return nil }
}

// WithStdin overrides the stream fd 1 reads from.
func WithStdin(r io.Reader) Option {
	return func(vm *Instance) error { vm.stdin = r; return nil }
}

// WithCapacities overrides the operand and call stack capacities.
func WithCapacities(operandCap, callCap int) Option {
	return func(vm *Instance) error {
		vm.Operand = vmstack.New[value.Value](operandCap)
		vm.Calls = vmstack.New[int](callCap)
		return nil
	}
}

// WithHeapLimits overrides the heap's starting capacity and hard cap.
func WithHeapLimits(initial, max int) Option {
	return func(vm *Instance) error {
		vm.Heap = heap.NewWithLimits(initial, max)
		return nil
	}
}

// Instance is one running VM: a program, an instruction pointer, the
// operand and call stacks, linear memory, heap, flags register, and
// native-function registry. It owns all of its resources exclusively;
// natives receive mutable access and are trusted to preserve
// invariants.
type Instance struct {
	Prog    *asm.Program
	IP      int
	Operand *vmstack.Bounded[value.Value]
	Calls   *vmstack.Bounded[int]
	Mem     *Memory
	Heap    *heap.Heap
	Flags   value.Flags
	Natives *Natives
	Halted  bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New constructs an Instance over prog and natives (which may be nil, in
// which case "native" instructions always fail), positioned at the
// program's entry IP.
func New(prog *asm.Program, natives *Natives, opts ...Option) (*Instance, error) {
	if natives == nil {
		natives = NewNatives()
	}
	vm := &Instance{
		Prog:    prog,
		IP:      prog.Entry,
		Operand: vmstack.New[value.Value](DefaultOperandCap),
		Calls:   vmstack.New[int](DefaultCallCap),
		Mem:     &Memory{},
		Heap:    heap.New(),
		Natives: natives,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		if err := opt(vm); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// loc returns the source location mapped to the current IP, for error
// reporting.
func (vm *Instance) loc() vmerr.Position {
	return vm.Prog.Locs[vm.IP]
}

// fail wraps cause as a vmerr.Error of the given kind at the current IP.
func (vm *Instance) fail(kind vmerr.Kind, cause error) error {
	return vmerr.Wrap(kind, vm.loc(), cause, cause.Error())
}

func (vm *Instance) push(v value.Value) error {
	if err := vm.Operand.Push(v); err != nil {
		return vm.fail(vmerr.StackOverflow, err)
	}
	return nil
}

func (vm *Instance) pop() (value.Value, error) {
	v, err := vm.Operand.Pop()
	if err != nil {
		return 0, vm.fail(vmerr.StackUnderflow, err)
	}
	return v, nil
}

func (vm *Instance) top(n int) (value.Value, error) {
	v, err := vm.Operand.Top(n)
	if err != nil {
		return 0, vm.fail(vmerr.StackUnderflow, err)
	}
	return v, nil
}

func (vm *Instance) swap(n int) error {
	if err := vm.Operand.Swap(n); err != nil {
		return vm.fail(vmerr.StackUnderflow, err)
	}
	return nil
}

func (vm *Instance) pushCall(ip int) error {
	if err := vm.Calls.Push(ip); err != nil {
		return vm.fail(vmerr.CallStackOverflow, err)
	}
	return nil
}

func (vm *Instance) popCall() (int, error) {
	ip, err := vm.Calls.Pop()
	if err != nil {
		return 0, vm.fail(vmerr.CallStackUnderflow, err)
	}
	return ip, nil
}

// pushString pushes s as a Str cell: one U8 cell per byte, bottom to
// top, followed by a Str header carrying the length.
func (vm *Instance) pushString(s string) error {
	if len(s) > MaxStringLen {
		return vm.fail(vmerr.BufferOverflow, errors.Errorf("string of length %d exceeds cap of %d bytes", len(s), MaxStringLen))
	}
	for i := 0; i < len(s); i++ {
		if err := vm.push(value.From(value.U8, int64(s[i]))); err != nil {
			return err
		}
	}
	return vm.push(value.From(value.Str, int64(len(s))))
}

// peekString reads the Str at ⊤ without removing it.
func (vm *Instance) peekString() (string, error) {
	header, err := vm.top(0)
	if err != nil {
		return "", err
	}
	if header.Tag() != value.Str {
		return "", vm.fail(vmerr.IllegalInstructionAccess, errors.Errorf("expected str on top of stack, found %s", header.Tag()))
	}
	n := int(header.As(value.Str))
	buf := make([]byte, n)
	for j := 0; j < n; j++ {
		c, err := vm.top(n - j)
		if err != nil {
			return "", err
		}
		buf[j] = byte(c.As(value.U8))
	}
	return string(buf), nil
}

// popString removes the Str at ⊤ along with its underlying byte cells
// and returns its contents.
func (vm *Instance) popString() (string, error) {
	s, err := vm.peekString()
	if err != nil {
		return "", err
	}
	if err := vm.Operand.PopN(len(s) + 1); err != nil {
		return "", vm.fail(vmerr.StackUnderflow, err)
	}
	return s, nil
}

// popAny drops ⊤, dropping its underlying bytes too if it is a Str.
func (vm *Instance) popAny() error {
	v, err := vm.top(0)
	if err != nil {
		return err
	}
	if v.Tag() == value.Str {
		_, err := vm.popString()
		return err
	}
	_, err = vm.pop()
	return err
}
