package vmcore

import (
	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/vmerr"
)

// execSpush extends the Str on top of the stack by appending extra,
// instead of pushing a new, independent Str.
func (vm *Instance) execSpush(extra string) error {
	s, err := vm.popString()
	if err != nil {
		return err
	}
	return vm.pushString(s + extra)
}

// execSpop shrinks the Str on top of the stack by one byte.
func (vm *Instance) execSpop() error {
	s, err := vm.popString()
	if err != nil {
		return err
	}
	if len(s) == 0 {
		return vm.fail(vmerr.StackUnderflow, errors.New("spop on an empty string"))
	}
	return vm.pushString(s[:len(s)-1])
}
