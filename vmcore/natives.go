package vmcore

import "github.com/nboxvm/nbox/vmerr"

// Native is a host-supplied function callable from the VM via
// "native name". It receives the running Instance and is trusted to
// consume its declared argument count from, and push its results onto,
// the operand stack.
type Native func(vm *Instance) error

type nativeEntry struct {
	fn   Native
	argc int
}

// Natives is a name -> (function, argument count) registry, built once
// before execution starts. Registering under a name already in use
// overwrites the previous entry.
type Natives struct {
	fns map[string]nativeEntry
}

// NewNatives creates an empty registry.
func NewNatives() *Natives {
	return &Natives{fns: make(map[string]nativeEntry)}
}

// Register binds name to fn, declaring that fn expects argc values on
// the operand stack. A duplicate name overwrites the prior binding.
func (n *Natives) Register(name string, fn Native, argc int) {
	n.fns[name] = nativeEntry{fn: fn, argc: argc}
}

func (n *Natives) lookup(name string) (nativeEntry, bool) {
	if n == nil {
		return nativeEntry{}, false
	}
	e, ok := n.fns[name]
	return e, ok
}

// callNative invokes the registered native, failing if it is undeclared or if
// the operand stack does not hold at least its declared argument count.
func (vm *Instance) callNative(name string, pos vmerr.Position) error {
	e, ok := vm.Natives.lookup(name)
	if !ok {
		return vmerr.Newf(vmerr.UndefinedSymbol, pos, "native %q is not registered", name)
	}
	if vm.Operand.Len() < e.argc {
		return vmerr.Newf(vmerr.StackUnderflow, pos, "native %q requires %d operands, stack has %d", name, e.argc, vm.Operand.Len())
	}
	return e.fn(vm)
}
