package vmcore

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
)

// Run executes the program from the current IP until halt or the end
// of the instruction stream, or until the first fatal error. It is a
// single-threaded interpreter loop: each case fetches the instruction
// at the current IP, executes it, and advances IP itself.
func (vm *Instance) Run() error {
	for !vm.Halted && vm.IP < len(vm.Prog.Instrs) {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

func (vm *Instance) step() error {
	instr := vm.Prog.Instrs[vm.IP]

	switch instr.Op {
	case asm.OpLabel, asm.OpNop:
		vm.IP++
		return nil

	case asm.OpHalt:
		vm.Halted = true
		return nil

	case asm.OpPush:
		if err := vm.execPush(instr.Operand); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpPop:
		if err := vm.popAny(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpDup:
		n := int(instr.Operand.I64)
		v, err := vm.top(n)
		if err != nil {
			return err
		}
		if err := vm.push(v); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpSwap:
		if err := vm.swap(int(instr.Operand.I64)); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpSpush:
		if err := vm.execSpush(instr.Operand.Str); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpSpop:
		if err := vm.execSpop(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpIAdd, asm.OpISub, asm.OpIMul, asm.OpIDiv:
		if err := vm.execIntArith(instr.Op); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpFAdd, asm.OpFSub, asm.OpFMul, asm.OpFDiv:
		if err := vm.execFloatArith(instr.Op); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpInc:
		if err := vm.execIncDec(1); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpDec:
		if err := vm.execIncDec(-1); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpCmp:
		if err := vm.execCmp(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpNot:
		if err := vm.execNot(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpJmp:
		return vm.branchTo(instr.Operand, true)

	case asm.OpJe:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagE))
	case asm.OpJne:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagNE))
	case asm.OpJg:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagG))
	case asm.OpJl:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagL))
	case asm.OpJge:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagGE))
	case asm.OpJle:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagLE))
	case asm.OpJz:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagZ))
	case asm.OpJnz:
		return vm.branchTo(instr.Operand, vm.Flags.Has(value.FlagNZ))

	case asm.OpJmpIf:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.branchTo(instr.Operand, !v.IsFalsy())

	case asm.OpCall:
		target, ok := vm.Prog.ResolveTarget(instr.Operand)
		if !ok {
			return vm.fail(vmerr.IllegalInstructionAccess, errors.Errorf("call: unresolved branch target"))
		}
		if err := vm.pushCall(vm.IP + 1); err != nil {
			return err
		}
		vm.IP = target
		return nil

	case asm.OpRet:
		target, err := vm.popCall()
		if err != nil {
			return err
		}
		vm.IP = target
		return nil

	case asm.OpDmp, asm.OpDmpln:
		if err := vm.execPrint(instr.Op == asm.OpDmpln); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpPushMP:
		if err := vm.execPushMP(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpPushSP:
		if err := vm.execPushSP(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpWrite:
		if err := vm.execWrite(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpRead:
		if err := vm.execRead(int(instr.Operand.I64)); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpERead:
		if err := vm.execERead(); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpFRead:
		if err := vm.execFRead(instr.Operand); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpFWrite:
		if err := vm.execFWrite(instr.Operand); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpAlloc:
		if err := vm.execAlloc(int(instr.Operand.I64)); err != nil {
			return err
		}
		vm.IP++
		return nil

	case asm.OpNative:
		if err := vm.callNative(instr.Operand.Str, vm.loc()); err != nil {
			return err
		}
		vm.IP++
		return nil

	default:
		return vm.fail(vmerr.IllegalInstructionAccess, errors.Errorf("unimplemented instruction %s", instr.Op))
	}
}

// execPush handles the three operand shapes push can carry: a pre-boxed
// NaN value (int/float literals), a bare U8 (char literals), or a
// string (pushed byte-by-byte plus a Str header).
func (vm *Instance) execPush(op asm.Operand) error {
	switch op.Kind {
	case asm.OperandNaN:
		return vm.push(op.NaN)
	case asm.OperandU8:
		return vm.push(value.From(value.U8, int64(op.U8)))
	case asm.OperandStr:
		return vm.pushString(op.Str)
	default:
		return vm.fail(vmerr.InvalidType, errors.Errorf("push: unsupported operand kind %d", op.Kind))
	}
}

// branchTo jumps to op's resolved target if take is true, else falls
// through to the next instruction.
func (vm *Instance) branchTo(op asm.Operand, take bool) error {
	if !take {
		vm.IP++
		return nil
	}
	target, ok := vm.Prog.ResolveTarget(op)
	if !ok {
		return vm.fail(vmerr.IllegalInstructionAccess, errors.New("branch: unresolved target"))
	}
	vm.IP = target
	return nil
}

// execFRead dispatches fread to its fd or named-file form.
func (vm *Instance) execFRead(op asm.Operand) error {
	switch op.Kind {
	case asm.OperandI64:
		return vm.execFReadFD(op.I64)
	case asm.OperandStr:
		return vm.execFReadFile(op.Str)
	default:
		return vm.fail(vmerr.InvalidType, errors.Errorf("fread: unsupported operand kind %d", op.Kind))
	}
}

// execFWrite dispatches fwrite to its fd or named-file form.
func (vm *Instance) execFWrite(op asm.Operand) error {
	switch op.Kind {
	case asm.OperandI64:
		return vm.execFWriteFD(op.I64)
	case asm.OperandStr:
		return vm.execFWriteFile(op.Str)
	default:
		return vm.fail(vmerr.InvalidType, errors.Errorf("fwrite: unsupported operand kind %d", op.Kind))
	}
}

// execPrint implements dmp/dmpln: write the formatted ⊤ to stdout
// without removing it; for a Str, its bytes are reassembled.
func (vm *Instance) execPrint(newline bool) error {
	v, err := vm.top(0)
	if err != nil {
		return err
	}
	var text string
	if v.Tag() == value.Str {
		text, err = vm.peekString()
		if err != nil {
			return err
		}
	} else {
		text = formatValue(v)
	}
	var w io.Writer = vm.stdout
	if newline {
		text += "\n"
	}
	if _, werr := fmt.Fprint(w, text); werr != nil {
		return vm.fail(vmerr.FailedToReadFile, werr)
	}
	return nil
}
