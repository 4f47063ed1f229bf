package vmcore

import (
	"github.com/pkg/errors"

	"github.com/nboxvm/nbox/asm"
	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
)

// execIntArith implements iadd/isub/imul/idiv: pop b, pop a, push the
// result typed as a's tag. Both operands must share a's tag.
func (vm *Instance) execIntArith(op asm.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Tag() == value.F64 || a.Tag() != b.Tag() {
		return vm.fail(vmerr.InvalidType, errors.Errorf("%s requires matching integer operand tags, got %s and %s", op, a.Tag(), b.Tag()))
	}
	av, bv := a.As(a.Tag()), b.As(a.Tag())
	var r int64
	switch op {
	case asm.OpIAdd:
		r = av + bv
	case asm.OpISub:
		r = av - bv
	case asm.OpIMul:
		r = av * bv
	case asm.OpIDiv:
		if bv == 0 {
			return vm.fail(vmerr.IllegalInstructionAccess, errors.New("integer division by zero"))
		}
		r = floorDiv(av, bv, a.Tag())
	}
	return vm.push(value.From(a.Tag(), r))
}

// floorDiv applies floor division for signed tags and truncating
// (equivalent) division for unsigned tags, per the spec's idiv note.
func floorDiv(a, b int64, tag value.Tag) int64 {
	switch tag {
	case value.U64, value.U32, value.U8:
		return a / b
	default:
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return q
	}
}

// execFloatArith implements fadd/fsub/fmul/fdiv over F64 operands.
func (vm *Instance) execFloatArith(op asm.Op) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Tag() != value.F64 || b.Tag() != value.F64 {
		return vm.fail(vmerr.InvalidType, errors.Errorf("%s requires F64 operands, got %s and %s", op, a.Tag(), b.Tag()))
	}
	af, bf := a.Float64(), b.Float64()
	var r float64
	switch op {
	case asm.OpFAdd:
		r = af + bf
	case asm.OpFSub:
		r = af - bf
	case asm.OpFMul:
		r = af * bf
	case asm.OpFDiv:
		r = af / bf
	}
	return vm.push(value.FromFloat64(r))
}

// execIncDec implements inc/dec: mutate ⊤ in place, integer or float.
func (vm *Instance) execIncDec(delta int64) error {
	v, err := vm.top(0)
	if err != nil {
		return err
	}
	var result value.Value
	if v.Tag() == value.F64 {
		result = value.FromFloat64(v.Float64() + float64(delta))
	} else {
		result = value.From(v.Tag(), v.As(v.Tag())+delta)
	}
	if err := vm.Operand.Set(0, result); err != nil {
		return vm.fail(vmerr.StackUnderflow, err)
	}
	return nil
}

// execCmp implements cmp: pop b, pop a, set flags from the ordered
// comparison a vs b. The comparison type is a's tag.
func (vm *Instance) execCmp() error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if a.Tag() != b.Tag() {
		return vm.fail(vmerr.InvalidType, errors.Errorf("cmp requires matching operand tags, got %s and %s", a.Tag(), b.Tag()))
	}
	var order int
	if a.Tag() == value.F64 {
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			order = -1
		case af > bf:
			order = 1
		default:
			order = 0
		}
	} else {
		av, bv := a.As(a.Tag()), b.As(a.Tag())
		switch {
		case av < bv:
			order = -1
		case av > bv:
			order = 1
		default:
			order = 0
		}
	}
	vm.Flags = value.FromOrder(order)
	return nil
}

// execNot implements not: bitwise-complement an integer/bool ⊤; for a
// Str, replaces it with a bool of len>0.
func (vm *Instance) execNot() error {
	v, err := vm.top(0)
	if err != nil {
		return err
	}
	switch v.Tag() {
	case value.Str:
		s, err := vm.popString()
		if err != nil {
			return err
		}
		b := int64(0)
		if len(s) > 0 {
			b = 1
		}
		return vm.push(value.From(value.Bool, b))
	case value.Bool:
		toggled := int64(1)
		if v.As(value.Bool) != 0 {
			toggled = 0
		}
		return vm.Operand.Set(0, value.From(value.Bool, toggled))
	default:
		return vm.Operand.Set(0, value.From(v.Tag(), ^v.As(v.Tag())))
	}
}
