package asm

import (
	"fmt"
	"strings"
)

// Disassemble renders prog as human-readable text, one instruction per
// line prefixed with its IP. It is a read-only diagnostic view used by
// the driver's --disasm flag and by tests; it does not affect VM
// semantics.
func Disassemble(prog *Program) string {
	var b strings.Builder
	for ip, instr := range prog.Instrs {
		fmt.Fprintf(&b, "%4d: %s", ip, instr.Op)
		if instr.Op == OpLabel {
			fmt.Fprintf(&b, " %s:", instr.Label)
		} else {
			switch instr.Operand.Kind {
			case OperandNone:
			case OperandU8:
				fmt.Fprintf(&b, " %d", instr.Operand.U8)
			case OperandI64:
				fmt.Fprintf(&b, " %d", instr.Operand.I64)
			case OperandU64:
				fmt.Fprintf(&b, " %d", instr.Operand.U64)
			case OperandF64:
				fmt.Fprintf(&b, " %g", instr.Operand.F64)
			case OperandNaN:
				fmt.Fprintf(&b, " <%s>", instr.Operand.NaN.Tag())
			case OperandStr:
				fmt.Fprintf(&b, " %q", instr.Operand.Str)
			case OperandType:
				fmt.Fprintf(&b, " <%s>", instr.Operand.Type)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
