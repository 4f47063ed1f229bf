// Package asm parses the expanded token stream produced by the lex
// package into a typed instruction stream, validating mnemonics and
// operand shapes along the way.
package asm

import (
	"github.com/nboxvm/nbox/lex"
	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
)

// Op identifies an instruction mnemonic.
type Op uint8

// Instruction mnemonics.
const (
	OpPush Op = iota
	OpPop
	OpDup
	OpSwap
	OpSpush
	OpSpop
	OpIAdd
	OpISub
	OpIMul
	OpIDiv
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpInc
	OpDec
	OpCmp
	OpJmp
	OpJe
	OpJne
	OpJg
	OpJl
	OpJge
	OpJle
	OpJz
	OpJnz
	OpJmpIf
	OpNot
	OpCall
	OpRet
	OpDmp
	OpDmpln
	OpPushMP
	OpPushSP
	OpWrite
	OpRead
	OpERead
	OpFRead
	OpFWrite
	OpAlloc
	OpHalt
	OpNop
	OpLabel
	OpNative
	opCount
)

var opNames = [...]string{
	OpPush:    "push",
	OpPop:     "pop",
	OpDup:     "dup",
	OpSwap:    "swap",
	OpSpush:   "spush",
	OpSpop:    "spop",
	OpIAdd:    "iadd",
	OpISub:    "isub",
	OpIMul:    "imul",
	OpIDiv:    "idiv",
	OpFAdd:    "fadd",
	OpFSub:    "fsub",
	OpFMul:    "fmul",
	OpFDiv:    "fdiv",
	OpInc:     "inc",
	OpDec:     "dec",
	OpCmp:     "cmp",
	OpJmp:     "jmp",
	OpJe:      "je",
	OpJne:     "jne",
	OpJg:      "jg",
	OpJl:      "jl",
	OpJge:     "jge",
	OpJle:     "jle",
	OpJz:      "jz",
	OpJnz:     "jnz",
	OpJmpIf:   "jmp_if",
	OpNot:     "not",
	OpCall:    "call",
	OpRet:     "ret",
	OpDmp:     "dmp",
	OpDmpln:   "dmpln",
	OpPushMP:  "pushmp",
	OpPushSP:  "pushsp",
	OpWrite:   "write",
	OpRead:    "read",
	OpERead:   "eread",
	OpFRead:   "fread",
	OpFWrite:  "fwrite",
	OpAlloc:   "alloc",
	OpHalt:    "halt",
	OpNop:     "nop",
	OpLabel:   "label",
	OpNative:  "native",
}

func (o Op) String() string {
	if int(o) < len(opNames) && opNames[o] != "" {
		return opNames[o]
	}
	return "???"
}

// IsValid reports whether o is within the defined mnemonic range, the
// same bound the image codec uses to reject a corrupt instruction-type
// ordinal on load.
func (o Op) IsValid() bool { return o < opCount }

// mnemonics maps source lexemes to Op, built once from opNames.
var mnemonics map[string]Op

func init() {
	mnemonics = make(map[string]Op, len(opNames))
	for op, name := range opNames {
		if name != "" {
			mnemonics[name] = Op(op)
		}
	}
}

// Lookup maps a lexeme to its Op, if it names one.
func Lookup(lexeme string) (Op, bool) {
	op, ok := mnemonics[lexeme]
	return op, ok
}

// opSpec declares, for one mnemonic, whether it takes an operand and
// which token kinds are acceptable for it.
type opSpec struct {
	operand bool
	accepts []lex.Kind
}

var specs = map[Op]opSpec{
	OpPush:   {true, []lex.Kind{lex.Int, lex.Float, lex.Char, lex.Str}},
	OpPop:    {false, nil},
	OpDup:    {true, []lex.Kind{lex.Int}},
	OpSwap:   {true, []lex.Kind{lex.Int}},
	OpSpush:  {true, []lex.Kind{lex.Str}},
	OpSpop:   {false, nil},
	OpIAdd:   {false, nil},
	OpISub:   {false, nil},
	OpIMul:   {false, nil},
	OpIDiv:   {false, nil},
	OpFAdd:   {false, nil},
	OpFSub:   {false, nil},
	OpFMul:   {false, nil},
	OpFDiv:   {false, nil},
	OpInc:    {false, nil},
	OpDec:    {false, nil},
	OpCmp:    {false, nil},
	OpJmp:    {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJe:     {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJne:    {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJg:     {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJl:     {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJge:    {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJle:    {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJz:     {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJnz:    {true, []lex.Kind{lex.Literal, lex.Int}},
	OpJmpIf:  {true, []lex.Kind{lex.Literal, lex.Int}},
	OpNot:    {false, nil},
	OpCall:   {true, []lex.Kind{lex.Literal, lex.Int}},
	OpRet:    {false, nil},
	OpDmp:    {false, nil},
	OpDmpln:  {false, nil},
	OpPushMP: {false, nil},
	OpPushSP: {false, nil},
	OpWrite:  {false, nil},
	OpRead:   {true, []lex.Kind{lex.Int}},
	OpERead:  {false, nil},
	OpFRead:  {true, []lex.Kind{lex.Int, lex.Str}},
	OpFWrite: {true, []lex.Kind{lex.Int, lex.Str}},
	OpAlloc:  {true, []lex.Kind{lex.Int}},
	OpHalt:   {false, nil},
	OpNop:    {false, nil},
	OpNative: {true, []lex.Kind{lex.Str, lex.Literal}},
}

// OperandKind identifies the variant held by an Operand.
type OperandKind uint8

// Operand variants, per the spec's tagged-union operand model.
const (
	OperandNone OperandKind = iota
	OperandU8
	OperandI64
	OperandU64
	OperandF64
	OperandNaN
	OperandStr
	OperandType
)

// Operand is the immutable operand carried by an Instruction.
type Operand struct {
	Kind OperandKind
	U8   uint8
	I64  int64
	U64  uint64
	F64  float64
	NaN  value.Value
	Str  string
	Type value.Tag
}

// Instruction is a single parsed (mnemonic, operand) pair.
type Instruction struct {
	Op      Op
	Operand Operand
	// Label is the name carried by an OpLabel instruction; empty otherwise.
	Label string
}

// Program is the output of parsing: the instruction stream, label and
// source-location maps, and the entry IP (the _start label's IP).
type Program struct {
	Instrs []Instruction
	Labels map[string]int
	Locs   map[int]vmerr.Position
	Entry  int
}

// ResolveTarget turns a branch/call operand into a concrete IP: a
// numeric operand is a direct IP, a Str operand is a label lookup.
func (p *Program) ResolveTarget(op Operand) (int, bool) {
	switch op.Kind {
	case OperandI64:
		return int(op.I64), true
	case OperandU64:
		return int(op.U64), true
	case OperandStr:
		ip, ok := p.Labels[op.Str]
		return ip, ok
	default:
		return 0, false
	}
}
