package asm

import (
	"strconv"

	"github.com/nboxvm/nbox/lex"
	"github.com/nboxvm/nbox/value"
	"github.com/nboxvm/nbox/vmerr"
)

// entryLabel is the label naming the program's entry point.
const entryLabel = "_start"

// Parse consumes fully macro-expanded token lines (lex.Preprocess's
// output) and builds the typed instruction stream, label map, and
// per-instruction source-location map. Parsing stops at the first
// error encountered.
func Parse(lines []lex.Line) (*Program, error) {
	var toks []lex.Token
	for _, l := range lines {
		toks = append(toks, l...)
	}

	prog := &Program{
		Labels: make(map[string]int),
		Locs:   make(map[int]vmerr.Position),
		Entry:  -1,
	}

	i := 0
	for i < len(toks) {
		tok := toks[i]

		if tok.Kind == lex.Label {
			ip := len(prog.Instrs)
			prog.Labels[tok.Lexeme] = ip
			prog.Locs[ip] = tok.Pos
			if tok.Lexeme == entryLabel {
				prog.Entry = ip
			}
			prog.Instrs = append(prog.Instrs, Instruction{Op: OpLabel, Label: tok.Lexeme})
			i++
			continue
		}

		op, ok := Lookup(tok.Lexeme)
		if !ok {
			return nil, vmerr.Newf(vmerr.UndefinedSymbol, tok.Pos, "unknown symbol %q", tok.Lexeme)
		}
		spec := specs[op]

		var operand Operand
		if spec.operand {
			i++
			if i >= len(toks) {
				return nil, vmerr.Newf(vmerr.NoOperand, tok.Pos, "%s requires an operand", tok.Lexeme)
			}
			argTok := toks[i]
			if !acceptsKind(spec.accepts, argTok.Kind) {
				return nil, vmerr.Newf(vmerr.InvalidType, argTok.Pos, "%s: operand kind %s not acceptable", tok.Lexeme, argTok.Kind)
			}
			var err error
			operand, err = buildOperand(op, argTok)
			if err != nil {
				return nil, err
			}
		}

		ip := len(prog.Instrs)
		prog.Locs[ip] = tok.Pos
		prog.Instrs = append(prog.Instrs, Instruction{Op: op, Operand: operand})
		i++
	}

	if prog.Entry < 0 {
		return nil, vmerr.New(vmerr.NoEntryPoint, vmerr.Position{}, "no "+entryLabel+" label found")
	}
	return prog, nil
}

func acceptsKind(kinds []lex.Kind, k lex.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

// buildOperand converts an operand token into the Operand union per the
// uniform mapping in spec §4.3: char -> U8, int -> I64, float -> F64,
// str/label/literal -> Str. push additionally pre-boxes int/float
// operands into a NaN-boxed Value.
func buildOperand(op Op, tok lex.Token) (Operand, error) {
	switch tok.Kind {
	case lex.Char:
		if len(tok.Lexeme) != 1 {
			return Operand{}, vmerr.New(vmerr.InvalidChar, tok.Pos, "char literal must be exactly one byte")
		}
		return Operand{Kind: OperandU8, U8: tok.Lexeme[0]}, nil
	case lex.Int:
		v, err := lex.ParseIntLiteral(tok.Lexeme)
		if err != nil {
			return Operand{}, vmerr.Wrap(vmerr.InvalidLiteral, tok.Pos, err, "invalid integer literal "+tok.Lexeme)
		}
		if op == OpPush {
			return Operand{Kind: OperandNaN, NaN: value.From(value.I64, v)}, nil
		}
		return Operand{Kind: OperandI64, I64: v}, nil
	case lex.Float:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return Operand{}, vmerr.Wrap(vmerr.InvalidLiteral, tok.Pos, err, "invalid float literal "+tok.Lexeme)
		}
		if op == OpPush {
			return Operand{Kind: OperandNaN, NaN: value.FromFloat64(f)}, nil
		}
		return Operand{Kind: OperandF64, F64: f}, nil
	case lex.Str, lex.Label, lex.Literal:
		return Operand{Kind: OperandStr, Str: tok.Lexeme}, nil
	default:
		return Operand{}, vmerr.Newf(vmerr.InvalidType, tok.Pos, "unsupported operand token kind %s", tok.Kind)
	}
}
