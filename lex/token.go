package lex

import "github.com/nboxvm/nbox/vmerr"

// Kind identifies the grammatical category of a Token.
type Kind int

// Token kinds.
const (
	Str Kind = iota
	Int
	Char
	Float
	Label
	Literal
)

func (k Kind) String() string {
	switch k {
	case Str:
		return "str"
	case Int:
		return "int"
	case Char:
		return "char"
	case Float:
		return "float"
	case Label:
		return "label"
	case Literal:
		return "literal"
	default:
		return "unknown"
	}
}

// Token is a single lexical unit: its kind, source location, and
// original lexeme. For Label tokens, Lexeme is the label name without
// its trailing ':'. For Str tokens, Lexeme is the decoded string body
// (without quotes, internal whitespace runs collapsed to a single
// space). For Int/Float tokens, Lexeme is the literal text as written.
type Token struct {
	Kind   Kind
	Pos    vmerr.Position
	Lexeme string
}

// Line is a single line's worth of tokens, in source order.
type Line []Token

// IsDirective reports whether the line begins with a preprocessor
// directive token (one whose lexeme starts with '#').
func (l Line) IsDirective() bool {
	return len(l) > 0 && len(l[0].Lexeme) > 0 && l[0].Lexeme[0] == '#'
}
