package lex

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/nboxvm/nbox/vmerr"
)

// maxIncludePathLen bounds a resolved include path, matching the spec's
// PATH_TOO_LONG error kind.
const maxIncludePathLen = 4096

// Preprocessor consumes tokenized lines, resolving #"path" includes and
// #NAME macro definitions, and expanding @name invocations in place. It
// accumulates macro definitions (including ones pulled in through
// includes) into a single MacroTable shared across the whole program.
type Preprocessor struct {
	Macros     *MacroTable
	IncludeDir string
}

// NewPreprocessor creates a Preprocessor. includeDir is the configured
// include search root (may be empty).
func NewPreprocessor(includeDir string) *Preprocessor {
	return &Preprocessor{Macros: NewMacroTable(), IncludeDir: includeDir}
}

// Preprocess tokenizes mainFile's contents and fully expands it: includes
// are inlined, macros are defined into p.Macros as encountered, and every
// @name invocation is replaced by its expansion. The returned lines carry
// no directive or macro-reference tokens.
func (p *Preprocessor) Preprocess(mainFile string, src []byte) ([]Line, error) {
	lines, err := Tokenize(mainFile, bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return p.processFile(mainFile, lines)
}

func (p *Preprocessor) processFile(file string, lines []Line) ([]Line, error) {
	var out []Line
	i := 0
	for i < len(lines) {
		line := lines[i]
		if len(line) == 0 {
			i++
			continue
		}
		first := line[0]
		switch {
		case line.IsDirective() && first.Lexeme == "#":
			expanded, next, err := p.processInclude(file, lines, i)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			i = next
		case line.IsDirective():
			next, err := p.processMacroDef(lines, i)
			if err != nil {
				return nil, err
			}
			i = next
		default:
			expanded, err := p.expandTokens(line, nil, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			i++
		}
	}
	return out, nil
}

func (p *Preprocessor) processInclude(file string, lines []Line, i int) ([]Line, int, error) {
	line := lines[i]
	first := line[0]
	if len(line) < 2 || line[1].Kind != Str {
		return nil, 0, vmerr.New(vmerr.FailedToParse, first.Pos, "malformed #\"path\" include directive")
	}
	path := line[1].Lexeme
	resolved, data, err := p.readInclude(file, path, first.Pos)
	if err != nil {
		return nil, 0, err
	}
	childLines, err := Tokenize(resolved, bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	expanded, err := p.processFile(resolved, childLines)
	if err != nil {
		return nil, 0, err
	}
	return expanded, i + 1, nil
}

// readInclude resolves path relative to the including file's directory
// first, then under IncludeDir if configured.
func (p *Preprocessor) readInclude(fromFile, path string, pos vmerr.Position) (string, []byte, error) {
	var candidates []string
	candidates = append(candidates, filepath.Join(filepath.Dir(fromFile), path))
	if p.IncludeDir != "" {
		candidates = append(candidates, filepath.Join(p.IncludeDir, path))
	}
	for _, c := range candidates {
		if len(c) > maxIncludePathLen {
			return "", nil, vmerr.Newf(vmerr.PathTooLong, pos, "include path exceeds %d bytes: %s", maxIncludePathLen, c)
		}
		data, err := os.ReadFile(c) // #nosec G304 -- source-directed include path
		if err == nil {
			return c, data, nil
		}
	}
	return "", nil, vmerr.Newf(vmerr.FailedToReadFile, pos, "include not found: %s", path)
}

// processMacroDef consumes the macro definition starting at lines[i] (a
// single #NAME header, or a #NAME params… { multi-line body starting at
// i+1 and closed by a line beginning with "}"). It returns the index of
// the first line following the definition.
func (p *Preprocessor) processMacroDef(lines []Line, i int) (int, error) {
	line := lines[i]
	first := line[0]
	name := first.Lexeme[1:]
	rest := line[1:]

	if len(rest) > 0 && rest[len(rest)-1].Kind == Literal && rest[len(rest)-1].Lexeme == "{" {
		params := rest[:len(rest)-1]
		paramNames := make([]string, 0, len(params))
		for _, pt := range params {
			if pt.Kind != Literal || !isAlphaIdent(pt.Lexeme) {
				return 0, vmerr.Newf(vmerr.ArgNameInvalid, pt.Pos, "macro argument name must be alphabetic: %q", pt.Lexeme)
			}
			paramNames = append(paramNames, pt.Lexeme)
		}
		var bodyLines []Line
		j := i + 1
		closed := false
		for j < len(lines) {
			l := lines[j]
			if len(l) > 0 && l[0].Kind == Literal && l[0].Lexeme == "}" {
				closed = true
				j++
				break
			}
			if len(l) > 0 {
				bodyLines = append(bodyLines, l)
			}
			j++
		}
		if !closed {
			return 0, vmerr.Newf(vmerr.UnexpectedEOF, first.Pos, "unterminated multi-macro body for %q", name)
		}
		p.Macros.Define(&Macro{Name: name, Kind: Multi, Pos: first.Pos, Params: paramNames, BodyLines: bodyLines})
		return j, nil
	}

	p.Macros.Define(&Macro{Name: name, Kind: Single, Pos: first.Pos, Body: rest})
	return i + 1, nil
}

func isAlphaIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}

// expandTokens expands a single line's worth of tokens into one or more
// output lines, substituting bound parameter references first (if bound
// is non-nil) and then resolving @name invocations. A multi-macro
// invocation closes out the line built up so far, splices in its
// (recursively expanded) body lines, and continues accumulating a new
// line from whatever tokens follow the invocation on the original line.
func (p *Preprocessor) expandTokens(tokens Line, bound map[string]Token, stack []string) ([]Line, error) {
	var lines []Line
	var cur Line
	n := len(tokens)
	i := 0
	for i < n {
		tok := tokens[i]
		if tok.Kind == Literal && bound != nil {
			if rep, ok := bound[tok.Lexeme]; ok {
				cur = append(cur, rep)
				i++
				continue
			}
		}
		if tok.Kind == Literal && strings.HasPrefix(tok.Lexeme, "@") {
			name := tok.Lexeme[1:]
			if containsName(stack, name) {
				return nil, vmerr.Newf(vmerr.UndefinedMacro, tok.Pos, "recursive macro expansion of %q", name)
			}
			m, ok := p.Macros.Lookup(name)
			if !ok {
				return nil, vmerr.Newf(vmerr.UndefinedMacro, tok.Pos, "undefined macro %q", name)
			}
			newStack := append(append([]string{}, stack...), name)

			if m.Kind == Single {
				subLines, err := p.expandTokens(m.Body, nil, newStack)
				if err != nil {
					return nil, err
				}
				if len(subLines) > 0 {
					cur = append(cur, subLines[0]...)
					for k := 1; k < len(subLines); k++ {
						lines = append(lines, cur)
						cur = append(Line{}, subLines[k]...)
					}
				}
				i++
				continue
			}

			need := len(m.Params)
			args := make([]Token, 0, need)
			j := i + 1
			for k := 0; k < need; k++ {
				if j >= n {
					return nil, vmerr.Newf(vmerr.TooFewArguments, tok.Pos, "macro %q expects %d argument(s)", name, need)
				}
				argTok := tokens[j]
				if argTok.Kind == Literal && bound != nil {
					if rep, ok := bound[argTok.Lexeme]; ok {
						argTok = rep
					}
				}
				if argTok.Kind == Literal && strings.HasPrefix(argTok.Lexeme, "@") {
					resolved, err := p.resolveArgValue(argTok, newStack)
					if err != nil {
						return nil, err
					}
					argTok = resolved
				}
				args = append(args, argTok)
				j++
			}
			newBound := make(map[string]Token, need)
			for k, pname := range m.Params {
				newBound[pname] = args[k]
			}
			var bodyLines []Line
			for _, bl := range m.BodyLines {
				expanded, err := p.expandTokens(bl, newBound, newStack)
				if err != nil {
					return nil, err
				}
				bodyLines = append(bodyLines, expanded...)
			}
			if len(cur) > 0 {
				lines = append(lines, cur)
				cur = nil
			}
			lines = append(lines, bodyLines...)
			i = j
			continue
		}
		cur = append(cur, tok)
		i++
	}
	if len(cur) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines, nil
}

// resolveArgValue expands a bare "@name" token used as a macro argument
// into the single token bound to it: the name's expansion is computed
// and its first emitted token is used as the value, per the spec's
// argument-binding rule.
func (p *Preprocessor) resolveArgValue(tok Token, stack []string) (Token, error) {
	name := tok.Lexeme[1:]
	if containsName(stack, name) {
		return Token{}, vmerr.Newf(vmerr.UndefinedMacro, tok.Pos, "recursive macro expansion of %q", name)
	}
	m, ok := p.Macros.Lookup(name)
	if !ok {
		return Token{}, vmerr.Newf(vmerr.UndefinedMacro, tok.Pos, "undefined macro %q", name)
	}
	newStack := append(append([]string{}, stack...), name)
	var lines []Line
	var err error
	switch m.Kind {
	case Single:
		lines, err = p.expandTokens(m.Body, nil, newStack)
	default:
		if len(m.Params) != 0 {
			return Token{}, vmerr.Newf(vmerr.TooFewArguments, tok.Pos, "macro %q used as a value needs 0 arguments, has %d", name, len(m.Params))
		}
		for _, bl := range m.BodyLines {
			var expanded []Line
			expanded, err = p.expandTokens(bl, nil, newStack)
			if err != nil {
				return Token{}, err
			}
			lines = append(lines, expanded...)
			if len(lines) > 0 && len(lines[0]) > 0 {
				break
			}
		}
	}
	if err != nil {
		return Token{}, err
	}
	if len(lines) == 0 || len(lines[0]) == 0 {
		return Token{}, vmerr.Newf(vmerr.UnexpectedEOF, tok.Pos, "macro %q produced no value", name)
	}
	return lines[0][0], nil
}

func containsName(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
