package lex

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/nboxvm/nbox/vmerr"
)

// Tokenize reads r line by line and splits each non-empty line into a
// Line of tokens. Preprocessor directives (lines/words beginning with
// '#') and macro references ('@name') are returned as Literal tokens
// for the preprocessor to interpret; Tokenize itself only handles the
// byte-level grammar described in the spec (quoting, char literals,
// numeric literals, comments, labels).
func Tokenize(file string, r io.Reader) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	row := 0
	for sc.Scan() {
		row++
		raw := sc.Bytes()
		line, err := scanLine(file, row, raw)
		if err != nil {
			return nil, err
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' }

// isSep reports whether b separates words outside of quotes. Commas are
// treated as separators (and discarded) so that macro parameter lists
// and argument lists may be written comma-separated, space-separated,
// or a mix of both.
func isSep(b byte) bool { return isSpace(b) || b == ',' }

func scanLine(file string, row int, raw []byte) (Line, error) {
	var line Line
	n := len(raw)
	i := 0
	for i < n {
		for i < n && isSep(raw[i]) {
			i++
		}
		if i >= n {
			break
		}
		if raw[i] == ';' {
			break
		}
		pos := vmerr.Position{File: file, Row: row, Col: i + 1}
		switch raw[i] {
		case '"':
			j := i + 1
			var body []byte
			for j < n && raw[j] != '"' {
				body = append(body, raw[j])
				j++
			}
			if j >= n {
				return nil, vmerr.New(vmerr.NoClosingQuote, pos, "unterminated string literal")
			}
			line = append(line, Token{Kind: Str, Pos: pos, Lexeme: collapseSpace(string(body))})
			i = j + 1
		case '\'':
			if i+2 < n && raw[i+2] == '\'' {
				line = append(line, Token{Kind: Char, Pos: pos, Lexeme: string(raw[i+1])})
				i += 3
			} else {
				return nil, vmerr.New(vmerr.InvalidChar, pos, "char literal must be exactly one byte between quotes")
			}
		case '#':
			if i+1 >= n {
				return nil, vmerr.New(vmerr.UnexpectedEOF, pos, "unexpected end of line after '#'")
			}
			if isSpace(raw[i+1]) {
				return nil, vmerr.New(vmerr.UnexpectedSpaceInMacroDefinition, pos, "unexpected whitespace after '#' in macro definition")
			}
			if raw[i+1] == '"' {
				j := i + 2
				var body []byte
				for j < n && raw[j] != '"' {
					body = append(body, raw[j])
					j++
				}
				if j >= n {
					return nil, vmerr.New(vmerr.NoClosingQuote, pos, "unterminated include path")
				}
				line = append(line, Token{Kind: Literal, Pos: pos, Lexeme: "#"})
				line = append(line, Token{Kind: Str, Pos: pos, Lexeme: collapseSpace(string(body))})
				i = j + 1
				continue
			}
			j := i + 1
			for j < n && !isSep(raw[j]) {
				j++
			}
			line = append(line, Token{Kind: Literal, Pos: pos, Lexeme: "#" + string(raw[i+1:j])})
			i = j
		case '@':
			if i+1 >= n || isSep(raw[i+1]) {
				return nil, vmerr.New(vmerr.UnexpectedEOF, pos, "unexpected end of line after '@'")
			}
			j := i + 1
			for j < n && !isSep(raw[j]) {
				j++
			}
			line = append(line, Token{Kind: Literal, Pos: pos, Lexeme: "@" + string(raw[i+1:j])})
			i = j
		default:
			j := i
			for j < n && !isSep(raw[j]) && raw[j] != ';' {
				j++
			}
			word := string(raw[i:j])
			tok, err := classify(word, pos)
			if err != nil {
				return nil, err
			}
			line = append(line, tok)
			i = j
		}
	}
	return line, nil
}

// collapseSpace replaces runs of whitespace inside a quoted string with
// a single space, per the spec's "joined with single spaces" rule.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func classify(word string, pos vmerr.Position) (Token, error) {
	if word == "#" {
		return Token{}, vmerr.New(vmerr.UnexpectedEOF, pos, "unexpected bare '#'")
	}
	if len(word) > 1 && word[len(word)-1] == ':' {
		return Token{Kind: Label, Pos: pos, Lexeme: word[:len(word)-1]}, nil
	}
	if looksNumeric(word) {
		if strings.ContainsAny(word, ".") {
			if _, err := strconv.ParseFloat(word, 64); err != nil {
				return Token{}, vmerr.Wrap(vmerr.InvalidLiteral, pos, err, "invalid float literal "+word)
			}
			return Token{Kind: Float, Pos: pos, Lexeme: word}, nil
		}
		if _, err := ParseIntLiteral(word); err != nil {
			return Token{}, vmerr.Wrap(vmerr.InvalidLiteral, pos, err, "invalid integer literal "+word)
		}
		return Token{Kind: Int, Pos: pos, Lexeme: word}, nil
	}
	return Token{Kind: Literal, Pos: pos, Lexeme: word}, nil
}

// looksNumeric reports whether word starts with a digit, or a '-'/'+'
// immediately followed by a digit, i.e. whether it should be parsed as
// a numeric literal (and thus produce INVALID_LITERAL on failure rather
// than silently falling back to a bare literal token).
func looksNumeric(word string) bool {
	if word == "" {
		return false
	}
	i := 0
	if word[0] == '-' || word[0] == '+' {
		i++
	}
	return i < len(word) && word[i] >= '0' && word[i] <= '9'
}

// ParseIntLiteral parses a decimal or 0x-prefixed hex integer literal,
// with an optional leading sign.
func ParseIntLiteral(word string) (int64, error) {
	neg := false
	s := word
	if s[0] == '-' {
		neg = true
		s = s[1:]
	} else if s[0] == '+' {
		s = s[1:]
	}
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return v, nil
}
