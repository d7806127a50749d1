package token

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type Type int

const (
	EOF Type = iota
	Ident
	Keyword
	Number
	String
	Punct
)

func (t Type) String() string {
	switch t {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case Number:
		return "number"
	case String:
		return "string"
	case Punct:
		return "punctuator"
	}
	return "unknown"
}

// Token is one lexical unit. Value holds the decoded text: the cooked
// contents for strings, the NFC-normalised name for identifiers.
type Token struct {
	Value string
	Type  Type
	Line  int
	Col   int
	// NewlineBefore is set when a line terminator separates this token from
	// the previous one; the parser uses it for automatic semicolon insertion.
	NewlineBefore bool
}

func (t Token) Is(typ Type, value string) bool {
	return t.Type == typ && t.Value == value
}

// Error reports a lexical error position.
type Error struct {
	Msg  string
	Line int
	Col  int
	EOF  bool // input ended inside the construct
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

var keywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true, "return": true,
	"if": true, "else": true, "while": true, "for": true, "do": true,
	"break": true, "continue": true, "throw": true, "try": true, "catch": true,
	"finally": true, "true": true, "false": true, "null": true, "this": true,
	"typeof": true, "void": true, "await": true, "yield": true, "new": true,
	"delete": true, "in": true, "instanceof": true, "switch": true, "case": true,
	"default": true, "class": true, "import": true, "export": true, "with": true,
	"debugger": true, "super": true,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	return keywords[name]
}

// puncts is ordered longest first so the scanner takes the longest match.
var puncts = []string{
	">>>=",
	"===", "!==", "**=", "...", "<<=", ">>=", ">>>",
	"==", "!=", "<=", ">=", "&&", "||", "??", "++", "--", "+=", "-=", "*=",
	"/=", "%=", "**", "=>", "<<", ">>", "&=", "|=", "^=", "?.",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".",
}

type scanner struct {
	runes   []rune
	tokens  []Token
	i       int
	line    int
	col     int
	newline bool
}

// Tokenize splits input into tokens, ending with a single EOF token.
func Tokenize(input string) ([]Token, error) {
	s := &scanner{runes: []rune(input), line: 1, col: 1}
	for {
		if err := s.skipSpace(); err != nil {
			return nil, err
		}
		if s.i >= len(s.runes) {
			s.emit(Token{Type: EOF, Line: s.line, Col: s.col})
			return s.tokens, nil
		}
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
}

func (s *scanner) emit(t Token) {
	t.NewlineBefore = s.newline
	s.newline = false
	s.tokens = append(s.tokens, t)
}

func (s *scanner) peekAt(off int) rune {
	if s.i+off < len(s.runes) {
		return s.runes[s.i+off]
	}
	return 0
}

func (s *scanner) advance() rune {
	r := s.runes[s.i]
	s.i++
	if r == '\n' {
		s.line++
		s.col = 1
		s.newline = true
	} else {
		s.col++
	}
	return r
}

func (s *scanner) errorf(line, col int, format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Line: line, Col: col}
}

func (s *scanner) skipSpace() error {
	for s.i < len(s.runes) {
		r := s.runes[s.i]
		switch {
		case r == '\n' || unicode.IsSpace(r):
			s.advance()
		case r == '/' && s.peekAt(1) == '/':
			for s.i < len(s.runes) && s.runes[s.i] != '\n' {
				s.advance()
			}
		case r == '/' && s.peekAt(1) == '*':
			line, col := s.line, s.col
			s.advance()
			s.advance()
			for {
				if s.i >= len(s.runes) {
					return &Error{Msg: "unterminated comment", Line: line, Col: col, EOF: true}
				}
				if s.runes[s.i] == '*' && s.peekAt(1) == '/' {
					s.advance()
					s.advance()
					break
				}
				s.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) scanToken() error {
	r := s.runes[s.i]
	line, col := s.line, s.col

	switch {
	case r == '"' || r == '\'':
		v, err := s.scanString(r)
		if err != nil {
			return err
		}
		s.emit(Token{Value: v, Type: String, Line: line, Col: col})
		return nil

	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(s.peekAt(1))):
		v, err := s.scanNumber()
		if err != nil {
			return err
		}
		s.emit(Token{Value: v, Type: Number, Line: line, Col: col})
		return nil

	case isIdentStart(r):
		start := s.i
		for s.i < len(s.runes) && isIdentPart(s.runes[s.i]) {
			s.advance()
		}
		name := norm.NFC.String(string(s.runes[start:s.i]))
		typ := Ident
		if keywords[name] {
			typ = Keyword
		}
		s.emit(Token{Value: name, Type: typ, Line: line, Col: col})
		return nil
	}

	rest := string(s.runes[s.i:min(s.i+4, len(s.runes))])
	for _, p := range puncts {
		if strings.HasPrefix(rest, p) {
			for range []rune(p) {
				s.advance()
			}
			s.emit(Token{Value: p, Type: Punct, Line: line, Col: col})
			return nil
		}
	}
	return s.errorf(line, col, "unexpected character %q", r)
}

func (s *scanner) scanString(quote rune) (string, error) {
	line, col := s.line, s.col
	s.advance()
	var b strings.Builder
	for {
		if s.i >= len(s.runes) || s.runes[s.i] == '\n' {
			return "", s.errorf(line, col, "unterminated string")
		}
		r := s.advance()
		if r == quote {
			return b.String(), nil
		}
		if r != '\\' {
			b.WriteRune(r)
			continue
		}
		if s.i >= len(s.runes) {
			return "", s.errorf(line, col, "unterminated string")
		}
		esc := s.advance()
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case 'x', 'u':
			n := 2
			if esc == 'u' {
				n = 4
			}
			if s.i+n > len(s.runes) {
				return "", s.errorf(s.line, s.col, "invalid escape sequence")
			}
			code, err := strconv.ParseUint(string(s.runes[s.i:s.i+n]), 16, 32)
			if err != nil {
				return "", s.errorf(s.line, s.col, "invalid escape sequence")
			}
			for range n {
				s.advance()
			}
			b.WriteRune(rune(code))
		default:
			b.WriteRune(esc)
		}
	}
}

func (s *scanner) scanNumber() (string, error) {
	start := s.i
	line, col := s.line, s.col
	if s.runes[s.i] == '0' && (s.peekAt(1) == 'x' || s.peekAt(1) == 'X') {
		s.advance()
		s.advance()
		for s.i < len(s.runes) && isHexDigit(s.runes[s.i]) {
			s.advance()
		}
		if s.i-start == 2 {
			return "", s.errorf(line, col, "malformed hex literal")
		}
	} else {
		for s.i < len(s.runes) && unicode.IsDigit(s.runes[s.i]) {
			s.advance()
		}
		if s.i < len(s.runes) && s.runes[s.i] == '.' {
			s.advance()
			for s.i < len(s.runes) && unicode.IsDigit(s.runes[s.i]) {
				s.advance()
			}
		}
		if s.i < len(s.runes) && (s.runes[s.i] == 'e' || s.runes[s.i] == 'E') {
			s.advance()
			if s.i < len(s.runes) && (s.runes[s.i] == '+' || s.runes[s.i] == '-') {
				s.advance()
			}
			digits := 0
			for s.i < len(s.runes) && unicode.IsDigit(s.runes[s.i]) {
				s.advance()
				digits++
			}
			if digits == 0 {
				return "", s.errorf(line, col, "malformed exponent")
			}
		}
	}
	if s.i < len(s.runes) && isIdentStart(s.runes[s.i]) {
		return "", s.errorf(s.line, s.col, "identifier starts immediately after number")
	}
	return string(s.runes[start:s.i]), nil
}

func isIdentStart(r rune) bool {
	return r == '$' || r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
