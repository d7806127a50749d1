package token

import (
	"errors"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			"empty",
			"",
			[]Token{{Type: EOF, Line: 1, Col: 1}},
		},
		{
			"identifier",
			"foo",
			[]Token{{Value: "foo", Type: Ident, Line: 1, Col: 1}, {Type: EOF, Line: 1, Col: 4}},
		},
		{
			"keyword",
			"return x",
			[]Token{
				{Value: "return", Type: Keyword, Line: 1, Col: 1},
				{Value: "x", Type: Ident, Line: 1, Col: 8},
				{Type: EOF, Line: 1, Col: 9},
			},
		},
		{
			"async_is_identifier",
			"async",
			[]Token{{Value: "async", Type: Ident, Line: 1, Col: 1}, {Type: EOF, Line: 1, Col: 6}},
		},
		{
			"dollar_and_underscore",
			"$a _b",
			[]Token{
				{Value: "$a", Type: Ident, Line: 1, Col: 1},
				{Value: "_b", Type: Ident, Line: 1, Col: 4},
				{Type: EOF, Line: 1, Col: 6},
			},
		},
		{
			"numbers",
			"42 3.14 1e10 0xFF .5",
			[]Token{
				{Value: "42", Type: Number, Line: 1, Col: 1},
				{Value: "3.14", Type: Number, Line: 1, Col: 4},
				{Value: "1e10", Type: Number, Line: 1, Col: 9},
				{Value: "0xFF", Type: Number, Line: 1, Col: 14},
				{Value: ".5", Type: Number, Line: 1, Col: 19},
				{Type: EOF, Line: 1, Col: 21},
			},
		},
		{
			"strings",
			`'a' "b"`,
			[]Token{
				{Value: "a", Type: String, Line: 1, Col: 1},
				{Value: "b", Type: String, Line: 1, Col: 5},
				{Type: EOF, Line: 1, Col: 8},
			},
		},
		{
			"string_escapes",
			`'a\n\'\x41B'`,
			[]Token{
				{Value: "a\n'AB", Type: String, Line: 1, Col: 1},
				{Type: EOF, Line: 1, Col: 13},
			},
		},
		{
			"longest_punct",
			"a===b",
			[]Token{
				{Value: "a", Type: Ident, Line: 1, Col: 1},
				{Value: "===", Type: Punct, Line: 1, Col: 2},
				{Value: "b", Type: Ident, Line: 1, Col: 5},
				{Type: EOF, Line: 1, Col: 6},
			},
		},
		{
			"generator_star",
			"function*",
			[]Token{
				{Value: "function", Type: Keyword, Line: 1, Col: 1},
				{Value: "*", Type: Punct, Line: 1, Col: 9},
				{Type: EOF, Line: 1, Col: 10},
			},
		},
		{
			"newline_before",
			"a\nb",
			[]Token{
				{Value: "a", Type: Ident, Line: 1, Col: 1},
				{Value: "b", Type: Ident, Line: 2, Col: 1, NewlineBefore: true},
				{Type: EOF, Line: 2, Col: 2},
			},
		},
		{
			"line_comment",
			"a // note\nb",
			[]Token{
				{Value: "a", Type: Ident, Line: 1, Col: 1},
				{Value: "b", Type: Ident, Line: 2, Col: 1, NewlineBefore: true},
				{Type: EOF, Line: 2, Col: 2},
			},
		},
		{
			"block_comment",
			"a /* x */ b",
			[]Token{
				{Value: "a", Type: Ident, Line: 1, Col: 1},
				{Value: "b", Type: Ident, Line: 1, Col: 11},
				{Type: EOF, Line: 1, Col: 12},
			},
		},
		{
			"multiline_block_comment_sets_newline",
			"a /*\n*/ b",
			[]Token{
				{Value: "a", Type: Ident, Line: 1, Col: 1},
				{Value: "b", Type: Ident, Line: 2, Col: 4, NewlineBefore: true},
				{Type: EOF, Line: 2, Col: 5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("Tokenize(%q) = %d tokens %v, want %d", tt.input, len(got), got, len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("token %d = %+v, want %+v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestTokenizeNormalizesIdentifiers(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	got, err := Tokenize("cafe\u0301")
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Value != "caf\u00e9" {
		t.Errorf("Value = %q, want NFC form", got[0].Value)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		col   int
	}{
		{"unterminated_string", "x = 'abc", 1, 5},
		{"newline_in_string", "'a\nb'", 1, 1},
		{"unterminated_comment", "a /* b", 1, 3},
		{"unexpected_char", "a # b", 1, 3},
		{"bad_exponent", "1e+", 1, 1},
		{"ident_after_number", "3in", 1, 2},
		{"empty_hex", "0x", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatalf("Tokenize(%q) succeeded, want error", tt.input)
			}
			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("error %T is not *Error", err)
			}
			if te.Line != tt.line || te.Col != tt.col {
				t.Errorf("position = %d:%d, want %d:%d", te.Line, te.Col, tt.line, tt.col)
			}
		})
	}
}

func TestIsKeyword(t *testing.T) {
	if !IsKeyword("yield") || !IsKeyword("await") {
		t.Error("yield and await should be keywords")
	}
	if IsKeyword("async") {
		t.Error("async is contextual, not reserved")
	}
}
