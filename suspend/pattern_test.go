package suspend

import (
	stderrors "errors"
	"testing"

	"github.com/wippyai/suspendjs/errors"
)

func TestPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		in      string
		want    bool
	}{
		{"literal match", Literal("sleep"), "sleep", true},
		{"literal no match", Literal("sleep"), "sleeper", false},
		{"literal member", Literal("fs.read"), "fs.read", true},
		{"prefix", Prefix("fs."), "fs.write", true},
		{"prefix no match", Prefix("fs."), "os.fs", false},
		{"func", Func(func(n string) bool { return len(n) == 3 }), "abc", true},
		{"regexp", MustRegexp(`^db\.`), "db.query", true},
		{"regexp no match", MustRegexp(`^db\.`), "xdb.query", false},
		{"wildcard member", NewWildcard("fs.*"), "fs.read", true},
		{"wildcard member no match", NewWildcard("fs.*"), "os.read", false},
		{"wildcard prefix", NewWildcard("read*"), "readFile", true},
		{"wildcard all", NewWildcard("*"), "anything.at.all", true},
		{"wildcard middle", NewWildcard("a*c*e"), "abcde", true},
		{"wildcard middle order", NewWildcard("a*c*e"), "aecx", false},
		{"wildcard suffix", NewWildcard("*Async"), "readAsync", true},
		{"wildcard overlapping", NewWildcard("ab*ba"), "aba", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pattern.Match(tt.in); got != tt.want {
				t.Errorf("%s.Match(%q) = %v, want %v", tt.pattern, tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePattern(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		match   string
		noMatch string
	}{
		{"sleep", "sleep", "sleep", "sleep2"},
		{" fs.read ", "fs.read", "fs.read", "fs.readFile"},
		{"fs.*", "fs.*", "fs.stat", "net.dial"},
		{"/^get[A-Z]/", "/^get[A-Z]/", "getUser", "getuser"},
		{"/^GET/i", "/^GET/i", "getUser", "setUser"},
		{"/a/b/", "/a/b/", "xa/by", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePattern(tt.in)
			if err != nil {
				t.Fatalf("ParsePattern(%q): %v", tt.in, err)
			}
			if p.String() != tt.want {
				t.Errorf("String() = %q, want %q", p.String(), tt.want)
			}
			if !p.Match(tt.match) {
				t.Errorf("should match %q", tt.match)
			}
			if p.Match(tt.noMatch) {
				t.Errorf("should not match %q", tt.noMatch)
			}
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	for _, in := range []string{"", "   ", "/[/", "/abc", "/x/q"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePattern(in)
			if !stderrors.Is(err, errors.ErrConfiguration) {
				t.Errorf("ParsePattern(%q) error = %v, want configuration error", in, err)
			}
		})
	}
}

func TestParsePatterns(t *testing.T) {
	ps, err := ParsePatterns([]string{"a", "b.*"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d patterns", len(ps))
	}
	if _, ok := ps[0].(Literal); !ok {
		t.Errorf("first pattern is %T, want Literal", ps[0])
	}
	if _, err := ParsePatterns([]string{"a", ""}); err == nil {
		t.Error("empty entry should fail")
	}
}
