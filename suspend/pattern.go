package suspend

import (
	"regexp"
	"strings"

	"github.com/wippyai/suspendjs/errors"
)

// Pattern decides whether a callee name suspends.
//
// Names are bare identifiers ("sleep") or dotted member names ("fs.read").
type Pattern interface {
	Match(name string) bool
	String() string
}

// Literal matches one name exactly.
type Literal string

func (l Literal) Match(name string) bool { return string(l) == name }
func (l Literal) String() string         { return string(l) }

// Prefix matches every name starting with the prefix.
type Prefix string

func (p Prefix) Match(name string) bool { return strings.HasPrefix(name, string(p)) }
func (p Prefix) String() string         { return string(p) + "*" }

// Func adapts a predicate to a Pattern.
type Func func(name string) bool

func (f Func) Match(name string) bool { return f(name) }
func (f Func) String() string         { return "<func>" }

// Regexp matches names against a regular expression.
type Regexp struct {
	re   *regexp.Regexp
	text string
}

// NewRegexp compiles expr. flags may contain i, m and s.
func NewRegexp(expr, flags string) (*Regexp, error) {
	prefix := ""
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			prefix += string(f)
		default:
			return nil, errors.Configuration(errors.PhaseConfig, "unsupported regexp flag %q in /%s/%s", f, expr, flags)
		}
	}
	src := expr
	if prefix != "" {
		src = "(?" + prefix + ")" + expr
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindConfiguration).
			Detail("invalid pattern /%s/%s", expr, flags).
			Cause(err).
			Build()
	}
	return &Regexp{re: re, text: "/" + expr + "/" + flags}, nil
}

// MustRegexp is like NewRegexp but panics on error.
func MustRegexp(expr string) *Regexp {
	r, err := NewRegexp(expr, "")
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Regexp) Match(name string) bool { return r.re.MatchString(name) }
func (r *Regexp) String() string         { return r.text }

// Wildcard matches glob patterns where each * stands for any run of
// characters, dots included.
//
// Supports patterns like:
//   - "fs.*" - every member of fs
//   - "read*" - every name starting with read
//   - "*" - everything
type Wildcard struct {
	parts []string
	text  string
}

func NewWildcard(pattern string) *Wildcard {
	return &Wildcard{parts: strings.Split(pattern, "*"), text: pattern}
}

func (w *Wildcard) Match(name string) bool {
	first, last := w.parts[0], w.parts[len(w.parts)-1]
	if len(w.parts) == 1 {
		return name == first
	}
	if !strings.HasPrefix(name, first) {
		return false
	}
	rest := name[len(first):]
	for _, mid := range w.parts[1 : len(w.parts)-1] {
		i := strings.Index(rest, mid)
		if i < 0 {
			return false
		}
		rest = rest[i+len(mid):]
	}
	return strings.HasSuffix(rest, last)
}

func (w *Wildcard) String() string { return w.text }

// ParsePattern reads the textual pattern forms used on the command line
// and in project files:
//
//	/expr/flags  regular expression
//	fs.*         wildcard (any text containing *)
//	sleep        literal
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, errors.Configuration(errors.PhaseConfig, "empty name pattern")
	case len(s) > 1 && s[0] == '/':
		end := strings.LastIndexByte(s, '/')
		if end == 0 {
			return nil, errors.Configuration(errors.PhaseConfig, "unterminated regexp pattern %q", s)
		}
		return NewRegexp(s[1:end], s[end+1:])
	case strings.Contains(s, "*"):
		return NewWildcard(s), nil
	}
	return Literal(s), nil
}

// ParsePatterns parses each string with ParsePattern.
func ParsePatterns(list []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(list))
	for _, s := range list {
		p, err := ParsePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Literals converts plain names to patterns.
func Literals(names ...string) []Pattern {
	out := make([]Pattern, len(names))
	for i, n := range names {
		out[i] = Literal(n)
	}
	return out
}
