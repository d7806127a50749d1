package suspend

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax"
)

func TestTransform(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		names  []Pattern
		output Output
		want   string
	}{
		{
			name:   "cooperative",
			src:    "function f(a,b){ return a() + b(); }",
			names:  Literals("a"),
			output: OutputCooperative,
			want:   "function* f(a, b) {\n    return (yield a()) + b();\n}",
		},
		{
			name:   "native",
			src:    "function f(a,b){ return a() + b(); }",
			names:  Literals("a"),
			output: OutputNative,
			want:   "async function f(a, b) {\n    return (await a()) + b();\n}",
		},
		{
			name:   "alias and caller",
			src:    "let g = a; function h(){ return g(); }",
			names:  Literals("a"),
			output: OutputCooperative,
			want:   "let g = a;\nfunction* h() {\n    return yield g();\n}",
		},
		{
			name:   "wildcard member",
			src:    "function load(p) { var data = fs.read(p); return parse(data); }",
			names:  []Pattern{NewWildcard("fs.*")},
			output: OutputNative,
			want:   "async function load(p) {\n    var data = await fs.read(p);\n    return parse(data);\n}",
		},
		{
			name:   "regexp",
			src:    "function run() { getUser(1); setUser(2); }",
			names:  []Pattern{MustRegexp(`^get`)},
			output: OutputCooperative,
			want:   "function* run() {\n    yield getUser(1);\n    setUser(2);\n}",
		},
		{
			name:   "empty names",
			src:    "function f() { return g(); }",
			names:  nil,
			output: OutputCooperative,
			want:   "function f() {\n    return g();\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transform(tt.src, tt.names, Config{Output: tt.output})
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if got != tt.want {
				t.Errorf("Transform() =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		names []Pattern
		cfg   Config
		want  *errors.Error
	}{
		{"computed member", "function f(obj, x) { return obj[x](); }", Literals("a"), Config{Output: OutputNative}, errors.ErrUnsupportedSyntax},
		{"syntax", "function f( {", Literals("a"), Config{Output: OutputNative}, errors.ErrSyntax},
		{"nil pattern", "f();", []Pattern{nil}, Config{Output: OutputNative}, errors.ErrConfiguration},
		{"bad output", "f();", Literals("f"), Config{Output: Output(9)}, errors.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Transform(tt.src, tt.names, tt.cfg)
			if !stderrors.Is(err, tt.want) {
				t.Errorf("error = %v, want kind %s", err, tt.want.Kind)
			}
		})
	}
}

func TestTransformDoesNotMutateNames(t *testing.T) {
	names := Literals("a")
	before := slices.Clone(names)
	if _, err := Transform("let g = a; function h(){ return g(); }", names, Config{Output: OutputNative}); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, before) {
		t.Errorf("caller names changed: %v", names)
	}
}

func TestTransformTreeReport(t *testing.T) {
	tree, err := syntax.Parse("let g = a; function h(){ return g(); }")
	if err != nil {
		t.Fatal(err)
	}
	set := MustNameSet(Literal("a"))

	report, err := TransformTree(tree, set, Config{Output: OutputCooperative})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(report.Names, []string{"a", "g", "h"}) {
		t.Errorf("report names = %v", report.Names)
	}
	if set.Frozen() || set.Contains("g") {
		t.Error("caller's set was modified")
	}
	if report.Rewritten != 1 || report.Coroutines != 1 {
		t.Errorf("rewritten=%d coroutines=%d", report.Rewritten, report.Coroutines)
	}
}

func TestTransformTreeMatchedNamesNotAdded(t *testing.T) {
	tree, err := syntax.Parse("let g2 = fetch; function r() { return g2(); }")
	if err != nil {
		t.Fatal(err)
	}
	set := MustNameSet(Literal("fetch"), MustRegexp("^r$"), NewWildcard("g*"))

	report, err := TransformTree(tree, set, Config{Output: OutputNative})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(report.Names, []string{"fetch"}) {
		t.Errorf("report names = %v", report.Names)
	}
	if report.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", report.Iterations)
	}
	if report.Rewritten != 1 || report.Coroutines != 1 {
		t.Errorf("rewritten=%d coroutines=%d", report.Rewritten, report.Coroutines)
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		in   string
		want Output
	}{
		{"", OutputAuto},
		{"auto", OutputAuto},
		{"Cooperative", OutputCooperative},
		{"generator", OutputCooperative},
		{"native", OutputNative},
		{"async", OutputNative},
	}
	for _, tt := range tests {
		got, err := ParseOutput(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseOutput(%q) = %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseOutput("threads"); !stderrors.Is(err, errors.ErrConfiguration) {
		t.Errorf("ParseOutput(threads) error = %v", err)
	}
}

func TestResolveOutput(t *testing.T) {
	if got := ResolveOutput(OutputCooperative); got != OutputCooperative {
		t.Errorf("explicit output changed to %s", got)
	}
	// The bundled sandbox supports async functions.
	if got := ResolveOutput(OutputAuto); got != OutputNative {
		t.Errorf("ResolveOutput(auto) = %s, want native", got)
	}
}
