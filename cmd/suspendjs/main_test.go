package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/gojavm"
	"github.com/wippyai/suspendjs/internal/cache"
	"github.com/wippyai/suspendjs/internal/config"
	"github.com/wippyai/suspendjs/sandbox"
	"github.com/wippyai/suspendjs/suspend"
)

const fetchSrc = "function f() { return fetch(); }"

func TestTransformSource(t *testing.T) {
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := transformOpts{
		patterns: suspend.Literals("fetch"),
		output:   suspend.OutputCooperative,
		cache:    c,
		log:      zap.NewNop(),
	}

	first := transformSource("a.js", fetchSrc, opts)
	if first.err != nil {
		t.Fatal(first.err)
	}
	if first.cached {
		t.Error("first result came from the cache")
	}
	if !strings.Contains(first.text, "function* f") || !strings.Contains(first.text, "yield fetch()") {
		t.Errorf("text = %q", first.text)
	}

	second := transformSource("a.js", fetchSrc, opts)
	if second.err != nil {
		t.Fatal(second.err)
	}
	if !second.cached || second.text != first.text {
		t.Errorf("second = (%v, %q)", second.cached, second.text)
	}
	if !reflect.DeepEqual(second.report.Names, first.report.Names) {
		t.Errorf("names = %v, want %v", second.report.Names, first.report.Names)
	}

	opts.output = suspend.OutputNative
	third := transformSource("a.js", fetchSrc, opts)
	if third.cached {
		t.Error("output shape is not part of the cache key")
	}
}

func TestTransformSourceSyntaxError(t *testing.T) {
	res := transformSource("bad.js", "var = 1", transformOpts{log: zap.NewNop()})
	if !stderrors.Is(res.err, errors.ErrSyntax) {
		t.Errorf("err = %v", res.err)
	}
}

func TestWriteReport(t *testing.T) {
	res := transformSource("a.js", fetchSrc, transformOpts{
		patterns: suspend.Literals("fetch"),
		output:   suspend.OutputNative,
		log:      zap.NewNop(),
	})
	if res.err != nil {
		t.Fatal(res.err)
	}
	var b bytes.Buffer
	if err := writeReport(&b, res); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"---\n", "file: a.js", "output: native", "names:", "- f", "- fetch"} {
		if !strings.Contains(b.String(), want) {
			t.Errorf("report missing %q:\n%s", want, b.String())
		}
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"function f() {", true},
		{"f(", true},
		{"var x = 1;", false},
		{"function f() { return 1; }", false},
		{"var = 1", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := incomplete(tt.src); got != tt.want {
				t.Errorf("incomplete(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	got, err := parseArgs([]string{"1", `"s"`, "[1, 2]", `{"k": true}`})
	if err != nil {
		t.Fatal(err)
	}
	want := []any{1.0, "s", []any{1.0, 2.0}, map[string]any{"k": true}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v", got)
	}
	if _, err := parseArgs([]string{"{"}); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestPrintValue(t *testing.T) {
	arr := sandbox.NewArray()
	arr.Elems = append(arr.Elems, 1.0, "a")

	tests := []struct {
		name string
		in   sandbox.Value
		want string
	}{
		{"undefined", sandbox.Undefined, "undefined\n"},
		{"number", 3.0, "3\n"},
		{"string", "s", "\"s\"\n"},
		{"array", arr, "[\n  1,\n  \"a\"\n]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bytes.Buffer
			if err := printValue(&b, tt.in); err != nil {
				t.Fatal(err)
			}
			if b.String() != tt.want {
				t.Errorf("got %q, want %q", b.String(), tt.want)
			}
		})
	}
}

func newTestSession() (*session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &session{
		names:  []string{"fetch"},
		output: suspend.OutputCooperative,
		out:    &out,
		err:    &errOut,
	}, &out, &errOut
}

func TestSessionAdd(t *testing.T) {
	s, out, errOut := newTestSession()

	if !s.add(fetchSrc) {
		t.Fatalf("add failed: %s", errOut.String())
	}
	if !strings.Contains(out.String(), "function* f") {
		t.Errorf("out = %q", out.String())
	}

	if s.add("function (") {
		t.Error("invalid entry accepted")
	}
	if len(s.src) != 1 {
		t.Errorf("session has %d entries", len(s.src))
	}

	out.Reset()
	if !s.add("function g() { return f(); }") {
		t.Fatalf("add failed: %s", errOut.String())
	}
	if !strings.Contains(out.String(), "function* g") {
		t.Errorf("g not rewritten: %q", out.String())
	}
}

func TestSessionCommands(t *testing.T) {
	s, out, errOut := newTestSession()
	ctx := context.Background()

	if s.command(ctx, ":names get*") {
		t.Fatal(":names quit the session")
	}
	if !reflect.DeepEqual(s.names, []string{"fetch", "get*"}) {
		t.Errorf("names = %v", s.names)
	}

	s.command(ctx, ":output native")
	if s.output != suspend.OutputNative {
		t.Errorf("output = %s", s.output)
	}
	s.command(ctx, ":output sideways")
	if s.output != suspend.OutputNative || errOut.Len() == 0 {
		t.Error("bad output mode was accepted")
	}

	s.add("function main(x) { return x * 2; }")
	out.Reset()
	s.command(ctx, ":run main 21")
	if strings.TrimSpace(out.String()) != "42" {
		t.Errorf("run = %q", out.String())
	}

	s.command(ctx, ":reset")
	if len(s.src) != 0 {
		t.Error("reset kept the session")
	}
	if !s.command(ctx, ":quit") {
		t.Error(":quit did not quit")
	}
}

func TestEvaluatorSelection(t *testing.T) {
	defer func(cfg config.Config) { app.cfg = cfg }(app.cfg)

	tests := []struct {
		name    string
		cfg     string
		flag    string
		want    compile.Evaluator
		wantErr bool
	}{
		{"default", "", "", sandbox.Evaluator{}, false},
		{"config", config.EngineGoja, "", gojavm.Evaluator{}, false},
		{"flag_wins", config.EngineGoja, config.EngineSandbox, sandbox.Evaluator{}, false},
		{"unknown", "", "v8", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.cfg.Sandbox.Engine = tt.cfg
			cmd := &cobra.Command{}
			cmd.Flags().String("engine", "", "")
			if tt.flag != "" {
				if err := cmd.Flags().Set("engine", tt.flag); err != nil {
					t.Fatal(err)
				}
			}
			got, err := evaluator(cmd)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("evaluator = (%T, %v), want %T", got, err, tt.want)
			}
		})
	}
}

func TestSessionRunGoja(t *testing.T) {
	s, out, errOut := newTestSession()
	s.eval = gojavm.Evaluator{}
	s.add("function main(x) { return [x, typeof globalThis]; }")

	out.Reset()
	s.command(context.Background(), ":run main 21")
	var got []any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("run = %q, %q: %v", out.String(), errOut.String(), err)
	}
	if !reflect.DeepEqual(got, []any{21.0, "undefined"}) {
		t.Errorf("run = %v", got)
	}
}

func TestExploreModel(t *testing.T) {
	src := "function a() { return fetch(); }\nfunction b() { return a(); }"
	m := newExploreModel("x.js", src, []string{"fetch"}, suspend.OutputCooperative)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.Update(m.transform())

	if m.err != nil {
		t.Fatal(m.err)
	}
	if len(m.report.Steps) == 0 {
		t.Fatal("no steps recorded")
	}
	for _, name := range []string{"a", "b", "fetch"} {
		if !strings.Contains(strings.Join(m.report.Names, " "), name) {
			t.Errorf("names %v lack %s", m.report.Names, name)
		}
	}

	for i := 0; i < len(m.report.Steps)+2; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	if m.step != len(m.report.Steps)-1 {
		t.Errorf("step = %d, want %d", m.step, len(m.report.Steps)-1)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if len(m.report.Steps) > 1 && m.step != len(m.report.Steps)-2 {
		t.Errorf("step after left = %d", m.step)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !m.original {
		t.Error("tab did not switch to the original source")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if cmd == nil {
		t.Fatal("output toggle did not re-run")
	}
	m.Update(cmd())
	if m.output != suspend.OutputNative {
		t.Errorf("output = %s", m.output)
	}
	if !strings.Contains(m.text, "async function b") {
		t.Errorf("text = %q", m.text)
	}
	if !strings.Contains(m.View(), "x.js") {
		t.Error("view lacks the file name")
	}
}
