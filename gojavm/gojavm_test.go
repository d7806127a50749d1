package gojavm

import (
	"context"
	stderrors "errors"
	"reflect"
	"testing"
	"time"

	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/sandbox"
	"github.com/wippyai/suspendjs/suspend"
)

func names(lits ...string) *suspend.NameSet {
	return suspend.MustNameSet(suspend.Literals(lits...)...)
}

func await(t *testing.T, f *sandbox.Future) (sandbox.Value, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.Wait(ctx)
}

func bindings(t *testing.T) *sandbox.Bindings {
	t.Helper()
	b := sandbox.NewBindings()
	if err := b.RegisterFuncAsync("", "a", func() float64 { return 1 }); err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterFunc("", "b", func() float64 { return 2 }); err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterFuncAsync("", "fail", func() (float64, error) { return 0, stderrors.New("boom") }); err != nil {
		t.Fatal(err)
	}
	return b
}

func build(t *testing.T, src string, output suspend.Output, opts sandbox.Options) *compile.Function {
	t.Helper()
	fn, err := compile.Compile(context.Background(), src, "f", names("a", "fail"), compile.Config{
		Evaluator: Evaluator{},
		Sandbox:   bindings(t).Globals(),
		Options:   opts,
		Output:    output,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(fn.Close)
	return fn
}

var outputs = []suspend.Output{suspend.OutputCooperative, suspend.OutputNative}

func TestEvaluatorCalls(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []any
		want sandbox.Value
	}{
		{"suspending", "function f() { return a() + b(); }", nil, 3.0},
		{"nothing_rewritten", "function f(x) { return x * 2; }", []any{4}, 8.0},
		{"nested", "function g() { return a(); } function f() { return g() + g(); }", nil, 2.0},
		{"alias", "let h = a; function f() { return h() + 1; }", nil, 2.0},
		{"returned_generator", "function g() { return a() + 4; } function f() { return g(); }", nil, 5.0},
		{"loop", "function f() { var n = 0; for (var i = 0; i < 50; i++) { n += a(); } return n; }", nil, 50.0},
		{"caught_rejection", "function f() { try { return fail(); } catch (e) { return e.message; } }", nil, "boom"},
	}

	for _, output := range outputs {
		for _, tt := range tests {
			t.Run(output.String()+"/"+tt.name, func(t *testing.T) {
				fn := build(t, tt.src, output, sandbox.Options{})
				got, err := await(t, fn.Call(context.Background(), tt.args...))
				if err != nil || got != tt.want {
					t.Errorf("call = (%v, %v), want %v", got, err, tt.want)
				}
			})
		}
	}
}

func TestEvaluatorIsolation(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    sandbox.Value
		wantErr bool
	}{
		{"constructor_absent", "function f() { return typeof (function () {}).constructor; }", "undefined", false},
		{"generator_constructor", "function f() { return typeof (function* () {}).constructor; }", "undefined", false},
		{"async_constructor", "function f() { return typeof (async function () {}).constructor; }", "undefined", false},
		{"no_host_globals", "function f() { return typeof process + typeof require + typeof globalThis; }", "undefinedundefinedundefined", false},
		{"no_eval", "function f() { return typeof eval + typeof Function; }", "undefinedundefined", false},
		{"constructor_call", "function f() { var c = f.constructor; return c('return process'); }", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := build(t, tt.src, suspend.OutputCooperative, sandbox.Options{})
			got, err := await(t, fn.Call(context.Background()))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected failure, got %v", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("call = (%v, %v), want %v", got, err, tt.want)
			}
		})
	}
}

func TestEvaluatorFailures(t *testing.T) {
	t.Run("uncaught", func(t *testing.T) {
		for _, output := range outputs {
			fn := build(t, "function f() { a(); throw new TypeError('bad'); }", output, sandbox.Options{})
			_, err := await(t, fn.Call(context.Background()))
			var ex *sandbox.Exception
			if !stderrors.As(err, &ex) || ex.Name() != "TypeError" {
				t.Errorf("%s: got %v", output, err)
			}
		}
	})

	t.Run("host_rejection", func(t *testing.T) {
		fn := build(t, "function f() { return fail(); }", suspend.OutputCooperative, sandbox.Options{})
		if _, err := await(t, fn.Call(context.Background())); err == nil {
			t.Error("expected rejection")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		fn := build(t, "function f() { a(); while (true) {} }", suspend.OutputCooperative,
			sandbox.Options{Timeout: 50 * time.Millisecond})
		if _, err := await(t, fn.Call(context.Background())); !stderrors.Is(err, errors.ErrTimeout) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("timeout_while_evaluating", func(t *testing.T) {
		_, err := compile.Compile(context.Background(), "while (true) {} function f() {}", "f", nil, compile.Config{
			Evaluator: Evaluator{},
			Options:   sandbox.Options{Timeout: 50 * time.Millisecond},
		})
		if !stderrors.Is(err, errors.ErrTimeout) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("unbound_return_name", func(t *testing.T) {
		_, err := compile.Compile(context.Background(), "function g() {}", "f", nil, compile.Config{Evaluator: Evaluator{}})
		if !stderrors.Is(err, errors.ErrConfiguration) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("reference_error", func(t *testing.T) {
		_, err := compile.Compile(context.Background(), "var x = missing; function f() {}", "f", nil,
			compile.Config{Evaluator: Evaluator{}})
		var ex *sandbox.Exception
		if !stderrors.As(err, &ex) || ex.Name() != "ReferenceError" {
			t.Errorf("got %v", err)
		}
	})
}

func TestEvaluatorValues(t *testing.T) {
	fn := build(t, "function f(x) { return { n: x.n + 1, list: [1, 'a', null], ok: true, err: new RangeError('r') }; }",
		suspend.OutputNative, sandbox.Options{})
	got, err := await(t, fn.Call(context.Background(), map[string]any{"n": 1}))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"n":    2.0,
		"list": []any{1.0, "a", nil},
		"ok":   true,
		"err":  map[string]any{"name": "RangeError", "message": "r"},
	}
	if out := sandbox.Export(got); !reflect.DeepEqual(out, want) {
		t.Errorf("got %#v", out)
	}

	t.Run("cycle", func(t *testing.T) {
		fn := build(t, "function f() { var o = { k: 1 }; o.self = o; return o; }", suspend.OutputNative, sandbox.Options{})
		got, err := await(t, fn.Call(context.Background()))
		if err != nil {
			t.Fatal(err)
		}
		obj, ok := got.(*sandbox.Object)
		if !ok {
			t.Fatalf("got %T", got)
		}
		if self, _ := obj.Get("self"); self != obj {
			t.Error("cycle not preserved")
		}
	})

	t.Run("callback", func(t *testing.T) {
		fn := build(t, "function f(cb) { return cb(3) + 1; }", suspend.OutputCooperative, sandbox.Options{})
		double := func(x float64) float64 { return x * 2 }
		got, err := await(t, fn.Call(context.Background(), double))
		if err != nil || got != 7.0 {
			t.Errorf("call = (%v, %v)", got, err)
		}
	})
}

func TestEvaluatorSharedLoop(t *testing.T) {
	ctx := context.Background()
	loop := sandbox.NewLoop()
	fn := build(t, "function f(x) { return a() + x; }", suspend.OutputCooperative, sandbox.Options{Loop: loop})

	r := sandbox.New(sandbox.Globals{"f": fn.Value()}, sandbox.Options{Loop: loop})
	defer r.Close()
	if _, err := r.Evaluate(ctx, "async function use() { return (await f(4)) * 10; }"); err != nil {
		t.Fatal(err)
	}
	use, _ := r.Global("use")
	out, err := r.Invoke(ctx, use.(*sandbox.Function), sandbox.Undefined)
	if err != nil {
		t.Fatal(err)
	}
	got, err := await(t, out.(*sandbox.Future))
	if err != nil || got != 50.0 {
		t.Errorf("got (%v, %v)", got, err)
	}
}
