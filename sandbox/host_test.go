package sandbox

import (
	"context"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/suspendjs/errors"
)

type calcHost struct{}

func (calcHost) Namespace() string { return "calc" }

func (calcHost) Add(a, b float64) float64 { return a + b }

func (calcHost) Join(sep string, parts ...string) string { return strings.Join(parts, sep) }

func (calcHost) FetchValue(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", stderrors.New("empty key")
	}
	return "v:" + key, nil
}

func (calcHost) AsyncFunctions() []string { return []string{"fetchValue"} }

func TestRegisterHost(t *testing.T) {
	b := NewBindings()
	if err := b.RegisterHost(calcHost{}); err != nil {
		t.Fatal(err)
	}

	if got := b.SuspendingNames(); !reflect.DeepEqual(got, []string{"calc.fetchValue"}) {
		t.Errorf("SuspendingNames = %v", got)
	}

	r := New(b.Globals(), Options{})
	defer r.Close()

	if got := evaluate(t, r, "calc.add(2, 3)"); got != 5.0 {
		t.Errorf("add = %v", got)
	}
	if got := evaluate(t, r, "calc.join('-', 'a', 'b', 'c')"); got != "a-b-c" {
		t.Errorf("join = %v", got)
	}

	evaluate(t, r, "async function main(k) { return await calc.fetchValue(k); }")
	got, err := wait(t, invokeGlobal(t, r, "main", "key"))
	if err != nil || got != "v:key" {
		t.Errorf("fetchValue = (%v, %v)", got, err)
	}

	_, err = wait(t, invokeGlobal(t, r, "main", ""))
	if err == nil || !strings.Contains(err.Error(), "empty key") {
		t.Errorf("expected rejection, got %v", err)
	}
}

func TestRegisterFunc(t *testing.T) {
	b := NewBindings()
	sum := func(ctx context.Context, xs ...int) int {
		if ctx == nil {
			return -1
		}
		n := 0
		for _, x := range xs {
			n += x
		}
		return n
	}
	if err := b.RegisterFunc("", "sum", sum); err != nil {
		t.Fatal(err)
	}
	if err := b.RegisterFunc("str", "upper", strings.ToUpper); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("limit", 3); err != nil {
		t.Fatal(err)
	}

	r := New(b.Globals(), Options{})
	if got := evaluate(t, r, "sum(1, 2, 3) + limit"); got != 9.0 {
		t.Errorf("sum = %v", got)
	}
	if got := evaluate(t, r, "str.upper('abc')"); got != "ABC" {
		t.Errorf("upper = %v", got)
	}

	_, err := r.Evaluate(context.Background(), "sum(1.5)")
	var ex *Exception
	if !stderrors.As(err, &ex) || ex.Name() != "TypeError" {
		t.Errorf("fractional int argument: %v", err)
	}
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name     string
		register func(b *Bindings) error
		kind     errors.Kind
	}{
		{"empty_name", func(b *Bindings) error { return b.RegisterFunc("ns", "", func() {}) }, errors.KindInvalidInput},
		{"not_a_function", func(b *Bindings) error { return b.RegisterFunc("ns", "x", 42) }, errors.KindRegistration},
		{"bad_results", func(b *Bindings) error {
			return b.RegisterFunc("ns", "x", func() (int, int) { return 0, 0 })
		}, errors.KindRegistration},
		{"empty_global", func(b *Bindings) error { return b.Set("", 1) }, errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.register(NewBindings())
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", e.Kind, tt.kind)
			}
		})
	}
}

func TestToLowerCamel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GetValue", "getValue"},
		{"HTTPGet", "httpGet"},
		{"URL", "url"},
		{"Add", "add"},
		{"already", "already"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := toLowerCamel(tt.in); got != tt.want {
				t.Errorf("toLowerCamel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToValueExport(t *testing.T) {
	type point struct {
		X      int `json:"x"`
		Y      int `json:"y,omitempty"`
		Label  string
		Hidden string `json:"-"`
		secret int
	}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"int", 3, 3.0},
		{"uint8", uint8(7), 7.0},
		{"string", "s", "s"},
		{"slice", []int{1, 2}, []any{1.0, 2.0}},
		{"map", map[string]any{"a": true, "b": []string{"x"}}, map[string]any{"a": true, "b": []any{"x"}}},
		{"struct", point{X: 1, Y: 2, Label: "p", Hidden: "h", secret: 9}, map[string]any{"x": 1.0, "y": 2.0, "Label": "p"}},
		{"pointer", &point{X: 1}, map[string]any{"x": 1.0, "y": 0.0, "Label": ""}},
		{"nil_slice", []int(nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ToValue(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := Export(v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := ToValue(map[int]string{1: "a"}); err == nil {
		t.Error("expected error for non-string map keys")
	}
}

func TestStructArgument(t *testing.T) {
	type req struct {
		Name  string   `json:"name"`
		Tags  []string `json:"tags"`
		Count int      `json:"count"`
	}
	b := NewBindings()
	err := b.RegisterFunc("", "describe", func(r req) string {
		return r.Name + ":" + strings.Join(r.Tags, ",") + ":" + strings.Repeat("*", r.Count)
	})
	if err != nil {
		t.Fatal(err)
	}
	r := New(b.Globals(), Options{})
	got := evaluate(t, r, "describe({name: 'n', tags: ['a', 'b'], count: 2})")
	if got != "n:a,b:**" {
		t.Errorf("got %v", got)
	}
}
