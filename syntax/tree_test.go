package syntax

import (
	"math"
	"testing"
)

func firstExpr(t *testing.T, tree *Tree) NodeID {
	t.Helper()
	stmts := tree.List(tree.Root)
	if len(stmts) == 0 {
		t.Fatal("empty program")
	}
	return tree.Child(stmts[0], FieldExpression)
}

func TestTreeWrapListSlot(t *testing.T) {
	tree, err := Parse("f(a(), b);")
	if err != nil {
		t.Fatal(err)
	}
	call := firstExpr(t, tree)
	inner := tree.List(call)[0]

	w := tree.Wrap(inner, KindYield, FieldArgument)

	if tree.List(call)[0] != w {
		t.Fatalf("argument 0 = %d, want wrapper %d", tree.List(call)[0], w)
	}
	if got := tree.Node(w).Slot; got != (Slot{Field: FieldArguments, Index: 0}) {
		t.Errorf("wrapper slot = %v", got)
	}
	if tree.Node(inner).Parent != w {
		t.Errorf("inner parent = %d, want %d", tree.Node(inner).Parent, w)
	}
	if got := Generate(tree); got != "f(yield a(), b);" {
		t.Errorf("Generate() = %q", got)
	}
}

func TestTreeWrapFieldSlot(t *testing.T) {
	tree, err := Parse("x = a() + b();")
	if err != nil {
		t.Fatal(err)
	}
	assign := firstExpr(t, tree)
	sum := tree.Child(assign, FieldRight)
	left := tree.Child(sum, FieldLeft)

	tree.Wrap(left, KindAwait, FieldArgument)

	if got := Generate(tree); got != "x = (await a()) + b();" {
		t.Errorf("Generate() = %q", got)
	}
}

func TestTreeReplaceRoot(t *testing.T) {
	tree, id, err := ParseExpression("a")
	if err != nil {
		t.Fatal(err)
	}
	b := tree.Ident("b", Pos{})
	tree.Replace(id, b)
	if tree.Root != b {
		t.Errorf("Root = %d, want %d", tree.Root, b)
	}
	if tree.Node(id).Parent != None {
		t.Error("replaced node should be detached")
	}
}

func TestTreeWalkOrder(t *testing.T) {
	tree, err := Parse("function f(p) { return g(h(p)); }")
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	tree.Walk(tree.Root, func(id NodeID) bool {
		if tree.Kind(id) == KindIdentifier {
			names = append(names, tree.Node(id).Name)
		}
		return true
	})
	want := []string{"f", "p", "g", "h", "p"}
	if len(names) != len(want) {
		t.Fatalf("visited %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("visit %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestTreeWalkSkip(t *testing.T) {
	tree, err := Parse("a(); function f() { b(); }")
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	tree.Walk(tree.Root, func(id NodeID) bool {
		if tree.Kind(id).IsFunction() {
			return false
		}
		if tree.Kind(id) == KindCall {
			calls++
		}
		return true
	})
	if calls != 1 {
		t.Errorf("calls outside functions = %d, want 1", calls)
	}
}

func TestTreeWalkSeesReplacement(t *testing.T) {
	tree, err := Parse("f(g(x));")
	if err != nil {
		t.Fatal(err)
	}
	wrapped := 0
	tree.Walk(tree.Root, func(id NodeID) bool {
		if tree.Kind(id) == KindCall {
			tree.Wrap(id, KindYield, FieldArgument)
			wrapped++
		}
		return true
	})
	if wrapped != 2 {
		t.Errorf("wrapped %d calls, want 2", wrapped)
	}
	if got := Generate(tree); got != "yield f(yield g(x));" {
		t.Errorf("Generate() = %q", got)
	}
}

func TestTreeEnclosingFunction(t *testing.T) {
	tree, err := Parse("a(); function f() { return function () { b(); }; }")
	if err != nil {
		t.Fatal(err)
	}
	enclosing := map[string]Kind{}
	tree.Walk(tree.Root, func(id NodeID) bool {
		if tree.Kind(id) == KindCall {
			name := tree.Node(tree.Child(id, FieldCallee)).Name
			enclosing[name] = tree.Kind(tree.EnclosingFunction(id))
		}
		return true
	})
	if enclosing["a"] != KindInvalid {
		t.Errorf("a() enclosed by %s, want none", enclosing["a"])
	}
	if enclosing["b"] != KindFunctionExpr {
		t.Errorf("b() enclosed by %s, want FunctionExpression", enclosing["b"])
	}
}

func TestEqualIgnoresPositions(t *testing.T) {
	a, err := Parse("f(a,b)")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("\n\n   f( a ,\n b );")
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(a, a.Root, b, b.Root) {
		t.Error("trees differing only in layout should be equal")
	}
	c, err := Parse("f(a, c);")
	if err != nil {
		t.Fatal(err)
	}
	if Equal(a, a.Root, c, c.Root) {
		t.Error("trees with different identifiers should differ")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1, "1"},
		{-2, "-2"},
		{1.5, "1.5"},
		{0.1, "0.1"},
		{100, "100"},
		{1e21, "1e+21"},
		{123456789012345680000, "123456789012345680000"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-10, "1.5e-10"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.Copysign(0, -1), "0"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `'plain'`},
		{"it's", `'it\'s'`},
		{"a\nb", `'a\nb'`},
		{`back\slash`, `'back\\slash'`},
		{"\x01", `'\x01'`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
