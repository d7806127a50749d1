package syntax

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/suspendjs/errors"
)

func TestParseGenerate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"function",
			"function f(a,b){ return a() + b(); }",
			"function f(a, b) {\n    return a() + b();\n}",
		},
		{
			"empty_function",
			"function f() {}",
			"function f() {\n}",
		},
		{
			"var_list",
			"var x = 1, y;",
			"var x = 1, y;",
		},
		{
			"let_alias",
			"let g = a",
			"let g = a;",
		},
		{
			"if_else_statements",
			"if (a) b(); else c();",
			"if (a)\n    b();\nelse\n    c();",
		},
		{
			"if_else_if_blocks",
			"if (a) { b(); } else if (c) { d(); }",
			"if (a) {\n    b();\n} else if (c) {\n    d();\n}",
		},
		{
			"for_loop",
			"for (var i = 0; i < 3; i++) { x += i; }",
			"for (var i = 0; i < 3; i++) {\n    x += i;\n}",
		},
		{
			"for_empty",
			"for (;;) break;",
			"for (;;)\n    break;",
		},
		{
			"while_postfix",
			"while (x) x--;",
			"while (x)\n    x--;",
		},
		{
			"try_catch_finally",
			"try { a(); } catch (e) { b(e); } finally { c(); }",
			"try {\n    a();\n} catch (e) {\n    b(e);\n} finally {\n    c();\n}",
		},
		{
			"async_function",
			"async function f() { return await g(); }",
			"async function f() {\n    return await g();\n}",
		},
		{
			"generator",
			"function* f() { yield; yield* g(); }",
			"function* f() {\n    yield;\n    yield* g();\n}",
		},
		{
			"object_literal",
			"x = {a: 1, 'b c': [1, 2], d};",
			"x = {\n    a: 1,\n    'b c': [1, 2],\n    d\n};",
		},
		{
			"iife",
			"(function () {})();",
			"(function () {\n}());",
		},
		{
			"string_quotes",
			`s = "it's";`,
			`s = 'it\'s';`,
		},
		{
			"sequence_in_assignment",
			"a = (b, c);",
			"a = (b, c);",
		},
		{
			"grouping_kept",
			"x = (a + b) * c;",
			"x = (a + b) * c;",
		},
		{
			"right_grouping_kept",
			"x = a - (b - c);",
			"x = a - (b - c);",
		},
		{
			"redundant_grouping_dropped",
			"x = (a - b) - c;",
			"x = a - b - c;",
		},
		{
			"double_negation",
			"x = -(-y);",
			"x = - -y;",
		},
		{
			"typeof",
			"x = typeof y === 'string';",
			"x = typeof y === 'string';",
		},
		{
			"conditional",
			"x = a ? b : c;",
			"x = a ? b : c;",
		},
		{
			"members",
			"obj[k] = o.p.q;",
			"obj[k] = o.p.q;",
		},
		{
			"exponent_right_assoc",
			"x = 2 ** 3 ** 2;",
			"x = 2 ** 3 ** 2;",
		},
		{
			"keyword_property",
			"g.throw(e).catch(h);",
			"g.throw(e).catch(h);",
		},
		{
			"yield_operand",
			"function* f(a, b) { return (yield a()) + b(); }",
			"function* f(a, b) {\n    return (yield a()) + b();\n}",
		},
		{
			"await_operand",
			"async function f(a, b) { return (await a()) + b(); }",
			"async function f(a, b) {\n    return (await a()) + b();\n}",
		},
		{
			"yield_argument_unwrapped",
			"function* f() { g(yield a()); x = yield b(); }",
			"function* f() {\n    g(yield a());\n    x = yield b();\n}",
		},
		{
			"await_member_object",
			"async function f() { return (await a()).b; }",
			"async function f() {\n    return (await a()).b;\n}",
		},
		{
			"automatic_semicolons",
			"a()\nb()",
			"a();\nb();",
		},
		{
			"return_newline",
			"function f() { return\nx }",
			"function f() {\n    return;\n    x;\n}",
		},
		{
			"async_function_expression",
			"var f = async function () { await x; };",
			"var f = async function () {\n    await x;\n};",
		},
		{
			"named_function_expression",
			"x = function* gen() {};",
			"x = function* gen() {\n};",
		},
		{
			"catch_without_binding",
			"try { a(); } catch { b(); }",
			"try {\n    a();\n} catch {\n    b();\n}",
		},
		{
			"hex_number_kept",
			"x = 0xff;",
			"x = 0xff;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.src, err)
			}
			got := Generate(tree)
			if got != tt.want {
				t.Errorf("Generate() =\n%s\nwant:\n%s", got, tt.want)
			}

			again, err := Parse(got)
			if err != nil {
				t.Fatalf("reparse error: %v", err)
			}
			if !Equal(tree, tree.Root, again, again.Root) {
				t.Errorf("reparsed tree differs from original")
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		column  int
		message string
	}{
		{"missing_function_name", "function () {}", 1, 10, "function name"},
		{"missing_operand", "a = ;", 1, 5, "unexpected"},
		{"arrow", "f = x => x;", 1, 7, "arrow"},
		{"new", "x = new Foo();", 1, 5, "new"},
		{"missing_semicolon", "a b", 1, 3, "expected ';'"},
		{"unterminated_string", "x = 'abc", 1, 5, "unterminated string"},
		{"for_in", "for (x in y) {}", 1, 8, "in"},
		{"assign_to_literal", "1 = 2;", 1, 3, "assignment target"},
		{"class", "class A {}", 1, 1, "class"},
		{"unterminated_block", "function f() {", 1, 15, "unterminated block"},
		{"try_alone", "try {}", 1, 1, "catch or finally"},
		{"const_without_init", "const x;", 1, 7, "initializer"},
		{"second_line", "a();\nb(;", 2, 3, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.src)
			}
			if !stderrors.Is(err, errors.ErrSyntax) {
				t.Errorf("error %v is not a syntax error", err)
			}
			pos, ok := errors.PosOf(err)
			if !ok || pos.Line != tt.line || pos.Column != tt.column {
				t.Errorf("position = %v, want %d:%d", pos, tt.line, tt.column)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.message)
			}
		})
	}
}

func TestParseIncomplete(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"open_block", "function f() {", true},
		{"open_call", "f(", true},
		{"open_comment", "x = 1; /* note", true},
		{"dangling_operator", "a +", true},
		{"bad_token", "a = ;", false},
		{"unterminated_string", "x = 'abc", false},
		{"complete", "function f() {}", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if got := stderrors.Is(err, errors.ErrIncomplete); got != tt.want {
				t.Errorf("Is(ErrIncomplete) = %v, want %v (err %v)", got, tt.want, err)
			}
			if tt.want && !stderrors.Is(err, errors.ErrSyntax) {
				t.Errorf("incomplete input %v is not a syntax error", err)
			}
		})
	}
}

func TestParseNodeShapes(t *testing.T) {
	tree, err := Parse("obj[x]();")
	if err != nil {
		t.Fatal(err)
	}
	stmt := tree.List(tree.Root)[0]
	call := tree.Child(stmt, FieldExpression)
	if tree.Kind(call) != KindCall {
		t.Fatalf("expression kind = %s, want CallExpression", tree.Kind(call))
	}
	callee := tree.Child(call, FieldCallee)
	if tree.Kind(callee) != KindMember || !tree.Node(callee).Flags.Has(FlagComputed) {
		t.Errorf("callee is not a computed member")
	}
	if tree.Node(callee).Parent != call || tree.Node(callee).Slot.Field != FieldCallee {
		t.Errorf("callee back-reference = %d/%v", tree.Node(callee).Parent, tree.Node(callee).Slot)
	}

	tree, err = Parse("f(a, g(b));")
	if err != nil {
		t.Fatal(err)
	}
	call = tree.Child(tree.List(tree.Root)[0], FieldExpression)
	args := tree.List(call)
	if len(args) != 2 {
		t.Fatalf("len(arguments) = %d, want 2", len(args))
	}
	inner := tree.Node(args[1])
	if inner.Slot != (Slot{Field: FieldArguments, Index: 1}) {
		t.Errorf("inner slot = %v, want arguments[1]", inner.Slot)
	}
	if inner.Pos != (Pos{Line: 1, Column: 6}) {
		t.Errorf("inner pos = %v, want 1:6", inner.Pos)
	}
}

func TestParseExpression(t *testing.T) {
	tree, id, err := ParseExpression("(async function () {})")
	if err != nil {
		t.Fatal(err)
	}
	n := tree.Node(id)
	if n.Kind != KindFunctionExpr || !n.Flags.Has(FlagAsync) {
		t.Errorf("got %s flags %b, want async function expression", n.Kind, n.Flags)
	}

	if _, _, err := ParseExpression("a b"); err == nil {
		t.Error("trailing input should fail")
	}
}
