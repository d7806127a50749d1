// Package syntax parses and prints the JavaScript subset handled by the
// suspension rewriter.
//
// Programs are held in a Tree, an arena of nodes addressed by NodeID. Every
// node records its parent and the Slot it occupies there, so replacing a
// node in place is an index rewrite:
//
//	tree, err := syntax.Parse("function f(a) { return a() + 1; }")
//	if err != nil {
//	    return err
//	}
//	tree.Walk(tree.Root, func(id syntax.NodeID) bool {
//	    if tree.Kind(id) == syntax.KindCall {
//	        tree.Wrap(id, syntax.KindAwait, syntax.FieldArgument)
//	    }
//	    return true
//	})
//	fmt.Println(syntax.Generate(tree))
//
// The supported language covers function declarations and expressions
// (including async and generator functions), var/let/const, if, while,
// for(;;), break, continue, return, throw, try/catch/finally, object and
// array literals, member access, calls, unary, update, binary, logical,
// assignment, conditional, yield and await. Anything else is reported as a
// syntax error with its position.
//
// Generate prints four-space indented code with single-quoted strings and
// parenthesises yield and await whenever they are operands of a tighter
// binding expression. Parse(Generate(t)) yields a tree Equal to t.
package syntax
