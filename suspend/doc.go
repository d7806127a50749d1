// Package suspend rewrites JavaScript functions so that calls to a chosen
// set of suspending operations become suspension points.
//
// # Overview
//
// Callers name the operations that may block ("sleep", "fs.read",
// "db.*"). Every call to one of them is wrapped in yield or await, and
// every function containing such a call becomes a generator or an async
// function. Because a rewritten function now suspends too, its own name
// joins the set, and so does any variable that simply aliases a suspending
// name:
//
//	let g = sleep;             // g joins the set
//	function h() { g(); }      // h joins the set
//	function k() { h(); }      // k joins the set
//
// Propagation repeats until a full traversal adds nothing. Only then is
// the tree rewritten, in one pass.
//
// # Output shapes
//
//	OutputCooperative   function* f() { yield a(); }
//	OutputNative        async function f() { await a(); }
//	OutputAuto          native when the sandbox supports async functions
//
// Cooperative output is turned back into a future-returning function by
// package driver.
//
// # Usage
//
//	out, err := suspend.Transform(src, suspend.Literals("sleep"), suspend.Config{
//	    Output: suspend.OutputCooperative,
//	})
//
// Patterns may be literals, wildcards, regular expressions or predicates:
//
//	patterns, err := suspend.ParsePatterns([]string{"fs.*", "/^db\\./", "sleep"})
//
// # Errors
//
// Callees that cannot be named, such as obj[key]() or f()(), fail with
// errors.ErrUnsupportedSyntax. The tree is never partially rewritten.
package suspend
