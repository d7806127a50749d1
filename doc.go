// Package suspendjs rewrites JavaScript so that calls which may suspend
// are awaited, and compiles the result into callable, future-returning
// functions inside an isolated sandbox.
//
// A program names its suspending callees up front: fetch, fs.readFile,
// anything matching "db.*". Every call to those names is wrapped in a
// suspension expression, every function making such a call becomes a
// coroutine, and the names of those functions are in turn treated as
// suspending until nothing changes.
//
// # Architecture Overview
//
//	suspendjs/          Root package with Transform, Compile and CapabilitySupported
//	├── syntax/         Parser, arena AST and printer for the supported subset
//	├── suspend/        Name sets, patterns and the rewrite passes
//	├── capability/     One-time probe for native async support
//	├── sandbox/        Isolated realms, futures, host bindings
//	├── driver/         Runs generator-shaped functions as async ones
//	├── compile/        Rewrite, evaluate and wrap in one step
//	├── hostlib/        Optional console, timer and file bindings
//	├── wasmbind/       WebAssembly exports as host functions (wazero)
//	├── errors/         Structured error types
//	└── cmd/suspendjs/  Command line tool
//
// # Quick Start
//
// Rewrite source text:
//
//	out, err := suspendjs.Transform(
//	    "function f(a, b) { return a() + b(); }",
//	    suspend.Literals("a"),
//	    suspend.Config{Output: suspend.OutputCooperative},
//	)
//	// function* f(a, b) {
//	//     return (yield a()) + b();
//	// }
//
// Compile and call:
//
//	fn, err := suspendjs.Compile(ctx, src, "main", suspend.Literals("fetch"),
//	    compile.Config{Sandbox: bindings.Globals()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer fn.Close()
//	v, err := fn.Call(ctx, "https://example.com").Wait(ctx)
//
// # Output Shapes
//
// OutputNative produces async functions and await; OutputCooperative
// produces generator functions and yield, which compile wraps with a
// driver so callers see the same future either way. OutputAuto picks
// native when CapabilitySupported reports true.
//
// # Errors
//
// Parse failures match errors.ErrSyntax, bad names or return names match
// errors.ErrConfiguration, and callees that cannot be named match
// errors.ErrUnsupportedSyntax. A failed rewrite never returns partial
// output. Failures while a compiled function runs only reach its future.
//
// # Thread Safety
//
// Transform and Compile are safe for concurrent use. A realm runs one job
// at a time on its loop; Future.Wait may be called from any goroutine.
package suspendjs
