// Package wasmbind exposes the numeric exports of a core WebAssembly
// module as host functions of a realm, running them on wazero.
//
// Arguments are script numbers converted to the export's parameter
// types; i32 accepts both signed and unsigned 32-bit ranges, and
// fractional or out-of-range values are rejected with a TypeError in the
// calling script. An export with one result returns a number, several
// results return an array.
//
//	m, err := wasmbind.Load(ctx, wasmBytes, wasmbind.Config{Async: true})
//	if err != nil {
//	    return err
//	}
//	defer m.Close(ctx)
//
//	b := sandbox.NewBindings()
//	m.Register(b) // wasm.add, wasm.fib, ...
//
// With Config.Async each call runs on its own goroutine and returns a
// future, so the export names belong in the suspension name set
// (Module.SuspendingNames).
package wasmbind
