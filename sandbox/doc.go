// Package sandbox evaluates programs of the supported JavaScript subset in
// isolated realms.
//
// # Quick Start
//
//	r := sandbox.New(sandbox.Globals{"greeting": "hello"}, sandbox.Options{
//	    Timeout: time.Second,
//	})
//	defer r.Close()
//
//	v, err := r.Evaluate(ctx, "greeting + ', world'")
//	fmt.Println(v) // hello, world
//
// # Isolation
//
// A realm's global scope holds only the bindings it was created with plus
// undefined, NaN and Infinity. Values have no prototype chain: member
// access sees own properties and a fixed set of built-in methods, so
// constructor, __proto__ and prototype are ordinary, usually absent,
// properties.
//
// # Functions and Suspension
//
// Generator functions return a *Generator; async functions return a
// *Future and suspend at await. Both run their bodies as pull-style
// coroutines that strictly alternate with the goroutine driving the
// realm's Loop, so script code never runs in parallel.
//
//	f, _ := r.Evaluate(ctx, "(async function (x) { return (await x) * 2; })")
//	out, _ := r.Invoke(ctx, f.(*sandbox.Function), sandbox.Undefined, 21.0)
//	v, err := out.(*sandbox.Future).Wait(ctx) // 42
//
// # Host Bindings
//
// Bindings registers Go functions and host structs by reflection.
// Methods a host lists in AsyncFunctions run on their own goroutine and
// hand the script a future; Bindings.SuspendingNames returns their dotted
// names for use as a suspension name set.
//
//	b := sandbox.NewBindings()
//	b.RegisterHost(&FetchHost{})      // fetch.get, fetch.post
//	r := sandbox.New(b.Globals(), sandbox.Options{})
//
// # Budgets
//
// Options.Timeout and Options.StepLimit bound each Evaluate and Invoke
// call, including the jobs it queues. Exceeding them fails with an error
// matching errors.ErrTimeout or errors.ErrLimit, which script code cannot
// catch.
package sandbox
