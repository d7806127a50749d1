// Package hostlib provides optional host bindings for realms: console
// output, timers, sandboxed file reads and a fixed environment.
//
// Each host follows the sandbox.Host convention: a namespace and
// exported methods bound in lowerCamelCase. Blocking methods are listed
// in AsyncFunctions, so they run off the loop and return futures:
//
//	b := sandbox.NewBindings()
//	lib, err := hostlib.Register(b, hostlib.Options{Root: "./data"})
//	if err != nil {
//	    return err
//	}
//	defer lib.Close()
//	names := b.SuspendingNames() // fs.exists, fs.readDir, fs.readFile, timers.sleep
package hostlib
