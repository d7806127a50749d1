// Package capability probes, once per process, whether the sandbox can
// run native async functions.
package capability

import (
	"context"
	"sync"

	"github.com/wippyai/suspendjs/sandbox"
)

const probe = "(async function () {})"

var supported = sync.OnceValue(func() bool {
	return check(probe)
})

// Supported reports whether an empty realm evaluates an async function
// expression to an async function. The result is computed on first use
// and never changes.
func Supported() bool {
	return supported()
}

// check evaluates src in a fresh realm. Any failure, including a panic,
// reports false.
func check(src string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	r := sandbox.New(nil, sandbox.Options{})
	defer r.Close()
	v, err := r.Evaluate(context.Background(), src)
	if err != nil {
		return false
	}
	fn, isFn := v.(*sandbox.Function)
	return isFn && fn.Kind() == sandbox.FuncAsync
}
