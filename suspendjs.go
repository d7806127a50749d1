package suspendjs

import (
	"context"

	"github.com/wippyai/suspendjs/capability"
	"github.com/wippyai/suspendjs/compile"
	"github.com/wippyai/suspendjs/suspend"
)

// Version is reported by the command line tool.
const Version = "0.3.0"

// Transform rewrites every call in src that can reach a callee matched
// by names and returns the printed program.
func Transform(src string, names []suspend.Pattern, cfg suspend.Config) (string, error) {
	return suspend.Transform(src, names, cfg)
}

// Compile rewrites src, evaluates it in an isolated realm and returns
// the function bound to returnName. Calling the result always yields a
// future.
func Compile(ctx context.Context, src, returnName string, names []suspend.Pattern, cfg compile.Config) (*compile.Function, error) {
	set, err := suspend.NewNameSet(names...)
	if err != nil {
		return nil, err
	}
	return compile.Compile(ctx, src, returnName, set, cfg)
}

// CapabilitySupported reports whether the sandbox evaluates async
// functions natively. The probe runs once per process.
func CapabilitySupported() bool {
	return capability.Supported()
}
