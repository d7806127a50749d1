package suspend

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/capability"
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/suspend/internal/engine"
	"github.com/wippyai/suspendjs/syntax"
)

// Output selects the shape of rewritten functions.
type Output = engine.Output

const (
	// OutputAuto picks OutputNative when the sandbox supports async
	// functions and OutputCooperative otherwise.
	OutputAuto = engine.OutputAuto
	// OutputCooperative rewrites to generator functions and yield.
	OutputCooperative = engine.OutputCooperative
	// OutputNative rewrites to async functions and await.
	OutputNative = engine.OutputNative
)

// Report summarises one rewrite: propagation steps, final literal names
// and counts of rewritten sites and functions.
type Report = engine.Report

// Step records the names one propagation traversal added.
type Step = engine.Step

// Config configures a rewrite.
type Config struct {
	Logger *zap.Logger
	Output Output
}

// ParseOutput reads an output mode name.
func ParseOutput(s string) (Output, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return OutputAuto, nil
	case "cooperative", "generator":
		return OutputCooperative, nil
	case "native", "async":
		return OutputNative, nil
	}
	return OutputAuto, errors.Configuration(errors.PhaseConfig, "unsupported output mode %q", s)
}

// ResolveOutput turns OutputAuto into a concrete shape using the
// process-wide capability probe. Other values are returned unchanged.
func ResolveOutput(o Output) Output {
	if o != OutputAuto {
		return o
	}
	if capability.Supported() {
		return OutputNative
	}
	return OutputCooperative
}

// Transform parses src, rewrites every call that can reach a suspending
// callee and prints the result.
//
// names is never modified.
func Transform(src string, names []Pattern, cfg Config) (string, error) {
	set, err := NewNameSet(names...)
	if err != nil {
		return "", err
	}
	tree, err := syntax.Parse(src)
	if err != nil {
		return "", err
	}
	if _, err := TransformTree(tree, set, cfg); err != nil {
		return "", err
	}
	return syntax.Generate(tree), nil
}

// TransformTree rewrites t in place. The rewrite works on a clone of
// names, so the caller's set stays unfrozen and unchanged.
//
// On error t is left untouched.
func TransformTree(t *syntax.Tree, names *NameSet, cfg Config) (Report, error) {
	if t == nil || names == nil {
		return Report{}, errors.InvalidInput(errors.PhaseRewrite, "nil tree or name set")
	}
	switch cfg.Output {
	case OutputAuto, OutputCooperative, OutputNative:
	default:
		return Report{}, errors.Configuration(errors.PhaseConfig, "unsupported output mode %s", cfg.Output)
	}

	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	output := ResolveOutput(cfg.Output)
	if cfg.Output == OutputAuto {
		log.Debug("resolved output shape", zap.Stringer("output", output))
	}

	eng := engine.New(engine.Config{Logger: log, Output: output})
	return eng.Run(t, names.Clone())
}
