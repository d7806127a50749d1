package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax"
)

// Names is the growable set of suspending callee names.
//
// Match applies every pattern in order; Contains only reports names that
// were added literally. Add returns false when the literal is already
// present and panics once the set is frozen.
type Names interface {
	Match(name string) bool
	Contains(name string) bool
	Add(name string) bool
	Literals() []string
	Freeze()
}

// Output selects the shape of rewritten functions.
type Output uint8

const (
	// OutputAuto defers the choice to the caller's capability probe.
	// The engine itself only accepts a resolved shape.
	OutputAuto Output = iota
	// OutputCooperative produces generator functions with yield points.
	OutputCooperative
	// OutputNative produces async functions with await points.
	OutputNative
)

func (o Output) String() string {
	switch o {
	case OutputAuto:
		return "auto"
	case OutputCooperative:
		return "cooperative"
	case OutputNative:
		return "native"
	}
	return fmt.Sprintf("output(%d)", uint8(o))
}

// Step records one propagation traversal.
type Step struct {
	Added  []string // names added, in discovery order
	Marked []string // named functions first found to suspend
}

// Report summarises one Run.
type Report struct {
	Steps       []Step
	Names       []string // literal names after propagation
	Output      Output
	Iterations  int // full propagation traversals, including the final one
	Identifiers int // distinct identifier names in the program
	Rewritten   int // call sites wrapped
	Coroutines  int // functions given a coroutine shape
	TopLevel    int // wrapped call sites outside any function
}

// Config configures the engine.
type Config struct {
	Logger *zap.Logger
	Output Output
}

// Engine runs propagation, rewriting and marking over one tree.
//
// The engine keeps no state between Run calls.
type Engine struct {
	log    *zap.Logger
	output Output
}

func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, output: cfg.Output}
}

// Run grows names to a fixpoint, freezes it and rewrites t in place.
//
// The pipeline:
//  1. Propagate aliases and callers until a traversal adds nothing
//  2. Freeze the name set
//  3. Collect every matching call site, failing before any mutation
//  4. Wrap the sites and mark their enclosing functions
func (e *Engine) Run(t *syntax.Tree, names Names) (Report, error) {
	if e.output != OutputCooperative && e.output != OutputNative {
		return Report{}, errors.Configuration(errors.PhaseRewrite, "unresolved output shape %s", e.output)
	}

	report, err := e.propagate(t, names)
	if err != nil {
		return Report{}, err
	}
	names.Freeze()

	sites, err := collectSites(t, names)
	if err != nil {
		return Report{}, err
	}
	report.Output = e.output
	report.Rewritten = len(sites)

	fns, topLevel := rewrite(t, sites, e.output)
	for _, fn := range fns {
		markFunction(t, fn, e.output)
	}
	report.Coroutines = len(fns)
	report.TopLevel = topLevel
	report.Names = names.Literals()

	e.log.Debug("rewrite complete",
		zap.Stringer("output", e.output),
		zap.Int("call_sites", report.Rewritten),
		zap.Int("coroutines", report.Coroutines))
	if report.TopLevel > 0 {
		e.log.Debug("suspension points outside any function",
			zap.Int("count", report.TopLevel))
	}
	return report, nil
}
