// Package compile turns source text into a callable, future-returning
// function whose suspending calls have been rewritten.
package compile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/driver"
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/sandbox"
	"github.com/wippyai/suspendjs/suspend"
	"github.com/wippyai/suspendjs/syntax"
)

// Evaluator runs program text in an isolated scope exposing only
// globals and returns the completion value.
type Evaluator interface {
	Evaluate(ctx context.Context, text string, globals sandbox.Globals, opts sandbox.Options) (sandbox.Value, error)
}

// Config configures Compile.
type Config struct {
	Logger *zap.Logger
	// Evaluator defaults to sandbox.Evaluator.
	Evaluator Evaluator
	// Sandbox holds the only globals the evaluated code can see.
	Sandbox sandbox.Globals
	// Options is passed to the evaluator unexamined. Set Options.Loop to
	// call the result from another realm.
	Options sandbox.Options
	// Output overrides the capability probe when not OutputAuto.
	Output suspend.Output
}

// Function is a compiled function. Calling it always yields a future.
type Function struct {
	value     *sandbox.Function
	realm     *sandbox.Realm
	name      string
	source    string
	rewritten string
	report    suspend.Report
	output    suspend.Output
}

// Compile rewrites src against names, evaluates it and returns the
// function bound to returnName. A nil names is an empty set.
//
// Syntax and configuration errors are returned here; failures while the
// compiled function runs only reach its futures.
func Compile(ctx context.Context, src, returnName string, names *suspend.NameSet, cfg Config) (*Function, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = sandbox.Evaluator{}
	}
	if names == nil {
		names = suspend.MustNameSet()
	}
	if err := checkName(returnName); err != nil {
		return nil, err
	}

	output := suspend.ResolveOutput(cfg.Output)

	tree, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	original := originalText(tree, returnName, src)

	report, err := suspend.TransformTree(tree, names, suspend.Config{Logger: log, Output: output})
	if err != nil {
		return nil, err
	}
	rewritten := syntax.Generate(tree)

	if cfg.Options.Logger == nil {
		cfg.Options.Logger = log
	}
	if cfg.Options.Loop == nil {
		cfg.Options.Loop = sandbox.NewLoop()
	}
	v, err := cfg.Evaluator.Evaluate(ctx, rewritten+"\n"+reference(returnName), cfg.Sandbox, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", returnName, err)
	}
	fn, ok := v.(*sandbox.Function)
	if !ok {
		return nil, errors.NotCallable(errors.PhaseCompile, returnName, sandbox.TypeOf(v))
	}

	// script functions run in the realm that created them
	realm := fn.Realm()
	if realm == nil {
		realm = sandbox.New(nil, cfg.Options)
	}

	value := fn
	if !fn.IsAsync() {
		value = driver.New(driver.Config{Logger: log}).Wrap(fn, original)
	}

	log.Debug("compiled function",
		zap.String("name", returnName),
		zap.Stringer("output", output),
		zap.Int("rewritten", report.Rewritten),
		zap.Int("coroutines", report.Coroutines),
		zap.Bool("driven", value != fn))

	return &Function{
		value:     value,
		realm:     realm,
		name:      returnName,
		source:    original,
		rewritten: rewritten,
		report:    report,
		output:    output,
	}, nil
}

// checkName accepts a single identifier.
func checkName(name string) error {
	t, id, err := syntax.ParseExpression(name)
	if err != nil || t.Kind(id) != syntax.KindIdentifier {
		return errors.Configuration(errors.PhaseCompile, "return name %q is not an identifier", name)
	}
	return nil
}

// reference reads name without failing when it is unbound.
func reference(name string) string {
	return fmt.Sprintf("typeof %s === 'undefined' ? undefined : %s;\n", name, name)
}

// originalText returns the text of the top-level function bound to name
// before rewriting, or src when there is none.
func originalText(t *syntax.Tree, name, src string) string {
	for _, st := range t.List(t.Root) {
		switch t.Kind(st) {
		case syntax.KindFunctionDecl:
			if t.FuncName(st) == name {
				return syntax.GenerateNode(t, st)
			}
		case syntax.KindVarDecl:
			for _, d := range t.List(st) {
				init := t.Child(d, syntax.FieldInit)
				if t.Node(t.Child(d, syntax.FieldID)).Name == name && init != syntax.None && t.Kind(init) == syntax.KindFunctionExpr {
					return syntax.GenerateNode(t, init)
				}
			}
		}
	}
	return src
}

// Call invokes the function with args converted by sandbox.ToValue. The
// returned future carries every failure, including argument conversion.
func (f *Function) Call(ctx context.Context, args ...any) *sandbox.Future {
	loop := f.realm.Loop()
	vals := make([]sandbox.Value, len(args))
	for i, a := range args {
		v, err := sandbox.ToValue(a)
		if err != nil {
			return sandbox.Failed(loop, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err,
				fmt.Sprintf("argument %d", i+1)))
		}
		vals[i] = v
	}

	out, err := f.realm.Invoke(ctx, f.value, sandbox.Undefined, vals...)
	if err != nil {
		return sandbox.Failed(loop, err)
	}
	return sandbox.Resolved(loop, out)
}

// Value returns the future-returning function itself, for binding into
// realms that share its loop.
func (f *Function) Value() *sandbox.Function { return f.value }

// Name returns the name the function was compiled under.
func (f *Function) Name() string { return f.name }

// Source returns the function's text before rewriting.
func (f *Function) Source() string { return f.source }

// Rewritten returns the whole program after rewriting.
func (f *Function) Rewritten() string { return f.rewritten }

func (f *Function) Output() suspend.Output { return f.output }

func (f *Function) Report() suspend.Report { return f.report }

func (f *Function) Loop() *sandbox.Loop { return f.realm.Loop() }

// Close releases the realm the function runs in, stopping coroutines its
// calls left suspended. Callers must Close a function once they stop
// calling it; futures still pending at that point never settle.
func (f *Function) Close() {
	f.realm.Close()
}
