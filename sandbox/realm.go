package sandbox

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax"
)

// maxDepth bounds nested script calls.
const maxDepth = 400

// Globals maps global names to Go or sandbox values. Go values are
// converted with ToValue.
type Globals map[string]any

// Options configures a Realm. The zero value is usable.
type Options struct {
	Logger *zap.Logger
	// Loop runs the realm's jobs. Realms that exchange functions or
	// futures must share one loop. Nil creates a private loop.
	Loop *Loop
	// Timeout bounds each Evaluate and Invoke call.
	Timeout time.Duration
	// StepLimit bounds the statements executed per Evaluate and Invoke call.
	StepLimit int
}

// Realm is an isolated global scope. Its global names are exactly the
// bindings it was created with plus undefined, NaN and Infinity. Script
// values have no prototype chain, so no expression reaches a constructor
// or the Go environment.
//
// A Realm is not safe for concurrent use except through its Loop.
type Realm struct {
	global   *scope
	loop     *Loop
	log      *zap.Logger
	live     map[*coroutine]struct{}
	deadline time.Time
	opts     Options
	steps    int
	limit    int
	depth    int
}

// New creates a realm exposing globals. Values that cannot be converted
// are logged and skipped.
func New(globals Globals, opts Options) *Realm {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Loop == nil {
		opts.Loop = NewLoop()
	}
	r := &Realm{
		global: newScope(nil, true),
		loop:   opts.Loop,
		log:    opts.Logger,
		live:   make(map[*coroutine]struct{}),
		opts:   opts,
	}
	for name, v := range globals {
		if err := r.Set(name, v); err != nil {
			r.log.Warn("skipping global", zap.String("name", name), zap.Error(err))
		}
	}
	r.global.declare("undefined", bindConst, Undefined)
	r.global.declare("NaN", bindConst, math.NaN())
	r.global.declare("Infinity", bindConst, math.Inf(1))
	return r
}

// Set binds name in the global scope.
func (r *Realm) Set(name string, v any) error {
	val, err := ToValue(v)
	if err != nil {
		return errors.Wrap(errors.PhaseEvaluate, errors.KindInvalidInput, err, "global "+name)
	}
	r.global.declare(name, bindVar, val)
	return nil
}

// Global returns the value bound to name.
func (r *Realm) Global(name string) (Value, bool) {
	b, ok := r.global.vars[name]
	if !ok {
		return nil, false
	}
	return b.value, true
}

func (r *Realm) Loop() *Loop {
	return r.loop
}

// Evaluate parses and runs src as a program and returns the value of the
// last expression statement executed. Parse failures are returned as
// syntax errors; uncaught throws as *Exception.
func (r *Realm) Evaluate(ctx context.Context, src string) (Value, error) {
	t, err := syntax.Parse(src)
	if err != nil {
		return nil, err
	}
	return r.EvaluateTree(ctx, t)
}

// EvaluateTree runs an already parsed program.
func (r *Realm) EvaluateTree(ctx context.Context, t *syntax.Tree) (Value, error) {
	var out Value
	var err error
	r.budget(ctx, func() {
		fr := &frame{realm: r, tree: t, this: Undefined, completion: Undefined}
		fr.hoistVars(r.global, t.Root)
		if _, _, err = fr.block(r.global, t.List(t.Root)); err == nil {
			out = fr.completion
		}
	})
	if err != nil {
		return nil, err
	}
	return normalize(out), nil
}

// Invoke calls fn with this and args under the realm's budget.
func (r *Realm) Invoke(ctx context.Context, fn *Function, this Value, args ...Value) (Value, error) {
	var out Value
	var err error
	r.budget(ctx, func() {
		out, err = r.call(fn, this, args)
	})
	return out, err
}

// Call calls fn from a job already running on the realm's loop. No budget
// is set up; the caller's is in force.
func (r *Realm) Call(fn *Function, this Value, args ...Value) (Value, error) {
	return r.call(fn, this, args)
}

// budget runs fn on the loop with the step and time limits in force,
// including the jobs fn queues.
func (r *Realm) budget(ctx context.Context, fn func()) {
	r.loop.Do(ctx, func() {
		r.steps, r.limit = 0, r.opts.StepLimit
		if r.opts.Timeout > 0 {
			r.deadline = time.Now().Add(r.opts.Timeout)
		}
		defer func() {
			r.limit = 0
			r.deadline = time.Time{}
		}()
		fn()
		r.loop.drain()
	})
}

// tick counts one executed statement against the budget.
func (r *Realm) tick() error {
	r.steps++
	if r.limit > 0 && r.steps > r.limit {
		return errors.Limit(errors.PhaseEvaluate, r.limit)
	}
	if r.steps&1023 != 0 {
		return nil
	}
	if !r.deadline.IsZero() && time.Now().After(r.deadline) {
		return errors.Timeout(errors.PhaseEvaluate, r.opts.Timeout.String())
	}
	return r.loop.context().Err()
}

func (r *Realm) newCoroutine(body func(co *coroutine) (Value, error)) *coroutine {
	co := newCoroutine(body)
	r.live[co] = struct{}{}
	co.release = func() { delete(r.live, co) }
	return co
}

// Close abandons suspended generator and async bodies so their
// goroutines exit. Futures they would have settled stay pending.
func (r *Realm) Close() {
	r.loop.Do(context.Background(), func() {
		if n := len(r.live); n > 0 {
			r.log.Debug("closing live coroutines", zap.Int("count", n))
		}
		for co := range r.live {
			co.close()
		}
	})
}

// Evaluator evaluates text in a fresh realm per call.
type Evaluator struct{}

func (Evaluator) Evaluate(ctx context.Context, text string, globals Globals, opts Options) (Value, error) {
	return New(globals, opts).Evaluate(ctx, text)
}
