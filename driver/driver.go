// Package driver runs generator-shaped functions with the calling
// convention of async functions: each call returns a future that settles
// with the generator's final value.
package driver

import (
	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/sandbox"
)

// State is the phase of one driven invocation.
type State uint8

const (
	// StateDriving means a step is running on the loop.
	StateDriving State = iota
	// StateAwaiting means the last yielded value has not settled.
	StateAwaiting
	// StateSettled means the future has its outcome.
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateDriving:
		return "driving"
	case StateAwaiting:
		return "awaiting"
	case StateSettled:
		return "settled"
	}
	return "unknown"
}

// Config configures a Driver.
type Config struct {
	Logger *zap.Logger
}

// Driver adapts generator and plain functions to future-returning ones.
type Driver struct {
	log *zap.Logger
}

func New(cfg Config) *Driver {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Driver{log: cfg.Logger}
}

// Wrap returns a function that, called from Go or script, returns a
// future. Generator functions are driven step by step; plain functions
// run in a queued job. Async functions are returned unchanged. A
// generator produced as the final value, or yielded, is driven in turn.
//
// source, when not empty, becomes the text the wrapper's toString
// reports; otherwise fn's own text is kept.
func (d *Driver) Wrap(fn *sandbox.Function, source string) *sandbox.Function {
	if fn.IsAsync() {
		return fn
	}
	if source == "" {
		source = fn.Source()
	}

	var w *sandbox.Function
	if fn.Kind() == sandbox.FuncGenerator {
		w = sandbox.NewAsyncHostFunction(fn.Name(), func(c sandbox.Call) *sandbox.Future {
			v, err := c.Invoke(fn, c.This, c.Args...)
			if err != nil {
				return sandbox.Failed(c.Loop(), err)
			}
			g, ok := v.(*sandbox.Generator)
			if !ok {
				return sandbox.Resolved(c.Loop(), v)
			}
			return d.Drive(c.Loop(), g)
		})
	} else {
		w = sandbox.NewAsyncHostFunction(fn.Name(), func(c sandbox.Call) *sandbox.Future {
			def := sandbox.NewDeferred(c.Loop())
			c.Loop().Post(func() {
				v, err := c.Invoke(fn, c.This, c.Args...)
				if err != nil {
					def.Fail(err)
					return
				}
				if g, ok := v.(*sandbox.Generator); ok {
					v = d.Drive(c.Loop(), g)
				}
				def.Resolve(v)
			})
			return def.Future()
		})
	}
	w.SetSource(source)
	return w
}

// Drive advances g until it finishes and returns a future of its final
// value. It must be called on the goroutine driving loop.
func (d *Driver) Drive(loop *sandbox.Loop, g *sandbox.Generator) *sandbox.Future {
	return drive(d.log, loop, g)
}

func drive(log *zap.Logger, loop *sandbox.Loop, g *sandbox.Generator) *sandbox.Future {
	r := &run{
		log:  log,
		loop: loop,
		gen:  g,
		def:  sandbox.NewDeferred(loop),
	}
	r.step(nil, nil)
	return r.def.Future()
}

// run is the state of one invocation. At most one continuation is
// pending at a time.
type run struct {
	log   *zap.Logger
	loop  *sandbox.Loop
	gen   *sandbox.Generator
	def   *sandbox.Deferred
	steps int
	state State
}

func (r *run) transition(s State) {
	r.state = s
	if ce := r.log.Check(zap.DebugLevel, "driver state"); ce != nil {
		ce.Write(zap.Stringer("state", s), zap.Int("steps", r.steps))
	}
}

// step resumes the generator with v, or raises err at its pending yield.
func (r *run) step(v sandbox.Value, err error) {
	for {
		r.transition(StateDriving)
		r.steps++

		var out sandbox.Value
		var done bool
		var serr error
		if err != nil {
			out, done, serr = r.gen.Throw(err)
		} else {
			out, done, serr = r.gen.Next(v)
		}

		switch {
		case serr != nil:
			r.transition(StateSettled)
			r.def.Fail(serr)
			return

		case done:
			// a generator returned as the final value is drained in place
			if inner, ok := out.(*sandbox.Generator); ok {
				r.gen = inner
				v, err = nil, nil
				continue
			}
			r.transition(StateSettled)
			r.def.Resolve(out)
			return
		}

		r.transition(StateAwaiting)
		// a yielded generator comes from calling another rewritten
		// function and is driven to its own final value
		if inner, ok := out.(*sandbox.Generator); ok {
			drive(r.log, r.loop, inner).OnSettle(r.step)
			return
		}
		sandbox.Resolved(r.loop, out).OnSettle(r.step)
		return
	}
}
