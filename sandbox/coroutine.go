package sandbox

import (
	stderrors "errors"
	"iter"
)

// coroutine runs a function body on a pull-style iterator so it can stop
// at yield and await. Body and caller strictly alternate: the body only
// runs inside resume.
type coroutine struct {
	next    func() (Value, bool)
	stop    func()
	yield   func(Value) bool
	release func()
	input   Value
	inErr   error
	result  Value
	err     error
	started bool
	running bool
	done    bool
}

func newCoroutine(body func(co *coroutine) (Value, error)) *coroutine {
	co := &coroutine{}
	seq := func(yield func(Value) bool) {
		co.yield = yield
		v, err := body(co)
		var rs *returnSignal
		if stderrors.As(err, &rs) {
			v, err = rs.value, nil
		}
		co.result, co.err = normalize(v), err
	}
	co.next, co.stop = iter.Pull(seq)
	return co
}

// suspend hands v to the caller of resume and blocks until the next
// resume. It runs on the body's side.
func (co *coroutine) suspend(v Value) (Value, error) {
	if !co.yield(v) {
		return nil, errStopped
	}
	in, err := co.input, co.inErr
	co.input, co.inErr = nil, nil
	return normalize(in), err
}

// resume runs the body until it suspends or finishes. err is raised at
// the suspension point instead of delivering v.
func (co *coroutine) resume(v Value, err error) (out Value, done bool, rerr error) {
	if co.done {
		return Undefined, true, nil
	}
	co.started = true
	co.input, co.inErr = v, err
	co.running = true
	out, ok := co.next()
	co.running = false
	if !ok {
		co.finish()
		return co.result, true, co.err
	}
	return normalize(out), false, nil
}

// close abandons a suspended body.
func (co *coroutine) close() {
	co.finish()
	co.stop()
}

func (co *coroutine) finish() {
	co.done = true
	if co.release != nil {
		co.release()
		co.release = nil
	}
}

// Generator is the object a generator function returns. Each call to
// Next runs the body to its next yield.
type Generator struct {
	co *coroutine
	fn *Function
}

// Function returns the generator function that created g.
func (g *Generator) Function() *Function {
	return g.fn
}

// Done reports whether the body has finished.
func (g *Generator) Done() bool {
	return g.co.done
}

func (g *Generator) checkRunning() error {
	if g.co.running {
		return throwf(Pos{}, "TypeError", "generator is already running")
	}
	return nil
}

// Next resumes the body with v as the value of the pending yield. The
// first call starts the body and v is ignored.
func (g *Generator) Next(v Value) (value Value, done bool, err error) {
	if err := g.checkRunning(); err != nil {
		return nil, false, err
	}
	return g.co.resume(v, nil)
}

// Throw raises err at the pending yield. A generator that has not
// started finishes immediately and Throw returns err.
func (g *Generator) Throw(err error) (value Value, done bool, rerr error) {
	if e := g.checkRunning(); e != nil {
		return nil, false, e
	}
	if !g.co.started || g.co.done {
		g.co.close()
		return nil, true, err
	}
	return g.co.resume(nil, err)
}

// Return finishes the generator with v, running pending finally blocks.
func (g *Generator) Return(v Value) (value Value, done bool, err error) {
	if e := g.checkRunning(); e != nil {
		return nil, false, e
	}
	if !g.co.started || g.co.done {
		g.co.close()
		return normalize(v), true, nil
	}
	return g.co.resume(nil, &returnSignal{value: normalize(v)})
}

// stepResult builds the {value, done} object scripts receive.
func stepResult(v Value, done bool) *Object {
	o := NewObject()
	o.Set("value", normalize(v))
	o.Set("done", done)
	return o
}
