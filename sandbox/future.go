package sandbox

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/wippyai/suspendjs/errors"
)

// FutureState is the settlement state of a Future.
type FutureState uint8

const (
	Pending FutureState = iota
	Fulfilled
	Rejected
)

func (s FutureState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// ErrPending is returned by Result for a future that has not settled.
var ErrPending = stderrors.New("sandbox: future is pending")

// Future is a value that settles once, to a result or a failure.
// Scripts see it as a promise with then and catch.
type Future struct {
	err      error
	value    Value
	loop     *Loop
	done     chan struct{}
	handlers []func(Value, error)
	mu       sync.Mutex
	state    FutureState
	locked   bool
}

func newFuture(loop *Loop) *Future {
	return &Future{loop: loop, done: make(chan struct{})}
}

// Resolved returns a future fulfilled with v. If v is already a future it
// is returned as is.
func Resolved(loop *Loop, v Value) *Future {
	if f, ok := v.(*Future); ok {
		return f
	}
	d := NewDeferred(loop)
	d.Resolve(v)
	return d.Future()
}

// Failed returns a future rejected with err.
func Failed(loop *Loop, err error) *Future {
	d := NewDeferred(loop)
	d.Fail(err)
	return d.Future()
}

func (f *Future) State() FutureState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Future) Settled() bool {
	return f.State() != Pending
}

// Done is closed once the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result returns the settled outcome, or ErrPending.
func (f *Future) Result() (Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Fulfilled:
		return f.value, nil
	case Rejected:
		return nil, f.err
	}
	return nil, ErrPending
}

// Wait drives the future's loop until the future settles or ctx ends.
// It must not be called from a job running on the same loop.
func (f *Future) Wait(ctx context.Context) (Value, error) {
	return f.loop.Await(ctx, f)
}

// OnSettle queues fn as a job once the future settles. Handlers run in
// registration order.
func (f *Future) OnSettle(fn func(v Value, err error)) {
	f.mu.Lock()
	if f.state == Pending {
		f.handlers = append(f.handlers, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	f.loop.Post(func() { fn(v, err) })
}

func (f *Future) settle(v Value, err error) {
	f.mu.Lock()
	if f.state != Pending {
		f.mu.Unlock()
		return
	}
	if err != nil {
		f.state, f.err = Rejected, err
	} else {
		f.state, f.value = Fulfilled, normalize(v)
	}
	handlers := f.handlers
	f.handlers = nil
	v, err = f.value, f.err
	close(f.done)
	f.mu.Unlock()

	for _, h := range handlers {
		f.loop.Post(func() { h(v, err) })
	}
}

// lock claims the right to settle. Only the first claim succeeds.
func (f *Future) lock() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked {
		return false
	}
	f.locked = true
	return true
}

// Deferred is the settling side of a Future. Resolve, Reject and Fail
// are safe from any goroutine; only the first call has an effect.
type Deferred struct {
	f *Future
}

func NewDeferred(loop *Loop) *Deferred {
	return &Deferred{f: newFuture(loop)}
}

func (d *Deferred) Future() *Future {
	return d.f
}

// Resolve fulfils the future with v. When v is a future the outcome is
// adopted from it once it settles. Resolve reports whether this call
// settled the future.
func (d *Deferred) Resolve(v Value) bool {
	if !d.f.lock() {
		return false
	}
	other, ok := v.(*Future)
	switch {
	case !ok:
		d.f.settle(v, nil)
	case other == d.f:
		d.f.settle(nil, throwf(errors.Pos{}, "TypeError", "future resolved with itself"))
	default:
		other.OnSettle(d.f.settle)
	}
	return true
}

// Reject fails the future with a script value as reason.
func (d *Deferred) Reject(reason Value) bool {
	return d.Fail(&Exception{Value: normalize(reason)})
}

// Fail fails the future with err.
func (d *Deferred) Fail(err error) bool {
	if err == nil {
		err = &Exception{Value: Undefined}
	}
	if !d.f.lock() {
		return false
	}
	d.f.settle(nil, err)
	return true
}
