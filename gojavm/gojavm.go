// Package gojavm evaluates programs in goja runtimes.
//
// Evaluator satisfies compile.Evaluator. Script functions reach Go and the
// sandbox as async host functions, so compile calls them without its
// driver: goja runs async functions natively, and a generator a call
// returns is stepped here with the driver's rules. A yielded generator is
// driven to its own final value, and any other yielded value is awaited.
//
// Each Evaluate gets its own runtime. The ECMAScript built-ins remain,
// but eval, Function, globalThis and the constructor properties of
// function prototypes are removed, so no value leads to code evaluation.
// Options.Timeout bounds every entry into the runtime. Options.StepLimit
// is not enforced.
package gojavm

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/sandbox"
)

// maxCallStack bounds nested script calls.
const maxCallStack = 400

// prelude strips the code-evaluating constructors and returns the helpers
// the bridge calls. The helpers close over the originals so script code
// cannot redirect them.
const prelude = `(function () {
	var protos = [
		Function.prototype,
		Object.getPrototypeOf(function* () {}),
		Object.getPrototypeOf(async function () {}),
	];
	for (var i = 0; i < protos.length; i++) {
		Object.defineProperty(protos[i], "constructor", { value: undefined });
	}
	var global = globalThis;
	delete global.eval;
	delete global.Function;
	delete global.globalThis;

	var toString = Object.prototype.toString;
	var resolve = Promise.resolve.bind(Promise);
	var then = Promise.prototype.then;
	var ErrorCtor = Error;
	return {
		tag: function (v) { return toString.call(v); },
		then: function (v, ok, fail) { then.call(resolve(v), ok, fail); },
		error: function (name, message) {
			var e = new ErrorCtor(message);
			e.name = name;
			return e;
		},
	};
})()`

// Evaluator evaluates text in a fresh goja runtime per call.
type Evaluator struct{}

func (Evaluator) Evaluate(ctx context.Context, text string, globals sandbox.Globals, opts sandbox.Options) (sandbox.Value, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Loop == nil {
		opts.Loop = sandbox.NewLoop()
	}

	var out sandbox.Value
	var err error
	opts.Loop.Do(ctx, func() {
		var r *runtime
		if r, err = newRuntime(globals, opts); err != nil {
			return
		}
		var v goja.Value
		v, err = r.enter(ctx, func() (goja.Value, error) {
			return r.vm.RunString(text)
		})
		if err == nil {
			out = r.export(v)
		}
	})
	return out, err
}

// runtime is one goja runtime and the bridge to its loop. It is only
// touched from jobs on loop.
type runtime struct {
	vm   *goja.Runtime
	host *sandbox.Realm
	loop *sandbox.Loop
	log  *zap.Logger
	opts sandbox.Options
	// pending holds the futures of calls that have not settled.
	pending map[*sandbox.Deferred]struct{}

	tag      goja.Callable
	then     goja.Callable
	newError goja.Callable
}

func newRuntime(globals sandbox.Globals, opts sandbox.Options) (*runtime, error) {
	r := &runtime{
		vm:   goja.New(),
		host: sandbox.New(nil, opts),
		loop: opts.Loop,
		log:  opts.Logger,
		opts: opts,

		pending: make(map[*sandbox.Deferred]struct{}),
	}
	r.vm.SetMaxCallStackSize(maxCallStack)

	v, err := r.vm.RunString(prelude)
	if err != nil {
		return nil, fmt.Errorf("prelude: %w", err)
	}
	helpers := v.ToObject(r.vm)
	for name, dst := range map[string]*goja.Callable{"tag": &r.tag, "then": &r.then, "error": &r.newError} {
		fn, ok := goja.AssertFunction(helpers.Get(name))
		if !ok {
			return nil, fmt.Errorf("prelude: %s is not a function", name)
		}
		*dst = fn
	}

	for name, g := range globals {
		if err := r.set(name, g); err != nil {
			r.log.Warn("skipping global", zap.String("name", name), zap.Error(err))
		}
	}
	return r, nil
}

func (r *runtime) set(name string, g any) error {
	val, err := sandbox.ToValue(g)
	if err != nil {
		return errors.Wrap(errors.PhaseEvaluate, errors.KindInvalidInput, err, "global "+name)
	}
	v, err := r.importValue(val)
	if err != nil {
		return errors.Wrap(errors.PhaseEvaluate, errors.KindInvalidInput, err, "global "+name)
	}
	return r.vm.Set(name, v)
}

// enter runs fn in the runtime where the timeout and ctx can interrupt it.
func (r *runtime) enter(ctx context.Context, fn func() (goja.Value, error)) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var timer *time.Timer
	if after := r.opts.Timeout; after > 0 {
		timer = time.AfterFunc(after, func() {
			r.vm.Interrupt(errors.Timeout(errors.PhaseEvaluate, after.String()))
		})
	}
	stop := context.AfterFunc(ctx, func() {
		r.vm.Interrupt(ctx.Err())
	})

	v, err := fn()

	stop()
	if timer != nil {
		timer.Stop()
	}
	r.vm.ClearInterrupt()
	if err = r.failure(err); err != nil && uncatchable(err) {
		r.abort(err)
	}
	return v, err
}

// thrown is an uncaught script exception. It keeps the thrown value so a
// rethrow into the runtime preserves its identity.
type thrown struct {
	ex    *sandbox.Exception
	value goja.Value
}

func (t *thrown) Error() string { return t.ex.Error() }
func (t *thrown) Unwrap() error { return t.ex }

func (r *runtime) failure(err error) error {
	if err == nil {
		return nil
	}
	var interrupted *goja.InterruptedError
	if stderrors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return err
	}
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		return r.rejection(ex.Value())
	}
	var syn *goja.CompilerSyntaxError
	if stderrors.As(err, &syn) {
		return errors.Wrap(errors.PhaseEvaluate, errors.KindSyntax, err, "goja")
	}
	return err
}

func (r *runtime) rejection(reason goja.Value) error {
	return &thrown{ex: &sandbox.Exception{Value: r.export(reason)}, value: reason}
}

// reason is the script value a failure is thrown or rejected with.
func (r *runtime) reason(err error) goja.Value {
	var t *thrown
	if stderrors.As(err, &t) {
		return t.value
	}
	v, ierr := r.importValue(sandbox.ReasonValue(err))
	if ierr != nil {
		return r.vm.ToValue(err.Error())
	}
	return v
}

func uncatchable(err error) bool {
	return stderrors.Is(err, errors.ErrTimeout) ||
		stderrors.Is(err, errors.ErrLimit) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, context.DeadlineExceeded)
}

func (r *runtime) classOf(v goja.Value) string {
	out, err := r.tag(goja.Undefined(), v)
	if err != nil {
		return ""
	}
	return out.String()
}

func (r *runtime) generator(v goja.Value) (*goja.Object, bool) {
	obj, ok := v.(*goja.Object)
	if !ok || r.classOf(obj) != "[object Generator]" {
		return nil, false
	}
	return obj, true
}

// await calls ok or fail once v settles, each in a later loop job.
// Values that are not promises settle at once.
func (r *runtime) await(v goja.Value, ok func(goja.Value), fail func(error)) {
	onOK := func(c goja.FunctionCall) goja.Value {
		x := c.Argument(0)
		r.loop.Post(func() { ok(x) })
		return goja.Undefined()
	}
	onFail := func(c goja.FunctionCall) goja.Value {
		x := c.Argument(0)
		r.loop.Post(func() { fail(r.rejection(x)) })
		return goja.Undefined()
	}
	if _, err := r.then(goja.Undefined(), v, r.vm.ToValue(onOK), r.vm.ToValue(onFail)); err != nil {
		fail(r.failure(err))
	}
}

// future adopts the outcome of a promise.
func (r *runtime) future(v goja.Value) *sandbox.Future {
	d := sandbox.NewDeferred(r.loop)
	r.await(v,
		func(x goja.Value) { d.Resolve(r.export(x)) },
		func(err error) { d.Fail(err) })
	return d.Future()
}

// promise exposes a sandbox future to scripts. The script code the
// settlement resumes runs under the runtime's timeout.
func (r *runtime) promise(f *sandbox.Future) goja.Value {
	p, resolve, reject := r.vm.NewPromise()
	f.OnSettle(func(v sandbox.Value, err error) {
		_, err = r.enter(context.Background(), func() (goja.Value, error) {
			if err == nil {
				gv, ierr := r.importValue(v)
				if ierr == nil {
					return nil, resolve(gv)
				}
				err = ierr
			}
			return nil, reject(r.reason(err))
		})
		if err != nil && !uncatchable(err) {
			r.log.Warn("settling promise", zap.Error(err))
		}
	})
	return r.vm.ToValue(p)
}

// abort fails every call in flight. goja drops its pending jobs once an
// uncatchable error unwinds the runtime, so those calls cannot settle.
func (r *runtime) abort(err error) {
	if len(r.pending) == 0 {
		return
	}
	r.log.Warn("aborting calls", zap.Int("pending", len(r.pending)), zap.Error(err))
	for d := range r.pending {
		d.Fail(err)
	}
	clear(r.pending)
}

// function exposes a script function to Go and the sandbox. Every call
// returns a future.
func (r *runtime) function(obj *goja.Object, call goja.Callable) *sandbox.Function {
	fn := sandbox.NewAsyncHostFunction(str(obj.Get("name")), func(c sandbox.Call) *sandbox.Future {
		d := sandbox.NewDeferred(r.loop)
		args := make([]goja.Value, len(c.Args))
		for i, a := range c.Args {
			v, err := r.importValue(a)
			if err != nil {
				d.Fail(errors.Wrap(errors.PhaseRuntime, errors.KindInvalidInput, err, fmt.Sprintf("argument %d", i+1)))
				return d.Future()
			}
			args[i] = v
		}

		r.pending[d] = struct{}{}
		d.Future().OnSettle(func(sandbox.Value, error) {
			delete(r.pending, d)
		})

		ctx := c.Context
		r.loop.Post(func() {
			v, err := r.enter(ctx, func() (goja.Value, error) {
				return call(goja.Undefined(), args...)
			})
			if err != nil {
				d.Fail(err)
				return
			}
			gen, ok := r.generator(v)
			if !ok {
				d.Resolve(r.export(v))
				return
			}
			top := &run{rt: r, ctx: ctx, gen: gen}
			top.done = func(v goja.Value, err error) {
				r.log.Debug("generator settled", zap.Int("steps", top.steps), zap.Bool("failed", err != nil))
				if err != nil {
					d.Fail(err)
					return
				}
				d.Resolve(r.export(v))
			}
			top.next(goja.Undefined())
		})
		return d.Future()
	})
	fn.SetSource(obj.String())
	return fn
}

// hostFunc exposes a sandbox function to scripts. A returned future
// becomes a promise; a failure is thrown.
func (r *runtime) hostFunc(fn *sandbox.Function) goja.Value {
	return r.vm.ToValue(func(c goja.FunctionCall) goja.Value {
		args := make([]sandbox.Value, len(c.Arguments))
		for i, a := range c.Arguments {
			args[i] = r.export(a)
		}
		v, err := r.host.Call(fn, sandbox.Undefined, args...)
		if err == nil {
			var out goja.Value
			if out, err = r.importValue(v); err == nil {
				return out
			}
		}
		panic(r.reason(err))
	})
}

// run is one driven generator. At most one continuation is pending.
type run struct {
	rt    *runtime
	ctx   context.Context
	gen   *goja.Object
	done  func(goja.Value, error)
	steps int
}

func (d *run) next(v goja.Value) { d.step("next", v) }

// throw raises err at the pending yield. Timeouts and cancellation end
// the run instead.
func (d *run) throw(err error) {
	if uncatchable(err) {
		d.done(nil, err)
		return
	}
	d.step("throw", d.rt.reason(err))
}

func (d *run) step(method string, arg goja.Value) {
	r := d.rt
	for {
		d.steps++
		resume, ok := goja.AssertFunction(d.gen.Get(method))
		if !ok {
			d.done(nil, fmt.Errorf("generator has no %s method", method))
			return
		}
		res, err := r.enter(d.ctx, func() (goja.Value, error) {
			return resume(d.gen, arg)
		})
		if err != nil {
			d.done(nil, err)
			return
		}
		result, ok := res.(*goja.Object)
		if !ok {
			d.done(nil, fmt.Errorf("generator %s returned %s", method, res))
			return
		}
		out := result.Get("value")

		if v := result.Get("done"); v != nil && v.ToBoolean() {
			// a generator returned as the final value is drained in place
			if inner, ok := r.generator(out); ok {
				d.gen, method, arg = inner, "next", goja.Undefined()
				continue
			}
			d.done(out, nil)
			return
		}

		if inner, ok := r.generator(out); ok {
			sub := &run{rt: r, ctx: d.ctx, gen: inner}
			sub.done = func(v goja.Value, err error) {
				if err != nil {
					d.throw(err)
					return
				}
				r.await(v, d.next, d.throw)
			}
			sub.next(goja.Undefined())
			return
		}
		r.await(out, d.next, d.throw)
		return
	}
}

// importValue converts a sandbox value for scripts. Functions and
// futures are bridged; objects and arrays are copied.
func (r *runtime) importValue(v sandbox.Value) (goja.Value, error) {
	return r.imp(v, make(map[any]goja.Value))
}

func (r *runtime) imp(v sandbox.Value, seen map[any]goja.Value) (goja.Value, error) {
	switch v {
	case nil, sandbox.Undefined:
		return goja.Undefined(), nil
	case sandbox.Null:
		return goja.Null(), nil
	}

	switch x := v.(type) {
	case bool, float64, string:
		return r.vm.ToValue(x), nil
	case *sandbox.Function:
		return r.hostFunc(x), nil
	case *sandbox.Future:
		return r.promise(x), nil
	case *sandbox.Array:
		if out, ok := seen[x]; ok {
			return out, nil
		}
		arr := r.vm.NewArray()
		seen[x] = arr
		for i, e := range x.Elems {
			ge, err := r.imp(e, seen)
			if err != nil {
				return nil, err
			}
			if err := arr.Set(strconv.Itoa(i), ge); err != nil {
				return nil, err
			}
		}
		return arr, nil
	case *sandbox.Object:
		if out, ok := seen[x]; ok {
			return out, nil
		}
		if x.Class == "Error" {
			name, _ := x.Get("name")
			msg, _ := x.Get("message")
			return r.newError(goja.Undefined(), r.vm.ToValue(sandbox.ToString(name)), r.vm.ToValue(sandbox.ToString(msg)))
		}
		obj := r.vm.NewObject()
		seen[x] = obj
		for _, k := range x.Keys() {
			pv, _ := x.Get(k)
			gv, err := r.imp(pv, seen)
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k, gv); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}
	return nil, fmt.Errorf("cannot pass a %s to goja", sandbox.TypeOf(v))
}

// export converts a script value for Go and the sandbox. Functions and
// promises are bridged; objects and arrays are copied with their cycles.
func (r *runtime) export(v goja.Value) sandbox.Value {
	return r.exp(v, make(map[*goja.Object]sandbox.Value))
}

func (r *runtime) exp(v goja.Value, seen map[*goja.Object]sandbox.Value) sandbox.Value {
	if v == nil || goja.IsUndefined(v) {
		return sandbox.Undefined
	}
	if goja.IsNull(v) {
		return sandbox.Null
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		switch x := v.Export().(type) {
		case int64:
			return float64(x)
		case float64, string, bool:
			return x
		}
		return v.String()
	}
	if out, ok := seen[obj]; ok {
		return out
	}
	if call, ok := goja.AssertFunction(obj); ok {
		fn := r.function(obj, call)
		seen[obj] = fn
		return fn
	}

	switch r.classOf(obj) {
	case "[object Promise]":
		if _, ok := obj.Export().(*goja.Promise); ok {
			f := r.future(obj)
			seen[obj] = f
			return f
		}
	case "[object Array]":
		arr := sandbox.NewArray()
		seen[obj] = arr
		n := obj.Get("length").ToInteger()
		for i := int64(0); i < n; i++ {
			arr.Elems = append(arr.Elems, r.exp(obj.Get(strconv.FormatInt(i, 10)), seen))
		}
		return arr
	case "[object Error]":
		return sandbox.NewError(str(obj.Get("name")), str(obj.Get("message")))
	}

	out := sandbox.NewObject()
	seen[obj] = out
	for _, k := range obj.Keys() {
		out.Set(k, r.exp(obj.Get(k), seen))
	}
	return out
}

func str(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}
