package sandbox

import (
	"context"

	"github.com/wippyai/suspendjs/syntax"
)

// FuncKind distinguishes how calling a function behaves.
type FuncKind uint8

const (
	// FuncNormal runs the body to completion.
	FuncNormal FuncKind = iota
	// FuncGenerator returns a *Generator without running the body.
	FuncGenerator
	// FuncAsync runs the body until its first await and returns a *Future.
	FuncAsync
	// FuncHost calls Go code.
	FuncHost
)

func (k FuncKind) String() string {
	switch k {
	case FuncNormal:
		return "function"
	case FuncGenerator:
		return "generator"
	case FuncAsync:
		return "async"
	case FuncHost:
		return "host"
	}
	return "unknown"
}

// Call carries the receiver and arguments of a host function call.
type Call struct {
	This    Value
	Context context.Context
	realm   *Realm
	Args    []Value
}

// Arg returns argument i, or Undefined when absent.
func (c Call) Arg(i int) Value {
	if i < len(c.Args) {
		return normalize(c.Args[i])
	}
	return Undefined
}

// Loop returns the job loop of the calling realm.
func (c Call) Loop() *Loop {
	return c.realm.loop
}

// Invoke calls fn from inside a host function.
func (c Call) Invoke(fn *Function, this Value, args ...Value) (Value, error) {
	return c.realm.call(fn, this, args)
}

// HostFunc implements a function in Go. A returned error is thrown into
// the calling script, where try/catch sees it as an error object.
type HostFunc func(c Call) (Value, error)

// Function is a callable value: a script closure or a Go callback.
type Function struct {
	host   HostFunc
	props  *Object
	realm  *Realm
	tree   *syntax.Tree
	scope  *scope
	name   string
	source string
	node   syntax.NodeID
	kind   FuncKind
	async  bool
}

// NewHostFunction wraps fn as a script-callable function.
func NewHostFunction(name string, fn HostFunc) *Function {
	return &Function{
		name:   name,
		host:   fn,
		kind:   FuncHost,
		source: "function " + name + "() { [native code] }",
	}
}

// NewAsyncHostFunction wraps fn as a host function that reports itself as
// async: every call returns the future fn produces.
func NewAsyncHostFunction(name string, fn func(c Call) *Future) *Function {
	f := NewHostFunction(name, func(c Call) (Value, error) {
		return fn(c), nil
	})
	f.async = true
	return f
}

func (f *Function) Name() string   { return f.name }
func (f *Function) Kind() FuncKind { return f.kind }

// IsAsync reports whether calling f returns a future: async script
// functions and async host functions.
func (f *Function) IsAsync() bool {
	return f.kind == FuncAsync || f.async
}

// Source returns the text toString() reports.
func (f *Function) Source() string {
	if f.source == "" && f.tree != nil {
		f.source = syntax.GenerateNode(f.tree, f.node)
	}
	return f.source
}

// SetSource replaces the text toString() reports.
func (f *Function) SetSource(src string) {
	f.source = src
}

// Realm returns the realm a script function was created in, or nil for
// host functions.
func (f *Function) Realm() *Realm {
	return f.realm
}

// Props returns the function's own properties.
func (f *Function) Props() *Object {
	if f.props == nil {
		f.props = NewObject()
	}
	return f.props
}

func (f *Function) paramCount() int {
	if f.tree == nil {
		return 0
	}
	return len(f.tree.List(f.node))
}
