package sandbox

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/wippyai/suspendjs/errors"
)

// Host is the interface for struct-based host bindings.
// All exported methods (except Namespace and AsyncFunctions) become
// functions of a global namespace object.
type Host interface {
	// Namespace returns the global name of the namespace object.
	Namespace() string
}

// AsyncHost extends Host with asynchronous methods.
// Methods listed by AsyncFunctions run on their own goroutine and
// return a future to the script.
type AsyncHost interface {
	Host
	AsyncFunctions() []string
}

type hostEntry struct {
	fn    *goFunc
	async bool
}

// Bindings collects host values and functions for a realm's global
// scope. It is safe for concurrent use.
type Bindings struct {
	values map[string]any
	funcs  map[string]map[string]*hostEntry
	mu     sync.RWMutex
}

func NewBindings() *Bindings {
	return &Bindings{
		values: make(map[string]any),
		funcs:  make(map[string]map[string]*hostEntry),
	}
}

// Set binds a plain global.
func (b *Bindings) Set(name string, v any) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "global name cannot be empty")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[name] = v
	return nil
}

// RegisterFunc binds fn as namespace.name, or as a global function when
// namespace is empty.
func (b *Bindings) RegisterFunc(namespace, name string, fn any) error {
	return b.register(namespace, name, fn, false)
}

// RegisterFuncAsync binds fn like RegisterFunc, but each call runs fn on
// a new goroutine and returns a future of its result.
func (b *Bindings) RegisterFuncAsync(namespace, name string, fn any) error {
	return b.register(namespace, name, fn, true)
}

func (b *Bindings) register(namespace, name string, fn any, async bool) error {
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}
	g, err := newGoFunc(name, reflect.ValueOf(fn))
	if err != nil {
		return errors.Registration(namespace, name, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.add(namespace, name, &hostEntry{fn: g, async: async})
	return nil
}

func (b *Bindings) add(namespace, name string, e *hostEntry) {
	if b.funcs[namespace] == nil {
		b.funcs[namespace] = make(map[string]*hostEntry)
	}
	b.funcs[namespace][name] = e
}

// RegisterHost binds every exported method of h under h.Namespace().
// Method names are converted to lowerCamelCase (GetValue -> getValue).
func (b *Bindings) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	}

	// Collect async function names if host declares them
	asyncFuncs := make(map[string]bool)
	if ah, ok := h.(AsyncHost); ok {
		for _, name := range ah.AsyncFunctions() {
			asyncFuncs[name] = true
		}
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()

	entries := make(map[string]*hostEntry)
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" || method.Name == "AsyncFunctions" {
			continue
		}

		name := toLowerCamel(method.Name)
		g, err := newGoFunc(name, rv.Method(i))
		if err != nil {
			return errors.Registration(ns, name, err)
		}
		entries[name] = &hostEntry{fn: g, async: asyncFuncs[name]}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for name, e := range entries {
		b.add(ns, name, e)
	}
	return nil
}

// SuspendingNames returns the dotted names of the asynchronous
// functions in sorted order.
func (b *Bindings) SuspendingNames() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var names []string
	for ns, funcs := range b.funcs {
		for name, e := range funcs {
			if !e.async {
				continue
			}
			if ns != "" {
				name = ns + "." + name
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Globals builds a fresh global map. Namespaces become objects holding
// their functions.
func (b *Bindings) Globals() Globals {
	b.mu.RLock()
	defer b.mu.RUnlock()

	g := make(Globals, len(b.values)+len(b.funcs))
	for name, v := range b.values {
		g[name] = v
	}
	for ns, funcs := range b.funcs {
		if ns == "" {
			for name, e := range funcs {
				g[name] = e.function()
			}
			continue
		}
		obj := NewObject()
		names := make([]string, 0, len(funcs))
		for name := range funcs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			obj.Set(name, funcs[name].function())
		}
		g[ns] = obj
	}
	return g
}

func (e *hostEntry) function() *Function {
	if !e.async {
		return NewHostFunction(e.fn.name, e.fn.host)
	}
	return NewAsyncHostFunction(e.fn.name, func(c Call) *Future {
		d := NewDeferred(c.Loop())
		in, err := e.fn.args(c)
		if err != nil {
			d.Fail(err)
			return d.Future()
		}
		go func() {
			v, err := e.fn.call(in)
			if err != nil {
				d.Fail(err)
				return
			}
			d.Resolve(v)
		}()
		return d.Future()
	})
}

// toLowerCamel converts PascalCase to lowerCamelCase.
// Handles acronyms: HTTPGet -> httpGet, URL -> url
func toLowerCamel(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}

	end := 0
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	// Last uppercase before lowercase starts next word, not part of acronym
	if end > 1 && end < len(runes) && unicode.IsLower(runes[end]) {
		end--
	}
	if end == 0 {
		return s
	}

	var result strings.Builder
	for i, r := range runes {
		if i < end {
			r = unicode.ToLower(r)
		}
		result.WriteRune(r)
	}
	return result.String()
}
