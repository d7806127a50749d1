package sandbox

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// ToValue converts a Go value to a sandbox value.
//
// Numbers become float64, slices and arrays become *Array, string-keyed
// maps and structs become *Object (struct fields honour json tags), and
// functions become host functions through wrapFunc. Sandbox values pass
// through unchanged; a nil interface becomes Undefined and a nil pointer,
// map or slice becomes Null.
func ToValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Undefined, nil
	case undefinedType, nullType, bool, float64, string,
		*Object, *Array, *Function, *Generator, *Future:
		return x, nil
	case HostFunc:
		return NewHostFunction("", x), nil
	case func(Call) (Value, error):
		return NewHostFunction("", x), nil
	case error:
		return NewError("Error", x.Error()), nil
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}
		return ToValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null, nil
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			v, err := ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			elems[i] = v
		}
		return NewArray(elems...), nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key type %s is not string", rv.Type().Key())
		}
		if rv.IsNil() {
			return Null, nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			v, err := ToValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			o.Set(k, v)
		}
		return o, nil

	case reflect.Struct:
		o := NewObject()
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			name, ok := fieldName(f)
			if !ok {
				continue
			}
			v, err := ToValue(rv.Field(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			o.Set(name, v)
		}
		return o, nil

	case reflect.Func:
		if rv.IsNil() {
			return Null, nil
		}
		return wrapFunc("", rv)
	}
	return nil, fmt.Errorf("unsupported Go type %s", rv.Type())
}

// fieldName returns the property name of a struct field, following the
// json tag when present.
func fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name, true
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return "", false
	case "":
		return f.Name, true
	}
	return name, true
}

// Export converts a sandbox value to plain Go: nil, bool, float64,
// string, []any and map[string]any. Functions, generators and futures
// are returned as they are.
func Export(v Value) any {
	switch x := v.(type) {
	case nil, undefinedType, nullType:
		return nil
	case *Array:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			out[i] = Export(e)
		}
		return out
	case *Object:
		out := make(map[string]any, x.Len())
		for _, k := range x.keys {
			out[k] = Export(x.props[k])
		}
		return out
	}
	return v
}

// goFunc is a Go function callable with sandbox arguments.
type goFunc struct {
	fv      reflect.Value
	ft      reflect.Type
	name    string
	withCtx bool
}

// newGoFunc checks fv's signature. A leading context.Context parameter
// receives the caller's context. Results may be empty, a value, an
// error, or a value followed by an error.
func newGoFunc(name string, fv reflect.Value) (*goFunc, error) {
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", ft)
	}
	switch ft.NumOut() {
	case 0, 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("second result of %s must be error", ft)
		}
	default:
		return nil, fmt.Errorf("%s has too many results", ft)
	}
	return &goFunc{
		fv:      fv,
		ft:      ft,
		name:    name,
		withCtx: ft.NumIn() > 0 && ft.In(0) == contextType,
	}, nil
}

// args converts the call's arguments to the parameter types.
func (g *goFunc) args(c Call) ([]reflect.Value, error) {
	ft := g.ft
	in := make([]reflect.Value, 0, ft.NumIn())
	first := 0
	if g.withCtx {
		ctx := c.Context
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(ctx))
		first = 1
	}
	fixed := ft.NumIn() - first
	if ft.IsVariadic() {
		fixed--
	}
	for i := 0; i < fixed; i++ {
		arg, err := fromValue(c.Arg(i), ft.In(first+i))
		if err != nil {
			return nil, throwf(Pos{}, "TypeError", "%s: argument %d: %v", g.name, i+1, err)
		}
		in = append(in, arg)
	}
	if ft.IsVariadic() {
		et := ft.In(ft.NumIn() - 1).Elem()
		for i := fixed; i < len(c.Args); i++ {
			arg, err := fromValue(c.Args[i], et)
			if err != nil {
				return nil, throwf(Pos{}, "TypeError", "%s: argument %d: %v", g.name, i+1, err)
			}
			in = append(in, arg)
		}
	}
	return in, nil
}

func (g *goFunc) call(in []reflect.Value) (Value, error) {
	return results(g.ft, g.fv.Call(in))
}

func (g *goFunc) host(c Call) (Value, error) {
	in, err := g.args(c)
	if err != nil {
		return nil, err
	}
	return g.call(in)
}

// wrapFunc adapts a Go function to a host function.
func wrapFunc(name string, fv reflect.Value) (*Function, error) {
	g, err := newGoFunc(name, fv)
	if err != nil {
		return nil, err
	}
	return NewHostFunction(name, g.host), nil
}

func results(ft reflect.Type, out []reflect.Value) (Value, error) {
	switch len(out) {
	case 0:
		return Undefined, nil
	case 1:
		if ft.Out(0) == errorType {
			if err, _ := out[0].Interface().(error); err != nil {
				return nil, err
			}
			return Undefined, nil
		}
		return ToValue(out[0].Interface())
	}
	if err, _ := out[1].Interface().(error); err != nil {
		return nil, err
	}
	return ToValue(out[0].Interface())
}

// fromValue converts a sandbox value to a Go value of type t.
func fromValue(v Value, t reflect.Type) (reflect.Value, error) {
	v = normalize(v)
	if rv := reflect.ValueOf(v); rv.Type().AssignableTo(t) && t.Kind() != reflect.Interface {
		return rv, nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() > 0 {
			break
		}
		e := Export(v)
		if e == nil {
			return reflect.Zero(t), nil
		}
		return reflect.ValueOf(e), nil

	case reflect.Bool:
		return reflect.ValueOf(ToBoolean(v)).Convert(t), nil

	case reflect.String:
		return reflect.ValueOf(ToString(v)).Convert(t), nil

	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(ToNumber(v)).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f := ToNumber(v)
		out := reflect.New(t).Elem()
		if f != math.Trunc(f) || math.IsInf(f, 0) || out.OverflowInt(int64(f)) {
			return reflect.Value{}, fmt.Errorf("%s is not a valid %s", ToString(v), t)
		}
		out.SetInt(int64(f))
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := ToNumber(v)
		out := reflect.New(t).Elem()
		if f < 0 || f != math.Trunc(f) || math.IsInf(f, 0) || out.OverflowUint(uint64(f)) {
			return reflect.Value{}, fmt.Errorf("%s is not a valid %s", ToString(v), t)
		}
		out.SetUint(uint64(f))
		return out, nil

	case reflect.Slice:
		arr, ok := v.(*Array)
		if !ok {
			if isNullish(v) {
				return reflect.Zero(t), nil
			}
			return reflect.Value{}, fmt.Errorf("expected array, got %s", TypeOf(v))
		}
		out := reflect.MakeSlice(t, len(arr.Elems), len(arr.Elems))
		for i, e := range arr.Elems {
			ev, err := fromValue(e, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Map:
		obj, ok := v.(*Object)
		if !ok || t.Key().Kind() != reflect.String {
			if isNullish(v) {
				return reflect.Zero(t), nil
			}
			return reflect.Value{}, fmt.Errorf("expected object, got %s", TypeOf(v))
		}
		out := reflect.MakeMapWithSize(t, obj.Len())
		for _, k := range obj.keys {
			ev, err := fromValue(obj.props[k], t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil

	case reflect.Struct:
		obj, ok := v.(*Object)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected object, got %s", TypeOf(v))
		}
		out := reflect.New(t).Elem()
		for i := 0; i < t.NumField(); i++ {
			name, ok := fieldName(t.Field(i))
			if !ok {
				continue
			}
			pv, ok := obj.Get(name)
			if !ok {
				continue
			}
			fv, err := fromValue(pv, t.Field(i).Type)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("field %s: %w", name, err)
			}
			out.Field(i).Set(fv)
		}
		return out, nil

	case reflect.Pointer:
		if isNullish(v) {
			return reflect.Zero(t), nil
		}
		ev, err := fromValue(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(ev)
		return p, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", TypeOf(v), t)
}
