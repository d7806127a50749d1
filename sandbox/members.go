package sandbox

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wippyai/suspendjs/syntax"
)

// getMember reads obj[key]. Only own properties and the built-in methods
// of each value type are visible.
func (r *Realm) getMember(obj Value, key string, pos Pos) (Value, error) {
	switch x := normalize(obj).(type) {
	case undefinedType, nullType:
		return nil, throwf(pos, "TypeError", "cannot read properties of %s (reading '%s')", ToString(x), key)
	case *Object:
		if v, ok := x.Get(key); ok {
			return v, nil
		}
		return Undefined, nil
	case *Array:
		return r.arrayMember(x, key), nil
	case string:
		return stringMember(x, key), nil
	case float64:
		return numberMember(x, key), nil
	case bool:
		if key == "toString" {
			return method(key, func(Call) (Value, error) { return ToString(x), nil }), nil
		}
	case *Function:
		return functionMember(x, key), nil
	case *Future:
		return r.futureMember(x, key), nil
	case *Generator:
		return generatorMember(x, key), nil
	}
	return Undefined, nil
}

// setMember writes obj[key] = v.
func (r *Realm) setMember(obj Value, key string, v Value, pos Pos) error {
	v = normalize(v)
	switch x := normalize(obj).(type) {
	case undefinedType, nullType:
		return throwf(pos, "TypeError", "cannot set properties of %s (setting '%s')", ToString(x), key)
	case *Object:
		x.Set(key, v)
	case *Array:
		if key == "length" {
			n := ToNumber(v)
			if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
				return throwf(pos, "RangeError", "invalid array length")
			}
			x.resize(int(n))
			return nil
		}
		i, ok := arrayIndex(key)
		if !ok {
			return throwf(pos, "TypeError", "cannot set property '%s' of array", key)
		}
		if i >= len(x.Elems) {
			x.resize(i + 1)
		}
		x.Elems[i] = v
	case *Function:
		x.Props().Set(key, v)
	case *Future, *Generator:
		return throwf(pos, "TypeError", "cannot set property '%s' of %s", key, ToString(x))
	}
	return nil
}

func (a *Array) resize(n int) {
	for len(a.Elems) < n {
		a.Elems = append(a.Elems, Undefined)
	}
	a.Elems = a.Elems[:n]
}

func method(name string, fn HostFunc) *Function {
	return NewHostFunction(name, fn)
}

func callback(c Call, i int) (*Function, error) {
	fn, ok := c.Arg(i).(*Function)
	if !ok {
		return nil, throwf(Pos{}, "TypeError", "%s is not a function", ToString(c.Arg(i)))
	}
	return fn, nil
}

// relIndex resolves a possibly negative slice bound against n.
func relIndex(v Value, n, def int) int {
	if v == Undefined {
		return def
	}
	f := math.Trunc(ToNumber(v))
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return max(n+int(max(f, -float64(n))), 0)
	case f > float64(n):
		return n
	}
	return int(f)
}

func (r *Realm) arrayMember(a *Array, key string) Value {
	if i, ok := arrayIndex(key); ok {
		if i < len(a.Elems) {
			return normalize(a.Elems[i])
		}
		return Undefined
	}

	switch key {
	case "length":
		return float64(len(a.Elems))
	case "push":
		return method(key, func(c Call) (Value, error) {
			a.Elems = append(a.Elems, c.Args...)
			return float64(len(a.Elems)), nil
		})
	case "pop":
		return method(key, func(Call) (Value, error) {
			if len(a.Elems) == 0 {
				return Undefined, nil
			}
			v := a.Elems[len(a.Elems)-1]
			a.Elems = a.Elems[:len(a.Elems)-1]
			return v, nil
		})
	case "join":
		return method(key, func(c Call) (Value, error) {
			sep := ","
			if c.Arg(0) != Undefined {
				sep = ToString(c.Arg(0))
			}
			parts := make([]string, len(a.Elems))
			for i, e := range a.Elems {
				if !isNullish(e) {
					parts[i] = ToString(e)
				}
			}
			return strings.Join(parts, sep), nil
		})
	case "indexOf", "includes":
		return method(key, func(c Call) (Value, error) {
			for i, e := range a.Elems {
				if StrictEquals(e, c.Arg(0)) {
					if key == "includes" {
						return true, nil
					}
					return float64(i), nil
				}
			}
			if key == "includes" {
				return false, nil
			}
			return -1.0, nil
		})
	case "slice":
		return method(key, func(c Call) (Value, error) {
			n := len(a.Elems)
			from, to := relIndex(c.Arg(0), n, 0), relIndex(c.Arg(1), n, n)
			if from >= to {
				return NewArray(), nil
			}
			return NewArray(append([]Value(nil), a.Elems[from:to]...)...), nil
		})
	case "concat":
		return method(key, func(c Call) (Value, error) {
			out := append([]Value(nil), a.Elems...)
			for _, arg := range c.Args {
				if other, ok := arg.(*Array); ok {
					out = append(out, other.Elems...)
				} else {
					out = append(out, arg)
				}
			}
			return NewArray(out...), nil
		})
	case "forEach", "map", "filter":
		return method(key, func(c Call) (Value, error) {
			fn, err := callback(c, 0)
			if err != nil {
				return nil, err
			}
			var out []Value
			for i := 0; i < len(a.Elems); i++ {
				e := a.Elems[i]
				v, err := c.Invoke(fn, Undefined, e, float64(i), a)
				if err != nil {
					return nil, err
				}
				switch key {
				case "map":
					out = append(out, v)
				case "filter":
					if ToBoolean(v) {
						out = append(out, e)
					}
				}
			}
			if key == "forEach" {
				return Undefined, nil
			}
			return NewArray(out...), nil
		})
	}
	return Undefined
}

// stringMember indexes by code point.
func stringMember(s, key string) Value {
	if i, ok := arrayIndex(key); ok {
		runes := []rune(s)
		if i < len(runes) {
			return string(runes[i])
		}
		return Undefined
	}

	switch key {
	case "length":
		return float64(utf8.RuneCountInString(s))
	case "charAt":
		return method(key, func(c Call) (Value, error) {
			runes := []rune(s)
			i := int(ToNumber(c.Arg(0)))
			if c.Arg(0) == Undefined {
				i = 0
			}
			if i < 0 || i >= len(runes) {
				return "", nil
			}
			return string(runes[i]), nil
		})
	case "indexOf":
		return method(key, func(c Call) (Value, error) {
			i := strings.Index(s, ToString(c.Arg(0)))
			if i < 0 {
				return -1.0, nil
			}
			return float64(utf8.RuneCountInString(s[:i])), nil
		})
	case "includes":
		return method(key, func(c Call) (Value, error) {
			return strings.Contains(s, ToString(c.Arg(0))), nil
		})
	case "startsWith":
		return method(key, func(c Call) (Value, error) {
			return strings.HasPrefix(s, ToString(c.Arg(0))), nil
		})
	case "endsWith":
		return method(key, func(c Call) (Value, error) {
			return strings.HasSuffix(s, ToString(c.Arg(0))), nil
		})
	case "slice":
		return method(key, func(c Call) (Value, error) {
			runes := []rune(s)
			n := len(runes)
			from, to := relIndex(c.Arg(0), n, 0), relIndex(c.Arg(1), n, n)
			if from >= to {
				return "", nil
			}
			return string(runes[from:to]), nil
		})
	case "toUpperCase":
		return method(key, func(Call) (Value, error) { return strings.ToUpper(s), nil })
	case "toLowerCase":
		return method(key, func(Call) (Value, error) { return strings.ToLower(s), nil })
	case "trim":
		return method(key, func(Call) (Value, error) { return strings.TrimSpace(s), nil })
	case "split":
		return method(key, func(c Call) (Value, error) {
			if c.Arg(0) == Undefined {
				return NewArray(s), nil
			}
			parts := strings.Split(s, ToString(c.Arg(0)))
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return NewArray(out...), nil
		})
	case "toString":
		return method(key, func(Call) (Value, error) { return s, nil })
	}
	return Undefined
}

func numberMember(f float64, key string) Value {
	switch key {
	case "toString":
		return method(key, func(c Call) (Value, error) {
			radix := 10
			if c.Arg(0) != Undefined {
				radix = int(ToNumber(c.Arg(0)))
			}
			if radix < 2 || radix > 36 {
				return nil, throwf(Pos{}, "RangeError", "toString() radix must be between 2 and 36")
			}
			if radix == 10 || f != math.Trunc(f) || math.IsInf(f, 0) {
				return syntax.FormatNumber(f), nil
			}
			return strconv.FormatInt(int64(f), radix), nil
		})
	case "toFixed":
		return method(key, func(c Call) (Value, error) {
			digits := 0
			if c.Arg(0) != Undefined {
				digits = int(ToNumber(c.Arg(0)))
			}
			if digits < 0 || digits > 100 {
				return nil, throwf(Pos{}, "RangeError", "toFixed() digits argument must be between 0 and 100")
			}
			return strconv.FormatFloat(f, 'f', digits, 64), nil
		})
	}
	return Undefined
}

func functionMember(fn *Function, key string) Value {
	if fn.props != nil {
		if v, ok := fn.props.Get(key); ok {
			return v
		}
	}
	switch key {
	case "name":
		return fn.name
	case "length":
		return float64(fn.paramCount())
	case "toString":
		return method(key, func(Call) (Value, error) { return fn.Source(), nil })
	case "call":
		return method(key, func(c Call) (Value, error) {
			var rest []Value
			if len(c.Args) > 1 {
				rest = c.Args[1:]
			}
			return c.Invoke(fn, c.Arg(0), rest...)
		})
	case "apply":
		return method(key, func(c Call) (Value, error) {
			var args []Value
			switch a := c.Arg(1).(type) {
			case *Array:
				args = append(args, a.Elems...)
			case undefinedType, nullType:
			default:
				return nil, throwf(Pos{}, "TypeError", "apply arguments must be an array")
			}
			return c.Invoke(fn, c.Arg(0), args...)
		})
	}
	return Undefined
}

func (r *Realm) futureMember(f *Future, key string) Value {
	switch key {
	case "then":
		return method(key, func(c Call) (Value, error) {
			return r.then(f, c.Arg(0), c.Arg(1)), nil
		})
	case "catch":
		return method(key, func(c Call) (Value, error) {
			return r.then(f, Undefined, c.Arg(0)), nil
		})
	case "finally":
		return method(key, func(c Call) (Value, error) {
			fn, _ := c.Arg(0).(*Function)
			d := NewDeferred(f.loop)
			f.OnSettle(func(v Value, err error) {
				if fn != nil {
					if _, ferr := r.call(fn, Undefined, nil); ferr != nil {
						d.Fail(ferr)
						return
					}
				}
				if err != nil {
					d.Fail(err)
				} else {
					d.Resolve(v)
				}
			})
			return d.Future(), nil
		})
	}
	return Undefined
}

// then chains handlers onto f. A missing handler passes the outcome
// through unchanged.
func (r *Realm) then(f *Future, onFulfilled, onRejected Value) *Future {
	d := NewDeferred(f.loop)
	f.OnSettle(func(v Value, err error) {
		handler, arg := onFulfilled, v
		if err != nil {
			handler, arg = onRejected, ReasonValue(err)
		}
		fn, ok := handler.(*Function)
		if !ok {
			if err != nil {
				d.Fail(err)
			} else {
				d.Resolve(v)
			}
			return
		}
		out, cerr := r.call(fn, Undefined, []Value{arg})
		if cerr != nil {
			d.Fail(cerr)
			return
		}
		d.Resolve(out)
	})
	return d.Future()
}

func generatorMember(g *Generator, key string) Value {
	switch key {
	case "next":
		return method(key, func(c Call) (Value, error) {
			v, done, err := g.Next(c.Arg(0))
			if err != nil {
				return nil, err
			}
			return stepResult(v, done), nil
		})
	case "throw":
		return method(key, func(c Call) (Value, error) {
			v, done, err := g.Throw(&Exception{Value: c.Arg(0)})
			if err != nil {
				return nil, err
			}
			return stepResult(v, done), nil
		})
	case "return":
		return method(key, func(c Call) (Value, error) {
			v, done, err := g.Return(c.Arg(0))
			if err != nil {
				return nil, err
			}
			return stepResult(v, done), nil
		})
	}
	return Undefined
}
