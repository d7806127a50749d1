package sandbox

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/suspendjs/syntax"
)

// Value is any value a script can hold: Undefined, Null, bool, float64,
// string, *Object, *Array, *Function, *Generator or *Future.
type Value = any

type undefinedType struct{}

type nullType struct{}

func (undefinedType) String() string { return "undefined" }
func (nullType) String() string      { return "null" }

var (
	Undefined Value = undefinedType{}
	Null      Value = nullType{}
)

// Object is a bag of own properties kept in insertion order. Objects have
// no prototype: a lookup that misses the own properties yields undefined.
type Object struct {
	props map[string]Value
	keys  []string
	// Class is "Error" for error objects and empty otherwise.
	Class string
}

func NewObject() *Object {
	return &Object{props: make(map[string]Value)}
}

// Get returns the own property key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.props[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

// Keys returns property names in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Array is an ordered list of values.
type Array struct {
	Elems []Value
}

func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

// NewError builds an error object with name and message properties.
func NewError(name, message string) *Object {
	o := NewObject()
	o.Class = "Error"
	o.Set("name", name)
	o.Set("message", message)
	return o
}

func normalize(v Value) Value {
	if v == nil {
		return Undefined
	}
	return v
}

func isNullish(v Value) bool {
	return v == nil || v == Undefined || v == Null
}

// TypeOf returns the result of the typeof operator.
func TypeOf(v Value) string {
	switch v.(type) {
	case nil, undefinedType:
		return "undefined"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Function:
		return "function"
	}
	return "object"
}

// ToBoolean applies the truthiness rules.
func ToBoolean(v Value) bool {
	switch x := v.(type) {
	case nil, undefinedType, nullType:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	}
	return true
}

// ToNumber converts v to a number.
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case nil, undefinedType:
		return math.NaN()
	case nullType:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case string:
		return stringToNumber(x)
	case *Array:
		switch len(x.Elems) {
		case 0:
			return 0
		case 1:
			return ToNumber(ToString(x.Elems[0]))
		}
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		u, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(u)
	}
	// strconv accepts forms such as "inf" and "0x1p-2" that scripts do not
	for _, r := range s {
		if !strings.ContainsRune("0123456789.eE+-", r) {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToString converts v to its string form.
func ToString(v Value) string {
	switch x := v.(type) {
	case nil, undefinedType:
		return "undefined"
	case nullType:
		return "null"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return syntax.FormatNumber(x)
	case string:
		return x
	case *Array:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			if !isNullish(e) {
				parts[i] = ToString(e)
			}
		}
		return strings.Join(parts, ",")
	case *Object:
		if x.Class == "Error" {
			return errorString(x)
		}
		return "[object Object]"
	case *Function:
		return x.Source()
	case *Generator:
		return "[object Generator]"
	case *Future:
		return "[object Promise]"
	}
	return "[object Object]"
}

func errorString(o *Object) string {
	name, _ := o.Get("name")
	msg, _ := o.Get("message")
	n, m := "Error", ""
	if !isNullish(name) {
		n = ToString(name)
	}
	if !isNullish(msg) {
		m = ToString(msg)
	}
	if m == "" {
		return n
	}
	return n + ": " + m
}

func toInt32(v Value) int32 {
	return int32(toUint32(v))
}

func toUint32(v Value) uint32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	f = math.Mod(f, 1<<32)
	if f < 0 {
		f += 1 << 32
	}
	return uint32(f)
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return a == b
}

// LooseEquals implements ==.
func LooseEquals(a, b Value) bool {
	a, b = normalize(a), normalize(b)
	if isNullish(a) || isNullish(b) {
		return isNullish(a) && isNullish(b)
	}
	pa, pb := isPrimitive(a), isPrimitive(b)
	switch {
	case pa && pb:
		if sa, ok := a.(string); ok {
			if sb, ok := b.(string); ok {
				return sa == sb
			}
		}
		return ToNumber(a) == ToNumber(b)
	case pa:
		return LooseEquals(a, toPrimitive(b))
	case pb:
		return LooseEquals(toPrimitive(a), b)
	}
	return a == b
}

func isPrimitive(v Value) bool {
	switch v.(type) {
	case float64, string, bool:
		return true
	}
	return false
}

func toPrimitive(v Value) Value {
	switch v.(type) {
	case *Object, *Array, *Function, *Generator, *Future:
		return ToString(v)
	}
	return normalize(v)
}

// propertyKey converts a computed member key to a property name.
func propertyKey(v Value) string {
	if f, ok := v.(float64); ok {
		return syntax.FormatNumber(f)
	}
	return ToString(v)
}

// arrayIndex parses key as an array index.
func arrayIndex(key string) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
