package sandbox

import (
	"math"

	"github.com/wippyai/suspendjs/syntax"
)

func (fr *frame) eval(s *scope, id syntax.NodeID) (Value, error) {
	t := fr.tree
	n := t.Node(id)

	switch n.Kind {
	case syntax.KindIdentifier:
		b, ok := s.lookup(n.Name)
		if !ok {
			return nil, throwf(n.Pos, "ReferenceError", "%s is not defined", n.Name)
		}
		return b.value, nil

	case syntax.KindNumber:
		return n.Num, nil

	case syntax.KindString:
		return n.Name, nil

	case syntax.KindBoolean:
		return n.Name == "true", nil

	case syntax.KindNull:
		return Null, nil

	case syntax.KindThis:
		return fr.this, nil

	case syntax.KindArray:
		elems := make([]Value, 0, len(t.List(id)))
		for _, e := range t.List(id) {
			v, err := fr.eval(s, e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return NewArray(elems...), nil

	case syntax.KindObject:
		return fr.object(s, id)

	case syntax.KindFunctionExpr:
		return fr.realm.closure(t, id, s)

	case syntax.KindUnary:
		return fr.unary(s, id)

	case syntax.KindUpdate:
		return fr.update(s, id)

	case syntax.KindBinary:
		l, err := fr.eval(s, t.Child(id, syntax.FieldLeft))
		if err != nil {
			return nil, err
		}
		r, err := fr.eval(s, t.Child(id, syntax.FieldRight))
		if err != nil {
			return nil, err
		}
		return binary(n.Op, l, r), nil

	case syntax.KindLogical:
		l, err := fr.eval(s, t.Child(id, syntax.FieldLeft))
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case syntax.OpLogicalAnd:
			if !ToBoolean(l) {
				return l, nil
			}
		case syntax.OpLogicalOr:
			if ToBoolean(l) {
				return l, nil
			}
		case syntax.OpNullish:
			if !isNullish(l) {
				return l, nil
			}
		}
		return fr.eval(s, t.Child(id, syntax.FieldRight))

	case syntax.KindAssign:
		return fr.assign(s, id)

	case syntax.KindConditional:
		test, err := fr.eval(s, t.Child(id, syntax.FieldTest))
		if err != nil {
			return nil, err
		}
		if ToBoolean(test) {
			return fr.eval(s, t.Child(id, syntax.FieldConsequent))
		}
		return fr.eval(s, t.Child(id, syntax.FieldAlternate))

	case syntax.KindSequence:
		var v Value = Undefined
		for _, e := range t.List(id) {
			var err error
			if v, err = fr.eval(s, e); err != nil {
				return nil, err
			}
		}
		return v, nil

	case syntax.KindCall:
		return fr.call(s, id)

	case syntax.KindMember:
		obj, err := fr.eval(s, t.Child(id, syntax.FieldObject))
		if err != nil {
			return nil, err
		}
		key, err := fr.memberKey(s, id)
		if err != nil {
			return nil, err
		}
		return fr.realm.getMember(obj, key, n.Pos)

	case syntax.KindYield:
		if fr.co == nil || fr.fn.kind != FuncGenerator {
			return nil, throwf(n.Pos, "SyntaxError", "yield is only valid in generator functions")
		}
		var v Value = Undefined
		if arg := t.Child(id, syntax.FieldArgument); arg != syntax.None {
			var err error
			if v, err = fr.eval(s, arg); err != nil {
				return nil, err
			}
		}
		if n.Flags.Has(syntax.FlagDelegate) {
			return fr.delegate(v, n.Pos)
		}
		return fr.co.suspend(v)

	case syntax.KindAwait:
		if fr.co == nil || fr.fn.kind != FuncAsync {
			return nil, throwf(n.Pos, "SyntaxError", "await is only valid in async functions")
		}
		v, err := fr.eval(s, t.Child(id, syntax.FieldArgument))
		if err != nil {
			return nil, err
		}
		return fr.co.suspend(v)
	}
	return nil, throwf(n.Pos, "SyntaxError", "unexpected %s", n.Kind)
}

func (fr *frame) object(s *scope, id syntax.NodeID) (Value, error) {
	t := fr.tree
	o := NewObject()
	for _, p := range t.List(id) {
		keyNode := t.Child(p, syntax.FieldKey)
		var key string
		switch {
		case t.Node(p).Flags.Has(syntax.FlagComputed):
			k, err := fr.eval(s, keyNode)
			if err != nil {
				return nil, err
			}
			key = propertyKey(k)
		case t.Kind(keyNode) == syntax.KindNumber:
			key = syntax.FormatNumber(t.Node(keyNode).Num)
		default:
			key = t.Node(keyNode).Name
		}
		v, err := fr.eval(s, t.Child(p, syntax.FieldValue))
		if err != nil {
			return nil, err
		}
		o.Set(key, v)
	}
	return o, nil
}

func (fr *frame) memberKey(s *scope, member syntax.NodeID) (string, error) {
	t := fr.tree
	prop := t.Child(member, syntax.FieldProperty)
	if !t.Node(member).Flags.Has(syntax.FlagComputed) {
		return t.Node(prop).Name, nil
	}
	v, err := fr.eval(s, prop)
	if err != nil {
		return "", err
	}
	return propertyKey(v), nil
}

func (fr *frame) unary(s *scope, id syntax.NodeID) (Value, error) {
	t := fr.tree
	n := t.Node(id)
	arg := t.Child(id, syntax.FieldArgument)

	if n.Op == syntax.OpTypeof && t.Kind(arg) == syntax.KindIdentifier {
		if _, ok := s.lookup(t.Node(arg).Name); !ok {
			return "undefined", nil
		}
	}
	v, err := fr.eval(s, arg)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case syntax.OpPos:
		return ToNumber(v), nil
	case syntax.OpNeg:
		return -ToNumber(v), nil
	case syntax.OpNot:
		return !ToBoolean(v), nil
	case syntax.OpCpl:
		return float64(^toInt32(v)), nil
	case syntax.OpTypeof:
		return TypeOf(v), nil
	case syntax.OpVoid:
		return Undefined, nil
	}
	return nil, throwf(n.Pos, "SyntaxError", "unknown unary operator %s", n.Op)
}

// reference is an assignable location: a binding or an object property.
type reference struct {
	obj  Value
	name string
	key  string
	pos  Pos
	prop bool
}

func (fr *frame) reference(s *scope, id syntax.NodeID) (reference, error) {
	t := fr.tree
	n := t.Node(id)
	if n.Kind == syntax.KindIdentifier {
		return reference{name: n.Name, pos: n.Pos}, nil
	}
	obj, err := fr.eval(s, t.Child(id, syntax.FieldObject))
	if err != nil {
		return reference{}, err
	}
	key, err := fr.memberKey(s, id)
	if err != nil {
		return reference{}, err
	}
	return reference{obj: obj, key: key, pos: n.Pos, prop: true}, nil
}

func (fr *frame) get(s *scope, ref reference) (Value, error) {
	if ref.prop {
		return fr.realm.getMember(ref.obj, ref.key, ref.pos)
	}
	b, ok := s.lookup(ref.name)
	if !ok {
		return nil, throwf(ref.pos, "ReferenceError", "%s is not defined", ref.name)
	}
	return b.value, nil
}

func (fr *frame) put(s *scope, ref reference, v Value) error {
	if ref.prop {
		return fr.realm.setMember(ref.obj, ref.key, v, ref.pos)
	}
	b, ok := s.lookup(ref.name)
	if !ok {
		return throwf(ref.pos, "ReferenceError", "%s is not defined", ref.name)
	}
	if b.kind == bindConst {
		return throwf(ref.pos, "TypeError", "assignment to constant variable %s", ref.name)
	}
	b.value = normalize(v)
	return nil
}

func (fr *frame) assign(s *scope, id syntax.NodeID) (Value, error) {
	t := fr.tree
	n := t.Node(id)
	ref, err := fr.reference(s, t.Child(id, syntax.FieldLeft))
	if err != nil {
		return nil, err
	}

	var cur Value
	if n.Op != syntax.OpAssign {
		if cur, err = fr.get(s, ref); err != nil {
			return nil, err
		}
	}
	v, err := fr.eval(s, t.Child(id, syntax.FieldRight))
	if err != nil {
		return nil, err
	}
	if n.Op != syntax.OpAssign {
		v = binary(syntax.OpTable[n.Op].Base, cur, v)
	}
	return v, fr.put(s, ref, v)
}

func (fr *frame) update(s *scope, id syntax.NodeID) (Value, error) {
	t := fr.tree
	n := t.Node(id)
	ref, err := fr.reference(s, t.Child(id, syntax.FieldArgument))
	if err != nil {
		return nil, err
	}
	cur, err := fr.get(s, ref)
	if err != nil {
		return nil, err
	}
	old := ToNumber(cur)
	next := old + 1
	if n.Op == syntax.OpDec {
		next = old - 1
	}
	if err := fr.put(s, ref, next); err != nil {
		return nil, err
	}
	if n.Flags.Has(syntax.FlagPrefix) {
		return next, nil
	}
	return old, nil
}

func (fr *frame) call(s *scope, id syntax.NodeID) (Value, error) {
	t := fr.tree
	n := t.Node(id)
	callee := t.Child(id, syntax.FieldCallee)

	var fv Value
	var this Value = Undefined
	if t.Kind(callee) == syntax.KindMember {
		obj, err := fr.eval(s, t.Child(callee, syntax.FieldObject))
		if err != nil {
			return nil, err
		}
		key, err := fr.memberKey(s, callee)
		if err != nil {
			return nil, err
		}
		if fv, err = fr.realm.getMember(obj, key, t.Node(callee).Pos); err != nil {
			return nil, err
		}
		this = obj
	} else {
		var err error
		if fv, err = fr.eval(s, callee); err != nil {
			return nil, err
		}
	}

	args := make([]Value, 0, len(t.List(id)))
	for _, a := range t.List(id) {
		v, err := fr.eval(s, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := fv.(*Function)
	if !ok {
		return nil, throwf(n.Pos, "TypeError", "%s is not a function", syntax.GenerateNode(t, callee))
	}
	return fr.realm.call(fn, this, args)
}

// binary applies a non-logical binary operator.
func binary(op syntax.Op, a, b Value) Value {
	switch op {
	case syntax.OpAdd:
		pa, pb := toPrimitive(a), toPrimitive(b)
		_, sa := pa.(string)
		_, sb := pb.(string)
		if sa || sb {
			return ToString(pa) + ToString(pb)
		}
		return ToNumber(pa) + ToNumber(pb)
	case syntax.OpSub:
		return ToNumber(a) - ToNumber(b)
	case syntax.OpMul:
		return ToNumber(a) * ToNumber(b)
	case syntax.OpDiv:
		return ToNumber(a) / ToNumber(b)
	case syntax.OpRem:
		return math.Mod(ToNumber(a), ToNumber(b))
	case syntax.OpPow:
		return math.Pow(ToNumber(a), ToNumber(b))
	case syntax.OpLt:
		return compare(a, b, func(c int) bool { return c < 0 })
	case syntax.OpLe:
		return compare(a, b, func(c int) bool { return c <= 0 })
	case syntax.OpGt:
		return compare(a, b, func(c int) bool { return c > 0 })
	case syntax.OpGe:
		return compare(a, b, func(c int) bool { return c >= 0 })
	case syntax.OpLooseEq:
		return LooseEquals(a, b)
	case syntax.OpLooseNe:
		return !LooseEquals(a, b)
	case syntax.OpStrictEq:
		return StrictEquals(a, b)
	case syntax.OpStrictNe:
		return !StrictEquals(a, b)
	case syntax.OpShl:
		return float64(toInt32(a) << (toUint32(b) & 31))
	case syntax.OpShr:
		return float64(toInt32(a) >> (toUint32(b) & 31))
	case syntax.OpUShr:
		return float64(toUint32(a) >> (toUint32(b) & 31))
	case syntax.OpBitAnd:
		return float64(toInt32(a) & toInt32(b))
	case syntax.OpBitOr:
		return float64(toInt32(a) | toInt32(b))
	case syntax.OpBitXor:
		return float64(toInt32(a) ^ toInt32(b))
	}
	return Undefined
}

// compare orders two values as strings when both are strings and as
// numbers otherwise. Comparisons involving NaN are false.
func compare(a, b Value, ok func(int) bool) bool {
	pa, pb := toPrimitive(a), toPrimitive(b)
	if sa, isStr := pa.(string); isStr {
		if sb, isStr := pb.(string); isStr {
			switch {
			case sa < sb:
				return ok(-1)
			case sa > sb:
				return ok(1)
			}
			return ok(0)
		}
	}
	x, y := ToNumber(pa), ToNumber(pb)
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return false
	case x < y:
		return ok(-1)
	case x > y:
		return ok(1)
	}
	return ok(0)
}
