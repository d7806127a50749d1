package sandbox

import (
	stderrors "errors"

	"github.com/wippyai/suspendjs/syntax"
)

type control uint8

const (
	ctlNormal control = iota
	ctlReturn
	ctlBreak
	ctlContinue
)

// frame is the state of one function activation, or of the top level of
// a program when fn is nil.
type frame struct {
	realm      *Realm
	tree       *syntax.Tree
	fn         *Function
	co         *coroutine
	this       Value
	completion Value
}

// hoistVars declares every var name under id in the function scope s,
// without entering nested functions.
func (fr *frame) hoistVars(s *scope, id syntax.NodeID) {
	t := fr.tree
	t.Walk(id, func(n syntax.NodeID) bool {
		switch t.Kind(n) {
		case syntax.KindFunctionDecl, syntax.KindFunctionExpr:
			return false
		case syntax.KindVarDecl:
			if t.Node(n).Flags&(syntax.FlagLet|syntax.FlagConst) != 0 {
				return true
			}
			for _, d := range t.List(n) {
				name := t.Node(t.Child(d, syntax.FieldID)).Name
				if _, ok := s.vars[name]; !ok {
					s.declare(name, bindVar, Undefined)
				}
			}
		}
		return true
	})
}

// hoistFunctions binds the function declarations directly in stmts.
func (fr *frame) hoistFunctions(s *scope, stmts []syntax.NodeID) error {
	for _, st := range stmts {
		if fr.tree.Kind(st) != syntax.KindFunctionDecl {
			continue
		}
		fn, err := fr.realm.closure(fr.tree, st, s)
		if err != nil {
			return err
		}
		s.declare(fn.name, bindVar, fn)
	}
	return nil
}

func (fr *frame) block(s *scope, stmts []syntax.NodeID) (control, Value, error) {
	if err := fr.hoistFunctions(s, stmts); err != nil {
		return ctlNormal, nil, err
	}
	for _, st := range stmts {
		ctl, v, err := fr.exec(s, st)
		if err != nil || ctl != ctlNormal {
			return ctl, v, err
		}
	}
	return ctlNormal, nil, nil
}

func (fr *frame) exec(s *scope, id syntax.NodeID) (control, Value, error) {
	t := fr.tree
	n := t.Node(id)
	if err := fr.realm.tick(); err != nil {
		return ctlNormal, nil, err
	}

	switch n.Kind {
	case syntax.KindEmpty, syntax.KindFunctionDecl:
		return ctlNormal, nil, nil

	case syntax.KindBlock:
		return fr.block(newScope(s, false), t.List(id))

	case syntax.KindExpressionStmt:
		v, err := fr.eval(s, t.Child(id, syntax.FieldExpression))
		if err != nil {
			return ctlNormal, nil, err
		}
		fr.completion = v
		return ctlNormal, nil, nil

	case syntax.KindVarDecl:
		return ctlNormal, nil, fr.varDecl(s, id)

	case syntax.KindReturn:
		arg := t.Child(id, syntax.FieldArgument)
		if arg == syntax.None {
			return ctlReturn, Undefined, nil
		}
		v, err := fr.eval(s, arg)
		return ctlReturn, v, err

	case syntax.KindIf:
		test, err := fr.eval(s, t.Child(id, syntax.FieldTest))
		if err != nil {
			return ctlNormal, nil, err
		}
		if ToBoolean(test) {
			return fr.exec(s, t.Child(id, syntax.FieldConsequent))
		}
		if alt := t.Child(id, syntax.FieldAlternate); alt != syntax.None {
			return fr.exec(s, alt)
		}
		return ctlNormal, nil, nil

	case syntax.KindWhile:
		return fr.loop(s, t.Child(id, syntax.FieldTest), syntax.None, t.Child(id, syntax.FieldBody))

	case syntax.KindFor:
		ls := newScope(s, false)
		if init := t.Child(id, syntax.FieldInit); init != syntax.None {
			if t.Kind(init) == syntax.KindVarDecl {
				if err := fr.varDecl(ls, init); err != nil {
					return ctlNormal, nil, err
				}
			} else if _, err := fr.eval(ls, init); err != nil {
				return ctlNormal, nil, err
			}
		}
		return fr.loop(ls, t.Child(id, syntax.FieldTest), t.Child(id, syntax.FieldUpdate), t.Child(id, syntax.FieldBody))

	case syntax.KindBreak:
		return ctlBreak, nil, nil

	case syntax.KindContinue:
		return ctlContinue, nil, nil

	case syntax.KindThrow:
		v, err := fr.eval(s, t.Child(id, syntax.FieldArgument))
		if err != nil {
			return ctlNormal, nil, err
		}
		return ctlNormal, nil, &Exception{Value: v, Pos: n.Pos}

	case syntax.KindTry:
		return fr.try(s, id)
	}
	return ctlNormal, nil, throwf(n.Pos, "SyntaxError", "unexpected %s", n.Kind)
}

// loop runs a while or for loop. test and update may be None.
func (fr *frame) loop(s *scope, test, update, body syntax.NodeID) (control, Value, error) {
	for {
		if test != syntax.None {
			v, err := fr.eval(s, test)
			if err != nil {
				return ctlNormal, nil, err
			}
			if !ToBoolean(v) {
				return ctlNormal, nil, nil
			}
		}
		ctl, v, err := fr.exec(s, body)
		if err != nil {
			return ctlNormal, nil, err
		}
		switch ctl {
		case ctlBreak:
			return ctlNormal, nil, nil
		case ctlReturn:
			return ctl, v, nil
		}
		if update != syntax.None {
			if _, err := fr.eval(s, update); err != nil {
				return ctlNormal, nil, err
			}
		}
	}
}

func (fr *frame) try(s *scope, id syntax.NodeID) (control, Value, error) {
	t := fr.tree
	ctl, v, err := fr.exec(s, t.Child(id, syntax.FieldBlock))

	if handler := t.Child(id, syntax.FieldHandler); err != nil && handler != syntax.None {
		if val, ok := catchable(err); ok {
			hs := newScope(s, false)
			if param := t.Child(handler, syntax.FieldParam); param != syntax.None {
				hs.declare(t.Node(param).Name, bindLet, val)
			}
			ctl, v, err = fr.exec(hs, t.Child(handler, syntax.FieldBody))
		}
	}

	// an abandoned coroutine unwinds without running script code
	if fin := t.Child(id, syntax.FieldFinalizer); fin != syntax.None && !stderrors.Is(err, errStopped) {
		fctl, fv, ferr := fr.exec(s, fin)
		if ferr != nil || fctl != ctlNormal {
			return fctl, fv, ferr
		}
	}
	return ctl, v, err
}

func (fr *frame) varDecl(s *scope, id syntax.NodeID) error {
	t := fr.tree
	flags := t.Node(id).Flags
	kind := bindVar
	switch {
	case flags.Has(syntax.FlagConst):
		kind = bindConst
	case flags.Has(syntax.FlagLet):
		kind = bindLet
	}

	for _, d := range t.List(id) {
		name := t.Node(t.Child(d, syntax.FieldID)).Name
		init := t.Child(d, syntax.FieldInit)

		var v Value = Undefined
		if init != syntax.None {
			var err error
			if v, err = fr.eval(s, init); err != nil {
				return err
			}
		}

		if kind != bindVar {
			s.declare(name, kind, v)
			continue
		}
		if init == syntax.None {
			if _, ok := s.lookup(name); !ok {
				s.functionScope().declare(name, bindVar, Undefined)
			}
			continue
		}
		if b, ok := s.lookup(name); ok {
			b.value = v
		} else {
			s.functionScope().declare(name, bindVar, v)
		}
	}
	return nil
}

// closure creates the function value for a declaration or expression
// evaluated in s.
func (r *Realm) closure(t *syntax.Tree, id syntax.NodeID, s *scope) (*Function, error) {
	n := t.Node(id)
	kind := FuncNormal
	switch {
	case n.Flags.Has(syntax.FlagAsync) && n.Flags.Has(syntax.FlagGenerator):
		return nil, throwf(n.Pos, "SyntaxError", "async generator functions are not supported")
	case n.Flags.Has(syntax.FlagGenerator):
		kind = FuncGenerator
	case n.Flags.Has(syntax.FlagAsync):
		kind = FuncAsync
	}

	fn := &Function{
		realm: r,
		tree:  t,
		node:  id,
		scope: s,
		name:  t.FuncName(id),
		kind:  kind,
	}
	if n.Kind == syntax.KindFunctionExpr && fn.name != "" {
		own := newScope(s, false)
		own.declare(fn.name, bindConst, fn)
		fn.scope = own
	}
	return fn, nil
}

// activate binds arguments for a call of the script function fn.
func (r *Realm) activate(fn *Function, this Value, args []Value) (*frame, *scope) {
	t := fn.tree
	s := newScope(fn.scope, true)
	for i, p := range t.List(fn.node) {
		var v Value = Undefined
		if i < len(args) {
			v = args[i]
		}
		s.declare(t.Node(p).Name, bindVar, v)
	}
	fr := &frame{realm: r, tree: t, fn: fn, this: normalize(this)}
	fr.hoistVars(s, t.Child(fn.node, syntax.FieldBody))
	return fr, s
}

// run executes the function body in s.
func (fr *frame) run(s *scope) (Value, error) {
	ctl, v, err := fr.exec(s, fr.tree.Child(fr.fn.node, syntax.FieldBody))
	if err != nil {
		return nil, err
	}
	if ctl == ctlReturn {
		return normalize(v), nil
	}
	return Undefined, nil
}

// call invokes fn with the realm r as caller.
func (r *Realm) call(fn *Function, this Value, args []Value) (Value, error) {
	if fn.host != nil {
		v, err := fn.host(Call{This: normalize(this), Args: args, Context: r.loop.context(), realm: r})
		if err != nil {
			return nil, err
		}
		return normalize(v), nil
	}
	return fn.realm.invoke(fn, this, args)
}

func (r *Realm) invoke(fn *Function, this Value, args []Value) (Value, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > maxDepth {
		return nil, throwf(Pos{}, "RangeError", "maximum call stack size exceeded")
	}

	fr, s := r.activate(fn, this, args)
	switch fn.kind {
	case FuncGenerator:
		co := r.newCoroutine(func(co *coroutine) (Value, error) {
			fr.co = co
			return fr.run(s)
		})
		return &Generator{co: co, fn: fn}, nil

	case FuncAsync:
		d := NewDeferred(r.loop)
		co := r.newCoroutine(func(co *coroutine) (Value, error) {
			fr.co = co
			return fr.run(s)
		})
		r.stepAsync(co, d, nil, nil)
		return d.Future(), nil
	}
	return fr.run(s)
}

// stepAsync advances an async function body to its next await and
// resumes it once the awaited value settles.
func (r *Realm) stepAsync(co *coroutine, d *Deferred, v Value, err error) {
	out, done, rerr := co.resume(v, err)
	if done {
		if rerr != nil {
			d.Fail(rerr)
		} else {
			d.Resolve(out)
		}
		return
	}
	Resolved(r.loop, out).OnSettle(func(v Value, err error) {
		r.stepAsync(co, d, v, err)
	})
}

// delegate implements yield* over a generator or an array.
func (fr *frame) delegate(target Value, pos Pos) (Value, error) {
	switch g := target.(type) {
	case *Generator:
		var in Value = Undefined
		var inErr error
		for {
			var out Value
			var done bool
			var err error
			var rs *returnSignal
			switch {
			case inErr != nil && stderrors.As(inErr, &rs):
				if _, _, err := g.Return(rs.value); err != nil {
					return nil, err
				}
				return nil, inErr
			case inErr != nil:
				out, done, err = g.Throw(inErr)
			default:
				out, done, err = g.Next(in)
			}
			if err != nil {
				return nil, err
			}
			if done {
				return out, nil
			}
			in, inErr = fr.co.suspend(out)
		}

	case *Array:
		for _, e := range append([]Value(nil), g.Elems...) {
			if _, err := fr.co.suspend(e); err != nil {
				return nil, err
			}
		}
		return Undefined, nil
	}
	return nil, throwf(pos, "TypeError", "yield* target is not iterable")
}
