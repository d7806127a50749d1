package sandbox

type bindingKind uint8

const (
	bindVar bindingKind = iota
	bindLet
	bindConst
)

type binding struct {
	value Value
	kind  bindingKind
}

// scope is one level of lexical bindings. Function scopes hold var
// declarations; block scopes only let and const.
type scope struct {
	vars   map[string]*binding
	parent *scope
	fn     bool
}

func newScope(parent *scope, fn bool) *scope {
	return &scope{vars: make(map[string]*binding), parent: parent, fn: fn}
}

func (s *scope) lookup(name string) (*binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// declare creates or overwrites a binding in s.
func (s *scope) declare(name string, kind bindingKind, v Value) {
	s.vars[name] = &binding{value: normalize(v), kind: kind}
}

// functionScope returns the nearest enclosing function scope.
func (s *scope) functionScope() *scope {
	cur := s
	for !cur.fn && cur.parent != nil {
		cur = cur.parent
	}
	return cur
}
