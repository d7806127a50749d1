package engine

import (
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax"
)

// calleeKind classifies the callee of a call expression. Every kind has
// exactly one entry in calleeHandlers.
type calleeKind uint8

const (
	calleeIdent calleeKind = iota
	calleeMember
	calleeFunction
	calleeUnsupported
	calleeKindCount
)

// calleeHandler derives the name a call site is matched under. ok=false
// means the site has no usable name and simply does not match.
type calleeHandler func(t *syntax.Tree, callee syntax.NodeID, phase errors.Phase) (name string, ok bool, err error)

var calleeHandlers = [calleeKindCount]calleeHandler{
	calleeIdent:       identCallee,
	calleeMember:      memberCallee,
	calleeFunction:    functionCallee,
	calleeUnsupported: unsupportedCallee,
}

func classifyCallee(t *syntax.Tree, callee syntax.NodeID) calleeKind {
	switch t.Kind(callee) {
	case syntax.KindIdentifier:
		return calleeIdent
	case syntax.KindMember:
		return calleeMember
	case syntax.KindFunctionExpr:
		return calleeFunction
	}
	return calleeUnsupported
}

// calleeName returns the name of call's callee.
func calleeName(t *syntax.Tree, call syntax.NodeID, phase errors.Phase) (string, bool, error) {
	callee := t.Child(call, syntax.FieldCallee)
	return calleeHandlers[classifyCallee(t, callee)](t, callee, phase)
}

func identCallee(t *syntax.Tree, callee syntax.NodeID, _ errors.Phase) (string, bool, error) {
	return t.Node(callee).Name, true, nil
}

// memberCallee names obj.prop when both sides are plain identifiers.
// A dynamic computed key cannot be named at all and is rejected.
func memberCallee(t *syntax.Tree, callee syntax.NodeID, phase errors.Phase) (string, bool, error) {
	n := t.Node(callee)
	obj := t.Child(callee, syntax.FieldObject)
	prop := t.Child(callee, syntax.FieldProperty)

	if n.Flags.Has(syntax.FlagComputed) {
		switch t.Kind(prop) {
		case syntax.KindString, syntax.KindNumber:
			return "", false, nil
		}
		return "", false, errors.UnsupportedSyntax(phase, n.Pos,
			"cannot name computed member callee "+syntax.GenerateNode(t, callee))
	}
	if t.Kind(obj) != syntax.KindIdentifier {
		return "", false, nil
	}
	return t.Node(obj).Name + "." + t.Node(prop).Name, true, nil
}

func functionCallee(t *syntax.Tree, callee syntax.NodeID, _ errors.Phase) (string, bool, error) {
	name := t.FuncName(callee)
	return name, name != "", nil
}

func unsupportedCallee(t *syntax.Tree, callee syntax.NodeID, phase errors.Phase) (string, bool, error) {
	n := t.Node(callee)
	return "", false, errors.UnsupportedSyntax(phase, n.Pos, "cannot name callee of kind "+n.Kind.String())
}

// matchCall reports whether call's callee is in names.
func matchCall(t *syntax.Tree, call syntax.NodeID, names Names, phase errors.Phase) (bool, error) {
	name, ok, err := calleeName(t, call, phase)
	if err != nil || !ok {
		return false, err
	}
	return names.Match(name), nil
}
