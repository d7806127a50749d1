package engine

import (
	"go.uber.org/zap"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax"
)

// propagate repeats full traversals until one adds no name.
//
// Each productive traversal adds at least one identifier of the program,
// so the loop ends after at most Identifiers productive traversals plus
// the final empty one.
func (e *Engine) propagate(t *syntax.Tree, names Names) (Report, error) {
	report := Report{Identifiers: countIdentifiers(t)}
	marked := make(map[syntax.NodeID]bool)

	for {
		step, err := propagateOnce(t, names, marked)
		if err != nil {
			return Report{}, err
		}
		report.Iterations++
		report.Steps = append(report.Steps, step)

		e.log.Debug("propagation traversal",
			zap.Int("iteration", report.Iterations),
			zap.Strings("added", step.Added),
			zap.Strings("marked", step.Marked))

		if len(step.Added) == 0 {
			return report, nil
		}
	}
}

// propagateOnce applies the alias and caller rules across the whole tree
// against the names known at each point of the walk.
func propagateOnce(t *syntax.Tree, names Names, marked map[syntax.NodeID]bool) (Step, error) {
	var step Step
	var walkErr error

	// add records name unless some pattern already matches it
	add := func(name string) {
		if !names.Match(name) && names.Add(name) {
			step.Added = append(step.Added, name)
		}
	}

	t.Walk(t.Root, func(id syntax.NodeID) bool {
		if walkErr != nil {
			return false
		}

		switch t.Kind(id) {
		case syntax.KindVarDeclarator:
			// var/let/const x = y
			target := t.Node(t.Child(id, syntax.FieldID)).Name
			if alias, ok := identName(t, t.Child(id, syntax.FieldInit)); ok {
				if names.Match(alias) {
					add(target)
				}
			}

		case syntax.KindAssign:
			// x = y
			if t.Node(id).Op != syntax.OpAssign {
				break
			}
			target, ok := identName(t, t.Child(id, syntax.FieldLeft))
			if !ok {
				break
			}
			if alias, ok := identName(t, t.Child(id, syntax.FieldRight)); ok {
				if names.Match(alias) {
					add(target)
				}
			}

		case syntax.KindFunctionDecl, syntax.KindFunctionExpr:
			name := t.FuncName(id)
			if name == "" {
				break
			}
			found, err := bodySuspends(t, t.Child(id, syntax.FieldBody), names)
			if err != nil {
				walkErr = err
				return false
			}
			if !found {
				break
			}
			if !marked[id] {
				marked[id] = true
				step.Marked = append(step.Marked, name)
			}
			add(name)
		}
		return true
	})

	return step, walkErr
}

// bodySuspends reports whether any call directly inside body, including
// calls nested in other calls' arguments, matches names. Nested function
// bodies are not inspected.
func bodySuspends(t *syntax.Tree, body syntax.NodeID, names Names) (bool, error) {
	var found bool
	var err error
	t.Walk(body, func(id syntax.NodeID) bool {
		if found || err != nil {
			return false
		}
		switch t.Kind(id) {
		case syntax.KindFunctionDecl, syntax.KindFunctionExpr:
			return false
		case syntax.KindCall:
			found, err = matchCall(t, id, names, errors.PhasePropagate)
		}
		return true
	})
	return found, err
}

func identName(t *syntax.Tree, id syntax.NodeID) (string, bool) {
	if id == syntax.None || t.Kind(id) != syntax.KindIdentifier {
		return "", false
	}
	return t.Node(id).Name, true
}

// countIdentifiers returns the number of distinct identifier names.
func countIdentifiers(t *syntax.Tree) int {
	seen := make(map[string]struct{})
	t.Walk(t.Root, func(id syntax.NodeID) bool {
		if t.Kind(id) == syntax.KindIdentifier {
			seen[t.Node(id).Name] = struct{}{}
		}
		return true
	})
	return len(seen)
}
