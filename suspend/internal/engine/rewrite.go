package engine

import (
	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax"
)

// collectSites returns every call whose callee matches the frozen name set,
// in pre-order. The tree is not modified, so an unsupported callee aborts
// before any rewrite happens.
func collectSites(t *syntax.Tree, names Names) ([]syntax.NodeID, error) {
	var sites []syntax.NodeID
	var err error
	t.Walk(t.Root, func(id syntax.NodeID) bool {
		if err != nil {
			return false
		}
		if t.Kind(id) != syntax.KindCall {
			return true
		}
		var ok bool
		ok, err = matchCall(t, id, names, errors.PhaseRewrite)
		if ok {
			sites = append(sites, id)
		}
		// calls inside a matching call's arguments are judged on their own
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return sites, nil
}

// rewrite wraps each site in a non-delegating suspension expression placed
// in the site's original slot. It returns the distinct enclosing functions
// in first-seen order and the number of sites outside any function.
func rewrite(t *syntax.Tree, sites []syntax.NodeID, output Output) ([]syntax.NodeID, int) {
	kind := syntax.KindYield
	if output == OutputNative {
		kind = syntax.KindAwait
	}

	var fns []syntax.NodeID
	seen := make(map[syntax.NodeID]bool)
	topLevel := 0
	for _, call := range sites {
		t.Wrap(call, kind, syntax.FieldArgument)

		fn := t.EnclosingFunction(call)
		switch {
		case fn == syntax.None:
			topLevel++
		case !seen[fn]:
			seen[fn] = true
			fns = append(fns, fn)
		}
	}
	return fns, topLevel
}
