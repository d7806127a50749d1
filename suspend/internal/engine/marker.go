package engine

import "github.com/wippyai/suspendjs/syntax"

// markFunction gives fn the coroutine shape selected by output and clears
// the other shape, so at most one of the two flags is ever set.
func markFunction(t *syntax.Tree, fn syntax.NodeID, output Output) {
	n := t.Node(fn)
	switch output {
	case OutputCooperative:
		n.Flags = n.Flags&^syntax.FlagAsync | syntax.FlagGenerator
	case OutputNative:
		n.Flags = n.Flags&^syntax.FlagGenerator | syntax.FlagAsync
	}
}
