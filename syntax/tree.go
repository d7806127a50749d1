package syntax

import (
	"fmt"
	"math"

	"fortio.org/safecast"
)

// Tree is an arena of nodes. Node 0 is reserved so that NodeID's zero value
// can mean "absent".
type Tree struct {
	nodes []Node
	Root  NodeID
}

func NewTree() *Tree {
	return &Tree{nodes: make([]Node, 1, 64)}
}

// Len returns the number of allocated nodes, including detached ones.
func (t *Tree) Len() int {
	return len(t.nodes) - 1
}

// Node returns the node for id. The pointer is invalidated by the next New.
func (t *Tree) Node(id NodeID) *Node {
	if id == None || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("syntax: invalid node id %d", id))
	}
	return &t.nodes[id]
}

func (t *Tree) Kind(id NodeID) Kind {
	if id == None {
		return KindInvalid
	}
	return t.nodes[id].Kind
}

// New allocates a detached node.
func (t *Tree) New(kind Kind, pos Pos) NodeID {
	t.nodes = append(t.nodes, Node{Kind: kind, Pos: pos})
	id, err := safecast.Conv[uint32](len(t.nodes) - 1)
	if err != nil {
		panic(fmt.Errorf("node arena overflow: %w", err))
	}
	return NodeID(id)
}

// Ident allocates an identifier node.
func (t *Tree) Ident(name string, pos Pos) NodeID {
	id := t.New(KindIdentifier, pos)
	t.nodes[id].Name = name
	return id
}

// Child returns the node in a single-valued field, or None.
func (t *Tree) Child(id NodeID, f Field) NodeID {
	n := &t.nodes[id]
	e := layouts[n.Kind].edge(f)
	if e < 0 {
		panic(fmt.Sprintf("syntax: %s has no field %s", n.Kind, f))
	}
	return n.edges[e]
}

// SetChild stores child in a single-valued field and points the child back
// at its new parent. A None child clears the field.
func (t *Tree) SetChild(id NodeID, f Field, child NodeID) {
	n := &t.nodes[id]
	e := layouts[n.Kind].edge(f)
	if e < 0 {
		panic(fmt.Sprintf("syntax: %s has no field %s", n.Kind, f))
	}
	n.edges[e] = child
	if child != None {
		c := &t.nodes[child]
		c.Parent = id
		c.Slot = Slot{Field: f}
	}
}

// List returns the node's list field. Callers must not modify the slice.
func (t *Tree) List(id NodeID) []NodeID {
	return t.nodes[id].list
}

// Append adds child to the end of the node's list field.
func (t *Tree) Append(id NodeID, child NodeID) {
	n := &t.nodes[id]
	f := layouts[n.Kind].list
	if f == FieldNone {
		panic(fmt.Sprintf("syntax: %s has no list field", n.Kind))
	}
	n.list = append(n.list, child)
	c := &t.nodes[child]
	c.Parent = id
	c.Slot = Slot{Field: f, Index: len(n.list) - 1}
}

// Replace puts repl into the slot old occupies. old becomes detached.
func (t *Tree) Replace(old, repl NodeID) {
	o := &t.nodes[old]
	parent, slot := o.Parent, o.Slot
	o.Parent, o.Slot = None, Slot{}
	if parent == None {
		if t.Root == old {
			t.Root = repl
		}
		t.nodes[repl].Parent, t.nodes[repl].Slot = None, Slot{}
		return
	}
	p := &t.nodes[parent]
	if slot.Field == layouts[p.Kind].list {
		p.list[slot.Index] = repl
	} else {
		p.edges[layouts[p.Kind].edge(slot.Field)] = repl
	}
	r := &t.nodes[repl]
	r.Parent, r.Slot = parent, slot
}

// Wrap allocates a node of the given kind in id's slot and moves id into
// the wrapper's field f. It returns the wrapper.
func (t *Tree) Wrap(id NodeID, kind Kind, f Field) NodeID {
	w := t.New(kind, t.nodes[id].Pos)
	t.Replace(id, w)
	t.SetChild(w, f, id)
	return w
}

// Children returns the non-empty children of id in source order.
func (t *Tree) Children(id NodeID) []NodeID {
	n := &t.nodes[id]
	l := &layouts[n.Kind]
	var out []NodeID
	e := 0
	for _, f := range l.fields {
		if f == l.list {
			out = append(out, n.list...)
			continue
		}
		if c := n.edges[e]; c != None {
			out = append(out, c)
		}
		e++
	}
	return out
}

// Walk visits id and its descendants in pre-order. Children are read after
// fn returns, so fn may replace nodes in id's own slot. Returning false
// skips id's children.
func (t *Tree) Walk(id NodeID, fn func(id NodeID) bool) {
	if id == None {
		return
	}
	if !fn(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Walk(c, fn)
	}
}

// EnclosingFunction returns the nearest function that contains id, or None
// when id is at program level.
func (t *Tree) EnclosingFunction(id NodeID) NodeID {
	for p := t.nodes[id].Parent; p != None; p = t.nodes[p].Parent {
		if t.nodes[p].Kind.IsFunction() {
			return p
		}
	}
	return None
}

// FuncName returns the declared name of a function node, or "".
func (t *Tree) FuncName(fn NodeID) string {
	if id := t.Child(fn, FieldID); id != None {
		return t.nodes[id].Name
	}
	return ""
}

// Equal reports whether two subtrees have the same shape and payload.
// Positions are ignored.
func Equal(a *Tree, ai NodeID, b *Tree, bi NodeID) bool {
	if ai == None || bi == None {
		return ai == bi
	}
	x, y := &a.nodes[ai], &b.nodes[bi]
	if x.Kind != y.Kind || x.Op != y.Op || x.Flags != y.Flags || x.Name != y.Name {
		return false
	}
	if x.Num != y.Num && !(math.IsNaN(x.Num) && math.IsNaN(y.Num)) {
		return false
	}
	for i := range x.edges {
		if !Equal(a, x.edges[i], b, y.edges[i]) {
			return false
		}
	}
	if len(x.list) != len(y.list) {
		return false
	}
	for i := range x.list {
		if !Equal(a, x.list[i], b, y.list[i]) {
			return false
		}
	}
	return true
}
