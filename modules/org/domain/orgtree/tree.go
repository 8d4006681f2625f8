package orgtree

import (
	"fmt"
)

// Tree is an immutable snapshot of an org hierarchy. Every edit produces a
// new Tree; nodes off the edited path are shared with the previous snapshot.
//
// The set of ids and their positions never changes after New, so the id index
// is shared by every snapshot derived from the same tree.
type Tree struct {
	root  *Node
	index map[NodeID][]int
}

// New deep-copies root, assigns depths, rolls headcount and validated
// capacity up to every internal node and indexes the ids.
func New(root *Node) (*Tree, error) {
	if root == nil {
		return nil, ErrEmptyTree
	}
	b := builder{
		index: make(map[NodeID][]int),
		seen:  make(map[*Node]struct{}),
	}
	copied, err := b.build(root, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Tree{root: copied, index: b.index}, nil
}

// MustNew is New for fixtures known to be valid.
func MustNew(root *Node) *Tree {
	t, err := New(root)
	if err != nil {
		panic(err)
	}
	return t
}

type builder struct {
	index map[NodeID][]int
	seen  map[*Node]struct{}
}

func (b *builder) build(n *Node, depth int, path []int) (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("%w at depth %d", ErrNilChild, depth)
	}
	if _, ok := b.seen[n]; ok {
		return nil, fmt.Errorf("%w: node %q is reachable more than once", ErrDuplicateNodeID, n.ID)
	}
	b.seen[n] = struct{}{}

	if n.ID == "" {
		return nil, ErrEmptyNodeID
	}
	if _, ok := b.index[n.ID]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
	}
	if !n.Role.Valid() {
		return nil, fmt.Errorf("%w: %q on node %q", ErrUnknownRole, n.Role, n.ID)
	}
	if n.Profile != nil && n.Profile.Role() != n.Role {
		return nil, fmt.Errorf("%w: node %q is %s, profile is %s", ErrProfileMismatch, n.ID, n.Role, n.Profile.Role())
	}
	if n.Headcount < 0 {
		return nil, fmt.Errorf("%w: node %q has %d", ErrNegativeHeadcount, n.ID, n.Headcount)
	}
	if n.ValidatedCapacity.IsNegative() || n.TargetCapacity.IsNegative() {
		return nil, fmt.Errorf("%w: node %q", ErrNegativeCapacity, n.ID)
	}
	b.index[n.ID] = append([]int(nil), path...)

	cp := n.clone()
	cp.Depth = depth
	if cp.Profile == nil {
		cp.Profile = DefaultProfile(cp.Role)
	}
	for i, child := range n.Children {
		c, err := b.build(child, depth+1, append(path, i))
		if err != nil {
			return nil, err
		}
		cp.Children[i] = c
	}
	cp.derive()
	return cp, nil
}

func (t *Tree) Root() *Node {
	return t.root
}

// Len is the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.index)
}

// Find locates a node by id in O(depth).
func (t *Tree) Find(id NodeID) (*Node, bool) {
	pos, ok := t.index[id]
	if !ok {
		return nil, false
	}
	n := t.root
	for _, i := range pos {
		n = n.Children[i]
	}
	return n, true
}

// Path returns the nodes from the root down to id, inclusive.
func (t *Tree) Path(id NodeID) ([]*Node, bool) {
	pos, ok := t.index[id]
	if !ok {
		return nil, false
	}
	out := make([]*Node, 0, len(pos)+1)
	n := t.root
	out = append(out, n)
	for _, i := range pos {
		n = n.Children[i]
		out = append(out, n)
	}
	return out, true
}

// Walk visits nodes in pre-order. Returning false from fn skips the node's
// children.
func (t *Tree) Walk(fn func(n *Node) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.root)
}

// Leaves returns leaf nodes in pre-order.
func (t *Tree) Leaves() []*Node {
	out := make([]*Node, 0, len(t.index))
	t.Walk(func(n *Node) bool {
		if n.IsLeaf() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Rewrite copies the path from the root to id, hands the fresh copy of the
// target to edit, then re-derives the rolled-up fields of every copied node
// bottom-up. edit may change field values only: id, depth, profile role and
// children are restored afterwards. If edit fails, the receiver is returned
// unchanged together with the error.
func (t *Tree) Rewrite(id NodeID, edit func(n *Node) error) (*Tree, error) {
	pos, ok := t.index[id]
	if !ok {
		return t, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}

	path := make([]*Node, 0, len(pos)+1)
	cur := t.root.clone()
	newRoot := cur
	path = append(path, cur)
	for _, i := range pos {
		next := cur.Children[i].clone()
		cur.Children[i] = next
		cur = next
		path = append(path, cur)
	}

	target := path[len(path)-1]
	orig := *target
	if err := edit(target); err != nil {
		return t, err
	}
	target.ID = orig.ID
	target.Depth = orig.Depth
	target.Children = orig.Children
	if target.Profile == nil || target.Profile.Role() != orig.Role {
		target.Profile = orig.Profile
	}
	target.Role = orig.Role

	for i := len(path) - 1; i >= 0; i-- {
		path[i].derive()
	}
	return &Tree{root: newRoot, index: t.index}, nil
}
