package services

import (
	"fmt"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
)

// ApplyFieldUpdate applies m to the node with the given id and returns the
// new snapshot. The input tree is never modified. On any error, including
// ErrNodeNotFound, the input tree is returned as-is.
func ApplyFieldUpdate(tree *orgtree.Tree, id orgtree.NodeID, m FieldMutation) (*orgtree.Tree, error) {
	if tree == nil {
		return nil, orgtree.ErrEmptyTree
	}
	if m == nil {
		return tree, fmt.Errorf("%w: mutation is nil", ErrInvalidInput)
	}
	return tree.Rewrite(id, m.apply)
}

// ApplyHeadcountUpdate sets the headcount of a leaf and re-derives every
// ancestor on its path, so only the leaf and its ancestors differ from the
// input tree.
//
// Internal-node headcount is always the sum of the children, so direct edits
// to it are rejected with ErrDerivedField rather than accepted and discarded.
func ApplyHeadcountUpdate(tree *orgtree.Tree, id orgtree.NodeID, headcount int) (*orgtree.Tree, error) {
	if tree == nil {
		return nil, orgtree.ErrEmptyTree
	}
	if headcount < 0 {
		return tree, fmt.Errorf("%w: headcount %d is negative", ErrInvalidInput, headcount)
	}
	return tree.Rewrite(id, func(n *orgtree.Node) error {
		if !n.IsLeaf() {
			return fmt.Errorf("%w: headcount of %q is rolled up from %d children", ErrDerivedField, n.ID, len(n.Children))
		}
		n.Headcount = headcount
		return nil
	})
}
