package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
)

// RollUpHeadcount sums leaf headcount under n. It recomputes from the leaves
// and ignores the stored value on internal nodes.
func RollUpHeadcount(n *orgtree.Node) int {
	if n == nil {
		return 0
	}
	if n.IsLeaf() {
		return n.Headcount
	}
	total := 0
	for _, c := range n.Children {
		total += RollUpHeadcount(c)
	}
	return total
}

// RollUpValidatedCapacity sums validated capacity of the leaves under n. The
// result is unset only when every leaf is unset.
func RollUpValidatedCapacity(n *orgtree.Node) orgtree.Capacity {
	if n == nil {
		return orgtree.Unset()
	}
	if n.IsLeaf() {
		return n.ValidatedCapacity
	}
	total := orgtree.Unset()
	for _, c := range n.Children {
		total = total.Add(RollUpValidatedCapacity(c))
	}
	return total
}

// ExpectedCapacity is the rolled-up headcount of n times ratePerHead.
func ExpectedCapacity(n *orgtree.Node, ratePerHead int64) decimal.Decimal {
	return orgtree.ExpectedCapacity(RollUpHeadcount(n), ratePerHead)
}

// VerifyRollups checks every stored derived value against a fresh rollup and
// reports the first mismatch in pre-order.
func VerifyRollups(tree *orgtree.Tree) error {
	if tree == nil {
		return orgtree.ErrEmptyTree
	}
	var err error
	tree.Walk(func(n *orgtree.Node) bool {
		if err != nil {
			return false
		}
		for _, c := range n.Children {
			if c.Depth != n.Depth+1 {
				err = fmt.Errorf("node %q: depth %d under parent depth %d", c.ID, c.Depth, n.Depth)
				return false
			}
		}
		if got := RollUpHeadcount(n); got != n.Headcount {
			err = fmt.Errorf("node %q: stored headcount %d, rolled up %d", n.ID, n.Headcount, got)
			return false
		}
		if got := RollUpValidatedCapacity(n); !got.Equal(n.ValidatedCapacity) {
			err = fmt.Errorf("node %q: stored validated capacity %s, rolled up %s", n.ID, n.ValidatedCapacity, got)
			return false
		}
		return true
	})
	return err
}
