package mappers

import (
	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/presentation/viewmodels"
)

type TreeOptions struct {
	Currency      string
	PrimaryRate   int64
	AlternateRate int64
	ShowAlternate bool
	Selected      orgtree.NodeID
}

func (o TreeOptions) withDefaults() TreeOptions {
	if o.Currency == "" {
		o.Currency = "USD"
	}
	if o.PrimaryRate == 0 {
		o.PrimaryRate = orgtree.PrimaryRatePerHead
	}
	if o.AlternateRate == 0 {
		o.AlternateRate = orgtree.AlternateRatePerHead
	}
	return o
}

// TreeToRows flattens the tree in pre-order, keeping sibling order as stored.
func TreeToRows(tree *orgtree.Tree, opts TreeOptions) *viewmodels.OrgTree {
	opts = opts.withDefaults()
	out := &viewmodels.OrgTree{Currency: opts.Currency, ShowAlternate: opts.ShowAlternate}
	if tree == nil {
		return out
	}
	out.Rows = make([]viewmodels.OrgRow, 0, tree.Len())
	tree.Walk(func(n *orgtree.Node) bool {
		out.Rows = append(out.Rows, nodeToRow(n, opts))
		return true
	})
	return out
}

func nodeToRow(n *orgtree.Node, opts TreeOptions) viewmodels.OrgRow {
	row := viewmodels.OrgRow{
		ID:           string(n.ID),
		Role:         string(n.Role),
		Name:         n.Name,
		Person:       n.PersonLabel,
		Subtitle:     orgtree.Subtitle(n),
		Status:       n.Status,
		Depth:        n.Depth,
		IsLeaf:       n.IsLeaf(),
		Selected:     opts.Selected != "" && opts.Selected == n.ID,
		Headcount:    n.Headcount,
		Validated:    n.ValidatedCapacity.Display(opts.Currency),
		ValidatedSet: n.ValidatedCapacity.IsSet(),
		Target:       orgtree.FormatMoney(n.TargetCapacity, opts.Currency),
		Expected:     orgtree.FormatMoney(orgtree.ExpectedCapacity(n.Headcount, opts.PrimaryRate), opts.Currency),
	}
	if opts.ShowAlternate {
		row.AlternateExpected = orgtree.FormatMoney(orgtree.ExpectedCapacity(n.Headcount, opts.AlternateRate), opts.Currency)
	}
	return row
}
