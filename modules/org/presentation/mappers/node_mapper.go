package mappers

import (
	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/presentation/viewmodels"
	"github.com/iota-uz/orgplan/pkg/spotlight"
)

func NodeDetailsToViewModel(tree *orgtree.Tree, id orgtree.NodeID, opts TreeOptions) *viewmodels.OrgNodeDetails {
	if tree == nil {
		return nil
	}
	path, ok := tree.Path(id)
	if !ok {
		return nil
	}
	opts = opts.withDefaults()
	n := path[len(path)-1]
	names := make([]string, len(path))
	for i, p := range path {
		names[i] = p.Name
	}
	return &viewmodels.OrgNodeDetails{
		ID:                string(n.ID),
		Role:              string(n.Role),
		Name:              n.Name,
		Person:            n.PersonLabel,
		Status:            n.Status,
		Segments:          append([]string(nil), n.Segments...),
		Subtitle:          orgtree.Subtitle(n),
		Headcount:         n.Headcount,
		ValidatedCapacity: n.ValidatedCapacity.Display(opts.Currency),
		TargetCapacity:    orgtree.FormatMoney(n.TargetCapacity, opts.Currency),
		ExpectedCapacity:  orgtree.FormatMoney(orgtree.ExpectedCapacity(n.Headcount, opts.PrimaryRate), opts.Currency),
		Path:              names,
		IsRoot:            len(path) == 1,
	}
}

// TreeToSpotlight indexes every node by name, with person label and role as
// secondary text.
func TreeToSpotlight(tree *orgtree.Tree) *spotlight.Index {
	idx := spotlight.NewIndex()
	if tree == nil {
		return idx
	}
	tree.Walk(func(n *orgtree.Node) bool {
		detail := string(n.Role)
		if n.PersonLabel != "" {
			detail = n.PersonLabel + " · " + detail
		}
		idx.Add(spotlight.Item{Key: string(n.ID), Label: n.Name, Detail: detail})
		return true
	})
	return idx
}
