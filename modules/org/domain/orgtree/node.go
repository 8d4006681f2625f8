package orgtree

import (
	"github.com/shopspring/decimal"
)

const (
	PrimaryRatePerHead   = 1000
	AlternateRatePerHead = 800
)

type NodeID string

// Node is one organizational unit or individual contributor. Nodes reachable
// from a Tree are shared between snapshots and must be treated as read-only;
// edits go through the hierarchy services, which copy the edited path.
type Node struct {
	ID          NodeID
	Role        Role
	Name        string
	PersonLabel string
	Segments    []string
	Status      string

	// Headcount is authoritative on leaves and the sum of the children
	// everywhere else.
	Headcount int
	// ValidatedCapacity is editable on leaves and derived on internal nodes.
	ValidatedCapacity Capacity
	// TargetCapacity is set per node and never rolled up.
	TargetCapacity decimal.Decimal

	Depth    int
	Profile  RoleProfile
	Children []*Node
}

func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// ExpectedCapacity is headcount times the per-head rate. It is never stored.
func ExpectedCapacity(headcount int, ratePerHead int64) decimal.Decimal {
	return decimal.NewFromInt(int64(headcount)).Mul(decimal.NewFromInt(ratePerHead))
}

// clone copies the node struct and its slices; children are shared.
func (n *Node) clone() *Node {
	cp := *n
	if n.Segments != nil {
		cp.Segments = append([]string(nil), n.Segments...)
	}
	if n.Children != nil {
		cp.Children = append([]*Node(nil), n.Children...)
	}
	return &cp
}

// derive recomputes the rolled-up fields of an internal node from its direct
// children, which must already be consistent.
func (n *Node) derive() {
	if n.IsLeaf() {
		return
	}
	headcount := 0
	validated := Unset()
	for _, c := range n.Children {
		headcount += c.Headcount
		validated = validated.Add(c.ValidatedCapacity)
	}
	n.Headcount = headcount
	n.ValidatedCapacity = validated
}
