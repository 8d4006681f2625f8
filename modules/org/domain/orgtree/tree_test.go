package orgtree

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ae(id string, headcount int, validated Capacity) *Node {
	return &Node{ID: NodeID(id), Role: RoleAE, Name: id, Headcount: headcount, ValidatedCapacity: validated}
}

func sampleRoot() *Node {
	return &Node{
		ID:   "root",
		Role: RoleExecutive,
		Name: "Sales",
		Children: []*Node{
			{
				ID:   "svp-east",
				Role: RoleSegmentVP,
				Children: []*Node{
					ae("ae-1", 1, CapacityFromInt(1200)),
					ae("ae-2", 2, Unset()),
				},
			},
			{
				ID:   "svp-west",
				Role: RoleSegmentVP,
				Children: []*Node{
					ae("ae-3", 4, Unset()),
				},
			},
		},
	}
}

func TestNew_RollsUpAndAssignsDepth(t *testing.T) {
	tree, err := New(sampleRoot())
	require.NoError(t, err)
	require.Equal(t, 5, tree.Len())

	root := tree.Root()
	require.Equal(t, 7, root.Headcount)
	require.Equal(t, 0, root.Depth)
	require.True(t, root.ValidatedCapacity.IsSet())
	require.True(t, root.ValidatedCapacity.Amount().Equal(decimal.NewFromInt(1200)))

	west, ok := tree.Find("svp-west")
	require.True(t, ok)
	require.Equal(t, 1, west.Depth)
	require.Equal(t, 4, west.Headcount)
	require.False(t, west.ValidatedCapacity.IsSet())

	leaf, ok := tree.Find("ae-2")
	require.True(t, ok)
	require.Equal(t, 2, leaf.Depth)
	require.IsType(t, AEProfile{}, leaf.Profile)
}

func TestNew_DoesNotAliasInput(t *testing.T) {
	in := sampleRoot()
	tree := MustNew(in)

	in.Children[0].Children[0].Headcount = 99
	in.Children = nil

	leaf, ok := tree.Find("ae-1")
	require.True(t, ok)
	require.Equal(t, 1, leaf.Headcount)
	require.Equal(t, 7, tree.Root().Headcount)
}

func TestNew_Rejects(t *testing.T) {
	shared := ae("ae-x", 1, Unset())

	cases := []struct {
		name string
		root *Node
		want error
	}{
		{name: "nil root", root: nil, want: ErrEmptyTree},
		{name: "empty id", root: &Node{Role: RoleAE}, want: ErrEmptyNodeID},
		{
			name: "nil child",
			root: &Node{ID: "r", Role: RoleExecutive, Children: []*Node{ae("a", 1, Unset()), nil}},
			want: ErrNilChild,
		},
		{
			name: "duplicate id",
			root: &Node{ID: "r", Role: RoleExecutive, Children: []*Node{ae("a", 1, Unset()), ae("a", 2, Unset())}},
			want: ErrDuplicateNodeID,
		},
		{
			name: "shared child",
			root: &Node{ID: "r", Role: RoleExecutive, Children: []*Node{shared, shared}},
			want: ErrDuplicateNodeID,
		},
		{name: "negative headcount", root: ae("a", -1, Unset()), want: ErrNegativeHeadcount},
		{name: "negative capacity", root: ae("a", 1, CapacityFromInt(-5)), want: ErrNegativeCapacity},
		{name: "unknown role", root: &Node{ID: "a", Role: "CFO"}, want: ErrUnknownRole},
		{
			name: "profile mismatch",
			root: &Node{ID: "a", Role: RoleAE, Profile: AreaVPProfile{Regions: 2}},
			want: ErrProfileMismatch,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.root)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTree_Path(t *testing.T) {
	tree := MustNew(sampleRoot())

	path, ok := tree.Path("ae-3")
	require.True(t, ok)
	require.Len(t, path, 3)
	require.Equal(t, NodeID("root"), path[0].ID)
	require.Equal(t, NodeID("svp-west"), path[1].ID)
	require.Equal(t, NodeID("ae-3"), path[2].ID)

	_, ok = tree.Path("missing")
	require.False(t, ok)
}

func TestTree_LeavesPreOrder(t *testing.T) {
	tree := MustNew(sampleRoot())
	var ids []NodeID
	for _, n := range tree.Leaves() {
		ids = append(ids, n.ID)
	}
	require.Equal(t, []NodeID{"ae-1", "ae-2", "ae-3"}, ids)
}

func TestTree_RewriteCopiesOnlyThePath(t *testing.T) {
	before := MustNew(sampleRoot())

	after, err := before.Rewrite("ae-1", func(n *Node) error {
		n.Headcount = 10
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, 7, before.Root().Headcount)
	require.Equal(t, 16, after.Root().Headcount)

	beforeWest, _ := before.Find("svp-west")
	afterWest, _ := after.Find("svp-west")
	require.Same(t, beforeWest, afterWest)

	beforeSibling, _ := before.Find("ae-2")
	afterSibling, _ := after.Find("ae-2")
	require.Same(t, beforeSibling, afterSibling)

	beforeEast, _ := before.Find("svp-east")
	afterEast, _ := after.Find("svp-east")
	require.NotSame(t, beforeEast, afterEast)
	require.Equal(t, 3, beforeEast.Headcount)
	require.Equal(t, 12, afterEast.Headcount)
}

func TestTree_RewriteKeepsStructure(t *testing.T) {
	before := MustNew(sampleRoot())

	after, err := before.Rewrite("svp-east", func(n *Node) error {
		n.ID = "renamed"
		n.Children = nil
		n.Depth = 9
		return nil
	})
	require.NoError(t, err)

	east, ok := after.Find("svp-east")
	require.True(t, ok)
	require.Len(t, east.Children, 2)
	require.Equal(t, 1, east.Depth)
	require.Equal(t, 3, east.Headcount)
}

func TestTree_RewriteNotFound(t *testing.T) {
	before := MustNew(sampleRoot())
	after, err := before.Rewrite("nope", func(n *Node) error { return nil })
	require.ErrorIs(t, err, ErrNodeNotFound)
	require.Same(t, before, after)
}

func TestExpectedCapacity(t *testing.T) {
	require.True(t, ExpectedCapacity(8, PrimaryRatePerHead).Equal(decimal.NewFromInt(8000)))
	require.True(t, ExpectedCapacity(8, AlternateRatePerHead).Equal(decimal.NewFromInt(6400)))
	require.True(t, ExpectedCapacity(0, PrimaryRatePerHead).IsZero())
}
