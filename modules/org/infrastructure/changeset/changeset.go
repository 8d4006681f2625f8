// Package changeset compares tree snapshots as RFC 6902 JSON patches.
package changeset

import (
	"bytes"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/modules/org/infrastructure/loader"
)

var ErrPatchMismatch = errors.New("replayed patch does not reproduce the target tree")

// snapshotNode mirrors the loader document so a replayed snapshot can be
// loaded back as a tree.
type snapshotNode struct {
	ID                string           `json:"id"`
	Role              string           `json:"role"`
	Name              string           `json:"name,omitempty"`
	Person            string           `json:"person,omitempty"`
	Segments          []string         `json:"segments,omitempty"`
	Status            string           `json:"status,omitempty"`
	Headcount         int              `json:"headcount"`
	ValidatedCapacity orgtree.Capacity `json:"validated_capacity"`
	TargetCapacity    decimal.Decimal  `json:"target_capacity"`
	Regions           *int             `json:"regions,omitempty"`
	Territories       *int             `json:"territories,omitempty"`
	QuotaAttainment   *int             `json:"quota_attainment,omitempty"`
	Children          []*snapshotNode  `json:"children,omitempty"`
}

func toSnapshot(n *orgtree.Node) *snapshotNode {
	s := &snapshotNode{
		ID:                string(n.ID),
		Role:              string(n.Role),
		Name:              n.Name,
		Person:            n.PersonLabel,
		Segments:          n.Segments,
		Status:            n.Status,
		Headcount:         n.Headcount,
		ValidatedCapacity: n.ValidatedCapacity,
		TargetCapacity:    n.TargetCapacity,
	}
	switch p := n.Profile.(type) {
	case orgtree.AreaVPProfile:
		s.Regions = &p.Regions
	case orgtree.RegionalVPProfile:
		s.Territories = &p.Territories
	case orgtree.AEProfile:
		s.QuotaAttainment = p.QuotaAttainment
	}
	for _, c := range n.Children {
		s.Children = append(s.Children, toSnapshot(c))
	}
	return s
}

// Snapshot serializes tree including its derived values.
func Snapshot(tree *orgtree.Tree) ([]byte, error) {
	if tree == nil {
		return nil, orgtree.ErrEmptyTree
	}
	b, err := json.Marshal(toSnapshot(tree.Root()))
	if err != nil {
		return nil, errors.Wrap(err, "marshal snapshot")
	}
	return b, nil
}

// Diff returns the patch that turns before into after. Rolled-up values on
// ancestors show up as their own operations.
func Diff(before, after *orgtree.Tree) (jsondiff.Patch, error) {
	src, err := Snapshot(before)
	if err != nil {
		return nil, err
	}
	dst, err := Snapshot(after)
	if err != nil {
		return nil, err
	}
	patch, err := jsondiff.CompareJSON(src, dst)
	if err != nil {
		return nil, errors.Wrap(err, "compare snapshots")
	}
	return patch, nil
}

// Replay applies patch to a snapshot produced by Snapshot.
func Replay(beforeJSON []byte, patch jsondiff.Patch) ([]byte, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, errors.Wrap(err, "marshal patch")
	}
	decoded, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode patch")
	}
	out, err := decoded.Apply(beforeJSON)
	if err != nil {
		return nil, errors.Wrap(err, "apply patch")
	}
	return out, nil
}

// Restore rebuilds a tree from a snapshot, re-deriving every rollup.
func Restore(snapshot []byte) (*orgtree.Tree, error) {
	return loader.Load(bytes.NewReader(snapshot))
}

// Verify replays patch onto before and checks that rebuilding the result
// gives the same snapshot as after.
func Verify(before, after *orgtree.Tree, patch jsondiff.Patch) error {
	src, err := Snapshot(before)
	if err != nil {
		return err
	}
	replayed, err := Replay(src, patch)
	if err != nil {
		return err
	}
	restored, err := Restore(replayed)
	if err != nil {
		return errors.Wrap(err, "restore replayed snapshot")
	}
	rest, err := Diff(restored, after)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return errors.Wrapf(ErrPatchMismatch, "%d operations left after replay, first %s %s", len(rest), rest[0].Type, rest[0].Path)
	}
	return nil
}
