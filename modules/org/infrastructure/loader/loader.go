// Package loader reads and writes organization trees as YAML or JSON
// documents.
package loader

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
)

var ErrEmptyDocument = errors.New("org document is empty")

// Load decodes one tree document. Nodes without an id get a random UUID.
// Headcount and validated capacity given on internal nodes are ignored and
// rolled up from the leaves instead.
func Load(r io.Reader) (*orgtree.Tree, error) {
	var doc nodeDocument
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, errors.Wrap(err, "decode org document")
	}
	root, err := toNode(&doc, "root")
	if err != nil {
		return nil, err
	}
	tree, err := orgtree.New(root)
	if err != nil {
		return nil, errors.Wrap(err, "build org tree")
	}
	return tree, nil
}

func LoadFile(path string) (*orgtree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open org document")
	}
	defer f.Close()
	tree, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return tree, nil
}

func toNode(doc *nodeDocument, where string) (*orgtree.Node, error) {
	if doc == nil {
		return nil, errors.Errorf("%s: empty node", where)
	}
	role, err := orgtree.ParseRole(doc.Role)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", where)
	}
	id := strings.TrimSpace(doc.ID)
	if id == "" {
		id = uuid.NewString()
	}
	n := &orgtree.Node{
		ID:          orgtree.NodeID(id),
		Role:        role,
		Name:        doc.Name,
		PersonLabel: doc.Person,
		Segments:    doc.Segments,
		Status:      doc.Status,
		Headcount:   doc.Headcount,
	}
	if doc.ValidatedCapacity != nil {
		n.ValidatedCapacity = orgtree.CapacityOf(doc.ValidatedCapacity.Decimal)
	}
	if doc.TargetCapacity != nil {
		n.TargetCapacity = doc.TargetCapacity.Decimal
	}
	n.Profile = profileOf(role, doc)

	for i, c := range doc.Children {
		child, err := toNode(c, where+"."+childLabel(c, i))
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func childLabel(c *nodeDocument, i int) string {
	if c != nil && c.ID != "" {
		return c.ID
	}
	return "children[" + strconv.Itoa(i) + "]"
}

func profileOf(role orgtree.Role, doc *nodeDocument) orgtree.RoleProfile {
	switch role {
	case orgtree.RoleSegmentVP:
		return orgtree.SegmentVPProfile{Segments: doc.Segments}
	case orgtree.RoleAreaVP:
		return orgtree.AreaVPProfile{Regions: derefInt(doc.Regions)}
	case orgtree.RoleRegionalVP:
		return orgtree.RegionalVPProfile{Territories: derefInt(doc.Territories)}
	case orgtree.RoleAE:
		return orgtree.AEProfile{QuotaAttainment: doc.QuotaAttainment}
	default:
		return orgtree.DefaultProfile(role)
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Encode writes tree in the shape Load reads. Derived values are written for
// reference.
func Encode(w io.Writer, tree *orgtree.Tree) error {
	if tree == nil {
		return orgtree.ErrEmptyTree
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fromNode(tree.Root())); err != nil {
		return errors.Wrap(err, "encode org document")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "flush org document")
	}
	return nil
}

func fromNode(n *orgtree.Node) *nodeDocument {
	doc := &nodeDocument{
		ID:        string(n.ID),
		Role:      string(n.Role),
		Name:      n.Name,
		Person:    n.PersonLabel,
		Segments:  n.Segments,
		Status:    n.Status,
		Headcount: n.Headcount,
	}
	if n.ValidatedCapacity.IsSet() {
		doc.ValidatedCapacity = &amount{n.ValidatedCapacity.Amount()}
	}
	if !n.TargetCapacity.IsZero() {
		doc.TargetCapacity = &amount{n.TargetCapacity}
	}
	switch p := n.Profile.(type) {
	case orgtree.AreaVPProfile:
		doc.Regions = &p.Regions
	case orgtree.RegionalVPProfile:
		doc.Territories = &p.Territories
	case orgtree.AEProfile:
		doc.QuotaAttainment = p.QuotaAttainment
	}
	for _, c := range n.Children {
		doc.Children = append(doc.Children, fromNode(c))
	}
	return doc
}
