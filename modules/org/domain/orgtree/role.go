package orgtree

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleExecutive  Role = "EXEC"
	RoleSegmentVP  Role = "SVP"
	RoleAreaVP     Role = "AVP"
	RoleRegionalVP Role = "RVP"
	RoleAE         Role = "AE"
)

var knownRoles = map[Role]struct{}{
	RoleExecutive:  {},
	RoleSegmentVP:  {},
	RoleAreaVP:     {},
	RoleRegionalVP: {},
	RoleAE:         {},
}

// ParseRole normalizes a role tag. Unknown tags return ErrUnknownRole.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := knownRoles[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// IsIndividualContributor reports whether nodes of this role carry
// directly-edited validated capacity.
func (r Role) IsIndividualContributor() bool {
	return r == RoleAE
}

// RoleProfile holds the role-specific descriptive fields of a node. Each
// role has exactly one profile type.
type RoleProfile interface {
	Role() Role
	subtitle(n *Node) string
}

type ExecutiveProfile struct{}

type SegmentVPProfile struct {
	Segments []string
}

type AreaVPProfile struct {
	Regions int
}

type RegionalVPProfile struct {
	Territories int
}

type AEProfile struct {
	// QuotaAttainment is a percentage, nil when not reported.
	QuotaAttainment *int
}

func (ExecutiveProfile) Role() Role  { return RoleExecutive }
func (SegmentVPProfile) Role() Role  { return RoleSegmentVP }
func (AreaVPProfile) Role() Role     { return RoleAreaVP }
func (RegionalVPProfile) Role() Role { return RoleRegionalVP }
func (AEProfile) Role() Role         { return RoleAE }

func (ExecutiveProfile) subtitle(n *Node) string {
	return fmt.Sprintf("%s · %d people", n.Name, n.Headcount)
}

func (p SegmentVPProfile) subtitle(n *Node) string {
	segments := p.Segments
	if len(segments) == 0 {
		segments = n.Segments
	}
	if len(segments) == 0 {
		return fmt.Sprintf("%d people", n.Headcount)
	}
	return fmt.Sprintf("%s · %d people", strings.Join(segments, ", "), n.Headcount)
}

func (p AreaVPProfile) subtitle(n *Node) string {
	return fmt.Sprintf("%d regions · %d people", p.Regions, n.Headcount)
}

func (p RegionalVPProfile) subtitle(n *Node) string {
	return fmt.Sprintf("%d territories · %d people", p.Territories, n.Headcount)
}

func (p AEProfile) subtitle(n *Node) string {
	status := n.Status
	if status == "" {
		status = "active"
	}
	if p.QuotaAttainment == nil {
		return status
	}
	return fmt.Sprintf("%s · %d%% of quota", status, *p.QuotaAttainment)
}

// DefaultProfile returns the empty profile for a role.
func DefaultProfile(r Role) RoleProfile {
	switch r {
	case RoleExecutive:
		return ExecutiveProfile{}
	case RoleSegmentVP:
		return SegmentVPProfile{}
	case RoleAreaVP:
		return AreaVPProfile{}
	case RoleRegionalVP:
		return RegionalVPProfile{}
	case RoleAE:
		return AEProfile{}
	default:
		return nil
	}
}

// Subtitle composes the secondary display line for a node from its role
// profile.
func Subtitle(n *Node) string {
	if n == nil {
		return ""
	}
	p := n.Profile
	if p == nil {
		p = DefaultProfile(n.Role)
	}
	if p == nil {
		return ""
	}
	return p.subtitle(n)
}
