package viewmodels

type OrgNodeDetails struct {
	ID                string   `json:"id"`
	Role              string   `json:"role"`
	Name              string   `json:"name"`
	Person            string   `json:"person,omitempty"`
	Status            string   `json:"status,omitempty"`
	Segments          []string `json:"segments,omitempty"`
	Subtitle          string   `json:"subtitle"`
	Headcount         int      `json:"headcount"`
	ValidatedCapacity string   `json:"validated_capacity"`
	TargetCapacity    string   `json:"target_capacity"`
	ExpectedCapacity  string   `json:"expected_capacity"`
	// Path lists node names from the root down to and including this node.
	Path   []string `json:"path"`
	IsRoot bool     `json:"is_root"`
}
