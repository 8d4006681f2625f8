package viewmodels

type OrgRow struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Person   string `json:"person,omitempty"`
	Subtitle string `json:"subtitle"`
	Status   string `json:"status,omitempty"`
	Depth    int    `json:"depth"`
	IsLeaf   bool   `json:"is_leaf"`
	Selected bool   `json:"selected,omitempty"`

	Headcount int `json:"headcount"`
	// Validated is the formatted validated capacity, or an em dash when the
	// subtree has none recorded.
	Validated         string `json:"validated"`
	ValidatedSet      bool   `json:"validated_set"`
	Target            string `json:"target"`
	Expected          string `json:"expected"`
	AlternateExpected string `json:"alternate_expected,omitempty"`
}

type OrgTree struct {
	Currency      string   `json:"currency"`
	ShowAlternate bool     `json:"show_alternate"`
	Rows          []OrgRow `json:"rows"`
}
