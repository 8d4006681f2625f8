package loader

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// nodeDocument is the on-disk shape of one node. JSON documents decode
// through the same struct since YAML is a superset of JSON.
type nodeDocument struct {
	ID                string          `yaml:"id,omitempty"`
	Role              string          `yaml:"role"`
	Name              string          `yaml:"name,omitempty"`
	Person            string          `yaml:"person,omitempty"`
	Segments          []string        `yaml:"segments,omitempty"`
	Status            string          `yaml:"status,omitempty"`
	Headcount         int             `yaml:"headcount"`
	ValidatedCapacity *amount         `yaml:"validated_capacity"`
	TargetCapacity    *amount         `yaml:"target_capacity,omitempty"`
	Regions           *int            `yaml:"regions,omitempty"`
	Territories       *int            `yaml:"territories,omitempty"`
	QuotaAttainment   *int            `yaml:"quota_attainment,omitempty"`
	Children          []*nodeDocument `yaml:"children,omitempty"`
}

type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: capacity must be a number", value.Line)
	}
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("line %d: parse capacity %q", value.Line, value.Value))
	}
	a.Decimal = d
	return nil
}

func (a amount) MarshalYAML() (interface{}, error) {
	s := a.String()
	tag := "!!int"
	if strings.Contains(s, ".") {
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}, nil
}
