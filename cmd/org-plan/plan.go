package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	territory "github.com/iota-uz/orgplan/modules/territory/services"
)

// allocationPlan is the TOML file read by allocate and export.
//
//	units = 1000
//	budget = 450000
//	unassigned_key = "unassigned"
//
//	[[entities]]
//	key = "ae-1"
//	weight = 1200
type allocationPlan struct {
	Units         int64        `toml:"units"`
	Budget        *int64       `toml:"budget"`
	UnassignedKey string       `toml:"unassigned_key"`
	Entities      []planEntity `toml:"entities"`
}

type planEntity struct {
	Key      string     `toml:"key"`
	Name     string     `toml:"name"`
	Weight   planWeight `toml:"weight"`
	Excluded bool       `toml:"excluded"`
}

type planWeight struct {
	decimal.Decimal
}

func (w *planWeight) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case int64:
		w.Decimal = decimal.NewFromInt(x)
	case float64:
		w.Decimal = decimal.NewFromFloat(x)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return fmt.Errorf("weight %q: %w", x, err)
		}
		w.Decimal = d
	default:
		return fmt.Errorf("weight must be a number, got %T", v)
	}
	return nil
}

func readPlan(path string) (*allocationPlan, error) {
	var plan allocationPlan
	md, err := toml.DecodeFile(path, &plan)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown plan keys: %s", strings.Join(keys, ", "))
	}
	return &plan, nil
}

func (p *allocationPlan) entities() []territory.Entity {
	out := make([]territory.Entity, len(p.Entities))
	for i, e := range p.Entities {
		out[i] = territory.Entity{Key: e.Key, Name: e.Name, Weight: e.Weight.Decimal, Excluded: e.Excluded}
	}
	return out
}
