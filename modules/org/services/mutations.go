package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
)

type Field string

const (
	FieldHeadcount         Field = "headcount"
	FieldTargetCapacity    Field = "target_capacity"
	FieldValidatedCapacity Field = "validated_capacity"
	FieldName              Field = "name"
	FieldPersonLabel       Field = "person"
	FieldStatus            Field = "status"
)

// FieldMutation is a single-field edit with no rollup obligation beyond the
// edited path. The set of mutations is closed.
type FieldMutation interface {
	Field() Field
	apply(n *orgtree.Node) error
}

type SetTargetCapacity struct {
	Amount decimal.Decimal
}

func (SetTargetCapacity) Field() Field { return FieldTargetCapacity }

func (m SetTargetCapacity) apply(n *orgtree.Node) error {
	if m.Amount.IsNegative() {
		return fmt.Errorf("%w: target capacity %s is negative", ErrInvalidInput, m.Amount)
	}
	n.TargetCapacity = m.Amount
	return nil
}

// SetValidatedCapacity is only accepted on leaves; ancestors re-derive.
type SetValidatedCapacity struct {
	Capacity orgtree.Capacity
}

func (SetValidatedCapacity) Field() Field { return FieldValidatedCapacity }

func (m SetValidatedCapacity) apply(n *orgtree.Node) error {
	if !n.IsLeaf() {
		return fmt.Errorf("%w: validated capacity of %q is rolled up from %d children", ErrDerivedField, n.ID, len(n.Children))
	}
	if m.Capacity.IsNegative() {
		return fmt.Errorf("%w: validated capacity %s is negative", ErrInvalidInput, m.Capacity)
	}
	n.ValidatedCapacity = m.Capacity
	return nil
}

type SetName struct {
	Name string
}

func (SetName) Field() Field { return FieldName }

func (m SetName) apply(n *orgtree.Node) error {
	n.Name = m.Name
	return nil
}

type SetPersonLabel struct {
	Label string
}

func (SetPersonLabel) Field() Field { return FieldPersonLabel }

func (m SetPersonLabel) apply(n *orgtree.Node) error {
	n.PersonLabel = m.Label
	return nil
}

type SetStatus struct {
	Status string
}

func (SetStatus) Field() Field { return FieldStatus }

func (m SetStatus) apply(n *orgtree.Node) error {
	n.Status = m.Status
	return nil
}
