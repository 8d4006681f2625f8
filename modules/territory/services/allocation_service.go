package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgplan/modules/org/domain/events"
	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/pkg/apportion"
	"github.com/iota-uz/orgplan/pkg/eventbus"
	"github.com/iota-uz/orgplan/pkg/logging"
)

const DefaultUnassignedKey = "unassigned"

var ErrInvalidInput = errors.New("invalid allocation input")

type Status string

const (
	StatusAllocated Status = "allocated"
	// StatusSkipped means no entity had positive weight. Callers must not
	// render it as zero for everyone.
	StatusSkipped Status = "skipped"
)

// Entity is one weighted recipient. Excluded entities never take part in the
// weight sum and always receive 0.
type Entity struct {
	Key      string
	Name     string
	Weight   decimal.Decimal
	Excluded bool
}

type Allocation struct {
	Key    string `json:"key"`
	Name   string `json:"name,omitempty"`
	Units  int64  `json:"units"`
	Budget int64  `json:"budget"`
}

type Result struct {
	Status      Status          `json:"status"`
	Units       int64           `json:"units"`
	Budget      int64           `json:"budget"`
	TotalWeight decimal.Decimal `json:"total_weight"`
	// Allocations is parallel to the input entities; nil when skipped.
	Allocations []Allocation `json:"allocations,omitempty"`
}

func (r Result) Allocated() bool {
	return r.Status == StatusAllocated
}

type AllocationOptions struct {
	// UnassignedKey names the catch-all bucket that is always excluded.
	UnassignedKey string
	Logger        *logrus.Entry
	Bus           eventbus.EventBus
}

type AllocationService struct {
	unassignedKey string
	log           *logrus.Entry
	bus           eventbus.EventBus
}

func NewAllocationService(opts AllocationOptions) *AllocationService {
	if opts.UnassignedKey == "" {
		opts.UnassignedKey = DefaultUnassignedKey
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &AllocationService{unassignedKey: opts.UnassignedKey, log: opts.Logger, bus: opts.Bus}
}

func (s *AllocationService) excluded(e Entity) bool {
	return e.Excluded || strings.EqualFold(strings.TrimSpace(e.Key), s.unassignedKey)
}

// Allocate splits the unit pool and the budget pool across entities in
// proportion to their weights. The two pools are apportioned independently.
func (s *AllocationService) Allocate(entities []Entity, units, budget int64) (Result, error) {
	if units < 0 || budget < 0 {
		return Result{}, fmt.Errorf("%w: pools must be non-negative (units=%d budget=%d)", ErrInvalidInput, units, budget)
	}

	weighted := make([]int, 0, len(entities))
	weights := make([]decimal.Decimal, 0, len(entities))
	total := decimal.Zero
	for i, e := range entities {
		if s.excluded(e) {
			continue
		}
		if e.Weight.IsNegative() {
			return Result{}, fmt.Errorf("%w: entity %q has negative weight %s", ErrInvalidInput, e.Key, e.Weight)
		}
		weighted = append(weighted, i)
		weights = append(weights, e.Weight)
		total = total.Add(e.Weight)
	}

	res := Result{Units: units, Budget: budget, TotalWeight: total}
	if total.IsZero() {
		res.Status = StatusSkipped
		s.finish(res, len(entities))
		return res, nil
	}

	unitParts, err := apportion.LargestRemainder(weights, units)
	if err != nil {
		return Result{}, err
	}
	budgetParts, err := apportion.LargestRemainder(weights, budget)
	if err != nil {
		return Result{}, err
	}

	res.Status = StatusAllocated
	res.Allocations = make([]Allocation, len(entities))
	for i, e := range entities {
		res.Allocations[i] = Allocation{Key: e.Key, Name: e.Name}
	}
	for j, i := range weighted {
		res.Allocations[i].Units = unitParts[j]
		res.Allocations[i].Budget = budgetParts[j]
	}
	s.finish(res, len(entities))
	return res, nil
}

func (s *AllocationService) finish(res Result, entities int) {
	recordAllocation(res.Status)
	s.log.WithFields(logrus.Fields{
		"status":       res.Status,
		"entities":     entities,
		"units":        res.Units,
		"budget":       res.Budget,
		"total_weight": res.TotalWeight.String(),
	}).Info("territory allocation computed")

	if s.bus == nil {
		return
	}
	err := s.bus.Publish(&events.AllocationComputedV1{
		Topic:        events.TopicAllocationComputedV1,
		EventID:      uuid.New(),
		EventVersion: events.EventVersionV1,
		OccurredAt:   time.Now().UTC(),
		Status:       string(res.Status),
		Entities:     entities,
		Units:        res.Units,
		Budget:       res.Budget,
	})
	if err != nil && !errors.Is(err, eventbus.ErrNoSubscribers) {
		s.log.WithError(err).Warn("territory allocation event handler failed")
	}
}

// EntitiesFromTree lists individual-contributor leaves in pre-order, weighted
// by validated capacity. Unset capacity weighs 0.
func EntitiesFromTree(tree *orgtree.Tree) []Entity {
	if tree == nil {
		return nil
	}
	var out []Entity
	for _, n := range tree.Leaves() {
		if !n.Role.IsIndividualContributor() {
			continue
		}
		name := n.PersonLabel
		if name == "" {
			name = n.Name
		}
		out = append(out, Entity{
			Key:    string(n.ID),
			Name:   name,
			Weight: n.ValidatedCapacity.Amount(),
		})
	}
	return out
}
