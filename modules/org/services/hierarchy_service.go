package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/orgplan/modules/org/domain/events"
	"github.com/iota-uz/orgplan/modules/org/domain/orgtree"
	"github.com/iota-uz/orgplan/pkg/eventbus"
	"github.com/iota-uz/orgplan/pkg/logging"
)

// Edit is one validated edit request. Headcount is read when Field is
// FieldHeadcount, Mutation otherwise.
type Edit struct {
	RequestID string
	NodeID    orgtree.NodeID
	Field     Field
	Headcount int
	Mutation  FieldMutation
}

// HierarchyService applies edits with logging, metrics, tracing and change
// events around the pure engine functions. It keeps no tree state.
type HierarchyService struct {
	log    *logrus.Entry
	bus    eventbus.EventBus
	tracer trace.Tracer
	now    func() time.Time
}

func NewHierarchyService(log *logrus.Entry, bus eventbus.EventBus) *HierarchyService {
	if log == nil {
		log = logging.Nop()
	}
	return &HierarchyService{
		log:    log,
		bus:    bus,
		tracer: otel.Tracer("github.com/iota-uz/orgplan/modules/org/services"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Apply runs one edit against tree. On error the input tree is returned.
func (s *HierarchyService) Apply(ctx context.Context, tree *orgtree.Tree, edit Edit) (*orgtree.Tree, error) {
	_, span := s.tracer.Start(ctx, "org.hierarchy.apply", trace.WithAttributes(
		attribute.String("org.node_id", string(edit.NodeID)),
		attribute.String("org.field", string(edit.Field)),
	))
	defer span.End()

	var before *orgtree.Node
	if tree != nil {
		before, _ = tree.Find(edit.NodeID)
	}

	var (
		next *orgtree.Tree
		err  error
	)
	switch {
	case edit.Field == FieldHeadcount:
		next, err = ApplyHeadcountUpdate(tree, edit.NodeID, edit.Headcount)
	case edit.Mutation == nil:
		next, err = tree, fmt.Errorf("%w: no mutation for field %q", ErrInvalidInput, edit.Field)
	case edit.Mutation.Field() != edit.Field:
		next, err = tree, fmt.Errorf("%w: mutation edits %q, request names %q", ErrInvalidInput, edit.Mutation.Field(), edit.Field)
	default:
		next, err = ApplyFieldUpdate(tree, edit.NodeID, edit.Mutation)
	}
	recordEdit(edit.Field, err)

	logger := s.log.WithFields(logrus.Fields{
		"request_id": edit.RequestID,
		"node_id":    edit.NodeID,
		"field":      edit.Field,
		"result":     resultLabel(err),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, resultLabel(err))
		if errors.Is(err, ErrNodeNotFound) {
			logger.Warn("org edit skipped: node not found")
		} else {
			logger.WithError(err).Info("org edit rejected")
		}
		return tree, err
	}
	logger.Debug("org edit applied")

	after, _ := next.Find(edit.NodeID)
	s.publishChanged(next, edit, before, after, logger)
	return next, nil
}

// ApplyAll applies edits in order. It stops at the first failing edit and
// returns the snapshot produced by the edits before it.
func (s *HierarchyService) ApplyAll(ctx context.Context, tree *orgtree.Tree, edits []Edit) (*orgtree.Tree, error) {
	cur := tree
	for i, e := range edits {
		next, err := s.Apply(ctx, cur, e)
		if err != nil {
			return cur, fmt.Errorf("edit %d (%s %s): %w", i, e.NodeID, e.Field, err)
		}
		cur = next
	}
	return cur, nil
}

type nodeValues struct {
	Headcount         int              `json:"headcount"`
	ValidatedCapacity orgtree.Capacity `json:"validated_capacity"`
	TargetCapacity    decimal.Decimal  `json:"target_capacity"`
	Name              string           `json:"name"`
	PersonLabel       string           `json:"person"`
	Status            string           `json:"status"`
}

func valuesOf(n *orgtree.Node) json.RawMessage {
	if n == nil {
		return nil
	}
	data, err := json.Marshal(nodeValues{
		Headcount:         n.Headcount,
		ValidatedCapacity: n.ValidatedCapacity,
		TargetCapacity:    n.TargetCapacity,
		Name:              n.Name,
		PersonLabel:       n.PersonLabel,
		Status:            n.Status,
	})
	if err != nil {
		return nil
	}
	return data
}

func (s *HierarchyService) publishChanged(tree *orgtree.Tree, edit Edit, before, after *orgtree.Node, logger *logrus.Entry) {
	if s.bus == nil {
		return
	}
	path, _ := tree.Path(edit.NodeID)
	ancestors := make([]string, 0, len(path))
	for _, n := range path[:max(len(path)-1, 0)] {
		ancestors = append(ancestors, string(n.ID))
	}
	evt := &events.NodeChangedV1{
		Topic:         events.TopicNodeChangedV1,
		EventID:       uuid.New(),
		EventVersion:  events.EventVersionV1,
		RequestID:     edit.RequestID,
		OccurredAt:    s.now(),
		NodeID:        string(edit.NodeID),
		Field:         string(edit.Field),
		AncestorIDs:   ancestors,
		OldValues:     valuesOf(before),
		NewValues:     valuesOf(after),
		RootHeadcount: tree.Root().Headcount,
	}
	if err := s.bus.Publish(evt); err != nil && !errors.Is(err, eventbus.ErrNoSubscribers) {
		logger.WithError(err).Warn("org edit event handler failed")
	}
}
