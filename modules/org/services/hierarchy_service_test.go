package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/iota-uz/orgplan/modules/org/domain/events"
	"github.com/iota-uz/orgplan/pkg/eventbus"
)

func newTestService(t *testing.T) (*HierarchyService, eventbus.EventBus, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(logrus.DebugLevel)
	bus := eventbus.NewEventPublisher(nil)
	return NewHierarchyService(logrus.NewEntry(log), bus), bus, buf
}

func TestHierarchyService_ApplyPublishesChange(t *testing.T) {
	svc, bus, _ := newTestService(t)
	var got []*events.NodeChangedV1
	require.NoError(t, bus.Subscribe(func(e *events.NodeChangedV1) { got = append(got, e) }))

	tree := twoLeafTree(t)
	next, err := svc.Apply(context.Background(), tree, Edit{RequestID: "req-1", NodeID: "A", Field: FieldHeadcount, Headcount: 10})
	require.NoError(t, err)
	require.Equal(t, 15, next.Root().Headcount)

	require.Len(t, got, 1)
	evt := got[0]
	require.Equal(t, events.TopicNodeChangedV1, evt.Topic)
	require.Equal(t, "A", evt.NodeID)
	require.Equal(t, "req-1", evt.RequestID)
	require.Equal(t, []string{"root"}, evt.AncestorIDs)
	require.Equal(t, 15, evt.RootHeadcount)

	var oldValues, newValues nodeValues
	require.NoError(t, json.Unmarshal(evt.OldValues, &oldValues))
	require.NoError(t, json.Unmarshal(evt.NewValues, &newValues))
	require.Equal(t, 3, oldValues.Headcount)
	require.Equal(t, 10, newValues.Headcount)
}

func TestHierarchyService_ApplyFieldMutation(t *testing.T) {
	svc, _, _ := newTestService(t)
	tree := twoLeafTree(t)

	next, err := svc.Apply(context.Background(), tree, Edit{
		NodeID:   "B",
		Field:    FieldTargetCapacity,
		Mutation: SetTargetCapacity{Amount: decimal.NewFromInt(700)},
	})
	require.NoError(t, err)
	b, _ := next.Find("B")
	require.True(t, b.TargetCapacity.Equal(decimal.NewFromInt(700)))
}

func TestHierarchyService_RejectsMismatchedMutation(t *testing.T) {
	svc, _, _ := newTestService(t)
	tree := twoLeafTree(t)

	next, err := svc.Apply(context.Background(), tree, Edit{
		NodeID:   "B",
		Field:    FieldName,
		Mutation: SetStatus{Status: "x"},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Same(t, tree, next)

	_, err = svc.Apply(context.Background(), tree, Edit{NodeID: "B", Field: FieldName})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestHierarchyService_NotFoundIsLoggedAndCounted(t *testing.T) {
	svc, _, buf := newTestService(t)
	tree := twoLeafTree(t)

	before := testutil.ToFloat64(orgEdits.WithLabelValues(string(FieldHeadcount), "not_found"))
	next, err := svc.Apply(context.Background(), tree, Edit{NodeID: "ghost", Field: FieldHeadcount, Headcount: 1})
	require.ErrorIs(t, err, ErrNodeNotFound)
	require.Same(t, tree, next)

	after := testutil.ToFloat64(orgEdits.WithLabelValues(string(FieldHeadcount), "not_found"))
	require.InDelta(t, before+1, after, 0.0001)
	require.Contains(t, buf.String(), "node not found")
	require.Contains(t, buf.String(), "node_id=ghost")
}

func TestHierarchyService_HandlerErrorsDoNotFailEdit(t *testing.T) {
	svc, bus, buf := newTestService(t)
	require.NoError(t, bus.Subscribe(func(e *events.NodeChangedV1) error { return errors.New("sink down") }))

	next, err := svc.Apply(context.Background(), twoLeafTree(t), Edit{NodeID: "A", Field: FieldHeadcount, Headcount: 4})
	require.NoError(t, err)
	require.Equal(t, 9, next.Root().Headcount)
	require.Contains(t, buf.String(), "sink down")
}

func TestHierarchyService_ApplyAllStopsAtFirstFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	tree := twoLeafTree(t)

	next, err := svc.ApplyAll(context.Background(), tree, []Edit{
		{NodeID: "A", Field: FieldHeadcount, Headcount: 1},
		{NodeID: "root", Field: FieldHeadcount, Headcount: 1},
		{NodeID: "B", Field: FieldHeadcount, Headcount: 1},
	})
	require.ErrorIs(t, err, ErrDerivedField)
	require.ErrorContains(t, err, "edit 1")
	require.Equal(t, 6, next.Root().Headcount)
	b, _ := next.Find("B")
	require.Equal(t, 5, b.Headcount)
}

func TestHierarchyService_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	svc, _, _ := newTestService(t)
	tree := twoLeafTree(t)
	_, err := svc.Apply(context.Background(), tree, Edit{NodeID: "A", Field: FieldHeadcount, Headcount: 2})
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), tree, Edit{NodeID: "root", Field: FieldHeadcount, Headcount: 2})
	require.ErrorIs(t, err, ErrDerivedField)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "org.hierarchy.apply", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Equal(t, "derived_field", spans[1].Status().Description)
}
