package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/iota-uz/orgplan/modules/org/domain/events"
	"github.com/iota-uz/orgplan/pkg/eventbus"
)

// eventSink appends published events to a file, one JSON object per line.
// Each line carries the event's topic.
type eventSink struct {
	mu sync.Mutex
	f  *os.File
}

func openEventSink(path string, bus eventbus.EventBus) (*eventSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, withCode(exitIO, fmt.Errorf("open events file: %w", err))
	}
	s := &eventSink{f: f}
	for _, h := range []any{
		func(e *events.NodeChangedV1) error { return s.write(e) },
		func(e *events.AllocationComputedV1) error { return s.write(e) },
	} {
		if err := bus.Subscribe(h); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *eventSink) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONLine(s.f, v)
}

func (s *eventSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
