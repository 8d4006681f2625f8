package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TopicNodeChangedV1        = "org.node.changed.v1"
	TopicAllocationComputedV1 = "territory.allocation.computed.v1"
	EventVersionV1            = 1
)

// NodeChangedV1 is published after an edit has produced a new snapshot.
type NodeChangedV1 struct {
	Topic         string          `json:"topic"`
	EventID       uuid.UUID       `json:"event_id"`
	EventVersion  int             `json:"event_version"`
	RequestID     string          `json:"request_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	NodeID        string          `json:"node_id"`
	Field         string          `json:"field"`
	AncestorIDs   []string        `json:"ancestor_ids"`
	OldValues     json.RawMessage `json:"old_values,omitempty"`
	NewValues     json.RawMessage `json:"new_values"`
	RootHeadcount int             `json:"root_headcount"`
}

// AllocationComputedV1 is published after a territory allocation run,
// whether or not the run produced allocations.
type AllocationComputedV1 struct {
	Topic        string    `json:"topic"`
	EventID      uuid.UUID `json:"event_id"`
	EventVersion int       `json:"event_version"`
	OccurredAt   time.Time `json:"occurred_at"`
	Status       string    `json:"status"`
	Entities     int       `json:"entities"`
	Units        int64     `json:"units"`
	Budget       int64     `json:"budget"`
}
