// Package feed models the record-store change feed consumed by the dispatcher.
package feed

import (
	"encoding/json"
	"fmt"
)

// EventName identifies the kind of change a feed record describes.
type EventName string

const (
	// EventInsert indicates a newly created record.
	EventInsert EventName = "INSERT"
	// EventModify indicates an update to an existing record.
	EventModify EventName = "MODIFY"
	// EventRemove indicates a deleted record.
	EventRemove EventName = "REMOVE"
)

// AttributeValue is one attribute-typed value from a change-feed image.
// Exactly one field is set per value.
type AttributeValue struct {
	S    *string                   `json:"S,omitempty"`
	N    *string                   `json:"N,omitempty"`
	Bool *bool                     `json:"BOOL,omitempty"`
	Null *bool                     `json:"NULL,omitempty"`
	L    []AttributeValue          `json:"L,omitempty"`
	M    map[string]AttributeValue `json:"M,omitempty"`
	SS   []string                  `json:"SS,omitempty"`
}

// String returns the scalar string content of the value, or "" when the value
// is not a string.
func (v AttributeValue) String() string {
	if v.S == nil {
		return ""
	}
	return *v.S
}

// StreamChange is the change detail of a single feed record. Only the
// post-change image is consumed here.
type StreamChange struct {
	NewImage map[string]AttributeValue `json:"NewImage"`
}

// StreamRecord is a single entry in a change-feed batch.
type StreamRecord struct {
	EventName EventName    `json:"eventName"`
	Change    StreamChange `json:"dynamodb"`
}

// Event is a parsed invocation payload. A payload with a Records key is a
// change-feed batch; a payload without one is a direct invocation asking the
// worker to drain the request queue.
type Event struct {
	Records    []StreamRecord
	hasRecords bool
}

// HasRecords reports whether the original payload carried a Records key.
// An empty Records array still counts as a feed batch.
func (e *Event) HasRecords() bool {
	return e.hasRecords
}

// ParseEvent decodes a raw invocation payload, distinguishing feed batches
// from direct invocations by the presence of the Records key.
func ParseEvent(raw []byte) (*Event, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}

	recordsRaw, ok := probe["Records"]
	if !ok {
		return &Event{}, nil
	}

	var records []StreamRecord
	if err := json.Unmarshal(recordsRaw, &records); err != nil {
		return nil, fmt.Errorf("parse event records: %w", err)
	}
	return &Event{Records: records, hasRecords: true}, nil
}
