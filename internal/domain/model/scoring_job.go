// Package model defines the core data types and structures used throughout the callgrade scoring pipeline.
package model

import (
	"strings"
	"time"
)

// DispatchStatus represents the dispatch state of a scoring job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type DispatchStatus string

const (
	// DispatchStatusPending indicates a job is waiting to be picked up by the dispatcher.
	DispatchStatusPending DispatchStatus = "PENDING"
	// DispatchStatusDispatched indicates a job has been enqueued onto the work queue.
	DispatchStatusDispatched DispatchStatus = "DISPATCHED"
	// DispatchStatusFailed indicates a job could not be processed.
	DispatchStatusFailed DispatchStatus = "FAILED"
)

// DefaultTarget is the routing target assigned to jobs created without one.
const DefaultTarget = "default/command"

// Valid returns true if the DispatchStatus is one of the known states.
func (s DispatchStatus) Valid() bool {
	return s == DispatchStatusPending || s == DispatchStatusDispatched || s == DispatchStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses survive env/JSON parsing.
func (s *DispatchStatus) UnmarshalText(text []byte) error {
	v := DispatchStatus(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return &InvalidDispatchStatusError{Value: string(text)}
	}
	*s = v
	return nil
}

// ScoringJob is a unit of dispatchable scoring work. Scorecard and score
// identifiers may be external identifiers that require resolution before
// execution.
type ScoringJob struct {
	ID             string         `json:"id"                    db:"id"`
	AccountID      string         `json:"account_id"            db:"account_id"`
	Command        string         `json:"command"               db:"command"`
	Target         string         `json:"target"                db:"target"`
	ItemID         string         `json:"item_id"               db:"item_id"`
	ScorecardID    string         `json:"scorecard_id"          db:"scorecard_id"`
	ScoreID        string         `json:"score_id,omitempty"    db:"score_id"`
	DispatchStatus DispatchStatus `json:"dispatch_status"       db:"dispatch_status"`
	CreatedAt      time.Time      `json:"created_at"            db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"            db:"updated_at"`
}

// JobStats represents counts of scoring jobs per dispatch status.
type JobStats struct {
	Pending    int `json:"pending"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}
