package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline. Entity-not-found errors are
// fatal for the message they occur on; the queue's redelivery policy governs
// what happens next.
var (
	// ErrJobNotFound indicates the referenced scoring job does not exist.
	ErrJobNotFound = errors.New("scoring job not found")
	// ErrItemNotFound indicates no item matched by internal or external id.
	ErrItemNotFound = errors.New("item not found")
	// ErrScorecardNotFound indicates no scorecard matched the identifier.
	ErrScorecardNotFound = errors.New("scorecard not found")
	// ErrAccountNotFound indicates the account key did not resolve.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNoMessages indicates a receive found the work queue empty.
	ErrNoMessages = errors.New("no messages available")
)

// InvalidDispatchStatusError reports an unrecognized dispatch status value.
type InvalidDispatchStatusError struct {
	Value string
}

func (e *InvalidDispatchStatusError) Error() string {
	return fmt.Sprintf("invalid dispatch status: %q", e.Value)
}

// MissingConfigurationError is a fatal init-time error enumerating every
// required configuration variable that is absent.
type MissingConfigurationError struct {
	Missing []string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %v", e.Missing)
}
