// Package core defines the ports between the scoring pipeline and its
// collaborators: the record store, the queues, and the scoring computation.
// Pipeline components depend on these interfaces, never on concrete adapters.
package core

import (
	"context"
	"time"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// JobStore provides access to scoring-job records in the record store.
type JobStore interface {
	GetScoringJob(ctx context.Context, id string) (*model.ScoringJob, error)
	// UpdateDispatchStatus advances a job's dispatch status. The dispatcher
	// treats this as best-effort, never as a transactional dedup guard.
	UpdateDispatchStatus(ctx context.Context, id string, status model.DispatchStatus) error
	Stats(ctx context.Context) (*model.JobStats, error)
}

// ItemStore provides item lookups by internal and external id.
type ItemStore interface {
	GetByID(ctx context.Context, id string) (*model.Item, error)
	GetByExternalID(ctx context.Context, accountID, externalID string) (*model.Item, error)
}

// ScorecardStore loads scorecard structures. The identifier may be an
// internal id, key, external id, or name; implementations resolve in that
// order.
type ScorecardStore interface {
	GetScorecard(ctx context.Context, accountID, identifier string) (*model.Scorecard, error)
}

// AccountStore resolves account keys to internal account ids.
type AccountStore interface {
	GetIDByKey(ctx context.Context, key string) (string, error)
}

// ResultStore persists results. Results are append-only; Create never
// overwrites an earlier row for the same (item, score) pair.
type ResultStore interface {
	Create(ctx context.Context, result *model.Result) error
}

// WorkQueue is the at-least-once delivery queue between dispatcher and
// workers.
type WorkQueue interface {
	Enqueue(ctx context.Context, msg model.WorkMessage) error
	// Receive blocks up to timeout for the next message. It returns
	// model.ErrNoMessages when the queue stays empty. A received message
	// remains in flight until acknowledged and becomes deliverable again
	// once its visibility window lapses.
	Receive(ctx context.Context, timeout time.Duration) (*model.Delivery, error)
	Ack(ctx context.Context, d *model.Delivery) error
}

// ResponseQueue carries compact result summaries to live-update consumers.
// Delivery is best-effort; losing a summary is non-fatal.
type ResponseQueue interface {
	Publish(ctx context.Context, summary model.ResultSummary) error
}

// ExecuteInput carries the resolved item and single-score configuration into
// the scoring computation.
type ExecuteInput struct {
	Item  *model.Item
	Score model.ScoreConfig
}

// ScoreOutput is the outcome of one score computation.
type ScoreOutput struct {
	Value       string
	Explanation string
	Cost        model.Cost
	// Raw is the computation's full output map, available to result-path
	// extraction.
	Raw map[string]any
	// Err marks outputs where the computation ran and reported an
	// error-kind value, as opposed to failing to run at all.
	Err bool
}

// ScoreExecutor is the injected scoring capability. A returned error means
// the computation could not run (missing configuration, broken transport);
// a computation that ran and produced an error is reported as a ScoreOutput
// with Err set.
type ScoreExecutor interface {
	Execute(ctx context.Context, in ExecuteInput) (*ScoreOutput, error)
}
