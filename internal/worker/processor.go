// Package worker consumes work-queue messages and orchestrates the
// resolve → execute → publish pipeline for each one.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
	"github.com/callgrade/callgrade/internal/observability/metrics"
	"github.com/callgrade/callgrade/internal/observability/statsd"
	"github.com/callgrade/callgrade/internal/publisher"
	"github.com/callgrade/callgrade/internal/resolver"
)

// Processing stages, logged as each message advances. FAILED is reachable
// from any of them.
const (
	StageReceived   = "received"
	StageResolving  = "resolving"
	StageExecuting  = "executing"
	StagePublishing = "publishing"
	StageDone       = "acknowledged"
)

// ProcessorOptions configure a Processor.
type ProcessorOptions struct {
	Jobs      core.JobStore
	Resolver  *resolver.Resolver
	Executor  core.ScoreExecutor
	Publisher *publisher.Publisher
	Logger    *slog.Logger
	Metrics   statsd.Sink

	// AccountKey scopes manual invocations that carry no account of their
	// own.
	AccountKey string
}

// Processor handles one work-queue message at a time. It owns no mutable
// state; every message resolves its own entities, so a single Processor is
// shared safely across pool workers.
type Processor struct {
	jobs       core.JobStore
	resolver   *resolver.Resolver
	executor   core.ScoreExecutor
	publisher  *publisher.Publisher
	logger     *slog.Logger
	metrics    statsd.Sink
	accountKey string
}

// NewProcessor constructs a Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	if opts.Jobs == nil {
		return nil, errors.New("job store is required")
	}
	if opts.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if opts.Publisher == nil {
		return nil, errors.New("publisher is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		jobs:       opts.Jobs,
		resolver:   opts.Resolver,
		executor:   opts.Executor,
		publisher:  opts.Publisher,
		logger:     logger,
		metrics:    opts.Metrics,
		accountKey: opts.AccountKey,
	}, nil
}

// jobSpec is the normalized form of a message: what to score, with which
// scorecard, restricted to which scores.
type jobSpec struct {
	jobID          string
	accountID      string
	accountKey     string
	itemIdentifier string
	scorecardRef   string
	scoreRef       string
}

// ProcessMessage runs the full pipeline for one message. A returned error
// leaves the message unacknowledged so the queue's redelivery policy applies.
// Re-processing the same job id is safe: execution is a pure function of
// (job, item, score) and appends a fresh result.
func (p *Processor) ProcessMessage(ctx context.Context, msg model.WorkMessage) error {
	start := time.Now()
	err := p.process(ctx, msg)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.EmitProcess(p.metrics, metrics.ProcessMetric{
		Stage:    StageDone,
		Result:   result,
		Duration: time.Since(start),
		Err:      err,
	})
	return err
}

func (p *Processor) process(ctx context.Context, msg model.WorkMessage) error {
	spec, err := p.buildSpec(ctx, msg)
	if err != nil {
		return err
	}

	logger := p.logger.With("job_id", spec.jobID, "item_id", spec.itemIdentifier,
		"scorecard", spec.scorecardRef, "scores", spec.scoreRef)
	logger.InfoContext(ctx, "processing message", "stage", StageReceived)

	item, scorecard, scores, err := p.resolve(ctx, spec)
	if err != nil {
		logger.ErrorContext(ctx, "resolution failed", "stage", StageResolving, "error", err)
		return err
	}

	logger.InfoContext(ctx, "resolved job entities", "stage", StageResolving,
		"resolved_item_id", item.ID, "scorecard_id", scorecard.ID, "score_count", len(scores))

	for _, score := range scores {
		if err := p.executeAndPublish(ctx, logger, spec, item, score); err != nil {
			return err
		}
	}
	return nil
}

// buildSpec normalizes the three message shapes into one job spec.
func (p *Processor) buildSpec(ctx context.Context, msg model.WorkMessage) (jobSpec, error) {
	if jobID := msg.JobID(); jobID != "" {
		job, err := p.jobs.GetScoringJob(ctx, jobID)
		if err != nil {
			return jobSpec{}, fmt.Errorf("load scoring job %s: %w", jobID, err)
		}
		return jobSpec{
			jobID:          job.ID,
			accountID:      job.AccountID,
			itemIdentifier: job.ItemID,
			scorecardRef:   job.ScorecardID,
			scoreRef:       job.ScoreID,
		}, nil
	}

	if !msg.IsManual() {
		return jobSpec{}, errors.New("message carries neither a job reference nor a manual triple")
	}
	return jobSpec{
		accountKey:     p.accountKey,
		itemIdentifier: msg.ItemID,
		scorecardRef:   msg.ScorecardName,
		scoreRef:       msg.ScoreName,
	}, nil
}

func (p *Processor) resolve(
	ctx context.Context,
	spec jobSpec,
) (*model.Item, *model.Scorecard, []model.ScoreConfig, error) {
	accountID := spec.accountID
	if accountID == "" {
		resolved, err := p.resolver.ResolveAccountID(ctx, spec.accountKey)
		if err != nil {
			return nil, nil, nil, err
		}
		accountID = resolved
	}

	scorecard, err := p.resolver.ResolveScorecard(ctx, accountID, spec.scorecardRef)
	if err != nil {
		return nil, nil, nil, err
	}

	scores := p.resolver.ResolveScores(ctx, scorecard, spec.scoreRef)

	item, err := p.resolver.ResolveItem(ctx, accountID, spec.itemIdentifier)
	if err != nil {
		return nil, nil, nil, err
	}
	return item, scorecard.Restrict(scores), scores, nil
}

func (p *Processor) executeAndPublish(
	ctx context.Context,
	logger *slog.Logger,
	spec jobSpec,
	item *model.Item,
	score model.ScoreConfig,
) error {
	logger.InfoContext(ctx, "executing score", "stage", StageExecuting, "score_id", score.ID)

	output, err := p.executor.Execute(ctx, core.ExecuteInput{Item: item, Score: score})
	if err != nil {
		logger.ErrorContext(ctx, "execution could not run",
			"stage", StageExecuting, "score_id", score.ID, "error", err)
		return fmt.Errorf("execute score %s for item %s: %w", score.ID, item.ID, err)
	}

	if _, err := p.publisher.Publish(ctx, publisher.PublishParams{
		JobID:  spec.jobID,
		ItemID: item.ID,
		Score:  score,
		Output: output,
	}); err != nil {
		logger.ErrorContext(ctx, "result publish failed",
			"stage", StagePublishing, "score_id", score.ID, "error", err)
		return err
	}
	return nil
}
