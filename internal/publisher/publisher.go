// Package publisher persists scoring results and forwards compact summaries
// to the response queue.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// Options configure a Publisher.
type Options struct {
	Results   core.ResultStore
	Responses core.ResponseQueue // optional; summaries are skipped when nil
	Logger    *slog.Logger

	// QueueSize bounds the background response notifier; defaults to 64.
	QueueSize int
	// NotifyTimeout bounds each background response publish; defaults to 10s.
	NotifyTimeout time.Duration
}

// Publisher writes results to the record store and emits response-queue
// summaries. The store write is authoritative: its failure propagates so the
// work queue can redeliver. The response leg is best-effort and never fails
// a message.
type Publisher struct {
	results  core.ResultStore
	notifier *responseNotifier
	logger   *slog.Logger
}

// New constructs a Publisher and starts its background notifier.
func New(opts Options) (*Publisher, error) {
	if opts.Results == nil {
		return nil, errors.New("result store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		results: opts.Results,
		logger:  logger,
	}
	if opts.Responses != nil {
		p.notifier = newResponseNotifier(notifierOptions{
			queue:   opts.Responses,
			logger:  logger,
			size:    opts.QueueSize,
			timeout: opts.NotifyTimeout,
		})
	}
	return p, nil
}

// PublishParams carries everything needed to persist one result.
type PublishParams struct {
	JobID  string
	ItemID string
	Score  model.ScoreConfig
	Output *core.ScoreOutput
}

// Publish persists the authoritative result row, then submits a summary to
// the response notifier without waiting on it.
func (p *Publisher) Publish(ctx context.Context, params PublishParams) (*model.Result, error) {
	if params.Output == nil {
		return nil, errors.New("score output is required")
	}

	result := &model.Result{
		ID:          uuid.NewString(),
		ItemID:      params.ItemID,
		ScoreID:     params.Score.ID,
		JobID:       params.JobID,
		Value:       params.Output.Value,
		Explanation: params.Output.Explanation,
		Metadata: model.ResultMetadata{
			Cost: params.Output.Cost,
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := p.results.Create(ctx, result); err != nil {
		return nil, fmt.Errorf("persist result for item %s score %s: %w",
			params.ItemID, params.Score.ID, err)
	}

	p.logger.InfoContext(ctx, "result persisted",
		"result_id", result.ID,
		"job_id", params.JobID,
		"item_id", params.ItemID,
		"score_id", params.Score.ID,
		"value", result.Value,
		"error_kind", result.IsError())

	if p.notifier != nil {
		p.notifier.Submit(ctx, model.ResultSummary{
			ItemID:  result.ItemID,
			ScoreID: result.ScoreID,
			Value:   result.Value,
			Cost:    result.Metadata.Cost,
		})
	}
	return result, nil
}

// Flush blocks until every submitted summary has been attempted, or the
// context expires. Intended for tests and orderly shutdown.
func (p *Publisher) Flush(ctx context.Context) error {
	if p.notifier == nil {
		return nil
	}
	return p.notifier.Flush(ctx)
}

// Close stops the background notifier after draining submitted summaries.
func (p *Publisher) Close() {
	if p.notifier != nil {
		p.notifier.Close()
	}
}
