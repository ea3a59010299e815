// Package dispatcher turns record-store change-feed batches into work-queue
// messages.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/feed"
	"github.com/callgrade/callgrade/internal/domain/model"
	"github.com/callgrade/callgrade/internal/observability/metrics"
	"github.com/callgrade/callgrade/internal/observability/statsd"
)

// Options configure a Dispatcher.
type Options struct {
	Queue   core.WorkQueue
	Jobs    core.JobStore // optional; enables the best-effort status advance
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Dispatcher consumes change-feed batches and enqueues one message per
// qualifying insert. It keeps no state between batches; re-processing the
// same insert event is safe because enqueueing is never conditioned on
// dispatcher-local state.
type Dispatcher struct {
	queue   core.WorkQueue
	jobs    core.JobStore
	logger  *slog.Logger
	metrics statsd.Sink
}

// Summary reports the outcome of one batch.
type Summary struct {
	Enqueued int
	Skipped  int
	Failed   int
}

// New constructs a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Queue == nil {
		return nil, errors.New("work queue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:   opts.Queue,
		jobs:    opts.Jobs,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// HandleBatch processes one change-feed batch. A failure on one record is
// logged and counted but never aborts the rest of the batch. Retries are the
// feed's responsibility, not the dispatcher's.
func (d *Dispatcher) HandleBatch(ctx context.Context, records []feed.StreamRecord) Summary {
	var summary Summary
	for _, record := range records {
		switch d.dispatchRecord(ctx, record) {
		case outcomeEnqueued:
			summary.Enqueued++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		}
	}
	d.logger.InfoContext(ctx, "change feed batch processed",
		"records", len(records),
		"enqueued", summary.Enqueued,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeEnqueued
	outcomeFailed
)

func (d *Dispatcher) dispatchRecord(ctx context.Context, record feed.StreamRecord) outcome {
	// Only job creation triggers dispatch; updates and deletions never
	// re-dispatch.
	if record.EventName != feed.EventInsert {
		return outcomeSkipped
	}

	job, err := feed.DecodeJobImage(record.Change.NewImage)
	if err != nil {
		d.logger.ErrorContext(ctx, "undecodable change feed record", "error", err)
		metrics.EmitDispatch(d.metrics, metrics.ResultError, err)
		return outcomeFailed
	}

	if job.DispatchStatus != model.DispatchStatusPending {
		d.logger.DebugContext(ctx, "skipping non-pending job",
			"job_id", job.ID, "dispatch_status", string(job.DispatchStatus))
		return outcomeSkipped
	}

	msg := model.WorkMessage{
		TaskName: model.TaskNameExecuteCommand,
		Args:     []string{job.Command},
		Kwargs:   &model.TaskKwargs{Target: job.Target, TaskID: job.ID},
	}
	if err := d.queue.Enqueue(ctx, msg); err != nil {
		d.logger.ErrorContext(ctx, "enqueue failed",
			"job_id", job.ID, "target", job.Target, "error", err)
		metrics.EmitDispatch(d.metrics, metrics.ResultError, err)
		return outcomeFailed
	}

	d.logger.InfoContext(ctx, "job dispatched", "job_id", job.ID, "target", job.Target)
	metrics.EmitDispatch(d.metrics, metrics.ResultSuccess, nil)
	d.advanceStatus(ctx, job.ID)
	return outcomeEnqueued
}

// advanceStatus moves the job to DISPATCHED after a successful enqueue. The
// write is best-effort: downstream consumers tolerate duplicates, so a failed
// advance is logged and forgotten.
func (d *Dispatcher) advanceStatus(ctx context.Context, jobID string) {
	if d.jobs == nil {
		return
	}
	if err := d.jobs.UpdateDispatchStatus(ctx, jobID, model.DispatchStatusDispatched); err != nil {
		d.logger.WarnContext(ctx, "dispatch status advance failed", "job_id", jobID, "error", err)
	}
}
