package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
	"github.com/callgrade/callgrade/internal/domain/target"
)

const (
	defaultReceiveTimeout  = 5 * time.Second
	defaultRedirectBackoff = 100 * time.Millisecond
)

// PoolOptions configure a Pool.
type PoolOptions struct {
	Queue     core.WorkQueue
	Processor *Processor
	Logger    *slog.Logger

	// Concurrency is the number of draining goroutines; defaults to 1.
	Concurrency int
	// ReceiveTimeout bounds each blocking receive; defaults to 5s.
	ReceiveTimeout time.Duration
	// Targets restricts which routed messages this pool handles; an empty
	// matcher defaults to the universal pattern. Messages without a routing
	// target are always handled.
	Targets target.Matcher
}

// Pool drains the work queue with a bounded number of workers. Messages are
// acknowledged only after successful processing; failed messages stay in
// flight until the queue's visibility window returns them.
type Pool struct {
	queue           core.WorkQueue
	processor       *Processor
	logger          *slog.Logger
	concurrency     int
	receiveTimeout  time.Duration
	targets         target.Matcher
	redirectBackoff time.Duration
}

// NewPool constructs a Pool.
func NewPool(opts PoolOptions) (*Pool, error) {
	if opts.Queue == nil {
		return nil, errors.New("work queue is required")
	}
	if opts.Processor == nil {
		return nil, errors.New("processor is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	receiveTimeout := opts.ReceiveTimeout
	if receiveTimeout <= 0 {
		receiveTimeout = defaultReceiveTimeout
	}
	targets := opts.Targets
	if targets.Empty() {
		matcher, err := target.NewMatcher("*")
		if err != nil {
			return nil, err
		}
		targets = matcher
	}
	return &Pool{
		queue:           opts.Queue,
		processor:       opts.Processor,
		logger:          logger,
		concurrency:     concurrency,
		receiveTimeout:  receiveTimeout,
		targets:         targets,
		redirectBackoff: defaultRedirectBackoff,
	}, nil
}

// Run processes messages until the context is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.InfoContext(ctx, "starting worker pool", "workers", p.concurrency)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		g.Go(func() error {
			return p.workerLoop(ctx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *Pool) workerLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		delivery, err := p.queue.Receive(ctx, p.receiveTimeout)
		switch {
		case err == nil:
			p.handleDelivery(ctx, delivery)
		case errors.Is(err, model.ErrNoMessages):
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			return fmt.Errorf("receive message: %w", err)
		}
	}
	return ctx.Err()
}

// handleDelivery processes one delivery. On failure the message is left
// unacknowledged on purpose; the queue redelivers it after the visibility
// timeout.
func (p *Pool) handleDelivery(ctx context.Context, delivery *model.Delivery) {
	if route := delivery.Message.Route(); route != "" && !p.targets.Matches(route) {
		p.redirect(ctx, delivery, route)
		return
	}
	if err := p.processor.ProcessMessage(ctx, delivery.Message); err != nil {
		p.logger.ErrorContext(ctx, "message processing failed, leaving unacknowledged",
			"job_id", delivery.Message.JobID(), "error", err)
		return
	}
	if err := p.queue.Ack(ctx, delivery); err != nil {
		// The work already happened; a failed ack means a duplicate result
		// later, which the result model tolerates.
		p.logger.WarnContext(ctx, "acknowledge failed",
			"job_id", delivery.Message.JobID(), "error", err)
	}
}

// redirect returns a message routed to a target this pool does not handle. It
// is re-enqueued before the received copy is acknowledged, so a matching pool
// on the same queue can pick it up without a delivery gap. The backoff keeps a
// pool whose patterns match nothing on the queue from spinning the
// receive/enqueue cycle at full speed.
func (p *Pool) redirect(ctx context.Context, delivery *model.Delivery, route string) {
	p.logger.DebugContext(ctx, "message routed elsewhere",
		"job_id", delivery.Message.JobID(), "target", route)
	defer p.pause(ctx, p.redirectBackoff)
	if err := p.queue.Enqueue(ctx, delivery.Message); err != nil {
		// Leave it in flight; the visibility timeout will redeliver.
		p.logger.ErrorContext(ctx, "requeue of unmatched message failed",
			"job_id", delivery.Message.JobID(), "error", err)
		return
	}
	if err := p.queue.Ack(ctx, delivery); err != nil {
		p.logger.WarnContext(ctx, "acknowledge of redirected message failed",
			"job_id", delivery.Message.JobID(), "error", err)
	}
}

func (p *Pool) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
