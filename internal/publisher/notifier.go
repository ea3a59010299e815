package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

const (
	defaultNotifierQueueSize = 64
	defaultNotifyTimeout     = 10 * time.Second
)

type notifierOptions struct {
	queue   core.ResponseQueue
	logger  *slog.Logger
	size    int
	timeout time.Duration
}

// responseNotifier delivers result summaries off the critical path through a
// bounded queue drained by a single background consumer. The contract is
// "submitted for delivery, failure is logged, caller does not wait"; Flush
// makes completion observable for tests and shutdown.
type responseNotifier struct {
	queue   core.ResponseQueue
	logger  *slog.Logger
	timeout time.Duration

	ch      chan model.ResultSummary
	pending sync.WaitGroup
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

func newResponseNotifier(opts notifierOptions) *responseNotifier {
	size := opts.size
	if size <= 0 {
		size = defaultNotifierQueueSize
	}
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}

	n := &responseNotifier{
		queue:   opts.queue,
		logger:  opts.logger,
		timeout: timeout,
		ch:      make(chan model.ResultSummary, size),
		done:    make(chan struct{}),
	}
	go n.consume()
	return n
}

// Submit enqueues a summary for background delivery. When the queue is full
// or the notifier is closed the summary is dropped with a log line; losing a
// live-update notification is non-fatal.
func (n *responseNotifier) Submit(ctx context.Context, summary model.ResultSummary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.logger.WarnContext(ctx, "response notifier closed, dropping summary",
			"item_id", summary.ItemID, "score_id", summary.ScoreID)
		return
	}

	n.pending.Add(1)
	select {
	case n.ch <- summary:
	default:
		n.pending.Done()
		n.logger.WarnContext(ctx, "response queue backlog full, dropping summary",
			"item_id", summary.ItemID, "score_id", summary.ScoreID)
	}
}

func (n *responseNotifier) consume() {
	defer close(n.done)
	for summary := range n.ch {
		n.deliver(summary)
		n.pending.Done()
	}
}

func (n *responseNotifier) deliver(summary model.ResultSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	if err := n.queue.Publish(ctx, summary); err != nil {
		n.logger.WarnContext(ctx, "response queue publish failed",
			"item_id", summary.ItemID, "score_id", summary.ScoreID, "error", err)
	}
}

// Flush waits for every submitted summary to be attempted.
func (n *responseNotifier) Flush(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		n.pending.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains submitted summaries and stops the consumer.
func (n *responseNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.ch)
	<-n.done
}
