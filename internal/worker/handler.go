package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/dispatcher"
	"github.com/callgrade/callgrade/internal/domain/feed"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// EventHandlerOptions configure an EventHandler.
type EventHandlerOptions struct {
	Dispatcher *dispatcher.Dispatcher
	Processor  *Processor
	Queue      core.WorkQueue
	Logger     *slog.Logger

	// DrainTimeout bounds the receive performed for direct invocations;
	// defaults to 5s.
	DrainTimeout time.Duration
}

// EventHandler is the invocation entry point shared by feed-triggered and
// direct invocations. Payloads with a Records key are change-feed batches
// handed to the dispatcher; payloads without one drain one unit of work from
// the request queue.
type EventHandler struct {
	dispatcher   *dispatcher.Dispatcher
	processor    *Processor
	queue        core.WorkQueue
	logger       *slog.Logger
	drainTimeout time.Duration
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(opts EventHandlerOptions) (*EventHandler, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if opts.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if opts.Queue == nil {
		return nil, errors.New("work queue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	drainTimeout := opts.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = defaultReceiveTimeout
	}
	return &EventHandler{
		dispatcher:   opts.Dispatcher,
		processor:    opts.Processor,
		queue:        opts.Queue,
		logger:       logger,
		drainTimeout: drainTimeout,
	}, nil
}

// Handle processes one raw invocation payload.
func (h *EventHandler) Handle(ctx context.Context, raw []byte) error {
	event, err := feed.ParseEvent(raw)
	if err != nil {
		return err
	}

	if event.HasRecords() {
		h.dispatcher.HandleBatch(ctx, event.Records)
		return nil
	}
	return h.drainOne(ctx)
}

// drainOne receives and processes a single message from the request queue.
// An empty queue is not an error.
func (h *EventHandler) drainOne(ctx context.Context) error {
	delivery, err := h.queue.Receive(ctx, h.drainTimeout)
	if err != nil {
		if errors.Is(err, model.ErrNoMessages) {
			h.logger.InfoContext(ctx, "direct invocation found no queued work")
			return nil
		}
		return fmt.Errorf("drain request queue: %w", err)
	}

	if err := h.processor.ProcessMessage(ctx, delivery.Message); err != nil {
		return err
	}
	return h.queue.Ack(ctx, delivery)
}
