package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/callgrade/callgrade/config"
	"github.com/callgrade/callgrade/internal/adapters/redisqueue"
	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/data"
	"github.com/callgrade/callgrade/internal/dispatcher"
	"github.com/callgrade/callgrade/internal/domain/model"
	"github.com/callgrade/callgrade/internal/domain/target"
	"github.com/callgrade/callgrade/internal/executor"
	"github.com/callgrade/callgrade/internal/observability/statsd"
	"github.com/callgrade/callgrade/internal/publisher"
	"github.com/callgrade/callgrade/internal/resolver"
	"github.com/callgrade/callgrade/internal/worker"
)

// ServiceDeps carries the shared infrastructure every service builds on.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger

	// Executor is the injected scoring capability.
	Executor core.ScoreExecutor
}

// Services holds the constructed service runners.
type Services struct {
	Dispatcher *dispatcher.Dispatcher
	Feed       *redisqueue.FeedSource
	Handler    *worker.EventHandler
	Pool       *worker.Pool
	WorkQueue  *redisqueue.WorkQueue
	Publisher  *publisher.Publisher
	Metrics    *statsd.Client
}

// NewServices wires stores, queues and pipeline components per the enabled
// service modes.
func NewServices(deps *ServiceDeps) (*Services, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps are required")
	}
	if deps.Executor == nil {
		return nil, errors.New("score executor is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	metricsClient, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.Observability.StatsdEnabled,
		Address: cfg.Observability.StatsdAddress,
		Prefix:  cfg.Observability.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	workQueue, err := redisqueue.NewWorkQueue(redisqueue.WorkQueueOptions{
		Client:            deps.RedisClient,
		Key:               cfg.Queues.RequestQueueURL,
		VisibilityTimeout: cfg.Queues.VisibilityTimeout,
		Logger:            logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build work queue: %w", err)
	}
	responseQueue, err := redisqueue.NewResponseQueue(deps.RedisClient, cfg.Queues.ResponseQueueURL)
	if err != nil {
		return nil, fmt.Errorf("build response queue: %w", err)
	}
	feedSource, err := redisqueue.NewFeedSource(deps.RedisClient, cfg.Queues.ChangeFeedKey)
	if err != nil {
		return nil, fmt.Errorf("build feed source: %w", err)
	}

	jobStore := data.NewJobStore(deps.DB)

	disp, err := dispatcher.New(dispatcher.Options{
		Queue:   workQueue,
		Jobs:    jobStore,
		Logger:  logger,
		Metrics: metricsClient,
	})
	if err != nil {
		return nil, fmt.Errorf("build dispatcher: %w", err)
	}

	res, err := resolver.New(resolver.Options{
		Items:      data.NewItemStore(deps.DB),
		Scorecards: data.NewScorecardStore(deps.DB),
		Accounts:   data.NewAccountStore(deps.DB),
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	shield, err := executor.NewShield(executor.Options{Inner: deps.Executor, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("build executor shield: %w", err)
	}

	pub, err := publisher.New(publisher.Options{
		Results:   data.NewResultStore(deps.DB),
		Responses: responseQueue,
		Logger:    logger,
		QueueSize: cfg.Worker.ResponseQueueSize,
	})
	if err != nil {
		return nil, fmt.Errorf("build publisher: %w", err)
	}

	processor, err := worker.NewProcessor(worker.ProcessorOptions{
		Jobs:       jobStore,
		Resolver:   res,
		Executor:   shield,
		Publisher:  pub,
		Logger:     logger,
		Metrics:    metricsClient,
		AccountKey: cfg.AccountKey,
	})
	if err != nil {
		return nil, fmt.Errorf("build processor: %w", err)
	}

	targets, err := target.NewMatcher(cfg.Worker.TargetPatternList()...)
	if err != nil {
		return nil, fmt.Errorf("parse worker target patterns: %w", err)
	}

	pool, err := worker.NewPool(worker.PoolOptions{
		Queue:          workQueue,
		Processor:      processor,
		Logger:         logger,
		Concurrency:    cfg.Worker.Concurrency,
		ReceiveTimeout: cfg.Worker.ReceiveTimeout,
		Targets:        targets,
	})
	if err != nil {
		return nil, fmt.Errorf("build worker pool: %w", err)
	}

	handler, err := worker.NewEventHandler(worker.EventHandlerOptions{
		Dispatcher:   disp,
		Processor:    processor,
		Queue:        workQueue,
		Logger:       logger,
		DrainTimeout: cfg.Worker.ReceiveTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("build event handler: %w", err)
	}

	return &Services{
		Dispatcher: disp,
		Feed:       feedSource,
		Handler:    handler,
		Pool:       pool,
		WorkQueue:  workQueue,
		Publisher:  pub,
		Metrics:    metricsClient,
	}, nil
}

// Run starts the enabled services and blocks until a shutdown signal arrives
// or a service fails.
func Run(ctx context.Context, cfg *config.AppConfig, services *Services, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enabled, err := cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeDispatcher] {
		g.Go(func() error {
			return runDispatcherLoop(ctx, cfg, services, logger)
		})
	}
	if enabled[config.ServiceModeWorker] {
		g.Go(func() error {
			return services.Pool.Run(ctx)
		})
	}
	if enabled[config.ServiceModeReclaimer] {
		g.Go(func() error {
			return runReclaimerLoop(ctx, cfg, services, logger)
		})
	}

	err = g.Wait()

	// Drain the best-effort response leg before exiting.
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if flushErr := services.Publisher.Flush(flushCtx); flushErr != nil {
		logger.WarnContext(flushCtx, "response notifier flush incomplete", "error", flushErr)
	}
	services.Publisher.Close()
	if closeErr := services.Metrics.Close(); closeErr != nil {
		logger.WarnContext(ctx, "close metrics client failed", "error", closeErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runDispatcherLoop drains raw change-feed payloads and hands each to the
// event handler. Each payload is one stateless invocation.
func runDispatcherLoop(
	ctx context.Context,
	cfg *config.AppConfig,
	services *Services,
	logger *slog.Logger,
) error {
	logger.InfoContext(ctx, "starting change feed dispatcher")
	for ctx.Err() == nil {
		raw, err := services.Feed.Next(ctx, cfg.Dispatcher.FeedPollTimeout)
		switch {
		case err == nil:
			if handleErr := services.Handler.Handle(ctx, raw); handleErr != nil {
				logger.ErrorContext(ctx, "feed event handling failed", "error", handleErr)
			}
		case errors.Is(err, model.ErrNoMessages):
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		default:
			return err
		}
	}
	return ctx.Err()
}

// runReclaimerLoop periodically returns visibility-expired in-flight
// messages to the ready list.
func runReclaimerLoop(
	ctx context.Context,
	cfg *config.AppConfig,
	services *Services,
	logger *slog.Logger,
) error {
	logger.InfoContext(ctx, "starting queue reclaimer", "interval", cfg.Queues.ReclaimInterval)
	ticker := time.NewTicker(cfg.Queues.ReclaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			moved, err := services.WorkQueue.Reclaim(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "queue reclaim failed", "error", err)
				continue
			}
			if moved > 0 {
				logger.InfoContext(ctx, "requeued expired in-flight messages", "count", moved)
			}
		}
	}
}
