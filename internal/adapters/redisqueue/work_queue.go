// Package redisqueue provides Redis-backed implementations of the work and
// response queues.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

const defaultVisibilityTimeout = 5 * time.Minute

// WorkQueueOptions configure a WorkQueue.
type WorkQueueOptions struct {
	Client redis.UniversalClient
	// Key is the ready-list key; the in-flight list, claim set and
	// dead-letter list derive from it.
	Key string
	// VisibilityTimeout is how long a received message may stay
	// unacknowledged before Reclaim returns it to the ready list; defaults
	// to 5m.
	VisibilityTimeout time.Duration
	Logger            *slog.Logger
}

// WorkQueue is an at-least-once delivery queue over Redis lists. Enqueue
// pushes onto the ready list; Receive atomically moves an entry to the
// in-flight list and records a claim time; Ack removes it. Entries whose
// claim has outlived the visibility timeout are moved back by Reclaim, so a
// crashed or slow worker's message is redelivered rather than lost.
// Undecodable payloads are parked on a dead-letter list instead of being
// redelivered forever.
type WorkQueue struct {
	client     redis.UniversalClient
	ready      string
	inflight   string
	claims     string
	dead       string
	visibility time.Duration
	logger     *slog.Logger
}

// NewWorkQueue constructs a WorkQueue.
func NewWorkQueue(opts WorkQueueOptions) (*WorkQueue, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Key == "" {
		return nil, errors.New("queue key is required")
	}
	visibility := opts.VisibilityTimeout
	if visibility <= 0 {
		visibility = defaultVisibilityTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkQueue{
		client:     opts.Client,
		ready:      opts.Key,
		inflight:   opts.Key + ":inflight",
		claims:     opts.Key + ":claims",
		dead:       opts.Key + ":dead",
		visibility: visibility,
		logger:     logger,
	}, nil
}

var _ core.WorkQueue = (*WorkQueue)(nil)

// Enqueue pushes one message onto the ready list.
func (q *WorkQueue) Enqueue(ctx context.Context, msg model.WorkMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal work message: %w", err)
	}
	if err := q.client.LPush(ctx, q.ready, payload).Err(); err != nil {
		return fmt.Errorf("enqueue work message: %w", err)
	}
	return nil
}

// Receive blocks up to timeout for the next message, moving it to the
// in-flight list. Returns model.ErrNoMessages when the queue stays empty.
func (q *WorkQueue) Receive(ctx context.Context, timeout time.Duration) (*model.Delivery, error) {
	raw, err := q.client.BLMove(ctx, q.ready, q.inflight, "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoMessages
		}
		return nil, fmt.Errorf("receive work message: %w", err)
	}

	// Claim time drives visibility-based redelivery. Identical payloads
	// share one claim entry; Reclaim moves back one list instance per
	// expired claim, which preserves at-least-once semantics.
	now := float64(time.Now().UnixMilli())
	if err := q.client.ZAdd(ctx, q.claims, redis.Z{Score: now, Member: raw}).Err(); err != nil {
		// Without a claim the entry would sit in the in-flight list
		// invisible to Reclaim's expiry scan. Put it back on the ready
		// list; if that also fails, Reclaim's claimless sweep recovers it.
		if removed, remErr := q.client.LRem(ctx, q.inflight, 1, raw).Result(); remErr == nil && removed > 0 {
			if pushErr := q.client.LPush(ctx, q.ready, raw).Err(); pushErr != nil {
				q.logger.ErrorContext(ctx, "return of unclaimed message failed", "error", pushErr)
			}
		}
		return nil, fmt.Errorf("record claim: %w", err)
	}

	var msg model.WorkMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		// A payload that cannot decode would fail identically on every
		// redelivery. Park it on the dead-letter list and report the queue
		// as empty so the caller moves on to the next entry.
		q.deadLetter(ctx, raw, err)
		return nil, model.ErrNoMessages
	}
	return &model.Delivery{Message: msg, Token: raw}, nil
}

// deadLetter moves an undecodable in-flight entry to the dead-letter list and
// drops its claim.
func (q *WorkQueue) deadLetter(ctx context.Context, raw string, cause error) {
	q.logger.ErrorContext(ctx, "dead-lettering undecodable work message",
		"queue", q.ready, "error", cause)
	if err := q.client.LRem(ctx, q.inflight, 1, raw).Err(); err != nil {
		q.logger.ErrorContext(ctx, "remove of dead-lettered entry failed", "error", err)
	}
	if err := q.client.LPush(ctx, q.dead, raw).Err(); err != nil {
		q.logger.ErrorContext(ctx, "push to dead-letter list failed", "error", err)
	}
	if err := q.client.ZRem(ctx, q.claims, raw).Err(); err != nil {
		q.logger.ErrorContext(ctx, "clear of dead-lettered claim failed", "error", err)
	}
}

// Ack removes an acknowledged message from the in-flight list.
func (q *WorkQueue) Ack(ctx context.Context, d *model.Delivery) error {
	if d == nil {
		return nil
	}
	if err := q.client.LRem(ctx, q.inflight, 1, d.Token).Err(); err != nil {
		return fmt.Errorf("acknowledge work message: %w", err)
	}
	if err := q.client.ZRem(ctx, q.claims, d.Token).Err(); err != nil {
		return fmt.Errorf("clear claim: %w", err)
	}
	return nil
}

// Reclaim returns visibility-expired in-flight messages to the ready list and
// reports how many were moved. In-flight entries with no claim at all are
// re-readied too; they exist when the claim write after the receive-side move
// failed, and nothing else would ever redeliver them.
func (q *WorkQueue) Reclaim(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-q.visibility).UnixMilli()
	expired, err := q.client.ZRangeByScore(ctx, q.claims, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list expired claims: %w", err)
	}

	moved := 0
	for _, raw := range expired {
		removed, err := q.client.LRem(ctx, q.inflight, 1, raw).Result()
		if err != nil {
			return moved, fmt.Errorf("remove expired in-flight entry: %w", err)
		}
		if removed > 0 {
			if err := q.client.LPush(ctx, q.ready, raw).Err(); err != nil {
				return moved, fmt.Errorf("requeue expired entry: %w", err)
			}
			moved++
		}
		if err := q.client.ZRem(ctx, q.claims, raw).Err(); err != nil {
			return moved, fmt.Errorf("clear expired claim: %w", err)
		}
	}

	orphans, err := q.reclaimClaimless(ctx)
	if err != nil {
		return moved, err
	}
	return moved + orphans, nil
}

// reclaimClaimless re-readies in-flight entries that have no claim entry. An
// entry can look claimless for the instant between the receive-side move and
// the claim write; re-readying it then produces a duplicate delivery, which
// the at-least-once contract allows.
func (q *WorkQueue) reclaimClaimless(ctx context.Context) (int, error) {
	entries, err := q.client.LRange(ctx, q.inflight, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("list in-flight entries: %w", err)
	}

	moved := 0
	for _, raw := range entries {
		if err := q.client.ZScore(ctx, q.claims, raw).Err(); err == nil {
			continue
		} else if !errors.Is(err, redis.Nil) {
			return moved, fmt.Errorf("check claim: %w", err)
		}
		removed, err := q.client.LRem(ctx, q.inflight, 1, raw).Result()
		if err != nil {
			return moved, fmt.Errorf("remove claimless in-flight entry: %w", err)
		}
		if removed > 0 {
			if err := q.client.LPush(ctx, q.ready, raw).Err(); err != nil {
				return moved, fmt.Errorf("requeue claimless entry: %w", err)
			}
			moved++
		}
	}
	return moved, nil
}
