package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/callgrade/callgrade/internal/core"
	"github.com/callgrade/callgrade/internal/domain/model"
)

// ResponseQueue pushes compact result summaries onto a Redis list for
// live-update consumers.
type ResponseQueue struct {
	client redis.UniversalClient
	key    string
}

// NewResponseQueue constructs a ResponseQueue.
func NewResponseQueue(client redis.UniversalClient, key string) (*ResponseQueue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if key == "" {
		return nil, errors.New("queue key is required")
	}
	return &ResponseQueue{client: client, key: key}, nil
}

var _ core.ResponseQueue = (*ResponseQueue)(nil)

// Publish appends one summary to the response list.
func (q *ResponseQueue) Publish(ctx context.Context, summary model.ResultSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal result summary: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("publish result summary: %w", err)
	}
	return nil
}
