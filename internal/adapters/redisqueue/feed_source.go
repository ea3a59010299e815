package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// FeedSource reads raw change-feed invocation payloads from a Redis list.
// The record store's feed bridge pushes each batch as one JSON document; the
// dispatcher service drains them here. Feed redelivery on failure is the
// bridge's responsibility.
type FeedSource struct {
	client redis.UniversalClient
	key    string
}

// NewFeedSource constructs a FeedSource.
func NewFeedSource(client redis.UniversalClient, key string) (*FeedSource, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if key == "" {
		return nil, errors.New("feed key is required")
	}
	return &FeedSource{client: client, key: key}, nil
}

// Next blocks up to timeout for the next raw payload. Returns
// model.ErrNoMessages when the feed stays empty.
func (s *FeedSource) Next(ctx context.Context, timeout time.Duration) ([]byte, error) {
	raw, err := s.client.BRPop(ctx, timeout, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoMessages
		}
		return nil, fmt.Errorf("read change feed: %w", err)
	}
	// BRPOP returns [key, value].
	if len(raw) < 2 {
		return nil, model.ErrNoMessages
	}
	return []byte(raw[1]), nil
}
