package config

import (
	"strings"
	"time"
)

const (
	maxWorkerConcurrency  = 64
	defaultReceiveTimeout = 5 * time.Second
)

// DispatcherConfig contains change-feed dispatcher tuning.
type DispatcherConfig struct {
	// FeedPollTimeout bounds each blocking read of the change feed.
	FeedPollTimeout time.Duration `env:"DISPATCHER_FEED_POLL_TIMEOUT" envDefault:"5s"`
}

// Sanitize applies guardrails to dispatcher configuration.
func (c *DispatcherConfig) Sanitize() {
	if c.FeedPollTimeout <= 0 {
		c.FeedPollTimeout = 5 * time.Second
	}
}

// WorkerConfig contains worker pool tuning.
type WorkerConfig struct {
	// Concurrency is the number of messages processed in parallel.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"4"`
	// ReceiveTimeout bounds each blocking receive on the work queue.
	ReceiveTimeout time.Duration `env:"WORKER_RECEIVE_TIMEOUT" envDefault:"5s"`
	// ResponseQueueSize bounds the background response notifier.
	ResponseQueueSize int `env:"WORKER_RESPONSE_QUEUE_SIZE" envDefault:"64"`
	// TargetPatterns is a comma-separated list of routing patterns this
	// worker handles, e.g. "*" or "voice/*,chat/command".
	TargetPatterns string `env:"WORKER_TARGET_PATTERNS" envDefault:"*"`
}

// Sanitize applies guardrails to worker configuration.
func (c *WorkerConfig) Sanitize() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Concurrency > maxWorkerConcurrency {
		c.Concurrency = maxWorkerConcurrency
	}
	if c.ReceiveTimeout <= 0 {
		c.ReceiveTimeout = defaultReceiveTimeout
	}
	if c.ResponseQueueSize <= 0 {
		c.ResponseQueueSize = 64
	}
	if strings.TrimSpace(c.TargetPatterns) == "" {
		c.TargetPatterns = "*"
	}
}

// TargetPatternList splits TargetPatterns into individual patterns. Commas
// inside a bracketed domain list do not separate patterns.
func (c *WorkerConfig) TargetPatternList() []string {
	var out []string
	depth := 0
	start := 0
	flush := func(end int) {
		if trimmed := strings.TrimSpace(c.TargetPatterns[start:end]); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	for i, r := range c.TargetPatterns {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(c.TargetPatterns))
	return out
}
