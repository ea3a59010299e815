package config

import "time"

// QueueConfig contains work-queue and response-queue configuration. The URL
// values name the Redis list keys the queues live on; the feed key carries
// raw change-feed batches into the dispatcher.
type QueueConfig struct {
	RequestQueueURL  string `env:"REQUEST_QUEUE_URL"`
	ResponseQueueURL string `env:"RESPONSE_QUEUE_URL"`
	ChangeFeedKey    string `env:"CHANGE_FEED_KEY" envDefault:"callgrade:feed"`

	// VisibilityTimeout is how long a received work message may stay
	// unacknowledged before it becomes deliverable again.
	VisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT" envDefault:"5m"`
	// ReclaimInterval is how often the reclaimer scans for visibility-expired
	// messages.
	ReclaimInterval time.Duration `env:"QUEUE_RECLAIM_INTERVAL" envDefault:"1m"`
}
