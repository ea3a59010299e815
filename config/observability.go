package config

// ObservabilityConfig contains metrics configuration.
type ObservabilityConfig struct {
	// StatsdEnabled turns metric emission on.
	StatsdEnabled bool `env:"STATSD_ENABLED" envDefault:"false"`
	// StatsdAddress is the UDP host:port of the StatsD sink.
	StatsdAddress string `env:"STATSD_ADDRESS" envDefault:""`
	// StatsdPrefix is prepended to every metric name.
	StatsdPrefix string `env:"STATSD_PREFIX" envDefault:"callgrade"`
}

// Sanitize applies guardrails to observability configuration.
func (c *ObservabilityConfig) Sanitize() {
	if c.StatsdAddress == "" {
		c.StatsdEnabled = false
	}
}
