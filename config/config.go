// Package config holds the environment-driven configuration for the scoring
// pipeline.
package config

import (
	"strings"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// AppConfig is the main application configuration struct.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config files for
// the available variables:
//   - database.go: record store and Redis configuration
//   - queues.go: work/response queue configuration
//   - services.go: service mode selection
//   - pipeline.go: dispatcher and worker tuning
//   - observability.go: metrics configuration
type AppConfig struct {
	// IsDev controls development mode behavior.
	IsDev bool `env:"DEV" envDefault:"false"`

	// AccountKey identifies the account this deployment scores for. It
	// scopes manual invocations and item lookups by external id.
	AccountKey string `env:"ACCOUNT_KEY"`

	// ScorerURL is the HTTP endpoint of the scoring computation service.
	ScorerURL string `env:"SCORER_URL" envDefault:"http://localhost:8088/score"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	Queues QueueConfig

	// Services selects which services this process runs.
	Services string `env:"SERVICES" envDefault:"worker"`

	Dispatcher DispatcherConfig
	Worker     WorkerConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AppConfig) Sanitize() {
	c.Worker.Sanitize()
	c.Dispatcher.Sanitize()
	c.Observability.Sanitize()
}

// Validate checks every required variable and reports all missing ones at
// once as a MissingConfigurationError. The process must refuse to start on
// error.
func (c *AppConfig) Validate() error {
	var missing []string
	appendMissing := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	appendMissing("REQUEST_QUEUE_URL", c.Queues.RequestQueueURL)
	appendMissing("RESPONSE_QUEUE_URL", c.Queues.ResponseQueueURL)
	appendMissing("ACCOUNT_KEY", c.AccountKey)
	appendMissing("DB_HOST", c.Postgres.Host)
	appendMissing("DB_USER", c.Postgres.User)
	appendMissing("DB_NAME", c.Postgres.Name)

	if len(missing) > 0 {
		return &model.MissingConfigurationError{Missing: missing}
	}
	return nil
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsDispatcherEnabled returns true if the dispatcher service is enabled.
func (c *AppConfig) IsDispatcherEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeDispatcher]
}

// IsWorkerEnabled returns true if the worker service is enabled.
func (c *AppConfig) IsWorkerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeWorker]
}

// IsReclaimerEnabled returns true if the queue reclaimer service is enabled.
func (c *AppConfig) IsReclaimerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeReclaimer]
}
