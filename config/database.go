package config

// DBConfig contains PostgreSQL record-store configuration.
type DBConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD" envDefault:""`
	Name     string `env:"NAME"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the process applies schema
	// migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration for the queues.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}
