// Package testutil provides database and Redis helpers for integration
// tests. Tests that need live backends skip themselves when none are
// reachable; set TEST_REQUIRE_BACKENDS=true in CI to fail instead.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/callgrade/callgrade/internal/migrate"
)

// TestDBConfig describes the test record store connection.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads the TEST_DB_* environment with local defaults.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "5432"),
		User:     envOr("TEST_DB_USER", "callgrade"),
		Password: envOr("TEST_DB_PASSWORD", "callgrade"),
		DBName:   envOr("TEST_DB_NAME", "callgrade_test"),
	}
}

// SetupTestDB opens the test database, applies migrations, and clears data.
// The test is skipped when no database is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := DefaultTestDBConfig()
	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		cfg.User, cfg.Password, net.JoinHostPort(cfg.Host, cfg.Port), cfg.DBName)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		skipOrFail(t, "test database not available: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		skipOrFail(t, "test database not reachable at %s: %v", cfg.Host, err)
		return nil
	}

	if err := migrate.Run(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("apply migrations: %v", err)
	}

	cleanupTestDB(t, db)
	t.Cleanup(func() {
		cleanupTestDB(t, db)
		_ = db.Close()
	})
	return db
}

func cleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Reverse dependency order so foreign keys never block the wipe.
	for _, table := range []string{"results", "scoring_jobs", "scorecards", "items", "accounts"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}
}

// SetupTestRedis returns a client on an isolated database index, flushed
// before use. The test is skipped when Redis is not reachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := envOr("TEST_REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   15, // keep clear of any local development data
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		skipOrFail(t, "redis not available at %s: %v", addr, err)
		return nil
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		_ = client.Close()
	})
	return client
}

func skipOrFail(t *testing.T, format string, args ...any) {
	t.Helper()
	if strings.EqualFold(os.Getenv("TEST_REQUIRE_BACKENDS"), "true") {
		t.Fatalf(format, args...)
	}
	t.Skipf(format, args...)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
