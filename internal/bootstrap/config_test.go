package bootstrap

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callgrade/callgrade/internal/domain/model"
)

// chdir is t.Chdir for toolchains older than Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadConfig_MissingRequiredVariables(t *testing.T) {
	// Chdir away from any .env file so only process env applies.
	chdir(t, t.TempDir())

	_, err := LoadConfig()
	require.Error(t, err)

	var missing *model.MissingConfigurationError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Missing, "ACCOUNT_KEY")
	assert.Contains(t, missing.Missing, "DB_HOST")
}

func TestLoadConfig_Complete(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REQUEST_QUEUE_URL", "callgrade:requests")
	t.Setenv("RESPONSE_QUEUE_URL", "callgrade:responses")
	t.Setenv("ACCOUNT_KEY", "acme")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "callgrade")
	t.Setenv("DB_NAME", "callgrade")
	t.Setenv("SERVICES", "dispatcher,worker,reclaimer")
	t.Setenv("WORKER_CONCURRENCY", "8")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.AccountKey)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.True(t, cfg.IsDispatcherEnabled())
	assert.True(t, cfg.IsWorkerEnabled())
	assert.True(t, cfg.IsReclaimerEnabled())
}
