package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// emptyEnvFile keeps a stray ./.env out of the tests.
func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, emptyEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Empty(t, cfg.DB)
	assert.False(t, cfg.UsesSQLite())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
	assert.False(t, cfg.Seed)
	assert.False(t, cfg.StrictDecisions)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Zero(t, cfg.VerifyInterval)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEAVE_PORT", "9090")
	t.Setenv("LEAVE_DB", ":memory:")
	t.Setenv("LEAVE_LOG_LEVEL", "debug")
	t.Setenv("LEAVE_SEED", "true")
	t.Setenv("LEAVE_STRICT_DECISIONS", "true")
	t.Setenv("LEAVE_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("LEAVE_VERIFY_INTERVAL", "1h")
	t.Setenv("LEAVE_CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load(nil, emptyEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.UsesSQLite())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Seed)
	assert.True(t, cfg.StrictDecisions)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Hour, cfg.VerifyInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LEAVE_PORT", "9090")

	cfg, err := Load([]string{"--port=7070", "--db=leave.db", "--strict-decisions"}, emptyEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "leave.db", cfg.DB)
	assert.True(t, cfg.StrictDecisions)
}

func TestLoad_EnvFile(t *testing.T) {
	// GIVEN: A .env file setting the port and log level, and LEAVE_LOG_LEVEL in the environment
	// WHEN: Loading
	// THEN: The file fills the port, the real environment wins for the level
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEAVE_PORT=6060\nLEAVE_LOG_LEVEL=error\n"), 0o600))
	t.Setenv("LEAVE_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("LEAVE_PORT") })

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown level", []string{"--log-level=verbose"}},
		{"bad duration", []string{"--shutdown-timeout=soon"}},
		{"bad port", []string{"--port=0"}},
		{"unknown flag", []string{"--colour"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, emptyEnvFile(t))
			assert.Error(t, err)
		})
	}

	_, err := Load(nil, filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{LogLevel: "warn", Environment: "production"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = NewLogger(&Config{LogLevel: "debug", Environment: "development"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(&Config{LogLevel: "loud"})
	assert.Error(t, err)
}
