package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// chdirTemp isolates Load from any .env in the package directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RELAY_PORT", "RELAY_LABEL", "QUEUE_LIMIT", "STATUS_ADDR", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, &Config{
		Port:       3001,
		Label:      "Klyra",
		QueueLimit: 1024,
		StatusAddr: "",
		LogLevel:   slog.LevelInfo,
	}, cfg)
}

func TestLoad_Env(t *testing.T) {
	chdirTemp(t)
	clearEnv(t)
	t.Setenv("RELAY_PORT", "4000")
	t.Setenv("RELAY_LABEL", "Night Shift")
	t.Setenv("QUEUE_LIMIT", "0")
	t.Setenv("STATUS_ADDR", "127.0.0.1:4001")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, uint16(4000), cfg.Port)
	require.Equal(t, "Night Shift", cfg.Label)
	require.Zero(t, cfg.QueueLimit)
	require.Equal(t, "127.0.0.1:4001", cfg.StatusAddr)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RELAY_LABEL=FromFile\nRELAY_PORT=5000\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("RELAY_LABEL")
		_ = os.Unsetenv("RELAY_PORT")
	})

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "FromFile", cfg.Label)
	require.Equal(t, uint16(5000), cfg.Port)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port out of range", key: "RELAY_PORT", value: "70000"},
		{name: "port not a number", key: "RELAY_PORT", value: "abc"},
		{name: "negative queue limit", key: "QUEUE_LIMIT", value: "-1"},
		{name: "queue limit not a number", key: "QUEUE_LIMIT", value: "lots"},
		{name: "empty label", key: "RELAY_LABEL", value: "  "},
		{name: "bad log level", key: "LOG_LEVEL", value: "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}
