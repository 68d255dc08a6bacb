package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/convert-progress/internal/tracker"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
	require.Equal(t, 2*time.Second, cfg.NavigationDelay())
	require.Equal(t, tracker.PolicyClamp, cfg.Policy())
	require.Equal(t, "progress-container", cfg.Tracker.ContainerID)
	require.Equal(t, 10*time.Second, cfg.ConnectTimeout())
	require.Equal(t, 5000, cfg.Replay.Port)
	require.Equal(t, time.Second, cfg.ReplayInterval())
	require.Equal(t, "session_runs", cfg.DB.Table)
	require.Empty(t, cfg.DB.DSN)

	hub := cfg.HubSettings()
	require.Equal(t, 256, hub.BufferSize)
	require.Equal(t, 250*time.Millisecond, hub.MaxBatchWait)
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	configYAML := `
server:
  base_url: https://convert.example.com
tracker:
  navigation_delay_ms: 500
  regression_policy: trust
  container_id: panel-2
stream:
  connect_timeout_seconds: 3
replay:
  port: 9090
  fixtures_dir: /tmp/fixtures
  interval_ms: 50
  fail_after: 2
metrics:
  listen_addr: ":9100"
db:
  dsn: postgres://localhost/progress
  table: runs
hub:
  buffer_size: 8
  max_batch_events: 4
  max_batch_wait_ms: 10
logging:
  development: false
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://convert.example.com", cfg.Server.BaseURL)
	require.Equal(t, 500*time.Millisecond, cfg.NavigationDelay())
	require.Equal(t, tracker.PolicyTrust, cfg.Policy())
	require.Equal(t, "panel-2", cfg.Tracker.ContainerID)
	require.Equal(t, 3*time.Second, cfg.ConnectTimeout())
	require.Equal(t, ReplayConfig{Port: 9090, FixturesDir: "/tmp/fixtures", IntervalMs: 50, FailAfter: 2}, cfg.Replay)
	require.Equal(t, ":9100", cfg.Metrics.ListenAddr)
	require.Equal(t, "runs", cfg.DB.Table)
	require.Equal(t, 4, cfg.HubSettings().MaxBatchEvents)
	require.False(t, cfg.Logging.Development)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PROGRESSWATCH_TRACKER_REGRESSION_POLICY", "trust")
	t.Setenv("PROGRESSWATCH_REPLAY_PORT", "7000")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, tracker.PolicyTrust, cfg.Policy())
	require.Equal(t, 7000, cfg.Replay.Port)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"relative base url": func(c *Config) { c.Server.BaseURL = "/only/path" },
		"negative delay":    func(c *Config) { c.Tracker.NavigationDelayMs = -1 },
		"bad policy":        func(c *Config) { c.Tracker.RegressionPolicy = "sometimes" },
		"empty container":   func(c *Config) { c.Tracker.ContainerID = "" },
		"zero timeout":      func(c *Config) { c.Stream.ConnectTimeoutSeconds = 0 },
		"bad port":          func(c *Config) { c.Replay.Port = 70000 },
		"negative fail":     func(c *Config) { c.Replay.FailAfter = -1 },
		"empty hub":         func(c *Config) { c.Hub.BufferSize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
