// Package config loads and validates progresswatch configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/convert-progress/internal/lifecycle"
	"github.com/JakeFAU/convert-progress/internal/tracker"
	"github.com/JakeFAU/convert-progress/internal/view"
)

// EnvPrefix prefixes every environment override, e.g.
// PROGRESSWATCH_SERVER_BASE_URL.
const EnvPrefix = "PROGRESSWATCH"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Tracker TrackerConfig `mapstructure:"tracker"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Replay  ReplayConfig  `mapstructure:"replay"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	DB      DBConfig      `mapstructure:"db"`
	Hub     HubConfig     `mapstructure:"hub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig locates the conversion server.
type ServerConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// TrackerConfig tunes session tracking.
type TrackerConfig struct {
	NavigationDelayMs int    `mapstructure:"navigation_delay_ms"`
	RegressionPolicy  string `mapstructure:"regression_policy"`
	ContainerID       string `mapstructure:"container_id"`
}

// StreamConfig configures the SSE connection.
type StreamConfig struct {
	ConnectTimeoutSeconds int `mapstructure:"connect_timeout_seconds"`
}

// ReplayConfig configures the fixture replay server.
type ReplayConfig struct {
	Port        int    `mapstructure:"port"`
	FixturesDir string `mapstructure:"fixtures_dir"`
	IntervalMs  int    `mapstructure:"interval_ms"`
	FailAfter   int    `mapstructure:"fail_after"`
}

// MetricsConfig exposes Prometheus metrics while watching. An empty
// ListenAddr disables the listener.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// DBConfig controls the optional session audit store. An empty DSN keeps
// the trail in memory.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// HubConfig sizes the lifecycle event hub.
type HubConfig struct {
	BufferSize      int `mapstructure:"buffer_size"`
	MaxBatchEvents  int `mapstructure:"max_batch_events"`
	MaxBatchWaitMs  int `mapstructure:"max_batch_wait_ms"`
	SinkTimeoutSecs int `mapstructure:"sink_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("tracker.navigation_delay_ms", int(tracker.DefaultNavigationDelay/time.Millisecond))
	v.SetDefault("tracker.regression_policy", tracker.PolicyClamp.String())
	v.SetDefault("tracker.container_id", view.AnchorContainer)
	v.SetDefault("stream.connect_timeout_seconds", 10)
	v.SetDefault("replay.port", 5000)
	v.SetDefault("replay.fixtures_dir", "")
	v.SetDefault("replay.interval_ms", 1000)
	v.SetDefault("replay.fail_after", 0)
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "session_runs")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("hub.buffer_size", 256)
	v.SetDefault("hub.max_batch_events", 64)
	v.SetDefault("hub.max_batch_wait_ms", 250)
	v.SetDefault("hub.sink_timeout_seconds", 5)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL, got %q", c.Server.BaseURL)
	}
	if c.Tracker.NavigationDelayMs < 0 {
		return errors.New("tracker.navigation_delay_ms must be >= 0")
	}
	if _, err := tracker.ParseRegressionPolicy(c.Tracker.RegressionPolicy); err != nil {
		return fmt.Errorf("tracker.regression_policy: %w", err)
	}
	if c.Tracker.ContainerID == "" {
		return errors.New("tracker.container_id must be set")
	}
	if c.Stream.ConnectTimeoutSeconds <= 0 {
		return errors.New("stream.connect_timeout_seconds must be > 0")
	}
	if c.Replay.Port <= 0 || c.Replay.Port > 65535 {
		return errors.New("replay.port must be between 1 and 65535")
	}
	if c.Replay.IntervalMs < 0 {
		return errors.New("replay.interval_ms must be >= 0")
	}
	if c.Replay.FailAfter < 0 {
		return errors.New("replay.fail_after must be >= 0")
	}
	if c.Hub.BufferSize <= 0 || c.Hub.MaxBatchEvents <= 0 {
		return errors.New("hub.buffer_size and hub.max_batch_events must be > 0")
	}
	return nil
}

// NavigationDelay returns the completion-to-navigation delay.
func (c Config) NavigationDelay() time.Duration {
	return time.Duration(c.Tracker.NavigationDelayMs) * time.Millisecond
}

// Policy returns the parsed regression policy. Validate has already
// rejected unknown values.
func (c Config) Policy() tracker.RegressionPolicy {
	p, _ := tracker.ParseRegressionPolicy(c.Tracker.RegressionPolicy)
	return p
}

// ConnectTimeout bounds dialing and waiting for stream response headers.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Stream.ConnectTimeoutSeconds) * time.Second
}

// ReplayInterval separates replayed frames.
func (c Config) ReplayInterval() time.Duration {
	return time.Duration(c.Replay.IntervalMs) * time.Millisecond
}

// HubSettings converts the hub section for lifecycle.NewHub.
func (c Config) HubSettings() lifecycle.Config {
	return lifecycle.Config{
		BufferSize:     c.Hub.BufferSize,
		MaxBatchEvents: c.Hub.MaxBatchEvents,
		MaxBatchWait:   time.Duration(c.Hub.MaxBatchWaitMs) * time.Millisecond,
		SinkTimeout:    time.Duration(c.Hub.SinkTimeoutSecs) * time.Second,
	}
}
