// Package loader - Configuration Types
//
// Defines the YAML configuration structure for metricsd.
package loader

import (
	"log/slog"
	"time"

	"github.com/xtxerr/metricsd/config"
)

// =============================================================================
// Root Configuration
// =============================================================================

// Config is the root configuration structure for metricsd.
type Config struct {
	// Server configures the HTTP listener and timeouts.
	Server ServerConfig `yaml:"server"`

	// Data configures the local metric file directory and the
	// consolidation worker pool.
	Data DataConfig `yaml:"data"`

	// S3 configures the remote object store used by /refresh-metrics.
	S3 S3Config `yaml:"s3"`

	// Log configures structured logging output.
	Log LogConfig `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Listen is the HTTP listen address.
	// Format: "host:port" or ":port"
	// Default: "127.0.0.1:8080"
	Listen string `yaml:"listen"`

	// RequestTimeoutSec bounds the handling of a single request,
	// including the per-request rebuild of the unified table.
	RequestTimeoutSec int `yaml:"request_timeout_sec"`

	// DrainTimeoutSec is the graceful shutdown window.
	DrainTimeoutSec int `yaml:"drain_timeout_sec"`
}

// DataConfig holds metric file settings.
type DataConfig struct {
	// Dir is the directory holding one parquet file per metric.
	// Relative paths resolve against the working directory.
	Dir string `yaml:"dir"`

	// LoadWorkers bounds concurrent metric loads during consolidation.
	// 0 means one worker per metric.
	LoadWorkers int `yaml:"load_workers"`
}

// S3Config holds object store settings for the refresh provider.
// Credentials come from the SDK's default chain (environment, shared
// config, instance role).
type S3Config struct {
	// Bucket is the bucket holding metric files. Empty disables refresh.
	// Env: AWS_S3_BUCKET_NAME
	Bucket string `yaml:"bucket"`

	// Prefix is the key prefix under which metric files live.
	Prefix string `yaml:"prefix"`

	// Region overrides the SDK-resolved region when set.
	Region string `yaml:"region"`

	// RefreshTimeoutSec bounds a full refresh (list + download all).
	RefreshTimeoutSec int `yaml:"refresh_timeout_sec"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// JSON switches output from text to JSON.
	JSON bool `yaml:"json"`
}

// =============================================================================
// Defaults
// =============================================================================

// DefaultConfig returns a Config populated with documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:            config.DefaultListenAddress,
			RequestTimeoutSec: int(config.DefaultRequestTimeout / time.Second),
			DrainTimeoutSec:   int(config.DefaultDrainTimeout / time.Second),
		},
		Data: DataConfig{
			Dir:         config.DefaultDataDir,
			LoadWorkers: config.DefaultLoadWorkers,
		},
		S3: S3Config{
			Prefix:            config.DefaultObjectPrefix,
			RefreshTimeoutSec: int(config.DefaultRefreshTimeout / time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RequestTimeout returns the request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// DrainTimeout returns the shutdown drain window as a duration.
func (c *Config) DrainTimeout() time.Duration {
	return time.Duration(c.Server.DrainTimeoutSec) * time.Second
}

// RefreshTimeout returns the refresh deadline as a duration.
func (c *Config) RefreshTimeout() time.Duration {
	return time.Duration(c.S3.RefreshTimeoutSec) * time.Second
}

// LogLevel parses Log.Level into a slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
