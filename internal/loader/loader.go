// Package loader handles configuration file loading and validation.
//
// This package is responsible for:
//   - Loading YAML configuration files
//   - Expanding environment variables
//   - Applying documented defaults for unset fields
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnv(cfg)

	return cfg, nil
}

// applyEnv fills fields the environment provides when the file left
// them empty. The bucket name follows the original deployment convention.
func applyEnv(cfg *Config) {
	if cfg.S3.Bucket == "" {
		cfg.S3.Bucket = os.Getenv("AWS_S3_BUCKET_NAME")
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = os.Getenv("AWS_REGION")
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	if c.Data.LoadWorkers < 0 {
		return fmt.Errorf("data.load_workers must be >= 0")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("server.request_timeout_sec must be positive")
	}
	return nil
}
