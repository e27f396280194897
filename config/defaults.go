// Package config provides configuration defaults and utilities
// for the metricsd application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Network Defaults
// =============================================================================

const (
	// DefaultListenAddress is the default HTTP listen address.
	// Override via config: server.listen
	DefaultListenAddress = "127.0.0.1:8080"

	// DefaultRequestTimeout bounds the total handling time of one HTTP
	// request, including the per-request consolidation rebuild.
	// Override via config: server.request_timeout_sec
	DefaultRequestTimeout = 60 * time.Second
)

// =============================================================================
// Data Defaults
// =============================================================================

const (
	// DefaultDataDir is the directory holding one parquet file per metric,
	// relative to the working directory.
	// Override via config: data.dir
	DefaultDataDir = "data_files"

	// DefaultLoadWorkers is the consolidation worker bound.
	// 0 means one worker per metric (the metric count is bounded by the
	// catalog, not by user input, so unbounded is acceptable at current
	// scale). Set a positive value to queue excess loads instead.
	// Override via config: data.load_workers
	DefaultLoadWorkers = 0
)

// =============================================================================
// Object Store Defaults
// =============================================================================

const (
	// DefaultObjectPrefix is the key prefix under which metric files live
	// in the remote bucket.
	// Override via config: s3.prefix
	DefaultObjectPrefix = "activity-metric-plots"

	// DefaultRefreshTimeout bounds a full refresh (list + download all).
	// Override via config: s3.refresh_timeout_sec
	DefaultRefreshTimeout = 120 * time.Second
)

// =============================================================================
// Summary Defaults
// =============================================================================

const (
	// DefaultSketchAccuracy is the DDSketch relative accuracy used for
	// summary percentiles.
	DefaultSketchAccuracy = 0.01
)

// =============================================================================
// Shutdown Defaults
// =============================================================================

const (
	// DefaultDrainTimeout is how long to wait for in-flight requests
	// during shutdown. After this timeout, remaining requests are abandoned.
	// Override via config: server.drain_timeout_sec
	DefaultDrainTimeout = 30 * time.Second
)
