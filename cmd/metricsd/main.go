// metricsd serves per-metric parquet files through a small HTTP API and
// refreshes them from a remote object store on demand.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/xtxerr/metricsd/internal/api"
	"github.com/xtxerr/metricsd/internal/loader"
	"github.com/xtxerr/metricsd/internal/logging"
	"github.com/xtxerr/metricsd/internal/refresh"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	listen := flag.String("listen", "", "listen address (overrides config)")
	dataDir := flag.String("data-dir", "", "metric file directory (overrides config)")
	bucket := flag.String("bucket", "", "S3 bucket for /refresh-metrics (overrides config)")
	jsonLogs := flag.Bool("json-logs", false, "log as JSON")
	flag.Parse()

	// Load config. Load wraps the read error, so the missing-file check
	// must unwrap.
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg = loader.DefaultConfig()
		} else {
			log.Fatalf("Load config: %v", err)
		}
	}

	// CLI overrides
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *bucket != "" {
		cfg.S3.Bucket = *bucket
	}
	if *jsonLogs {
		cfg.Log.JSON = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logging.Init(cfg.LogLevel(), cfg.Log.JSON)
	logging.Info("metricsd starting", "version", Version, "data_dir", cfg.Data.Dir)

	// The refresher is optional: without a bucket the service still
	// answers queries against whatever files are on disk.
	var refresher *refresh.Refresher
	if cfg.S3.Bucket != "" {
		store, err := refresh.NewS3Store(context.Background(), cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			log.Fatalf("S3 client: %v", err)
		}
		refresher = refresh.New(store, cfg.Data.Dir, cfg.S3.Prefix)
	} else {
		logging.Warn("no S3 bucket configured, /refresh-metrics disabled")
	}

	server := api.NewServer(cfg, refresher)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server: %v", err)
		}
	case sig := <-sigCh:
		logging.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout())
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logging.Error("shutdown", "error", err)
		}
	}
}
