package loader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  listen: "0.0.0.0:9000"
data:
  dir: /var/lib/metricsd
  load_workers: 4
s3:
  bucket: my-bucket
log:
  level: debug
  json: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Data.Dir != "/var/lib/metricsd" {
		t.Errorf("dir = %q", cfg.Data.Dir)
	}
	if cfg.Data.LoadWorkers != 4 {
		t.Errorf("load_workers = %d", cfg.Data.LoadWorkers)
	}
	if cfg.S3.Bucket != "my-bucket" {
		t.Errorf("bucket = %q", cfg.S3.Bucket)
	}
	if !cfg.Log.JSON {
		t.Error("expected JSON logging")
	}
}

func TestLoad_DefaultsPreserved(t *testing.T) {
	path := writeConfig(t, `server: {listen: ":9000"}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Unset fields keep their defaults.
	if cfg.Data.Dir != "data_files" {
		t.Errorf("dir = %q", cfg.Data.Dir)
	}
	if cfg.S3.Prefix != "activity-metric-plots" {
		t.Errorf("prefix = %q", cfg.S3.Prefix)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("METRICSD_TEST_DIR", "/tmp/expanded")
	path := writeConfig(t, "data:\n  dir: ${METRICSD_TEST_DIR}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Data.Dir != "/tmp/expanded" {
		t.Errorf("dir = %q", cfg.Data.Dir)
	}
}

func TestLoad_BucketFromEnv(t *testing.T) {
	t.Setenv("AWS_S3_BUCKET_NAME", "env-bucket")
	path := writeConfig(t, "log: {level: info}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.S3.Bucket != "env-bucket" {
		t.Errorf("bucket = %q", cfg.S3.Bucket)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}

	// The daemon falls back to defaults when the config file is absent;
	// that check unwraps, so the wrapped error must still match.
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(err, fs.ErrNotExist) = false for %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Data.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty data dir")
	}

	cfg = DefaultConfig()
	cfg.Data.LoadWorkers = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative worker count")
	}
}
