package refresh

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/xtxerr/metricsd/internal/errors"
)

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	objects map[string][]byte
	failKey string
}

func (f *fakeStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	// S3 listings come back in lexical key order.
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeStore) Download(ctx context.Context, key string, w io.Writer) error {
	if key == f.failKey {
		return fmt.Errorf("simulated download failure")
	}
	data, ok := f.objects[key]
	if !ok {
		return fmt.Errorf("no such key %s", key)
	}
	_, err := w.Write(data)
	return err
}

func TestRefresh(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")
	store := &fakeStore{objects: map[string][]byte{
		"activity-metric-plots/signups_plot.parquet": []byte("aaa"),
		"activity-metric-plots/revenue_plot.parquet": []byte("bbb"),
	}}

	r := New(store, dir, "activity-metric-plots")
	count, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 files, got %d", count)
	}

	for _, name := range []string{"signups_plot.parquet", "revenue_plot.parquet"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestRefresh_ReplacesExistingFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale_plot.parquet")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{objects: map[string][]byte{
		"activity-metric-plots/fresh_plot.parquet": []byte("new"),
	}}

	if _, err := New(store, dir, "activity-metric-plots").Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file survived refresh")
	}
	if _, err := os.Stat(filepath.Join(dir, "fresh_plot.parquet")); err != nil {
		t.Errorf("fresh file missing: %v", err)
	}
}

func TestRefresh_ZeroObjects(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")
	store := &fakeStore{objects: map[string][]byte{}}

	count, err := New(store, dir, "activity-metric-plots").Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 files, got %d", count)
	}

	// The directory must exist even when empty.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("data dir missing: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestRefresh_DownloadFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")
	store := &fakeStore{
		objects: map[string][]byte{
			"activity-metric-plots/ok_plot.parquet":  []byte("aaa"),
			"activity-metric-plots/bad_plot.parquet": []byte("bbb"),
		},
		failKey: "activity-metric-plots/bad_plot.parquet",
	}

	_, err := New(store, dir, "activity-metric-plots").Refresh(context.Background())
	if !errors.Is(err, errors.ErrRefresh) {
		t.Fatalf("expected ErrRefresh, got %v", err)
	}
}

func TestRefresh_DuplicateBaseNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")
	store := &fakeStore{objects: map[string][]byte{
		"activity-metric-plots/2024/signups_plot.parquet": []byte("nested"),
		"activity-metric-plots/signups_plot.parquet":      []byte("shallow"),
	}}

	count, err := New(store, dir, "activity-metric-plots").Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	// Both keys collapse onto one local file; the later listed key wins.
	if count != 1 {
		t.Fatalf("expected 1 file, got %d", count)
	}
	data, err := os.ReadFile(filepath.Join(dir, "signups_plot.parquet"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "shallow" {
		t.Errorf("file content = %q, want the later listed object", data)
	}
}

func TestRefresh_SkipsDirectoryPlaceholders(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data_files")
	store := &fakeStore{objects: map[string][]byte{
		"activity-metric-plots/":               nil,
		"activity-metric-plots/m_plot.parquet": []byte("x"),
	}}

	count, err := New(store, dir, "activity-metric-plots").Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 file, got %d", count)
	}
}
