package source

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/xtxerr/metricsd/internal/dataset"
	"github.com/xtxerr/metricsd/internal/errors"
	"github.com/xtxerr/metricsd/internal/testutil"
)

func TestLoad_DateColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signups_plot.parquet")
	testutil.WriteMetricFile(t, path, "date", "signups", []testutil.MetricRow{
		{Entity: "acme", Date: "2024-01-15", Value: 42},
		{Entity: "globex", Date: "2024-02-15", Value: 7},
	})

	rows, err := Load(path, "signups")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	got := rows[0]
	if got.Entity != "acme" || got.Metric != "signups" || got.Value != 42 {
		t.Errorf("row = %+v", got)
	}
	if !got.Date.Equal(dataset.Date(2024, time.January, 15)) {
		t.Errorf("date = %v", got.Date)
	}
}

func TestLoad_MonthAndWeekColumnsNormalize(t *testing.T) {
	for _, col := range []string{"month", "week"} {
		path := filepath.Join(t.TempDir(), "m_plot.parquet")
		testutil.WriteMetricFile(t, path, col, "v", []testutil.MetricRow{
			{Entity: "acme", Date: "2024-03-01", Value: 1},
		})

		rows, err := Load(path, "m")
		if err != nil {
			t.Fatalf("Load with %s column: %v", col, err)
		}
		if got := rows[0].Date; !got.Equal(dataset.Date(2024, time.March, 1)) {
			t.Errorf("%s column: date = %v", col, got)
		}
	}
}

func TestLoad_TimestampDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lat_plot.parquet")
	ts := time.Date(2024, time.May, 9, 13, 45, 0, 0, time.UTC).UnixMilli()
	testutil.WriteTimestampMetricFile(t, path, "latency", []map[string]any{
		{"entity": "acme", "date": ts, "latency": 3.5},
	})

	rows, err := Load(path, "lat")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := rows[0].Date; !got.Equal(dataset.Date(2024, time.May, 9)) {
		t.Errorf("timestamp not truncated to date: %v", got)
	}
}

func TestLoad_MissingEntity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_plot.parquet")
	schema := parquet.NewSchema("metric", parquet.Group{
		"date": parquet.String(),
		"v":    parquet.Leaf(parquet.DoubleType),
	})
	testutil.WriteRawParquet(t, path, schema, []map[string]any{
		{"date": "2024-01-01", "v": 1.0},
	})

	_, err := Load(path, "bad")
	if !errors.Is(err, errors.ErrBadSchema) {
		t.Fatalf("expected ErrBadSchema, got %v", err)
	}
}

func TestLoad_EmptyEntityValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_plot.parquet")
	testutil.WriteMetricFile(t, path, "date", "v", []testutil.MetricRow{
		{Entity: "", Date: "2024-01-01", Value: 1},
	})

	_, err := Load(path, "bad")
	if !errors.Is(err, errors.ErrBadSchema) {
		t.Fatalf("expected ErrBadSchema, got %v", err)
	}
	// An empty cell is reported as such, not as a missing column.
	if !strings.Contains(err.Error(), "empty entity value") {
		t.Errorf("error = %v", err)
	}
}

func TestLoad_AmbiguousValueColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad_plot.parquet")
	schema := parquet.NewSchema("metric", parquet.Group{
		"entity": parquet.String(),
		"date":   parquet.String(),
		"a":      parquet.Leaf(parquet.DoubleType),
		"b":      parquet.Leaf(parquet.DoubleType),
	})
	testutil.WriteRawParquet(t, path, schema, []map[string]any{
		{"entity": "acme", "date": "2024-01-01", "a": 1.0, "b": 2.0},
	})

	_, err := Load(path, "bad")
	if !errors.Is(err, errors.ErrBadSchema) {
		t.Fatalf("expected ErrBadSchema, got %v", err)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk_plot.parquet")
	testutil.WriteGarbageFile(t, path)

	if _, err := Load(path, "junk"); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.parquet"), "x"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
