// Package testutil provides shared test fixtures, primarily parquet
// metric files with the schema variations the loader must handle.
package testutil

import (
	"os"
	"testing"

	"github.com/parquet-go/parquet-go"
)

// MetricRow is one observation in a fixture file.
type MetricRow struct {
	Entity string
	Date   string
	Value  float64
}

// MetricSchema builds a flat metric file schema with a string date-like
// column and a double value column, both freely named.
func MetricSchema(dateCol, valueCol string) *parquet.Schema {
	return parquet.NewSchema("metric", parquet.Group{
		"entity": parquet.String(),
		dateCol:  parquet.String(),
		valueCol: parquet.Leaf(parquet.DoubleType),
	})
}

// WriteMetricFile writes a fixture metric file at path with the given
// date-like column name (date, month or week) and value column name.
func WriteMetricFile(t *testing.T, path, dateCol, valueCol string, rows []MetricRow) {
	t.Helper()

	maps := make([]map[string]any, len(rows))
	for i, r := range rows {
		maps[i] = map[string]any{
			"entity": r.Entity,
			dateCol:  r.Date,
			valueCol: r.Value,
		}
	}
	WriteRawParquet(t, path, MetricSchema(dateCol, valueCol), maps)
}

// WriteTimestampMetricFile writes a fixture whose date column is an int64
// millisecond timestamp, the common writer default for datetime columns.
func WriteTimestampMetricFile(t *testing.T, path, valueCol string, rows []map[string]any) {
	t.Helper()

	schema := parquet.NewSchema("metric", parquet.Group{
		"entity": parquet.String(),
		"date":   parquet.Timestamp(parquet.Millisecond),
		valueCol: parquet.Leaf(parquet.DoubleType),
	})
	WriteRawParquet(t, path, schema, rows)
}

// WriteRawParquet writes arbitrary rows with an explicit schema. Tests use
// it directly to produce malformed files (missing entity, ambiguous value
// columns).
func WriteRawParquet(t *testing.T, path string, schema *parquet.Schema, rows []map[string]any) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := parquet.NewGenericWriter[map[string]any](f, schema)
	if _, err := w.Write(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
}

// WriteGarbageFile writes a file that is not parquet at all.
func WriteGarbageFile(t *testing.T, path string) {
	t.Helper()

	if err := os.WriteFile(path, []byte("not a parquet file"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
