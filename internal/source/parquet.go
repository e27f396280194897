// Package source loads a single metric's backing parquet file and
// normalizes it into the canonical {entity, metric, date, value} shape.
//
// Backing files do not share a schema. Each must carry an "entity" column,
// exactly one date-like column named "date", "month" or "week", and exactly
// one remaining value column whose name is arbitrary. The date-like column
// is renamed to "date" (no date arithmetic); the value column becomes
// "value"; the metric name is attached as a constant column.
package source

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
	"github.com/xtxerr/metricsd/internal/dataset"
	"github.com/xtxerr/metricsd/internal/errors"
)

// readBatchSize is the number of rows decoded per ReadRows call.
const readBatchSize = 512

// dateLike reports whether a column name is one of the accepted
// date-column spellings.
func dateLike(name string) bool {
	return name == "date" || name == "month" || name == "week"
}

// layout describes where the canonical columns live in a file's schema.
type layout struct {
	entity int
	date   int
	value  int

	// dateType carries the date column's logical type, used to decode
	// int32 dates and int64 timestamps.
	dateType *format.LogicalType
}

// resolveLayout maps a file schema onto the canonical column layout.
// It fails when a required column is missing, when more than one date-like
// column exists, or when the value column is ambiguous or absent.
func resolveLayout(path string, schema *parquet.Schema) (layout, error) {
	fields := schema.Fields()
	l := layout{entity: -1, date: -1, value: -1}

	for i, f := range fields {
		name := f.Name()
		switch {
		case name == "entity":
			l.entity = i
		case dateLike(name):
			if l.date >= 0 {
				return l, errors.NewBadSchema(path, "more than one date-like column")
			}
			l.date = i
			l.dateType = f.Type().LogicalType()
		case name == "metric":
			// A stray metric column is ignored; the loader attaches
			// its own from the catalog name.
		default:
			if l.value >= 0 {
				return l, errors.NewBadSchema(path,
					fmt.Sprintf("ambiguous value column: both %q and %q present",
						fields[l.value].Name(), name))
			}
			l.value = i
		}
	}

	if l.entity < 0 {
		return l, errors.NewBadSchema(path, "missing entity column")
	}
	if l.date < 0 {
		return l, errors.NewBadSchema(path, "missing date, month or week column")
	}
	if l.value < 0 {
		return l, errors.NewBadSchema(path, "no value column")
	}
	return l, nil
}

// Load reads the backing file at path and returns normalized rows with the
// metric column set to metric. Any read or schema error fails this metric
// only; the caller decides how the failure propagates.
func Load(path, metric string) (dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	l, err := resolveLayout(path, pf.Schema())
	if err != nil {
		return nil, err
	}

	table := make(dataset.Table, 0, pf.NumRows())
	buf := make([]parquet.Row, readBatchSize)

	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				r, convErr := convertRow(path, metric, l, row)
				if convErr != nil {
					rows.Close()
					return nil, convErr
				}
				table = append(table, r)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close row reader: %w", err)
		}
	}

	return table, nil
}

// convertRow normalizes one parquet row. Values are addressed by leaf
// column index, which for the flat schemas this service supports matches
// the schema field order.
func convertRow(path, metric string, l layout, row parquet.Row) (dataset.Row, error) {
	var (
		r         = dataset.Row{Metric: metric}
		gotEntity bool
		gotDate   bool
	)

	for _, v := range row {
		col := v.Column()
		if v.IsNull() {
			return r, errors.NewBadSchema(path, fmt.Sprintf("null value in column %d", col))
		}
		switch col {
		case l.entity:
			if v.Kind() != parquet.ByteArray {
				return r, errors.NewBadSchema(path, "entity column is not a string")
			}
			if v.String() == "" {
				return r, errors.NewBadSchema(path, "empty entity value")
			}
			r.Entity = v.String()
			gotEntity = true
		case l.date:
			d, err := convertDate(v, l.dateType)
			if err != nil {
				return r, errors.NewBadSchema(path, err.Error())
			}
			r.Date = d
			gotDate = true
		case l.value:
			val, err := convertValue(v)
			if err != nil {
				return r, errors.NewBadSchema(path, err.Error())
			}
			r.Value = val
		}
	}

	if !gotEntity || !gotDate {
		return r, errors.NewBadSchema(path, "row missing entity or date")
	}
	return r, nil
}

// convertDate decodes the date-like column into a UTC midnight time.
// Supported encodings: string "YYYY-MM-DD" (with or without a trailing
// time component), int32 DATE (days since epoch), and int64 timestamps
// in milli, micro or nanosecond units.
func convertDate(v parquet.Value, lt *format.LogicalType) (time.Time, error) {
	switch v.Kind() {
	case parquet.ByteArray:
		s := v.String()
		if len(s) > len(dataset.DateLayout) {
			s = s[:len(dataset.DateLayout)]
		}
		t, err := time.Parse(dataset.DateLayout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("unparseable date %q", v.String())
		}
		return t, nil

	case parquet.Int32:
		// int32 date columns are days since the Unix epoch.
		return time.Unix(0, 0).UTC().AddDate(0, 0, int(v.Int32())), nil

	case parquet.Int64:
		ns := v.Int64()
		switch {
		case lt != nil && lt.Timestamp != nil && lt.Timestamp.Unit.Millis != nil:
			ns *= int64(time.Millisecond)
		case lt != nil && lt.Timestamp != nil && lt.Timestamp.Unit.Micros != nil:
			ns *= int64(time.Microsecond)
		case lt != nil && lt.Timestamp != nil && lt.Timestamp.Unit.Nanos != nil:
			// already nanoseconds
		default:
			// No logical type annotation; assume milliseconds, the
			// most common writer default.
			ns *= int64(time.Millisecond)
		}
		t := time.Unix(0, ns).UTC()
		return dataset.Date(t.Year(), t.Month(), t.Day()), nil

	default:
		return time.Time{}, fmt.Errorf("unsupported date encoding %s", v.Kind())
	}
}

// convertValue decodes the value column into a float64. Non-numeric value
// columns fail the load rather than guessing a coercion.
func convertValue(v parquet.Value) (float64, error) {
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	default:
		return 0, fmt.Errorf("non-numeric value column (%s)", v.Kind())
	}
}
