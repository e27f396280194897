// Package query validates and applies entity/metric/date-range predicates
// against the unified table and shapes the result for serialization.
package query

import (
	"fmt"
	"time"

	"github.com/xtxerr/metricsd/internal/dataset"
	"github.com/xtxerr/metricsd/internal/errors"
)

// Params selects rows from the unified table. Entities and Metrics are
// required; a single-element slice stands in for a scalar selection.
// StartDate and EndDate are raw ISO strings, empty when absent.
type Params struct {
	Entities  []string
	Metrics   []string
	StartDate string
	EndDate   string
}

// Record is one serialized result row. Field order is part of the
// contract: entity, metric, date, value.
type Record struct {
	Entity string  `json:"entity"`
	Metric string  `json:"metric"`
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
}

// Required-parameter errors carry both the missing-parameter kind and the
// entity/metric kind so the client message matches the parameter.
var (
	errMissingEntities = fmt.Errorf("entity parameter required: %w",
		errors.Join(errors.ErrMissingParameter, errors.ErrUnknownEntity))
	errMissingMetric = fmt.Errorf("metric parameter required: %w",
		errors.Join(errors.ErrMissingParameter, errors.ErrUnknownMetric))
)

// Run validates params against the table and returns the matching rows,
// serialized. See Filter for the validation rules.
func Run(table dataset.Table, p Params) ([]Record, error) {
	rows, err := Filter(table, p)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Entity: row.Entity,
			Metric: row.Metric,
			Date:   row.Date.Format(dataset.DateLayout),
			Value:  row.Value,
		})
	}
	return records, nil
}

// Filter validates params against the table and returns the matching rows.
// Validation short-circuits on the first failing check, in this order:
// entities present, metrics present, every entity known, every metric
// known, dates parseable. The table is only read, never mutated; the
// returned rows are a fresh slice.
func Filter(table dataset.Table, p Params) (dataset.Table, error) {
	if len(p.Entities) == 0 {
		return nil, errMissingEntities
	}
	if len(p.Metrics) == 0 {
		return nil, errMissingMetric
	}

	known := table.Entities()
	for _, ent := range p.Entities {
		if _, ok := known[ent]; !ok {
			return nil, fmt.Errorf("entity %q: %w", ent, errors.ErrUnknownEntity)
		}
	}

	knownMetrics := table.Metrics()
	for _, met := range p.Metrics {
		if _, ok := knownMetrics[met]; !ok {
			return nil, fmt.Errorf("metric %q: %w", met, errors.ErrUnknownMetric)
		}
	}

	bounds, err := parseRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}

	entities := toSet(p.Entities)
	metrics := toSet(p.Metrics)

	out := make(dataset.Table, 0)
	for _, row := range table {
		if _, ok := entities[row.Entity]; !ok {
			continue
		}
		if _, ok := metrics[row.Metric]; !ok {
			continue
		}
		if bounds.hasStart && row.Date.Before(bounds.start) {
			continue
		}
		if bounds.hasEnd && row.Date.After(bounds.end) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// dateBounds carries the parsed range with explicit presence flags, so a
// literal zero date still acts as a bound.
type dateBounds struct {
	start, end       time.Time
	hasStart, hasEnd bool
}

// parseRange parses the optional bounds. Both bounds are inclusive.
func parseRange(startDate, endDate string) (dateBounds, error) {
	var b dateBounds
	var err error

	if startDate != "" {
		b.start, err = time.Parse(dataset.DateLayout, startDate)
		if err != nil {
			return b, fmt.Errorf("start_date %q: %w", startDate, errors.ErrInvalidDateFormat)
		}
		b.hasStart = true
	}
	if endDate != "" {
		b.end, err = time.Parse(dataset.DateLayout, endDate)
		if err != nil {
			return b, fmt.Errorf("end_date %q: %w", endDate, errors.ErrInvalidDateFormat)
		}
		b.hasEnd = true
	}
	return b, nil
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}
