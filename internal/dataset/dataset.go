// Package dataset defines the normalized row shape shared by the
// consolidation pipeline and the query filter.
//
// Every metric file, whatever its on-disk columns, normalizes to rows of
// {entity, metric, date, value}. The unified table is a plain slice of
// such rows; row order carries no meaning.
package dataset

import "time"

// DateLayout is the wire format for dates, both in query parameters and
// in serialized records.
const DateLayout = "2006-01-02"

// Row is one normalized observation: the value of a metric for an entity
// on a date. Date is truncated to UTC midnight.
type Row struct {
	Entity string
	Metric string
	Date   time.Time
	Value  float64
}

// Table is the unified, normalized view across metrics. It is rebuilt from
// disk for every query and never shared mutably between requests.
type Table []Row

// Entities returns the set of distinct entity names in the table.
func (t Table) Entities() map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range t {
		set[r.Entity] = struct{}{}
	}
	return set
}

// Metrics returns the set of distinct metric names in the table.
func (t Table) Metrics() map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range t {
		set[r.Metric] = struct{}{}
	}
	return set
}

// Clone returns a copy of the table. Filters operate on copies so the
// source table is never mutated.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// Date builds a UTC midnight time from a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
