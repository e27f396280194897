// Package stats computes per-entity summary statistics over filtered
// metric rows, with DDSketch-backed percentiles.
package stats

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/xtxerr/metricsd/internal/dataset"
)

// Aggregate maintains running statistics for one entity's values.
// Percentiles use DDSketch with the configured relative accuracy.
type Aggregate struct {
	mu sync.Mutex

	entity string

	count     int64
	sum       float64
	min       float64
	max       float64
	firstDate time.Time
	lastDate  time.Time

	// sketch is nil when DDSketch construction failed; percentiles are
	// then reported as zero so the summary stays JSON-encodable.
	sketch *ddsketch.DDSketch
}

// NewAggregate creates an empty aggregate for an entity.
func NewAggregate(entity string, accuracy float64) *Aggregate {
	agg := &Aggregate{
		entity: entity,
		min:    math.MaxFloat64,
		max:    -math.MaxFloat64,
	}

	sketch, err := ddsketch.NewDefaultDDSketch(accuracy)
	if err == nil {
		agg.sketch = sketch
	}

	return agg
}

// Add adds one observation to the aggregate.
func (a *Aggregate) Add(value float64, date time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count++
	a.sum += value

	if value < a.min {
		a.min = value
	}
	if value > a.max {
		a.max = value
	}

	if a.firstDate.IsZero() || date.Before(a.firstDate) {
		a.firstDate = date
	}
	if date.After(a.lastDate) {
		a.lastDate = date
	}

	if a.sketch != nil {
		a.sketch.Add(value)
	}
}

// Summary is the serialized snapshot of an entity aggregate.
type Summary struct {
	Entity string  `json:"entity"`
	Count  int64   `json:"count"`
	Sum    float64 `json:"sum"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	From   string  `json:"from"`
	To     string  `json:"to"`
}

// Snapshot returns the current state of the aggregate.
func (a *Aggregate) Snapshot() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Entity: a.entity,
		Count:  a.count,
		Sum:    a.sum,
		Min:    a.min,
		Max:    a.max,
		From:   a.firstDate.Format(dataset.DateLayout),
		To:     a.lastDate.Format(dataset.DateLayout),
	}
	if a.count > 0 {
		s.Avg = a.sum / float64(a.count)
	}

	s.P50 = a.quantile(0.5)
	s.P90 = a.quantile(0.9)
	s.P99 = a.quantile(0.99)

	return s
}

// quantile must be called with the lock held. It returns 0 when no
// percentile data is available; NaN would not survive JSON encoding.
func (a *Aggregate) quantile(q float64) float64 {
	if a.sketch == nil {
		return 0
	}
	v, err := a.sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0
	}
	return v
}

// Summarize groups rows by entity and returns one summary per entity,
// sorted by entity name. Rows are expected to be pre-filtered to a single
// metric.
func Summarize(rows dataset.Table, accuracy float64) []Summary {
	aggs := make(map[string]*Aggregate)
	for _, r := range rows {
		agg, ok := aggs[r.Entity]
		if !ok {
			agg = NewAggregate(r.Entity, accuracy)
			aggs[r.Entity] = agg
		}
		agg.Add(r.Value, r.Date)
	}

	out := make([]Summary, 0, len(aggs))
	for _, agg := range aggs {
		out = append(out, agg.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entity < out[j].Entity })
	return out
}
