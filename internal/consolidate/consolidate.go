// Package consolidate builds the unified table by loading every cataloged
// metric concurrently and concatenating the normalized rows.
//
// Row order in the unified table follows load completion order, not
// catalog order, and is therefore not stable across runs. Nothing
// downstream depends on row order; the query filter is order-independent.
package consolidate

import (
	"context"
	"sync"

	"github.com/xtxerr/metricsd/internal/dataset"
	"github.com/xtxerr/metricsd/internal/errors"
	"github.com/xtxerr/metricsd/internal/logging"
	"github.com/xtxerr/metricsd/internal/source"
	"golang.org/x/sync/errgroup"
)

var log = logging.Component("consolidate")

// LoadFailure records one metric whose backing file could not be loaded.
type LoadFailure struct {
	Metric string
	Err    error
}

// Result carries the rows that did load together with the per-metric
// failures. A failed metric is reported here, never silently dropped:
// callers can tell "metric has no rows in range" apart from "metric
// failed to load".
type Result struct {
	Table    dataset.Table
	Failures []LoadFailure
}

// Failed reports whether the named metric is among the failures.
func (r *Result) Failed(metric string) bool {
	for _, f := range r.Failures {
		if f.Metric == metric {
			return true
		}
	}
	return false
}

// Consolidate loads all metrics in the mapping concurrently, one task per
// metric. workers bounds the concurrent loads; 0 means unbounded (one
// goroutine per metric, acceptable because the metric count is bounded by
// the catalog, not by user input).
//
// A single metric's failure does not cancel sibling loads; it is appended
// to Result.Failures when its task completes.
func Consolidate(ctx context.Context, mapping map[string]string, workers int) *Result {
	var (
		mu  sync.Mutex
		res = &Result{}
	)

	g := &errgroup.Group{}
	if workers > 0 {
		g.SetLimit(workers)
	}

	for name, path := range mapping {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				res.Failures = append(res.Failures, LoadFailure{Metric: name, Err: err})
				mu.Unlock()
				return nil
			}

			rows, err := source.Load(path, name)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Error("load failed", "metric", name, "path", path, "error", err)
				res.Failures = append(res.Failures, LoadFailure{
					Metric: name,
					Err:    errors.NewSourceLoad(name, err),
				})
				return nil
			}
			res.Table = append(res.Table, rows...)
			return nil
		})
	}

	g.Wait()
	return res
}
