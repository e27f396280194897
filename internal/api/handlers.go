package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xtxerr/metricsd/config"
	"github.com/xtxerr/metricsd/internal/catalog"
	"github.com/xtxerr/metricsd/internal/consolidate"
	"github.com/xtxerr/metricsd/internal/errors"
	"github.com/xtxerr/metricsd/internal/query"
	"github.com/xtxerr/metricsd/internal/stats"
)

// metricName is one entry in the /metrics listing.
type metricName struct {
	Name string `json:"name"`
}

// loadWarning surfaces one metric's load failure alongside partial data.
type loadWarning struct {
	Metric string `json:"metric"`
	Error  string `json:"error"`
}

// dataResponse is the success envelope for /metrics/{metric}. Warnings
// carry per-metric load failures so a partial result is never mistaken
// for a complete one.
type dataResponse struct {
	Data     []query.Record `json:"data"`
	Warnings []loadWarning  `json:"warnings,omitempty"`
}

// summaryResponse is the success envelope for /metrics/{metric}/summary.
type summaryResponse struct {
	Metric   string          `json:"metric"`
	Summary  []stats.Summary `json:"summary"`
	Warnings []loadWarning   `json:"warnings,omitempty"`
}

// handleIndex describes the available endpoints.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "metricsd",
		"endpoints": []map[string]string{
			{"method": "GET", "path": "/metrics", "description": "list all available metrics"},
			{"method": "GET", "path": "/metrics/{metric}", "description": "metric data; query params: entity (required, comma-separated), start_date, end_date (optional, YYYY-MM-DD)"},
			{"method": "GET", "path": "/metrics/{metric}/summary", "description": "per-entity summary statistics for a metric"},
			{"method": "POST", "path": "/refresh-metrics", "description": "repopulate data files from the object store"},
			{"method": "GET", "path": "/health", "description": "service health"},
		},
	})
}

// handleListMetrics returns the names of all cataloged metrics.
func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	mapping, err := s.scanCatalog()
	if err != nil {
		s.respondError(w, err)
		return
	}

	names := make([]metricName, 0, len(mapping))
	for _, name := range catalog.Names(mapping) {
		names = append(names, metricName{Name: name})
	}
	s.respondJSON(w, http.StatusOK, map[string][]metricName{"metrics": names})
}

// handleMetricData answers an entity/metric/date-range query against a
// freshly consolidated table.
func (s *Server) handleMetricData(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")

	mapping, err := s.scanCatalog()
	if err != nil {
		s.respondError(w, err)
		return
	}

	res := consolidate.Consolidate(r.Context(), mapping, s.cfg.Data.LoadWorkers)

	// A metric that is cataloged but failed to load is a source failure,
	// not an unknown metric.
	if _, cataloged := mapping[metric]; cataloged && res.Failed(metric) {
		s.respondError(w, errors.NewSourceLoad(metric, fmt.Errorf("backing file unreadable")))
		return
	}

	records, err := query.Run(res.Table, query.Params{
		Entities:  splitParam(r.URL.Query().Get("entity")),
		Metrics:   []string{metric},
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, dataResponse{
		Data:     records,
		Warnings: warnings(res),
	})
}

// handleMetricSummary returns per-entity aggregates for one metric.
func (s *Server) handleMetricSummary(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")

	mapping, err := s.scanCatalog()
	if err != nil {
		s.respondError(w, err)
		return
	}

	res := consolidate.Consolidate(r.Context(), mapping, s.cfg.Data.LoadWorkers)

	if _, cataloged := mapping[metric]; cataloged && res.Failed(metric) {
		s.respondError(w, errors.NewSourceLoad(metric, fmt.Errorf("backing file unreadable")))
		return
	}

	// Entities default to every entity in the table when not narrowed.
	entities := splitParam(r.URL.Query().Get("entity"))
	if len(entities) == 0 {
		for ent := range res.Table.Entities() {
			entities = append(entities, ent)
		}
	}

	rows, err := query.Filter(res.Table, query.Params{
		Entities:  entities,
		Metrics:   []string{metric},
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, summaryResponse{
		Metric:   metric,
		Summary:  stats.Summarize(rows, config.DefaultSketchAccuracy),
		Warnings: warnings(res),
	})
}

// handleRefresh wipes the data directory and repopulates it from the
// object store, synchronously.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.respondError(w, fmt.Errorf("no object store configured: %w", errors.ErrRefresh))
		return
	}

	ctx := r.Context()
	if t := s.cfg.RefreshTimeout(); t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	count, err := s.refresher.Refresh(ctx)
	if err != nil {
		log.Error("refresh failed", "error", err)
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Data files refreshed from S3.",
		"files":   count,
	})
}

// scanCatalog rebuilds the metric-name to file-path mapping from disk.
func (s *Server) scanCatalog() (map[string]string, error) {
	paths, err := catalog.Scan(s.cfg.Data.Dir)
	if err != nil {
		return nil, err
	}
	return catalog.BuildMapping(paths)
}

// splitParam splits a comma-separated query parameter. An absent or empty
// parameter yields nil, which the query layer rejects as missing.
func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// warnings converts load failures into response warnings.
func warnings(res *consolidate.Result) []loadWarning {
	if len(res.Failures) == 0 {
		return nil
	}
	out := make([]loadWarning, 0, len(res.Failures))
	for _, f := range res.Failures {
		out = append(out, loadWarning{Metric: f.Metric, Error: f.Err.Error()})
	}
	return out
}
