// Package api provides the HTTP surface of metricsd. It is a thin
// transport: every endpoint delegates to the catalog/consolidate/query
// pipeline and shapes the result as JSON.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xtxerr/metricsd/internal/errors"
	"github.com/xtxerr/metricsd/internal/loader"
	"github.com/xtxerr/metricsd/internal/logging"
	"github.com/xtxerr/metricsd/internal/refresh"
)

var log = logging.Component("api")

// Server is the HTTP API server.
type Server struct {
	cfg       *loader.Config
	refresher *refresh.Refresher
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates the API server. refresher may be nil when no object
// store is configured; /refresh-metrics then reports a refresh failure.
func NewServer(cfg *loader.Config, refresher *refresh.Refresher) *Server {
	s := &Server{
		cfg:       cfg,
		refresher: refresher,
		router:    chi.NewRouter(),
	}

	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(cfg.RequestTimeout()))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/metrics", s.handleListMetrics)
	s.router.Get("/metrics/{metric}", s.handleMetricData)
	s.router.Get("/metrics/{metric}/summary", s.handleMetricSummary)
	s.router.Post("/refresh-metrics", s.handleRefresh)

	return s
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving on the configured listen address. It blocks until
// the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("http server listening", "addr", s.cfg.Server.Listen)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// requestLogger logs one line per request through the component logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// errorBody is the error envelope returned for every failed request.
type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encode response", "error", err)
	}
}

// respondError maps err to its HTTP status and writes the error envelope.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	s.respondJSON(w, errors.HTTPStatus(err), errorBody{
		Status:  "error",
		Message: errors.ClientMessage(err),
	})
}
