// Package errors consolidates error definitions for the metricsd project.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Error category checking functions
// - HTTP status mapping
// - Client-facing message mapping
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// Request validation errors
	ErrMissingParameter  = errors.New("missing required parameter")
	ErrUnknownEntity     = errors.New("unknown entity")
	ErrUnknownMetric     = errors.New("unknown metric")
	ErrInvalidDateFormat = errors.New("invalid date format")

	// Source errors
	ErrSourceLoad    = errors.New("source load failure")
	ErrBadSchema     = errors.New("unsupported source schema")
	ErrNoCatalogName = errors.New("file name has no metric prefix")

	// Refresh errors
	ErrRefresh = errors.New("refresh failure")

	// Internal errors
	ErrInternal = errors.New("internal error")
)

// ============================================================================
// Client-facing messages
// ============================================================================

// Exact messages returned to API clients for validation failures. These are
// part of the external contract and must not be reworded casually.
const (
	MsgUnknownEntity     = "one or more entities provided do not exist."
	MsgUnknownMetric     = "metric provided do not exist."
	MsgInvalidDateFormat = "date must be provided as a string in ISO format (YYYY-MM-DD)."
)

// ClientMessage returns the client-facing message for an error.
// Unrecognized errors fall back to their Error() string.
func ClientMessage(err error) string {
	switch {
	case Is(err, ErrUnknownEntity):
		return MsgUnknownEntity
	case Is(err, ErrUnknownMetric):
		return MsgUnknownMetric
	case Is(err, ErrInvalidDateFormat):
		return MsgInvalidDateFormat
	default:
		return err.Error()
	}
}

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// Join is a convenience wrapper for errors.Join
var Join = errors.Join

// IsValidation returns true if err is a request validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingParameter) ||
		errors.Is(err, ErrUnknownEntity) ||
		errors.Is(err, ErrUnknownMetric) ||
		errors.Is(err, ErrInvalidDateFormat)
}

// IsSource returns true if err is a backing-file error.
func IsSource(err error) bool {
	return errors.Is(err, ErrSourceLoad) ||
		errors.Is(err, ErrBadSchema) ||
		errors.Is(err, ErrNoCatalogName)
}

// ============================================================================
// HTTP status mapping
// ============================================================================

// HTTPStatus maps an error to the HTTP status code the API returns for it.
// Validation errors are client errors; source and refresh failures are
// upstream errors.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsSource(err), Is(err, ErrRefresh):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewMissingParameter creates a missing parameter error.
func NewMissingParameter(param string) error {
	return fmt.Errorf("%s: %w", param, ErrMissingParameter)
}

// NewSourceLoad creates a load error for a specific metric.
func NewSourceLoad(metric string, cause error) error {
	return fmt.Errorf("metric %q: %v: %w", metric, cause, ErrSourceLoad)
}

// NewBadSchema creates a schema error for a specific file.
func NewBadSchema(path, reason string) error {
	return fmt.Errorf("%s: %s: %w", path, reason, ErrBadSchema)
}
