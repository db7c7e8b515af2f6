package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Domain errors represent pipeline failures.
// Adapters wrap them with %w so callers can match with errors.Is.
var (
	// ErrNotFound indicates a source file or directory does not exist.
	ErrNotFound = errors.New("not found")

	// ErrParse indicates content is not a readable PDF.
	ErrParse = errors.New("parse error")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a missing credential or invalid setting.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmbeddingService indicates the embedding service call failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrGenerationService indicates the generation service call failed.
	ErrGenerationService = errors.New("generation service error")

	// ErrNoIndex indicates no index has been built or loaded yet.
	ErrNoIndex = errors.New("no index available")

	// ErrEmptyIndex indicates retrieval found no context to answer from.
	// The generator is never called with an empty context.
	ErrEmptyIndex = errors.New("index has no documents")

	// ErrIngestInProgress indicates another ingestion is running.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrReingestSkipped indicates a corpus-triggered re-ingest was not run
	// because the current index was built from uploads only.
	ErrReingestSkipped = errors.New("re-ingest skipped: index excludes the corpus")

	// ErrSessionNotFound indicates an unknown conversation session.
	ErrSessionNotFound = errors.New("session not found")
)

// ServiceError describes a failed call to a remote model service.
// It matches both its service sentinel and its cause under errors.Is.
type ServiceError struct {
	// Service is ErrEmbeddingService or ErrGenerationService.
	Service error

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// RetryAfter is the server-requested delay, if any.
	RetryAfter time.Duration

	// Transient marks failures worth retrying.
	Transient bool

	Err error
}

// Error implements error.
func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Service, e.Err)
}

// Unwrap exposes the service sentinel and the cause.
func (e *ServiceError) Unwrap() []error {
	return []error{e.Service, e.Err}
}

// NewServiceError builds a ServiceError, classifying the status code.
// A zero status means the request never got a response and is treated as transient.
func NewServiceError(service error, status int, err error) *ServiceError {
	return &ServiceError{
		Service:    service,
		StatusCode: status,
		Transient:  IsTransientStatus(status),
		Err:        err,
	}
}

// IsTransientStatus reports whether an HTTP status is worth retrying.
func IsTransientStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusRequestTimeout,
		status == http.StatusTooEarly,
		status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

// IsTransient reports whether err is a retryable remote failure.
func IsTransient(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Transient
	}
	return false
}
