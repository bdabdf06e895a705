// Package errors provides standardized error handling for the assessment API.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Request/input errors, rejected before any pipeline work.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// Pipeline errors.
	ErrCodeIngestion        ErrorCode = "INGESTION_ERROR"
	ErrCodeNoValidDocuments ErrorCode = "NO_VALID_DOCUMENTS"
	ErrCodePipeline         ErrorCode = "PIPELINE_ERROR"
	ErrCodePipelineTimeout  ErrorCode = "PIPELINE_TIMEOUT"

	// Resource errors.
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeStateConflict ErrorCode = "STATE_CONFLICT"

	// Infrastructure errors.
	ErrCodeDatabaseFailed ErrorCode = "DATABASE_ERROR"
	ErrCodeRulebookLoad   ErrorCode = "RULEBOOK_LOAD_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error. Detail carries the
// human-readable message surfaced verbatim to API clients.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Request validation failed",
		Detail:    detail,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIngestionError creates an error for a file that could not be parsed.
func NewIngestionError(filename string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIngestion,
		Message:   "Document ingestion failed",
		Detail:    fmt.Sprintf("file %q: %s", filename, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoValidDocumentsError creates the terminal error for a batch where no
// file yielded text.
func NewNoValidDocumentsError(detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoValidDocuments,
		Message:   "No valid documents were processed",
		Detail:    detail,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelineError creates an internal pipeline failure error.
func NewPipelineError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePipeline,
		Message:   fmt.Sprintf("Assessment pipeline failed during %s", stage),
		Detail:    err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPipelineTimeoutError creates the error for a pipeline run exceeding its
// deadline.
func NewPipelineTimeoutError(detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodePipelineTimeout,
		Message:   "Assessment pipeline timed out",
		Detail:    detail,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable not-found error.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Detail:    fmt.Sprintf("%s %q does not exist", resource, id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStateConflictError creates an error for an illegal lifecycle transition.
func NewStateConflictError(detail string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateConflict,
		Message:   "Assessment is not in a state that allows this operation",
		Detail:    detail,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseError creates a retryable database error.
func NewDatabaseError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseFailed,
		Message:   "Database operation failed",
		Detail:    fmt.Sprintf("%s: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRulebookLoadError creates a fatal startup error for a bad catalog.
func NewRulebookLoadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRulebookLoad,
		Message:   "Rulebook failed to load",
		Detail:    err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Detail:    err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard normalizes any error to a StandardError.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps an error code to the HTTP status returned to clients.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeStateConflict:
		return http.StatusConflict
	case ErrCodeIngestion, ErrCodeNoValidDocuments:
		return http.StatusUnprocessableEntity
	case ErrCodePipelineTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}
