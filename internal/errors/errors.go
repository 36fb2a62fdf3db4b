package errors

import (
	"errors"
	"fmt"
	"time"
)

// Base error types
var (
	ErrPhotoUnavailable = errors.New("photo unavailable")
	ErrInvalidInput     = errors.New("invalid input")
	ErrRenderFailed     = errors.New("render failed")
	ErrEmitFailed       = errors.New("emit failed")
)

// ErrorType represents the category of error
type ErrorType string

const (
	TypeFetch      ErrorType = "fetch"      // photo network retrieval
	TypeDecode     ErrorType = "decode"     // photo raster decode/encode
	TypeRender     ErrorType = "render"     // drawing surface failure
	TypeEmit       ErrorType = "emit"       // final output stream failure
	TypeValidation ErrorType = "validation" // malformed request payloads
)

// ReportError is a structured error for report generation operations.
// Fetch and decode errors are recoverable (the composer substitutes a
// placeholder for the one photo); render and emit errors are fatal to
// the document.
type ReportError struct {
	Type       ErrorType
	Op         string // Operation that failed (e.g., "fetch_photo", "compose")
	URL        string // Photo URL if applicable
	Err        error  // Underlying error
	StatusCode int    // HTTP status code if applicable
	Timestamp  time.Time
	Retryable  bool
}

func (e *ReportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is interface
func (e *ReportError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrPhotoUnavailable:
		return e.Type == TypeFetch || e.Type == TypeDecode
	case ErrInvalidInput:
		return e.Type == TypeValidation
	case ErrRenderFailed:
		return e.Type == TypeRender
	case ErrEmitFailed:
		return e.Type == TypeEmit
	}

	return errors.Is(e.Err, target)
}

// New creates a new ReportError
func New(errorType ErrorType, op, url string, err error) *ReportError {
	return &ReportError{
		Type:      errorType,
		Op:        op,
		URL:       url,
		Err:       err,
		Timestamp: time.Now(),
		Retryable: errorType == TypeFetch,
	}
}

// WithStatusCode adds HTTP status code to the error
func (e *ReportError) WithStatusCode(code int) *ReportError {
	e.StatusCode = code
	if code >= 500 || code == 429 || code == 408 {
		e.Retryable = true
	} else if code >= 400 && code < 500 {
		e.Retryable = false
	}
	return e
}

// Recoverable reports whether the failure's blast radius is a single
// photo rather than the whole document.
func Recoverable(err error) bool {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Type == TypeFetch || re.Type == TypeDecode
	}
	return false
}

// IsRetryableError checks if an error should be retried
func IsRetryableError(err error) bool {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}
