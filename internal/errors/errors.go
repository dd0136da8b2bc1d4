package errors

import (
	stderrors "errors"
	"fmt"
)

// SeekrError is the structured error type for seekr.
// It carries enough context for logging, CLI display and front-end status
// mapping.
type SeekrError struct {
	// Code is the unique error code (e.g., "ERR_402_NO_ENGINE_ENABLED").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *SeekrError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SeekrError) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is(err, ErrNotFound) works for any
// SeekrError built with the same code.
func (e *SeekrError) Is(target error) bool {
	if t, ok := target.(*SeekrError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *SeekrError) WithDetail(key, value string) *SeekrError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *SeekrError) WithSuggestion(suggestion string) *SeekrError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SeekrError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *SeekrError {
	return &SeekrError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a SeekrError from an existing error.
func Wrap(code string, err error) *SeekrError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel kinds. Compare with errors.Is; construct request-specific
// instances with New so details never leak between requests.
var (
	ErrBadParameters        = New(ErrCodeBadParameters, "bad parameters", nil)
	ErrNoEngineEnabled      = New(ErrCodeNoEngineEnabled, "no search engine enabled", nil)
	ErrNoUsableEngineOutput = New(ErrCodeNoUsableEngineOutput, "no usable output from any search engine", nil)
	ErrNotFound             = New(ErrCodeNotFound, "not found", nil)
	ErrResourceExhausted    = New(ErrCodeResourceExhausted, "resource exhausted", nil)
	ErrUpstreamDegraded     = New(ErrCodeUpstreamDegraded, "upstream degraded", nil)
)

// BadParameters reports a missing or malformed request argument.
func BadParameters(format string, args ...any) *SeekrError {
	return New(ErrCodeBadParameters, fmt.Sprintf(format, args...), nil)
}

// NotFound reports a lookup miss.
func NotFound(format string, args ...any) *SeekrError {
	return New(ErrCodeNotFound, fmt.Sprintf(format, args...), nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *SeekrError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// StorageError creates a storage-related error.
func StorageError(message string, cause error) *SeekrError {
	return New(ErrCodeStorageQuery, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *SeekrError {
	return New(ErrCodeInternal, message, cause)
}

// as unwraps err to the outermost SeekrError in its chain.
func as(err error) (*SeekrError, bool) {
	var se *SeekrError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if se, ok := as(err); ok {
		return se.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if se, ok := as(err); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code. Returns empty string if err carries no
// SeekrError.
func GetCode(err error) string {
	if se, ok := as(err); ok {
		return se.Code
	}
	return ""
}

// GetCategory extracts the category. Returns empty string if err carries no
// SeekrError.
func GetCategory(err error) Category {
	if se, ok := as(err); ok {
		return se.Category
	}
	return ""
}
