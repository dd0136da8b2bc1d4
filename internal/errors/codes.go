// Package errors provides the structured error kinds used across seekr.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (capture database, pid files)
//   - 3XX: Upstream errors (search backends, personalization peers)
//   - 4XX: Request errors (parameters, engine selection, lookups)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	CategoryConfig   Category = "CONFIG"
	CategoryStorage  Category = "STORAGE"
	CategoryUpstream Category = "UPSTREAM"
	CategoryRequest  Category = "REQUEST"
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal aborts the whole request.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails the operation but the node keeps serving.
	SeverityError Severity = "ERROR"
	// SeverityWarning means degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	ErrCodeStorageOpen   = "ERR_201_STORAGE_OPEN"
	ErrCodeStorageQuery  = "ERR_202_STORAGE_QUERY"
	ErrCodeStorageLocked = "ERR_203_STORAGE_LOCKED"

	ErrCodeNoUsableEngineOutput = "ERR_301_NO_USABLE_ENGINE_OUTPUT"
	ErrCodeUpstreamDegraded     = "ERR_302_UPSTREAM_DEGRADED"
	ErrCodeBackendUnavailable   = "ERR_303_BACKEND_UNAVAILABLE"
	ErrCodeBackendTimeout       = "ERR_304_BACKEND_TIMEOUT"

	ErrCodeBadParameters   = "ERR_401_BAD_PARAMETERS"
	ErrCodeNoEngineEnabled = "ERR_402_NO_ENGINE_ENABLED"
	ErrCodeQueryEmpty      = "ERR_403_QUERY_EMPTY"
	ErrCodeNotFound        = "ERR_404_NOT_FOUND"

	ErrCodeInternal          = "ERR_501_INTERNAL"
	ErrCodeParseFailed       = "ERR_502_PARSE_FAILED"
	ErrCodeResourceExhausted = "ERR_503_RESOURCE_EXHAUSTED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryUpstream
	case '4':
		return CategoryRequest
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeResourceExhausted:
		return SeverityFatal
	case ErrCodeUpstreamDegraded:
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether a failed call with this code may succeed
// when repeated.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeBackendTimeout, ErrCodeBackendUnavailable, ErrCodeStorageLocked:
		return true
	default:
		return false
	}
}
