// Package errors provides structured error handling for fsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (sources, temporary files)
//   - 4XX: Validation errors (patterns, globs)
//   - 5XX: Backend errors (engine, external utility)
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and temporary-resource errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryBackend indicates failures of the engine or the search utility.
	CategoryBackend Category = "BACKEND"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// IO errors (200-299)
	ErrCodeSourceNotFound = "ERR_201_SOURCE_NOT_FOUND"
	ErrCodeSourceRead     = "ERR_202_SOURCE_READ"
	ErrCodeTempWrite      = "ERR_204_TEMP_WRITE"
	ErrCodeTempRemove     = "ERR_205_TEMP_REMOVE"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidPattern = "ERR_402_INVALID_PATTERN"
	ErrCodeInvalidGlob    = "ERR_403_INVALID_GLOB"

	// Backend errors (500-599)
	ErrCodeBackendSpawn  = "ERR_501_BACKEND_SPAWN"
	ErrCodeBackendFailed = "ERR_502_BACKEND_FAILED"
	ErrCodeEngineFailed  = "ERR_503_ENGINE_FAILED"
	ErrCodeInternal      = "ERR_599_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryBackend
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_SOURCE_NOT_FOUND")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryBackend
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeBackendSpawn:
		// The utility is missing; every later call will fail the same way.
		return SeverityFatal
	case ErrCodeTempRemove:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeTempRemove, ErrCodeSourceRead:
		return true
	default:
		return false
	}
}
