package errors

import (
	"errors"
	"fmt"
)

// FsearchError is what every failing query, config load or backend run
// returns. The CLI prints it with FormatForCLI and the MCP server maps its
// category to a JSON-RPC error code.
type FsearchError struct {
	// Code identifies the failure, e.g. ERR_201_SOURCE_NOT_FOUND.
	Code string

	// Message says what went wrong, in a form fit for the terminal.
	Message string

	Category Category
	Severity Severity

	// Details names the path, pattern or command involved.
	Details map[string]string

	Cause error

	// Retryable marks failures a second attempt may get past, such as a
	// temporary file that could not be removed yet.
	Retryable bool

	// Suggestion tells the user how to fix the query or setup.
	Suggestion string
}

// Error renders "[code] message".
func (e *FsearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FsearchError) Unwrap() error {
	return e.Cause
}

// Is matches any FsearchError with the same code, so Sentinel values work
// as errors.Is targets.
func (e *FsearchError) Is(target error) bool {
	if t, ok := target.(*FsearchError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail records one piece of context and returns e.
func (e *FsearchError) WithDetail(key, value string) *FsearchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the fix shown under the message and returns e.
func (e *FsearchError) WithSuggestion(suggestion string) *FsearchError {
	e.Suggestion = suggestion
	return e
}

// New builds an error for code. The code's hundreds digit decides the
// category, and the code table decides severity and retryability.
func New(code string, message string, cause error) *FsearchError {
	return &FsearchError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap tags err with code, reusing its text as the message. A nil err
// stays nil.
func Wrap(code string, err error) *FsearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinel returns a bare error carrying only a code, for use as an
// errors.Is target.
func Sentinel(code string) error {
	return &FsearchError{Code: code}
}

// SourceNotFound reports a query source that neither exists on disk nor
// was supplied as a buffer.
func SourceNotFound(path string) *FsearchError {
	msg := fmt.Sprintf("query source %q does not exist", path)
	if path == "" {
		msg = "query source does not exist: no file path or buffer given"
	}
	return New(ErrCodeSourceNotFound, msg, nil).
		WithDetail("path", path).
		WithSuggestion("pass an existing file or directory, or search a buffer instead")
}

// InvalidPattern reports a regular expression that failed to compile.
func InvalidPattern(pattern string, cause error) *FsearchError {
	return New(ErrCodeInvalidPattern, fmt.Sprintf("invalid pattern %q", pattern), cause).
		WithDetail("pattern", pattern)
}

// ValidationError reports bad command-line or tool input.
func ValidationError(message string, cause error) *FsearchError {
	return New(ErrCodeInvalidInput, message, cause)
}

// ConfigError reports an unreadable or invalid configuration file.
func ConfigError(message string, cause error) *FsearchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// InternalError reports a bug or an unexpected runtime failure.
func InternalError(message string, cause error) *FsearchError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable reports whether err carries a retryable code.
func IsRetryable(err error) bool {
	var fe *FsearchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}
	return false
}

// IsFatal reports whether err must end the whole run rather than one file.
func IsFatal(err error) bool {
	var fe *FsearchError
	if errors.As(err, &fe) {
		return fe.Severity == SeverityFatal
	}
	return false
}

// GetCode returns the code of the first FsearchError in err's chain, or "".
func GetCode(err error) string {
	var fe *FsearchError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// GetCategory is GetCode for the category.
func GetCategory(err error) Category {
	var fe *FsearchError
	if errors.As(err, &fe) {
		return fe.Category
	}
	return ""
}
