// Package mcp implements the Model Context Protocol server that exposes
// fsearch queries as tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	fserrors "github.com/Aman-CERP/fsearch/internal/errors"
)

// Custom MCP error codes for fsearch.
const (
	// ErrCodeBackendFailed indicates the engine or grep utility failed.
	ErrCodeBackendFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates a search source does not exist.
	ErrCodeFileNotFound = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrOutsideRoot indicates a path that escapes the server root.
var ErrOutsideRoot = errors.New("path is outside the server root")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	var fsErr *fserrors.FsearchError
	if errors.As(err, &fsErr) {
		return mapFsearchError(fsErr)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrOutsideRoot):
		return &MCPError{Code: ErrCodeInvalidParams, Message: err.Error()}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapFsearchError(fe *fserrors.FsearchError) *MCPError {
	message := fe.Message
	if fe.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", fe.Message, fe.Suggestion)
	}

	switch fe.Category {
	case fserrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case fserrors.CategoryIO:
		if fe.Code == fserrors.ErrCodeSourceNotFound {
			return &MCPError{Code: ErrCodeFileNotFound, Message: message}
		}
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	case fserrors.CategoryBackend:
		return &MCPError{Code: ErrCodeBackendFailed, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
