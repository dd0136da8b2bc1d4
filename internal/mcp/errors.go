// Package mcp exposes a seekr node to AI clients over the Model Context
// Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
)

// MCP error codes for node failures.
const (
	// ErrCodeUpstreamFailed means no backend produced usable output.
	ErrCodeUpstreamFailed = -32001

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// ErrCodeResultNotFound means the query has no result with that id.
	ErrCodeResultNotFound = -32004

	// ErrCodeBusy means the node refused work it has no capacity for.
	ErrCodeBusy = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts node errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var se *serrors.SeekrError
	if errors.As(err, &se) {
		return mapSeekrError(se)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
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

func mapSeekrError(se *serrors.SeekrError) *MCPError {
	message := se.Message
	if se.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", se.Message, se.Suggestion)
	}

	switch se.Code {
	case serrors.ErrCodeBadParameters, serrors.ErrCodeQueryEmpty, serrors.ErrCodeNoEngineEnabled:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case serrors.ErrCodeNotFound:
		return &MCPError{Code: ErrCodeResultNotFound, Message: message}
	case serrors.ErrCodeNoUsableEngineOutput, serrors.ErrCodeUpstreamDegraded,
		serrors.ErrCodeBackendUnavailable:
		return &MCPError{Code: ErrCodeUpstreamFailed, Message: message}
	case serrors.ErrCodeBackendTimeout:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	case serrors.ErrCodeResourceExhausted:
		return &MCPError{Code: ErrCodeBusy, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
