package daemon

import (
	"encoding/json"
	"errors"
	"fmt"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/websearch"
)

// JSON-RPC 2.0 method names.
const (
	MethodSearch  = "search"
	MethodFetch   = "fetch"
	MethodClick   = "click"
	MethodStatus  = "status"
	MethodEngines = "engines"
	MethodPing    = "ping"
)

// Standard JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrCodeRequestFailed marks a request the node rejected; the seekr error
// code travels in Error.Data.
const ErrCodeRequestFailed = -32002

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      string          `json:"id"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// Error represents a JSON-RPC 2.0 error.
type Error struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData carries a seekr error across the socket.
type ErrorData struct {
	Code       string `json:"code"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Err converts e back into a Go error, preserving the seekr error code so
// callers can still match it with errors.Is.
func (e *Error) Err() error {
	if e.Data != nil && e.Data.Code != "" {
		var cause error
		if e.Data.Code == serrors.ErrCodeQueryEmpty {
			cause = serrors.ErrBadParameters
		}
		se := serrors.New(e.Data.Code, e.Message, cause)
		if e.Data.Suggestion != "" {
			se = se.WithSuggestion(e.Data.Suggestion)
		}
		return se
	}
	return fmt.Errorf("rpc error %d: %s", e.Code, e.Message)
}

// NewSuccessResponse creates a successful response.
func NewSuccessResponse(id string, result any) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return NewErrorResponse(id, ErrCodeInternalError, "failed to encode result")
	}
	return Response{JSONRPC: "2.0", Result: data, ID: id}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id string, code int, message string) Response {
	return Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message},
		ID:      id,
	}
}

// NewFailureResponse reports err, keeping its seekr code when it has one.
func NewFailureResponse(id string, err error) Response {
	code := serrors.GetCode(err)
	if code == "" {
		return NewErrorResponse(id, ErrCodeInternalError, err.Error())
	}
	resp := NewErrorResponse(id, ErrCodeRequestFailed, err.Error())
	if code == serrors.ErrCodeBadParameters || code == serrors.ErrCodeQueryEmpty {
		resp.Error.Code = ErrCodeInvalidParams
	}
	resp.Error.Data = &ErrorData{Code: code}
	var se *serrors.SeekrError
	if errors.As(err, &se) {
		resp.Error.Message = se.Message
		resp.Error.Data.Suggestion = se.Suggestion
	}
	return resp
}

// The parameter types are the service's own request types.
type (
	SearchParams = websearch.SearchRequest
	FetchParams  = websearch.FetchRequest
	ClickParams  = websearch.ClickRequest
)

// StatusResult contains daemon status information.
type StatusResult struct {
	Running bool             `json:"running"`
	PID     int              `json:"pid"`
	Uptime  string           `json:"uptime"`
	Socket  string           `json:"socket"`
	Node    websearch.Status `json:"node"`
}

// ClickResult acknowledges a recorded click.
type ClickResult struct {
	Recorded bool `json:"recorded"`
}

// PingResult is the response to a ping request.
type PingResult struct {
	Pong bool `json:"pong"`
}
