package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
)

func TestNewSuccessResponse_EncodesResult(t *testing.T) {
	resp := NewSuccessResponse("req-1", PingResult{Pong: true})

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, "req-1", resp.ID)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `{"pong":true}`, string(resp.Result))
}

func TestNewSuccessResponse_UnencodableResult(t *testing.T) {
	resp := NewSuccessResponse("req-1", make(chan int))

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternalError, resp.Error.Code)
}

func TestNewFailureResponse_KeepsSeekrCode(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		rpcCode int
		code    string
	}{
		{"bad parameters", serrors.BadParameters("page must be >= 0"), ErrCodeInvalidParams, serrors.ErrCodeBadParameters},
		{"not found", serrors.NotFound("result 9"), ErrCodeRequestFailed, serrors.ErrCodeNotFound},
		{"wrapped", fmt.Errorf("search: %w", serrors.ErrNoEngineEnabled), ErrCodeRequestFailed, serrors.ErrCodeNoEngineEnabled},
		{"plain", errors.New("boom"), ErrCodeInternalError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewFailureResponse("id", tt.err)

			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.rpcCode, resp.Error.Code)
			if tt.code == "" {
				assert.Nil(t, resp.Error.Data)
				return
			}
			require.NotNil(t, resp.Error.Data)
			assert.Equal(t, tt.code, resp.Error.Data.Code)
		})
	}
}

func TestError_ErrRoundTrip(t *testing.T) {
	// Given: a node error sent over the wire
	orig := serrors.New(serrors.ErrCodeResourceExhausted, "too many personalization tasks running", nil).
		WithSuggestion("retry later")
	data, err := json.Marshal(NewFailureResponse("id", orig))
	require.NoError(t, err)

	// When: the client decodes it
	var resp Response
	require.NoError(t, json.Unmarshal(data, &resp))
	got := resp.Error.Err()

	// Then: the kind survives
	assert.True(t, errors.Is(got, serrors.ErrResourceExhausted))
	var se *serrors.SeekrError
	require.True(t, errors.As(got, &se))
	assert.Equal(t, "retry later", se.Suggestion)
	assert.Equal(t, "too many personalization tasks running", se.Message)
}

func TestError_ErrQueryEmptyIsBadParameters(t *testing.T) {
	e := &Error{Code: ErrCodeInvalidParams, Message: "query is empty", Data: &ErrorData{Code: serrors.ErrCodeQueryEmpty}}

	assert.True(t, errors.Is(e.Err(), serrors.ErrBadParameters))
}

func TestError_ErrWithoutData(t *testing.T) {
	e := &Error{Code: ErrCodeMethodNotFound, Message: "method not found: nope"}

	assert.EqualError(t, e.Err(), "rpc error -32601: method not found: nope")
}
