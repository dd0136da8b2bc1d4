package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/seekr/internal/websearch"
)

// Client talks to a running daemon.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new daemon client.
func NewClient(cfg Config) *Client {
	return &Client{
		socketPath: cfg.SocketPath,
		timeout:    cfg.Timeout,
	}
}

// Connect establishes a connection to the daemon.
func (c *Client) Connect() (net.Conn, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}
	return conn, nil
}

// IsRunning checks if the daemon is accepting connections.
func (c *Client) IsRunning() bool {
	conn, err := c.Connect()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Ping checks if the daemon is responsive.
func (c *Client) Ping(ctx context.Context) error {
	var out PingResult
	if err := c.call(ctx, MethodPing, nil, &out); err != nil {
		return err
	}
	if !out.Pong {
		return fmt.Errorf("ping failed: unexpected response")
	}
	return nil
}

// Search runs a search on the daemon.
func (c *Client) Search(ctx context.Context, params SearchParams) (*websearch.SearchResponse, error) {
	var out websearch.SearchResponse
	if err := c.call(ctx, MethodSearch, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch returns one result of a query by id.
func (c *Client) Fetch(ctx context.Context, params FetchParams) (*websearch.Hit, error) {
	var out websearch.Hit
	if err := c.call(ctx, MethodFetch, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Click records a followed result.
func (c *Client) Click(ctx context.Context, params ClickParams) error {
	var out ClickResult
	return c.call(ctx, MethodClick, params, &out)
}

// Engines lists the daemon's backends.
func (c *Client) Engines(ctx context.Context) ([]websearch.EngineInfo, error) {
	var out []websearch.EngineInfo
	if err := c.call(ctx, MethodEngines, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status retrieves daemon status.
func (c *Client) Status(ctx context.Context) (*StatusResult, error) {
	var out StatusResult
	if err := c.call(ctx, MethodStatus, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call performs one request on a fresh connection and decodes the result
// into out. Errors reported by the node keep their seekr error code.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	conn, err := c.Connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	req := Request{JSONRPC: "2.0", Method: method, ID: uuid.NewString()}
	if params != nil {
		if req.Params, err = json.Marshal(params); err != nil {
			return fmt.Errorf("failed to encode params: %w", err)
		}
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("failed to receive response: %w", err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	if resp.Error != nil {
		return resp.Error.Err()
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}
