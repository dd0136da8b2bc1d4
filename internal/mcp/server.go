package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/seekr/internal/websearch"
	"github.com/Aman-CERP/seekr/pkg/version"
)

// Node is the search node the server exposes. *websearch.Service
// implements it.
type Node interface {
	HandleSearch(ctx context.Context, req websearch.SearchRequest) (*websearch.SearchResponse, error)
	HandleFetchOne(ctx context.Context, req websearch.FetchRequest) (*websearch.Hit, error)
	RecordClick(ctx context.Context, req websearch.ClickRequest) error
	Status() websearch.Status
	Engines() []websearch.EngineInfo
}

// Server bridges AI clients with a seekr node.
type Server struct {
	mcp    *mcp.Server
	node   Node
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "web_search",
		Description: "Search the web through several engines at once. Results are merged, deduplicated and ranked by how many engines agree. Ask for later pages with page; results keep their ids across pages of the same query.",
	},
	{
		Name:        "fetch_result",
		Description: "Return one result of an earlier web_search by its id, with its full snippet and cache link.",
	},
	{
		Name:        "record_click",
		Description: "Record that a result was useful for a query. Later personalized searches for similar queries rank it higher.",
	},
	{
		Name:        "node_status",
		Description: "Report the node's engines, their circuit state, live query contexts and whether personalization is available.",
	},
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server for node.
func NewServer(node Node, opts ...ServerOption) (*Server, error) {
	if node == nil {
		return nil, errors.New("search node is required")
	}

	s := &Server{
		node:   node,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "seekr",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return "seekr", version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-style arguments and returns
// its markdown rendering.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "web_search":
		in, err := decodeArgs[SearchInput](args)
		if err != nil {
			return "", err
		}
		resp, err := s.search(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatSearchResults(resp), nil

	case "fetch_result":
		in, err := decodeArgs[FetchInput](args)
		if err != nil {
			return "", err
		}
		hit, err := s.fetch(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatHit(hit), nil

	case "record_click":
		in, err := decodeArgs[ClickInput](args)
		if err != nil {
			return "", err
		}
		if err := s.click(ctx, in); err != nil {
			return "", err
		}
		return fmt.Sprintf("Recorded %s for \"%s\".", in.URL, in.Query), nil

	case "node_status":
		data, err := json.MarshalIndent(toStatusOutput(s.node.Status()), "", "  ")
		if err != nil {
			return "", MapError(err)
		}
		return string(data), nil

	default:
		return "", NewMethodNotFoundError(name)
	}
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var in T
	data, err := json.Marshal(args)
	if err != nil {
		return in, NewInvalidParamsError("arguments must be a JSON object")
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return in, nil
}

func (s *Server) search(ctx context.Context, in SearchInput) (*websearch.SearchResponse, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	start := time.Now()
	requestID := generateRequestID()
	s.logger.Info("mcp_search_started",
		slog.String("request_id", requestID),
		slog.String("query", in.Query),
		slog.Int("page", in.Page))

	resp, err := s.node.HandleSearch(ctx, websearch.SearchRequest{
		Query:       in.Query,
		Lang:        in.Lang,
		Engines:     in.Engines,
		Page:        in.Page,
		Horizon:     in.Horizon,
		Personalize: in.Personalize,
	})
	if err != nil {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("result_count", len(resp.Hits)))
	return resp, nil
}

func (s *Server) fetch(ctx context.Context, in FetchInput) (*websearch.Hit, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, NewInvalidParamsError("query parameter is required")
	}
	if in.ID < 0 {
		return nil, NewInvalidParamsError("id must be >= 0")
	}
	hit, err := s.node.HandleFetchOne(ctx, websearch.FetchRequest{Query: in.Query, Lang: in.Lang, ID: in.ID})
	if err != nil {
		return nil, MapError(err)
	}
	return hit, nil
}

func (s *Server) click(ctx context.Context, in ClickInput) error {
	if strings.TrimSpace(in.Query) == "" || in.URL == "" {
		return NewInvalidParamsError("query and url parameters are required")
	}
	if err := s.node.RecordClick(ctx, websearch.ClickRequest{Query: in.Query, Lang: in.Lang, URL: in.URL}); err != nil {
		return MapError(err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpFetchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpClickHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpStatusHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	resp, err := s.search(ctx, input)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, toSearchOutput(resp), nil
}

func (s *Server) mcpFetchHandler(ctx context.Context, _ *mcp.CallToolRequest, input FetchInput) (
	*mcp.CallToolResult,
	ResultOutput,
	error,
) {
	hit, err := s.fetch(ctx, input)
	if err != nil {
		return nil, ResultOutput{}, err
	}
	return nil, toResultOutput(hit), nil
}

func (s *Server) mcpClickHandler(ctx context.Context, _ *mcp.CallToolRequest, input ClickInput) (
	*mcp.CallToolResult,
	ClickOutput,
	error,
) {
	if err := s.click(ctx, input); err != nil {
		return nil, ClickOutput{}, err
	}
	return nil, ClickOutput{Recorded: true}, nil
}

func (s *Server) mcpStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ NodeStatusInput) (
	*mcp.CallToolResult,
	NodeStatusOutput,
	error,
) {
	return nil, toStatusOutput(s.node.Status()), nil
}

// Serve runs the server on the given transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
