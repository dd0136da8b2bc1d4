package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Aman-CERP/seekr/internal/websearch"
)

// Handler serves the requests the daemon accepts. *websearch.Service
// implements it.
type Handler interface {
	HandleSearch(ctx context.Context, req websearch.SearchRequest) (*websearch.SearchResponse, error)
	HandleFetchOne(ctx context.Context, req websearch.FetchRequest) (*websearch.Hit, error)
	RecordClick(ctx context.Context, req websearch.ClickRequest) error
	Status() websearch.Status
	Engines() []websearch.EngineInfo
}

// Server listens on a Unix socket and handles one JSON-RPC request per
// connection.
type Server struct {
	socketPath string
	handler    Handler
	timeout    time.Duration
	logger     *slog.Logger

	listener net.Listener
	started  time.Time

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithRequestTimeout bounds each connection.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithServerLogger sets the logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a server for socketPath answering with h.
func NewServer(socketPath string, h Handler, opts ...ServerOption) (*Server, error) {
	if socketPath == "" {
		return nil, fmt.Errorf("socket path cannot be empty")
	}
	if h == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	s := &Server{
		socketPath: socketPath,
		handler:    h,
		timeout:    30 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListenAndServe serves until ctx is cancelled, then waits for in-flight
// connections.
func (s *Server) ListenAndServe(ctx context.Context) error {
	// A socket left by a crashed daemon would make Listen fail.
	_ = os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.started = time.Now()
	s.mu.Unlock()

	defer func() {
		_ = listener.Close()
		_ = os.Remove(s.socketPath)
	}()

	s.logger.Info("daemon_listening", slog.String("socket", s.socketPath))

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed() {
				break
			}
			s.logger.Error("daemon_accept_failed", slog.String("error", err.Error()))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.wg.Wait()
	return ctx.Err()
}

func (s *Server) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		s.logger.Warn("daemon_deadline_failed", slog.String("error", err.Error()))
	}

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(NewErrorResponse("", ErrCodeParseError, "failed to parse request"))
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		_ = encoder.Encode(NewErrorResponse(req.ID, ErrCodeInvalidRequest, "invalid JSON-RPC 2.0 request"))
		return
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp := s.handleRequest(rctx, req)
	s.logger.Debug("daemon_request",
		slog.String("id", req.ID),
		slog.String("method", req.Method),
		slog.Bool("ok", resp.Error == nil),
		slog.Duration("elapsed", time.Since(start)))
	_ = encoder.Encode(resp)
}

// handleRequest dispatches a request to the handler.
func (s *Server) handleRequest(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return NewSuccessResponse(req.ID, PingResult{Pong: true})

	case MethodStatus:
		return NewSuccessResponse(req.ID, s.status())

	case MethodEngines:
		return NewSuccessResponse(req.ID, s.handler.Engines())

	case MethodSearch:
		return call(req, func(p SearchParams) (any, error) {
			return s.handler.HandleSearch(ctx, p)
		})

	case MethodFetch:
		return call(req, func(p FetchParams) (any, error) {
			return s.handler.HandleFetchOne(ctx, p)
		})

	case MethodClick:
		return call(req, func(p ClickParams) (any, error) {
			if err := s.handler.RecordClick(ctx, p); err != nil {
				return nil, err
			}
			return ClickResult{Recorded: true}, nil
		})

	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// call decodes the request's params into P and runs fn.
func call[P any](req Request, fn func(P) (any, error)) Response {
	var params P
	if len(req.Params) == 0 {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "params are required")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrCodeInvalidParams, "failed to decode params: "+err.Error())
	}
	result, err := fn(params)
	if err != nil {
		return NewFailureResponse(req.ID, err)
	}
	return NewSuccessResponse(req.ID, result)
}

func (s *Server) status() StatusResult {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	return StatusResult{
		Running: true,
		PID:     os.Getpid(),
		Uptime:  time.Since(started).Round(time.Second).String(),
		Socket:  s.socketPath,
		Node:    s.handler.Status(),
	}
}

// Close stops accepting connections.
func (s *Server) Close() error {
	s.mu.Lock()
	s.shutdown = true
	l := s.listener
	s.mu.Unlock()

	if l != nil {
		return l.Close()
	}
	return nil
}
