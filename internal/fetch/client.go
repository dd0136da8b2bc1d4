package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/Aman-CERP/seekr/internal/engine"
	serrors "github.com/Aman-CERP/seekr/internal/errors"
)

// Fetcher retrieves one backend page. A failure means "no body" for that
// backend; it never aborts the other fetches of a request.
type Fetcher interface {
	Fetch(ctx context.Context, backend engine.ID, url string, headers http.Header) ([]byte, error)
}

// Observer receives one call per logical fetch (after retries).
type Observer interface {
	ObserveFetch(backend string, elapsed time.Duration, err error)
}

// ClientConfig configures the HTTP client shared by all backends.
type ClientConfig struct {
	ConnectTimeout  time.Duration
	TransferTimeout time.Duration
	UserAgent       string
	Retries         int
	// CacheSize bounds the raw page cache; zero disables it.
	CacheSize int
	// MaxBodyBytes truncates oversized pages.
	MaxBodyBytes int64
}

// BackendLimits are the per-backend politeness and failure settings.
type BackendLimits struct {
	Name         string
	RateLimit    float64
	Burst        int
	MaxFailures  int
	ResetTimeout time.Duration
}

type backendState struct {
	name    string
	limiter *rate.Limiter
	breaker *serrors.CircuitBreaker
}

// Client fetches backend pages over HTTP with per-backend rate limiting,
// circuit breaking and retries. Bodies are returned as UTF-8.
type Client struct {
	cfg      ClientConfig
	http     *http.Client
	retry    serrors.RetryConfig
	backends map[engine.ID]*backendState
	cache    *lru.Cache[string, []byte]
	observer Observer
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithObserver reports every fetch to o.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(rc serrors.RetryConfig) ClientOption {
	return func(c *Client) {
		c.retry = rc
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient builds a client for the given backends.
func NewClient(cfg ClientConfig, limits map[engine.ID]BackendLimits, opts ...ClientOption) (*Client, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.TransferTimeout <= 0 {
		cfg.TransferTimeout = 5 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.TransferTimeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	retry := serrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Retries

	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Transport: transport},
		retry:    retry,
		backends: make(map[engine.ID]*backendState, len(limits)),
		logger:   slog.Default(),
	}

	for id, l := range limits {
		limit := rate.Inf
		if l.RateLimit > 0 {
			limit = rate.Limit(l.RateLimit)
		}
		burst := max(l.Burst, 1)

		var bopts []serrors.CircuitBreakerOption
		if l.MaxFailures > 0 {
			bopts = append(bopts, serrors.WithMaxFailures(l.MaxFailures))
		}
		if l.ResetTimeout > 0 {
			bopts = append(bopts, serrors.WithResetTimeout(l.ResetTimeout))
		}
		c.backends[id] = &backendState{
			name:    l.Name,
			limiter: rate.NewLimiter(limit, burst),
			breaker: serrors.NewCircuitBreaker(l.Name, bopts...),
		}
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []byte](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create response cache: %w", err)
		}
		c.cache = cache
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, backend engine.ID, url string, headers http.Header) ([]byte, error) {
	st, ok := c.backends[backend]
	if !ok {
		return nil, serrors.InternalError(fmt.Sprintf("backend %d is not configured", backend), nil)
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(url); ok {
			c.logger.Debug("fetch_cache_hit", slog.String("backend", st.name))
			return body, nil
		}
	}

	start := time.Now()
	body, err := serrors.CircuitExecute(st.breaker, func() ([]byte, error) {
		return serrors.RetryWithResult(ctx, c.retry, func() ([]byte, error) {
			if err := st.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return c.do(ctx, url, headers)
		})
	})
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveFetch(st.name, elapsed, err)
	}
	if err != nil {
		c.logger.Warn("fetch_failed",
			slog.String("backend", st.name),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return nil, err
	}

	c.logger.Debug("fetch_complete",
		slog.String("backend", st.name),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", elapsed))
	if c.cache != nil {
		c.cache.Add(url, body)
	}
	return body, nil
}

// Breaker returns the circuit state of backend, for status reporting.
func (c *Client) Breaker(backend engine.ID) (serrors.State, bool) {
	st, ok := c.backends[backend]
	if !ok {
		return serrors.StateClosed, false
	}
	return st.breaker.State(), true
}

func (c *Client) do(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TransferTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, serrors.InternalError("build backend request", err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" && c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, serrors.New(serrors.ErrCodeBackendUnavailable,
			fmt.Sprintf("backend returned %s", resp.Status), nil)
	case resp.StatusCode >= 300:
		e := serrors.New(serrors.ErrCodeBackendUnavailable,
			fmt.Sprintf("backend returned %s", resp.Status), nil)
		e.Retryable = false
		return nil, e
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return nil, transportError(ctx, err)
	}
	return decodeBody(body, resp.Header.Get("Content-Type")), nil
}

func transportError(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return serrors.New(serrors.ErrCodeBackendTimeout, "backend transfer timed out", err)
	}
	return serrors.New(serrors.ErrCodeBackendUnavailable, "backend request failed", err)
}

// decodeBody converts body to UTF-8 using the declared or sniffed charset.
// Uncertain guesses never override a body that is already valid UTF-8.
func decodeBody(body []byte, contentType string) []byte {
	enc, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(body)) {
		return body
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return out
}
