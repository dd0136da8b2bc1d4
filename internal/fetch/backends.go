package fetch

import (
	"fmt"

	"github.com/Aman-CERP/seekr/internal/config"
	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/parser"
	"github.com/Aman-CERP/seekr/pkg/version"
)

// Backend is a configured search backend ready to be queried.
type Backend struct {
	ID       engine.ID
	Name     string
	Template *Template
	Parser   parser.Parser
}

// BuildBackends compiles every configured backend, enabled or not, against
// the universe u derived from the same configuration.
func BuildBackends(cfg *config.Config, u *engine.Universe) ([]*Backend, map[engine.ID]BackendLimits, error) {
	backends := make([]*Backend, 0, len(cfg.Backends))
	limits := make(map[engine.ID]BackendLimits, len(cfg.Backends))

	for _, bc := range cfg.Backends {
		id, ok := u.Lookup(bc.Name)
		if !ok {
			return nil, nil, fmt.Errorf("backend %q missing from universe", bc.Name)
		}

		perPage := bc.PerPage
		if perPage <= 0 {
			perPage = cfg.Search.ResultsPerPage
		}
		tpl, err := NewTemplate(bc.URL, bc.StartOffset, perPage)
		if err != nil {
			return nil, nil, fmt.Errorf("backend %q: %w", bc.Name, err)
		}
		p, err := parser.New(bc.Parser, id, bc.Selectors)
		if err != nil {
			return nil, nil, fmt.Errorf("backend %q: %w", bc.Name, err)
		}

		backends = append(backends, &Backend{ID: id, Name: u.Name(id), Template: tpl, Parser: p})
		limits[id] = BackendLimits{
			Name:         u.Name(id),
			RateLimit:    bc.RateLimit,
			Burst:        bc.Burst,
			MaxFailures:  bc.MaxFailures,
			ResetTimeout: bc.ResetTimeout,
		}
	}
	return backends, limits, nil
}

// NewClientFromConfig builds the HTTP client for cfg's backends.
// An empty user agent falls back to seekr's own.
func NewClientFromConfig(cfg *config.Config, limits map[engine.ID]BackendLimits, opts ...ClientOption) (*Client, error) {
	ua := cfg.Search.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	return NewClient(ClientConfig{
		ConnectTimeout:  cfg.Search.ConnectTimeout,
		TransferTimeout: cfg.Search.TransferTimeout,
		UserAgent:       ua,
		Retries:         cfg.Search.Retries,
		CacheSize:       cfg.Search.ResponseCacheSize,
	}, limits, opts...)
}
