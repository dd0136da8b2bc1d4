package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/logging"
)

// Config represents the complete seekr configuration.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Backends    []BackendConfig   `yaml:"backends" json:"backends"`
	Merge       MergeConfig       `yaml:"merge" json:"merge"`
	Personalize PersonalizeConfig `yaml:"personalize" json:"personalize"`
	Sweeper     SweeperConfig     `yaml:"sweeper" json:"sweeper"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Logging     logging.Config    `yaml:"logging" json:"logging"`
}

// SearchConfig configures request handling and backend fetches.
type SearchConfig struct {
	// ResultsPerPage is the number of results shown per page and requested
	// from each backend per expansion step.
	ResultsPerPage int `yaml:"results_per_page" json:"results_per_page"`

	// Lang is the default query language. "auto" resolves it from the
	// client's Accept-Language header, falling back to DefaultLang.
	Lang        string `yaml:"lang" json:"lang"`
	DefaultLang string `yaml:"default_lang" json:"default_lang"`

	// MaxHorizon caps how many pages deep a query may be expanded.
	MaxHorizon int `yaml:"max_horizon" json:"max_horizon"`

	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	TransferTimeout time.Duration `yaml:"transfer_timeout" json:"transfer_timeout"`

	UserAgent string `yaml:"user_agent" json:"user_agent"`

	// Retries is how many times a transient backend failure is retried.
	Retries int `yaml:"retries" json:"retries"`

	// ResponseCacheSize bounds the in-memory cache of raw backend pages.
	// Zero disables it.
	ResponseCacheSize int `yaml:"response_cache_size" json:"response_cache_size"`
}

// BackendConfig describes one third-party search backend.
type BackendConfig struct {
	Name string `yaml:"name" json:"name"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// URL is the request template; see fetch.Template for placeholders.
	URL string `yaml:"url" json:"url"`
	// Parser names a builtin parser profile.
	Parser string `yaml:"parser" json:"parser"`
	// Selectors overrides individual CSS selectors of the parser profile.
	Selectors map[string]string `yaml:"selectors,omitempty" json:"selectors,omitempty"`

	// StartOffset is added to page × per_page to form %start.
	StartOffset int `yaml:"start_offset" json:"start_offset"`
	PerPage     int `yaml:"per_page" json:"per_page"`

	// RateLimit is the sustained requests per second allowed, Burst the
	// bucket size.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `yaml:"burst" json:"burst"`

	// MaxFailures consecutive failures open the backend's circuit for
	// ResetTimeout.
	MaxFailures  int           `yaml:"max_failures" json:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout" json:"reset_timeout"`
}

// IsEnabled reports whether the backend takes part in default searches.
func (b BackendConfig) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// MergeConfig configures duplicate detection.
type MergeConfig struct {
	// ContentAnalysis turns on near-duplicate detection.
	ContentAnalysis bool `yaml:"content_analysis" json:"content_analysis"`
	// SimilarityThreshold is the minimum token overlap for two Results to
	// be considered the same.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// Candidates is how many nearest signatures are checked per Result.
	Candidates int `yaml:"candidates" json:"candidates"`
	// SignatureDims is the dimensionality of the hashed signature vectors.
	SignatureDims int `yaml:"signature_dims" json:"signature_dims"`
}

// PersonalizeConfig configures the local personalization oracle.
type PersonalizeConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	DBPath  string `yaml:"db_path" json:"db_path"`

	DefaultRadius int `yaml:"default_radius" json:"default_radius"`
	MaxRadius     int `yaml:"max_radius" json:"max_radius"`

	// DomainNameWeight scales the host-level capture signal.
	DomainNameWeight float64 `yaml:"domain_name_weight" json:"domain_name_weight"`

	RecordCacheSize int `yaml:"record_cache_size" json:"record_cache_size"`
	// MaxConcurrent bounds personalization tasks in flight.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
}

// SweeperConfig configures reclamation of idle query contexts.
type SweeperConfig struct {
	// QueryContextDelay is how long a query context survives without access.
	QueryContextDelay time.Duration `yaml:"query_context_delay" json:"query_context_delay"`
	Interval          time.Duration `yaml:"interval" json:"interval"`
}

// ServerConfig configures the daemon.
type ServerConfig struct {
	SocketPath string `yaml:"socket_path" json:"socket_path"`
	PIDFile    string `yaml:"pid_file" json:"pid_file"`
	// MetricsAddr serves Prometheus metrics when non-empty.
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// RequestTimeout bounds one client request end to end.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// NewConfig returns a configuration with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			ResultsPerPage:    10,
			Lang:              "auto",
			DefaultLang:       "en",
			MaxHorizon:        10,
			ConnectTimeout:    3 * time.Second,
			TransferTimeout:   5 * time.Second,
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
			Retries:           1,
			ResponseCacheSize: 256,
		},
		Backends: DefaultBackends(),
		Merge: MergeConfig{
			ContentAnalysis:     false,
			SimilarityThreshold: 0.6,
			Candidates:          8,
			SignatureDims:       128,
		},
		Personalize: PersonalizeConfig{
			Enabled:          true,
			DBPath:           filepath.Join(DataDir(), "captures.db"),
			DefaultRadius:    2,
			MaxRadius:        5,
			DomainNameWeight: 0.7,
			RecordCacheSize:  512,
			MaxConcurrent:    8,
		},
		Sweeper: SweeperConfig{
			QueryContextDelay: 300 * time.Second,
			Interval:          30 * time.Second,
		},
		Server: ServerConfig{
			SocketPath:     filepath.Join(DataDir(), "seekr.sock"),
			PIDFile:        filepath.Join(DataDir(), "seekr.pid"),
			RequestTimeout: 30 * time.Second,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultBackends returns the builtin backend list.
func DefaultBackends() []BackendConfig {
	off := false
	return []BackendConfig{
		{
			Name:         "duckduckgo",
			URL:          "https://html.duckduckgo.com/html/?q=%query&s=%start&kl=%lang",
			Parser:       "duckduckgo_html",
			PerPage:      10,
			RateLimit:    1,
			Burst:        2,
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
		{
			Name:         "bing",
			URL:          "https://www.bing.com/search?q=%query&first=%start&count=%num&setlang=%lang",
			Parser:       "bing",
			StartOffset:  1,
			PerPage:      10,
			RateLimit:    2,
			Burst:        4,
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
		{
			Name:         "mojeek",
			URL:          "https://www.mojeek.com/search?q=%query&s=%start&lb=%lang",
			Parser:       "mojeek",
			StartOffset:  1,
			PerPage:      10,
			RateLimit:    1,
			Burst:        2,
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
		{
			Name:         "searx",
			Enabled:      &off,
			URL:          "http://localhost:8888/search?q=%query&pageno=%page&language=%lang&format=json",
			Parser:       "searx_json",
			PerPage:      10,
			RateLimit:    5,
			Burst:        5,
			MaxFailures:  5,
			ResetTimeout: 30 * time.Second,
		},
		{
			Name:         "bing_rss",
			Enabled:      &off,
			URL:          "https://www.bing.com/search?format=rss&q=%query&first=%start&setlang=%lang",
			Parser:       "opensearch_rss",
			StartOffset:  1,
			PerPage:      10,
			RateLimit:    2,
			Burst:        4,
			MaxFailures:  3,
			ResetTimeout: time.Minute,
		},
	}
}

// DataDir returns the directory holding seekr's runtime state.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".seekr")
	}
	return filepath.Join(home, ".seekr")
}

// GetUserConfigPath returns the path to the user configuration file:
// $XDG_CONFIG_HOME/seekr/config.yaml, or ~/.config/seekr/config.yaml.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "seekr", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "seekr", "config.yaml")
	}
	return filepath.Join(home, ".config", "seekr", "config.yaml")
}

// ProjectConfigPaths returns the candidate project config files in dir, in
// order of preference.
func ProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ".seekr.yaml"),
		filepath.Join(dir, ".seekr.yml"),
	}
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}

	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", path, err)
	}
	return &parsed, nil
}

// Load loads configuration for dir, applying in order of increasing
// precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/seekr/config.yaml)
//  3. Project config (.seekr.yaml in dir)
//  4. Environment variables (SEEKR_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads defaults overlaid with a single explicit file, then
// environment overrides. Used for --config.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return nil, err
	}
	cfg.mergeWith(&parsed)
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromDir(dir string) error {
	for _, path := range ProjectConfigPaths(dir) {
		if !fileExists(path) {
			continue
		}
		var parsed Config
		if err := parseYAML(path, &parsed); err != nil {
			return err
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

func parseYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c. Backends are merged
// by name: known backends are overlaid field by field, unknown ones are
// appended.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Search
	if other.Search.ResultsPerPage != 0 {
		c.Search.ResultsPerPage = other.Search.ResultsPerPage
	}
	if other.Search.Lang != "" {
		c.Search.Lang = other.Search.Lang
	}
	if other.Search.DefaultLang != "" {
		c.Search.DefaultLang = other.Search.DefaultLang
	}
	if other.Search.MaxHorizon != 0 {
		c.Search.MaxHorizon = other.Search.MaxHorizon
	}
	if other.Search.ConnectTimeout != 0 {
		c.Search.ConnectTimeout = other.Search.ConnectTimeout
	}
	if other.Search.TransferTimeout != 0 {
		c.Search.TransferTimeout = other.Search.TransferTimeout
	}
	if other.Search.UserAgent != "" {
		c.Search.UserAgent = other.Search.UserAgent
	}
	if other.Search.Retries != 0 {
		c.Search.Retries = other.Search.Retries
	}
	if other.Search.ResponseCacheSize != 0 {
		c.Search.ResponseCacheSize = other.Search.ResponseCacheSize
	}

	// Backends
	for _, b := range other.Backends {
		c.mergeBackend(b)
	}

	// Merge
	if other.Merge.ContentAnalysis {
		c.Merge.ContentAnalysis = true
	}
	if other.Merge.SimilarityThreshold != 0 {
		c.Merge.SimilarityThreshold = other.Merge.SimilarityThreshold
	}
	if other.Merge.Candidates != 0 {
		c.Merge.Candidates = other.Merge.Candidates
	}
	if other.Merge.SignatureDims != 0 {
		c.Merge.SignatureDims = other.Merge.SignatureDims
	}

	// Personalize
	if other.Personalize.Enabled {
		c.Personalize.Enabled = true
	}
	if other.Personalize.DBPath != "" {
		c.Personalize.DBPath = other.Personalize.DBPath
	}
	if other.Personalize.DefaultRadius != 0 {
		c.Personalize.DefaultRadius = other.Personalize.DefaultRadius
	}
	if other.Personalize.MaxRadius != 0 {
		c.Personalize.MaxRadius = other.Personalize.MaxRadius
	}
	if other.Personalize.DomainNameWeight != 0 {
		c.Personalize.DomainNameWeight = other.Personalize.DomainNameWeight
	}
	if other.Personalize.RecordCacheSize != 0 {
		c.Personalize.RecordCacheSize = other.Personalize.RecordCacheSize
	}
	if other.Personalize.MaxConcurrent != 0 {
		c.Personalize.MaxConcurrent = other.Personalize.MaxConcurrent
	}

	// Sweeper
	if other.Sweeper.QueryContextDelay != 0 {
		c.Sweeper.QueryContextDelay = other.Sweeper.QueryContextDelay
	}
	if other.Sweeper.Interval != 0 {
		c.Sweeper.Interval = other.Sweeper.Interval
	}

	// Server
	if other.Server.SocketPath != "" {
		c.Server.SocketPath = other.Server.SocketPath
	}
	if other.Server.PIDFile != "" {
		c.Server.PIDFile = other.Server.PIDFile
	}
	if other.Server.MetricsAddr != "" {
		c.Server.MetricsAddr = other.Server.MetricsAddr
	}
	if other.Server.RequestTimeout != 0 {
		c.Server.RequestTimeout = other.Server.RequestTimeout
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

func (c *Config) mergeBackend(b BackendConfig) {
	name := strings.ToLower(strings.TrimSpace(b.Name))
	for i := range c.Backends {
		dst := &c.Backends[i]
		if strings.ToLower(dst.Name) != name {
			continue
		}
		if b.Enabled != nil {
			v := *b.Enabled
			dst.Enabled = &v
		}
		if b.URL != "" {
			dst.URL = b.URL
		}
		if b.Parser != "" {
			dst.Parser = b.Parser
		}
		if len(b.Selectors) > 0 {
			if dst.Selectors == nil {
				dst.Selectors = make(map[string]string, len(b.Selectors))
			}
			for k, v := range b.Selectors {
				dst.Selectors[k] = v
			}
		}
		if b.StartOffset != 0 {
			dst.StartOffset = b.StartOffset
		}
		if b.PerPage != 0 {
			dst.PerPage = b.PerPage
		}
		if b.RateLimit != 0 {
			dst.RateLimit = b.RateLimit
		}
		if b.Burst != 0 {
			dst.Burst = b.Burst
		}
		if b.MaxFailures != 0 {
			dst.MaxFailures = b.MaxFailures
		}
		if b.ResetTimeout != 0 {
			dst.ResetTimeout = b.ResetTimeout
		}
		return
	}
	b.Name = name
	c.Backends = append(c.Backends, b)
}

// applyEnvOverrides applies SEEKR_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEEKR_LANG"); v != "" {
		c.Search.Lang = v
	}
	if v := os.Getenv("SEEKR_RESULTS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.ResultsPerPage = n
		}
	}
	if v := os.Getenv("SEEKR_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Search.ConnectTimeout = d
		}
	}
	if v := os.Getenv("SEEKR_TRANSFER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Search.TransferTimeout = d
		}
	}
	if v := os.Getenv("SEEKR_CONTENT_ANALYSIS"); v != "" {
		c.Merge.ContentAnalysis = parseBool(v)
	}
	if v := os.Getenv("SEEKR_PERSONALIZE"); v != "" {
		c.Personalize.Enabled = parseBool(v)
	}
	if v := os.Getenv("SEEKR_CAPTURE_DB"); v != "" {
		c.Personalize.DBPath = v
	}
	if v := os.Getenv("SEEKR_QUERY_CONTEXT_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Sweeper.QueryContextDelay = d
		}
	}
	if v := os.Getenv("SEEKR_SOCKET"); v != "" {
		c.Server.SocketPath = v
	}
	if v := os.Getenv("SEEKR_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("SEEKR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	// SEEKR_ENGINES enables exactly the listed backends.
	if v := os.Getenv("SEEKR_ENGINES"); v != "" {
		want := make(map[string]bool)
		for _, name := range strings.Split(v, ",") {
			if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
				want[name] = true
			}
		}
		for i := range c.Backends {
			on := want[strings.ToLower(c.Backends[i].Name)]
			c.Backends[i].Enabled = &on
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.ResultsPerPage <= 0 {
		return fmt.Errorf("search.results_per_page must be positive, got %d", c.Search.ResultsPerPage)
	}
	if c.Search.MaxHorizon <= 0 {
		return fmt.Errorf("search.max_horizon must be positive, got %d", c.Search.MaxHorizon)
	}
	if c.Search.ConnectTimeout <= 0 || c.Search.TransferTimeout <= 0 {
		return fmt.Errorf("search timeouts must be positive")
	}
	if c.Search.Retries < 0 {
		return fmt.Errorf("search.retries must be non-negative, got %d", c.Search.Retries)
	}
	if c.Search.DefaultLang == "" || c.Search.DefaultLang == "auto" {
		return fmt.Errorf("search.default_lang must name a language, got %q", c.Search.DefaultLang)
	}

	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one backend must be configured")
	}
	if len(c.Backends) > engine.MaxBackends {
		return fmt.Errorf("at most %d backends may be configured, got %d", engine.MaxBackends, len(c.Backends))
	}
	seen := make(map[string]bool, len(c.Backends))
	for i, b := range c.Backends {
		name := strings.ToLower(strings.TrimSpace(b.Name))
		if name == "" {
			return fmt.Errorf("backends[%d].name is required", i)
		}
		if seen[name] {
			return fmt.Errorf("backend %q is configured twice", name)
		}
		seen[name] = true
		if !strings.Contains(b.URL, "%query") {
			return fmt.Errorf("backend %q: url must contain %%query", name)
		}
		if b.Parser == "" {
			return fmt.Errorf("backend %q: parser is required", name)
		}
		if b.RateLimit < 0 || b.Burst < 0 {
			return fmt.Errorf("backend %q: rate_limit and burst must be non-negative", name)
		}
	}

	if c.Merge.SimilarityThreshold <= 0 || c.Merge.SimilarityThreshold > 1 {
		return fmt.Errorf("merge.similarity_threshold must be in (0, 1], got %f", c.Merge.SimilarityThreshold)
	}
	if c.Merge.Candidates <= 0 || c.Merge.SignatureDims <= 0 {
		return fmt.Errorf("merge.candidates and merge.signature_dims must be positive")
	}

	if c.Personalize.MaxRadius < 0 || c.Personalize.DefaultRadius < 0 {
		return fmt.Errorf("personalize radii must be non-negative")
	}
	if c.Personalize.DefaultRadius > c.Personalize.MaxRadius {
		return fmt.Errorf("personalize.default_radius (%d) exceeds max_radius (%d)",
			c.Personalize.DefaultRadius, c.Personalize.MaxRadius)
	}
	if c.Personalize.MaxConcurrent <= 0 {
		return fmt.Errorf("personalize.max_concurrent must be positive, got %d", c.Personalize.MaxConcurrent)
	}

	if c.Sweeper.QueryContextDelay <= 0 || c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweeper durations must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// Universe assigns engine IDs to every configured backend, enabled or not,
// in configuration order.
func (c *Config) Universe() (*engine.Universe, error) {
	names := make([]string, len(c.Backends))
	for i, b := range c.Backends {
		names[i] = b.Name
	}
	return engine.NewUniverse(names...)
}

// EnabledSet returns the backends enabled by default, resolved in u.
func (c *Config) EnabledSet(u *engine.Universe) engine.Set {
	var s engine.Set
	for _, b := range c.Backends {
		if !b.IsEnabled() {
			continue
		}
		if id, ok := u.Lookup(b.Name); ok {
			s = s.Union(engine.Of(id))
		}
	}
	return s
}

// Backend returns the configuration of the named backend.
func (c *Config) Backend(name string) (BackendConfig, bool) {
	for _, b := range c.Backends {
		if strings.EqualFold(b.Name, name) {
			return b, true
		}
	}
	return BackendConfig{}, false
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
