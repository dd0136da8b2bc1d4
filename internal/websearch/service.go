// Package websearch is the front-end contract of a seekr node: it turns a
// search request into a planned fetch, folds the results into the query's
// shared context and returns a ranked page.
package websearch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/seekr/internal/config"
	"github.com/Aman-CERP/seekr/internal/engine"
	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/fetch"
	"github.com/Aman-CERP/seekr/internal/merge"
	"github.com/Aman-CERP/seekr/internal/personalize"
	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/rank"
	"github.com/Aman-CERP/seekr/internal/sweeper"
	"github.com/Aman-CERP/seekr/internal/telemetry"
)

// settings are the parts of the configuration that may change while the
// node runs.
type settings struct {
	lang           string
	defaultLang    string
	defaultRadius  int
	maxRadius      int
	requestTimeout time.Duration
}

func settingsFrom(cfg *config.Config) *settings {
	return &settings{
		lang:           cfg.Search.Lang,
		defaultLang:    cfg.Search.DefaultLang,
		defaultRadius:  cfg.Personalize.DefaultRadius,
		maxRadius:      cfg.Personalize.MaxRadius,
		requestTimeout: cfg.Server.RequestTimeout,
	}
}

func mergeConfig(c config.MergeConfig) merge.Config {
	return merge.Config{
		ContentAnalysis: c.ContentAnalysis,
		Threshold:       c.SimilarityThreshold,
		Candidates:      c.Candidates,
		Dims:            c.SignatureDims,
	}
}

// breakers reports per-backend circuit state; *fetch.Client implements it.
type breakers interface {
	Breaker(id engine.ID) (serrors.State, bool)
}

// Service serves searches for one node.
type Service struct {
	universe *engine.Universe
	defaults engine.Set
	parsers  map[engine.ID]string
	pageSize int

	registry    *qcontext.Registry
	sweeper     *sweeper.Sweeper
	pipeline    *fetch.Pipeline
	breakers    breakers
	coordinator *rank.Coordinator
	personalize bool
	recorder    personalize.Recorder
	store       *personalize.CaptureStore

	merger   atomic.Pointer[merge.Engine]
	settings atomic.Pointer[settings]

	metrics *telemetry.Metrics
	queries *telemetry.QueryMetrics
	logger  *slog.Logger
	now     func() time.Time
	started time.Time

	closeOnce sync.Once
}

// Option configures a Service.
type Option func(*options)

type options struct {
	fetcher  fetch.Fetcher
	oracle   personalize.Oracle
	recorder personalize.Recorder
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// WithFetcher replaces the HTTP client, typically with a fake in tests.
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithOracle replaces the local personalization oracle.
func WithOracle(or personalize.Oracle) Option {
	return func(o *options) { o.oracle = or }
}

// WithRecorder replaces the click capture sink.
func WithRecorder(r personalize.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithMetrics reports to m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the time source of the registry and sweeper.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New assembles a node from cfg.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, serrors.ConfigError("invalid configuration", err)
	}
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	u, err := cfg.Universe()
	if err != nil {
		return nil, serrors.ConfigError("build backend universe", err)
	}
	backends, limits, err := fetch.BuildBackends(cfg, u)
	if err != nil {
		return nil, serrors.ConfigError("build backends", err)
	}

	s := &Service{
		universe: u,
		defaults: cfg.EnabledSet(u),
		parsers:  make(map[engine.ID]string, len(cfg.Backends)),
		pageSize: cfg.Search.ResultsPerPage,
		metrics:  o.metrics,
		queries:  telemetry.NewQueryMetrics(telemetry.DefaultQueryMetricsConfig()),
		logger:   o.logger,
		now:      o.now,
		started:  o.now(),
	}
	for _, bc := range cfg.Backends {
		if id, ok := u.Lookup(bc.Name); ok {
			s.parsers[id] = bc.Parser
		}
	}
	s.settings.Store(settingsFrom(cfg))

	fetcher := o.fetcher
	if fetcher == nil {
		copts := []fetch.ClientOption{fetch.WithClientLogger(o.logger)}
		if o.metrics != nil {
			copts = append(copts, fetch.WithObserver(o.metrics))
		}
		client, err := fetch.NewClientFromConfig(cfg, limits, copts...)
		if err != nil {
			return nil, serrors.InternalError("create http client", err)
		}
		fetcher = client
	}
	if b, ok := fetcher.(breakers); ok {
		s.breakers = b
	}
	s.pipeline = fetch.NewPipeline(fetcher, backends, fetch.WithPipelineLogger(o.logger))

	merger, err := merge.NewEngine(mergeConfig(cfg.Merge), merge.WithLogger(o.logger))
	if err != nil {
		return nil, serrors.InternalError("create merge engine", err)
	}
	s.merger.Store(merger)

	s.sweeper = sweeper.New(sweeper.Config{
		Delay:    cfg.Sweeper.QueryContextDelay,
		Interval: cfg.Sweeper.Interval,
	},
		sweeper.WithClock(o.now),
		sweeper.WithLogger(o.logger),
		sweeper.WithPassHook(s.afterSweep))
	s.registry = qcontext.NewRegistry(
		qcontext.WithPageSize(cfg.Search.ResultsPerPage),
		qcontext.WithBackends(u.Len()),
		qcontext.WithMaxHorizon(cfg.Search.MaxHorizon),
		qcontext.WithClock(o.now),
		qcontext.WithTracker(s.sweeper),
		qcontext.WithLogger(o.logger))

	oracle, recorder := o.oracle, o.recorder
	if oracle == nil && cfg.Personalize.Enabled {
		store, err := personalize.OpenCaptureStore(cfg.Personalize.DBPath)
		if err != nil {
			return nil, err
		}
		local, err := personalize.NewLocalOracle(store, cfg.Personalize.RecordCacheSize,
			personalize.WithDomainNameWeight(cfg.Personalize.DomainNameWeight),
			personalize.WithMaxRadius(cfg.Personalize.MaxRadius))
		if err != nil {
			_ = store.Close()
			return nil, serrors.InternalError("create personalization oracle", err)
		}
		s.store = store
		oracle = local
		if recorder == nil {
			recorder = local
		}
	}
	s.coordinator = rank.NewCoordinator(oracle, cfg.Personalize.MaxConcurrent, rank.WithLogger(o.logger))
	s.personalize = oracle != nil
	s.recorder = recorder

	o.logger.Info("websearch_ready",
		slog.String("engines", u.Format(u.All())),
		slog.String("enabled", u.Format(s.defaults)),
		slog.Bool("personalization", s.personalize),
		slog.Bool("content_analysis", cfg.Merge.ContentAnalysis))
	return s, nil
}

// Start runs the background sweeper until ctx is done or Close is called.
func (s *Service) Start(ctx context.Context) {
	s.sweeper.Start(ctx)
}

// Close stops the sweeper and closes the capture store.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.sweeper.Stop()
		if s.store != nil {
			err = s.store.Close()
		}
	})
	return err
}

// Reload applies the hot-reloadable parts of cfg: language defaults,
// personalization radius and merge settings. Backends and the client are
// fixed for the life of the Service.
func (s *Service) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return serrors.ConfigError("invalid configuration", err)
	}
	merger, err := merge.NewEngine(mergeConfig(cfg.Merge), merge.WithLogger(s.logger))
	if err != nil {
		return serrors.InternalError("create merge engine", err)
	}
	s.merger.Store(merger)
	s.settings.Store(settingsFrom(cfg))

	s.logger.Info("websearch_reloaded",
		slog.String("lang", cfg.Search.Lang),
		slog.Bool("content_analysis", cfg.Merge.ContentAnalysis))
	return nil
}

// Universe returns the configured backends.
func (s *Service) Universe() *engine.Universe { return s.universe }

// Engines lists the configured backends.
func (s *Service) Engines() []EngineInfo {
	out := make([]EngineInfo, 0, s.universe.Len())
	for _, b := range s.universe.Backends() {
		info := EngineInfo{
			Name:    b.Name,
			Enabled: s.defaults.Has(b.ID),
			Parser:  s.parsers[b.ID],
			Circuit: "unknown",
		}
		if s.breakers != nil {
			if st, ok := s.breakers.Breaker(b.ID); ok {
				info.Circuit = st.String()
			}
		}
		out = append(out, info)
	}
	return out
}

// Status reports the node's state.
func (s *Service) Status() Status {
	return Status{
		Uptime:          s.now().Sub(s.started),
		Contexts:        s.registry.Len(),
		Sweeper:         s.sweeper.Stats(),
		Engines:         s.Engines(),
		Personalization: s.personalize,
		ContentAnalysis: s.merger.Load().Config().ContentAnalysis,
		Queries:         s.queries.Snapshot(),
	}
}

// Sweep runs one sweeper pass immediately and returns the number of
// contexts released.
func (s *Service) Sweep() int {
	return s.sweeper.SweepPass()
}

func (s *Service) afterSweep(released int) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveSweep(released)
	if s.registry != nil {
		s.metrics.SetLiveContexts(s.registry.Len())
	}
}

func (s *Service) String() string {
	return fmt.Sprintf("websearch(%s)", s.universe.Format(s.defaults))
}
