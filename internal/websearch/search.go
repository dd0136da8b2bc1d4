package websearch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Aman-CERP/seekr/internal/engine"
	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/fetch"
	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/rank"
	"github.com/Aman-CERP/seekr/internal/result"
	"github.com/Aman-CERP/seekr/internal/telemetry"
)

// HandleSearch serves one page of results for req.
//
// Parameter and engine errors are returned before the query's context is
// touched. The context lock is then held from planning to the page slice,
// so concurrent requests for the same query never fetch the same pages
// twice. A context left without results is released before returning.
func (s *Service) HandleSearch(ctx context.Context, req SearchRequest) (resp *SearchResponse, err error) {
	start := time.Now()
	st := s.settings.Load()

	query := strings.TrimSpace(req.Query)
	if qcontext.NormalizeQuery(query) == "" {
		return nil, serrors.New(serrors.ErrCodeQueryEmpty, "query is empty", serrors.ErrBadParameters).
			WithSuggestion("provide a query")
	}
	if req.Page < 0 {
		return nil, serrors.BadParameters("page must be >= 0, got %d", req.Page)
	}
	if req.Horizon < 0 {
		return nil, serrors.BadParameters("horizon must be >= 0, got %d", req.Horizon)
	}
	radius := st.defaultRadius
	if req.Radius != nil {
		radius = *req.Radius
		if radius < 0 || (st.maxRadius > 0 && radius > st.maxRadius) {
			return nil, serrors.BadParameters("radius must be within [0, %d], got %d", st.maxRadius, radius)
		}
	}

	set, err := s.resolveEngines(req.Engines)
	if err != nil {
		return nil, err
	}
	lang := resolveLang(req.Lang, req.AcceptLanguage, st)

	if st.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.requestTimeout)
		defer cancel()
	}

	var fetched, total int
	var personalized, degraded bool
	defer func() {
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveSearch(elapsed, err)
		}
		if err != nil {
			return
		}
		s.queries.Record(telemetry.QueryEvent{
			Query:        query,
			Lang:         lang,
			ResultCount:  total,
			Fetched:      fetched,
			Cached:       fetched == 0,
			Degraded:     degraded,
			Personalized: personalized,
			Latency:      elapsed,
			Timestamp:    s.now(),
		})
	}()

	qc, existed := s.registry.Acquire(query, lang)
	defer s.finish(qc)
	if req.AcceptLanguage != "" {
		qc.Headers.Set("Accept-Language", req.AcceptLanguage)
	}

	plan := qc.Expansion.Plan(set, req.Mode, max(req.Horizon, req.Page+1))
	sig := qc.BeginRequest()

	var task *rank.Task
	if req.Personalize {
		task, err = s.coordinator.Start(ctx, qc, radius)
		if err != nil {
			return nil, err
		}
	}

	var failed engine.Set
	if !plan.Empty() {
		out, ferr := s.pipeline.Run(ctx, fetch.Request{
			Jobs:     plan.Jobs(),
			Query:    qc.Query(),
			Lang:     lang,
			Headers:  qc.Headers.Clone(),
			OnParsed: func(engine.ID, int) { sig.Broadcast() },
		})
		if ferr != nil {
			if task != nil {
				task.Join(ctx)
			}
			return nil, ferr
		}
		s.merger.Load().Fold(qc.Results, out.Results)
		qc.AddSuggestions(out.Suggestions)
		qc.Expansion.Commit(plan)
		fetched = out.Tasks
		failed = out.Failed
		degraded = out.Degraded()
	}

	rank.Reset(qc.Results)
	if task != nil {
		if est := task.Join(ctx); est != nil {
			personalized = rank.Apply(qc.Results, est.Estimate(qc.Results.All())) > 0
		}
	}
	if !personalized {
		rank.SortBase(qc.Results)
	}

	visible := voted(qc.Results, set)
	total = len(visible)
	resp = &SearchResponse{
		Query:        qc.Query(),
		Lang:         lang,
		Engines:      s.universe.Names(set),
		Page:         req.Page,
		PageSize:     s.pageSize,
		Total:        total,
		Horizon:      plan.Horizon(),
		Hits:         []Hit{},
		Suggestions:  append([]string(nil), qc.Suggestions...),
		Failed:       s.universe.Names(failed),
		Fetched:      fetched,
		Personalized: personalized,
	}
	for _, r := range pageOf(visible, req.Page, s.pageSize) {
		resp.Hits = append(resp.Hits, newHit(r, s.universe))
	}
	resp.Elapsed = time.Since(start)

	s.logger.Info("search_complete",
		slog.String("query", qc.Query()),
		slog.String("lang", lang),
		slog.String("engines", s.universe.Format(set)),
		slog.Bool("existed", existed),
		slog.Int("fetched", fetched),
		slog.Int("total", total),
		slog.Int("page", req.Page),
		slog.Bool("personalized", personalized),
		slog.Duration("elapsed", resp.Elapsed))
	return resp, nil
}

// HandleFetchOne returns one Result of a query by id. A context that was
// reclaimed is rebuilt from the first page of the enabled backends, which
// is where ids handed out by a first search live.
func (s *Service) HandleFetchOne(ctx context.Context, req FetchRequest) (*Hit, error) {
	st := s.settings.Load()
	query := strings.TrimSpace(req.Query)
	if qcontext.NormalizeQuery(query) == "" {
		return nil, serrors.New(serrors.ErrCodeQueryEmpty, "query is empty", serrors.ErrBadParameters)
	}
	if req.ID < 0 {
		return nil, serrors.BadParameters("id must be >= 0, got %d", req.ID)
	}
	lang := resolveLang(req.Lang, req.AcceptLanguage, st)

	if st.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, st.requestTimeout)
		defer cancel()
	}

	qc, _ := s.registry.Acquire(query, lang)
	defer s.finish(qc)

	if qc.Results.Len() == 0 {
		if s.defaults.IsEmpty() {
			return nil, noEngine()
		}
		plan := qc.Expansion.Plan(s.defaults, qcontext.Mode{}, 1)
		out, err := s.pipeline.Run(ctx, fetch.Request{
			Jobs:    plan.Jobs(),
			Query:   qc.Query(),
			Lang:    lang,
			Headers: qc.Headers.Clone(),
		})
		if err != nil {
			return nil, err
		}
		s.merger.Load().Fold(qc.Results, out.Results)
		qc.AddSuggestions(out.Suggestions)
		qc.Expansion.Commit(plan)
		s.logger.Debug("query_context_rebuilt",
			slog.String("query", qc.Query()),
			slog.Int("results", qc.Results.Len()))
	}

	r, ok := qc.Results.ByID(req.ID)
	if !ok {
		return nil, serrors.NotFound("result %d of query %q", req.ID, qc.Query())
	}
	h := newHit(r, s.universe)
	return &h, nil
}

// RecordClick stores that a user followed req.URL from the results of
// req.Query, feeding later personalization.
func (s *Service) RecordClick(ctx context.Context, req ClickRequest) error {
	if s.recorder == nil {
		return serrors.New(serrors.ErrCodeResourceExhausted, "click capture is not available", nil).
			WithSuggestion("enable personalize in the configuration")
	}
	query := strings.TrimSpace(req.Query)
	if qcontext.NormalizeQuery(query) == "" {
		return serrors.New(serrors.ErrCodeQueryEmpty, "query is empty", serrors.ErrBadParameters)
	}
	u, err := url.Parse(req.URL)
	if err != nil || u.Host == "" {
		return serrors.BadParameters("invalid url %q", req.URL)
	}
	lang := resolveLang(req.Lang, req.AcceptLanguage, s.settings.Load())
	return s.recorder.RecordClick(ctx, query, lang, req.URL)
}

// resolveEngines maps requested backend names to a set, defaulting to the
// enabled backends. An empty result fails with NoEngineEnabled.
func (s *Service) resolveEngines(names []string) (engine.Set, error) {
	set := s.defaults
	if len(names) > 0 {
		var err error
		if set, err = s.universe.Resolve(names); err != nil {
			return engine.Set{}, err
		}
	}
	set = set.Intersect(s.universe.All())
	if set.IsEmpty() {
		return engine.Set{}, noEngine()
	}
	return set, nil
}

func noEngine() error {
	return serrors.New(serrors.ErrCodeNoEngineEnabled, "no search engine enabled for this request", nil).
		WithSuggestion("enable a backend in the configuration or name one with --engines")
}

// finish ends a request on a locked context: the access time is refreshed,
// an empty context is released at once, and the lock is dropped.
func (s *Service) finish(qc *qcontext.Context) {
	qc.Touch(s.now())
	if qc.Results.Len() == 0 && s.registry.Release(qc) {
		s.logger.Debug("query_context_released", slog.String("query", qc.Query()))
	}
	qc.Unlock()
}

// voted returns the Results of set at least one backend of engines voted
// for, in presentation order.
func voted(set *result.Set, engines engine.Set) []*result.Result {
	all := set.All()
	out := all[:0]
	for _, r := range all {
		if !r.Votes.Intersect(engines).IsEmpty() {
			out = append(out, r)
		}
	}
	return out
}

func pageOf(rs []*result.Result, page, size int) []*result.Result {
	if size <= 0 {
		return nil
	}
	start := page * size
	if start >= len(rs) {
		return nil
	}
	return rs[start:min(start+size, len(rs))]
}
