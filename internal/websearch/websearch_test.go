package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/seekr/internal/config"
	"github.com/Aman-CERP/seekr/internal/engine"
	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/parser"
	"github.com/Aman-CERP/seekr/internal/personalize"
	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/result"
)

// fakeFetcher serves searx JSON pages. Every backend returns one result
// shared with the other backends and one of its own per page.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeFetcher) Fetch(_ context.Context, _ engine.ID, rawURL string, _ http.Header) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(u.Host, ".test")
	page, _ := strconv.Atoi(u.Query().Get("pageno"))
	page-- // pageno is 1-based

	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", name, page))
	fail := f.fail[name]
	f.mu.Unlock()

	if fail {
		return nil, errors.New("connection refused")
	}
	if u.Query().Get("q") == "nothing" {
		return []byte(`{"results":[]}`), nil
	}
	return json.Marshal(map[string]any{
		"results": []map[string]string{
			{"url": fmt.Sprintf("https://www.shared.example/p%d/", page), "title": fmt.Sprintf("Shared page %d", page)},
			{"url": fmt.Sprintf("https://%s.example/p%d", name, page), "title": fmt.Sprintf("%s page %d", name, page)},
		},
		"suggestions": []string{name + " tips"},
	})
}

// Calls returns the fetches made since the last call, sorted.
func (f *fakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.calls)
	f.calls = nil
	slices.Sort(out)
	return out
}

func testConfig(names ...string) *config.Config {
	cfg := config.NewConfig()
	cfg.Backends = nil
	for _, n := range names {
		cfg.Backends = append(cfg.Backends, config.BackendConfig{
			Name:    n,
			URL:     "http://" + n + ".test/search?q=%query&pageno=%page&language=%lang&format=json",
			Parser:  parser.ProfileSearxJSON,
			PerPage: 10,
		})
	}
	cfg.Search.Lang = "en"
	cfg.Personalize.Enabled = false
	cfg.Personalize.DBPath = ""
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, f *fakeFetcher, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{
		WithFetcher(f),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func hitByTitle(t *testing.T, resp *SearchResponse, title string) Hit {
	t.Helper()
	for _, h := range resp.Hits {
		if h.Title == title {
			return h
		}
	}
	require.Failf(t, "hit not found", "title %q", title)
	return Hit{}
}

func TestHandleSearch_MergesAgreeingBackends(t *testing.T) {
	// Given: two backends returning one shared URL
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f)

	// When: searching
	resp, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang"})

	// Then: the shared result carries both votes and ranks first
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0", "beta:0"}, f.Calls())
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Hits, 3)
	assert.Equal(t, "Shared page 0", resp.Hits[0].Title)
	assert.Equal(t, []string{"alpha", "beta"}, resp.Hits[0].Engines)
	assert.Equal(t, 2.0, resp.Hits[0].Rank)
	assert.Equal(t, 1.0, hitByTitle(t, resp, "beta page 0").Rank)
	assert.ElementsMatch(t, []string{"alpha tips", "beta tips"}, resp.Suggestions)
	assert.Equal(t, 1, s.Status().Contexts)
}

func TestHandleSearch_ExpansionIsMonotonic(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f)
	ctx := context.Background()

	_, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Horizon: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0", "beta:0"}, f.Calls())

	// Deeper: only the missing pages
	resp, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Horizon: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:1", "alpha:2", "beta:1", "beta:2"}, f.Calls())
	assert.Equal(t, 3, resp.Horizon)

	// Shallower: nothing
	resp, err = s.HandleSearch(ctx, SearchRequest{Query: "golang", Horizon: 2})
	require.NoError(t, err)
	assert.Empty(t, f.Calls())
	assert.Equal(t, 3, resp.Horizon)
	assert.Zero(t, resp.Fetched)
	assert.Equal(t, 9, resp.Total)
}

func TestHandleSearch_PageImpliesHorizon(t *testing.T) {
	f := &fakeFetcher{}
	cfg := testConfig("alpha")
	cfg.Search.ResultsPerPage = 2
	s := newTestService(t, cfg, f)

	resp, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang", Page: 1})

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0", "alpha:1"}, f.Calls())
	assert.Equal(t, 4, resp.Total)
	require.Len(t, resp.Hits, 2)
	assert.Equal(t, 1, resp.Page)
}

func TestHandleSearch_CatchesUpNewBackend(t *testing.T) {
	// Given: a context expanded to horizon 2 with alpha only
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f)
	ctx := context.Background()
	_, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Engines: []string{"alpha"}, Horizon: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0", "alpha:1"}, f.Calls())

	// When: beta is added at the same horizon
	resp, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Engines: []string{"alpha", "beta"}, Horizon: 2})

	// Then: only beta's pages are fetched; votes reflect real agreement
	require.NoError(t, err)
	assert.Equal(t, []string{"beta:0", "beta:1"}, f.Calls())
	assert.Equal(t, []string{"alpha", "beta"}, hitByTitle(t, resp, "Shared page 1").Engines)
	assert.Equal(t, []string{"alpha"}, hitByTitle(t, resp, "alpha page 0").Engines)
	assert.Equal(t, []string{"beta"}, hitByTitle(t, resp, "beta page 1").Engines)
}

func TestHandleSearch_FiltersToRequestedEngines(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f)
	ctx := context.Background()
	_, err := s.HandleSearch(ctx, SearchRequest{Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0", "beta:0"}, f.Calls())

	resp, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Engines: []string{"beta"}})

	require.NoError(t, err)
	assert.Empty(t, f.Calls())
	assert.Equal(t, 2, resp.Total)
	for _, h := range resp.Hits {
		assert.Contains(t, h.Engines, "beta")
	}
}

func TestHandleSearch_NoEngineEnabledBeforeAnyFetch(t *testing.T) {
	// Given: every backend disabled
	off := false
	cfg := testConfig("alpha", "beta")
	for i := range cfg.Backends {
		cfg.Backends[i].Enabled = &off
	}
	f := &fakeFetcher{}
	s := newTestService(t, cfg, f)

	// When: searching with the default engines
	_, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang"})

	// Then: no backend was called and no context was created
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrNoEngineEnabled))
	assert.Empty(t, f.Calls())
	assert.Zero(t, s.Status().Contexts)
}

func TestHandleSearch_BadParameters(t *testing.T) {
	radius := 99
	tests := []struct {
		name string
		req  SearchRequest
	}{
		{"empty query", SearchRequest{Query: "   "}},
		{"negative page", SearchRequest{Query: "golang", Page: -1}},
		{"negative horizon", SearchRequest{Query: "golang", Horizon: -2}},
		{"radius too large", SearchRequest{Query: "golang", Radius: &radius}},
		{"unknown engine", SearchRequest{Query: "golang", Engines: []string{"nope"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFetcher{}
			s := newTestService(t, testConfig("alpha"), f)

			_, err := s.HandleSearch(context.Background(), tt.req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, serrors.ErrBadParameters), err.Error())
			assert.Empty(t, f.Calls())
			assert.Zero(t, s.Status().Contexts)
		})
	}
}

func TestHandleSearch_PartialFailureIsAbsorbed(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"beta": true}}
	s := newTestService(t, testConfig("alpha", "beta"), f)

	resp, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang"})

	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, resp.Failed)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, int64(1), s.Status().Queries.DegradedCount)
}

func TestHandleSearch_AllBackendsFail(t *testing.T) {
	f := &fakeFetcher{fail: map[string]bool{"alpha": true, "beta": true}}
	s := newTestService(t, testConfig("alpha", "beta"), f)

	_, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrNoUsableEngineOutput))
	assert.False(t, errors.Is(err, serrors.ErrNoEngineEnabled))
	assert.Zero(t, s.Status().Contexts, "failed request must not leave a context behind")
}

func TestHandleSearch_ReleasesEmptyContext(t *testing.T) {
	// Given: two backends that answer with empty pages
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f)

	// When
	_, err := s.HandleSearch(context.Background(), SearchRequest{Query: "nothing"})

	// Then: producing nothing is NoUsableEngineOutput and the context is gone
	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrNoUsableEngineOutput))
	assert.Equal(t, []string{"alpha:0", "beta:0"}, f.Calls())
	assert.Zero(t, s.Status().Contexts)
}

func TestHandleSearch_ConcurrentSameQueryFetchesOnce(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f)

	var wg sync.WaitGroup
	totals := make([]int, 8)
	errs := make([]error, 8)
	for i := range totals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.HandleSearch(context.Background(), SearchRequest{Query: "Golang "})
			errs[i] = err
			if err == nil {
				totals[i] = resp.Total
			}
		}()
	}
	wg.Wait()

	for i := range totals {
		require.NoError(t, errs[i])
		assert.Equal(t, 3, totals[i])
	}
	assert.Equal(t, []string{"alpha:0", "beta:0"}, f.Calls())
	assert.Equal(t, 1, s.Status().Contexts)
}

func TestHandleSearch_LanguageSeparatesContexts(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha"), f)
	ctx := context.Background()

	fr, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Lang: "auto", AcceptLanguage: "fr-CH, fr;q=0.9"})
	require.NoError(t, err)
	en, err := s.HandleSearch(ctx, SearchRequest{Query: "golang"})
	require.NoError(t, err)

	assert.Equal(t, "fr", fr.Lang)
	assert.Equal(t, "en", en.Lang)
	assert.Len(t, f.Calls(), 2)
	assert.Equal(t, 2, s.Status().Contexts)
}

// stubOracle prefers Results whose URL contains prefer.
type stubOracle struct {
	prefer string
	err    error
}

type estimatorFunc func([]*result.Result) map[int]float64

func (f estimatorFunc) Estimate(rs []*result.Result) map[int]float64 { return f(rs) }

func (o stubOracle) Personalize(_ context.Context, _ personalize.Query, _ *qcontext.Signal) (personalize.Estimator, error) {
	if o.err != nil {
		return nil, o.err
	}
	return estimatorFunc(func(rs []*result.Result) map[int]float64 {
		out := make(map[int]float64)
		for _, r := range rs {
			if strings.Contains(r.URL, o.prefer) {
				out[r.ID] = 1
			}
		}
		return out
	}), nil
}

func TestHandleSearch_PersonalizedRanking(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f, WithOracle(stubOracle{prefer: "beta.example"}))
	ctx := context.Background()

	resp, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Personalize: true})
	require.NoError(t, err)
	assert.True(t, resp.Personalized)
	assert.Equal(t, []string{"beta page 0", "Shared page 0", "alpha page 0"},
		[]string{resp.Hits[0].Title, resp.Hits[1].Title, resp.Hits[2].Title})
	require.NotNil(t, resp.Hits[0].PersonalRank)

	// A later plain search is back on base rank.
	resp, err = s.HandleSearch(ctx, SearchRequest{Query: "golang"})
	require.NoError(t, err)
	assert.False(t, resp.Personalized)
	assert.Equal(t, "Shared page 0", resp.Hits[0].Title)
	assert.Nil(t, resp.Hits[0].PersonalRank)
}

func TestHandleSearch_OracleFailureDegrades(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha", "beta"), f, WithOracle(stubOracle{err: errors.New("peer unreachable")}))

	resp, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang", Personalize: true})

	require.NoError(t, err)
	assert.False(t, resp.Personalized)
	assert.Equal(t, "Shared page 0", resp.Hits[0].Title)
}

func TestHandleSearch_PersonalizationUnavailableFailsRequest(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha"), f)

	_, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang", Personalize: true})

	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrResourceExhausted))
	assert.Empty(t, f.Calls())
	assert.Zero(t, s.Status().Contexts)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestHandleFetchOne_RebuildsSweptContext(t *testing.T) {
	// Given: a searched query whose context was swept
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg := testConfig("alpha", "beta")
	f := &fakeFetcher{}
	s := newTestService(t, cfg, f, WithClock(clock.Now))
	ctx := context.Background()

	resp, err := s.HandleSearch(ctx, SearchRequest{Query: "golang"})
	require.NoError(t, err)
	first := resp.Hits[0]
	f.Calls()

	clock.Advance(cfg.Sweeper.QueryContextDelay + time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.Zero(t, s.Status().Contexts)

	// When: fetching a result by id
	hit, err := s.HandleFetchOne(ctx, FetchRequest{Query: "golang", ID: first.ID})

	// Then: the first page is refetched and the id still resolves
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0", "beta:0"}, f.Calls())
	assert.Equal(t, first.URL, hit.URL)
	assert.Equal(t, first.Engines, hit.Engines)
}

func TestHandleFetchOne_NotFound(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha"), f)
	_, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha:0"}, f.Calls())

	_, err = s.HandleFetchOne(context.Background(), FetchRequest{Query: "golang", ID: 999})

	require.Error(t, err)
	assert.True(t, errors.Is(err, serrors.ErrNotFound))
	assert.Empty(t, f.Calls())
}

func TestRecordClick_PersonalizesLaterSearches(t *testing.T) {
	// Given: a node with the local capture store
	cfg := testConfig("alpha", "beta")
	cfg.Personalize.Enabled = true
	cfg.Personalize.DBPath = filepath.Join(t.TempDir(), "captures.db")
	f := &fakeFetcher{}
	s := newTestService(t, cfg, f)
	ctx := context.Background()

	// When: a user picks beta's result
	require.NoError(t, s.RecordClick(ctx, ClickRequest{Query: "golang", URL: "https://beta.example/p0"}))
	resp, err := s.HandleSearch(ctx, SearchRequest{Query: "golang", Personalize: true})

	// Then: it is ranked first
	require.NoError(t, err)
	assert.True(t, resp.Personalized)
	assert.Equal(t, "beta page 0", resp.Hits[0].Title)
}

func TestRecordClick_Validation(t *testing.T) {
	f := &fakeFetcher{}
	s := newTestService(t, testConfig("alpha"), f)

	err := s.RecordClick(context.Background(), ClickRequest{Query: "golang", URL: "https://a.example/"})
	assert.True(t, errors.Is(err, serrors.ErrResourceExhausted))

	cfg := testConfig("alpha")
	cfg.Personalize.Enabled = true
	cfg.Personalize.DBPath = filepath.Join(t.TempDir(), "captures.db")
	s = newTestService(t, cfg, f)

	err = s.RecordClick(context.Background(), ClickRequest{Query: "golang", URL: "not a url"})
	assert.True(t, errors.Is(err, serrors.ErrBadParameters))
	err = s.RecordClick(context.Background(), ClickRequest{Query: " ", URL: "https://a.example/"})
	assert.True(t, errors.Is(err, serrors.ErrBadParameters))
}

func TestService_EnginesAndReload(t *testing.T) {
	off := false
	cfg := testConfig("alpha", "beta")
	cfg.Backends[1].Enabled = &off
	s := newTestService(t, cfg, &fakeFetcher{})

	engines := s.Engines()
	require.Len(t, engines, 2)
	assert.Equal(t, EngineInfo{Name: "alpha", Enabled: true, Parser: parser.ProfileSearxJSON, Circuit: "unknown"}, engines[0])
	assert.False(t, engines[1].Enabled)

	next := testConfig("alpha", "beta")
	next.Merge.ContentAnalysis = true
	next.Search.Lang = "de"
	require.NoError(t, s.Reload(next))

	st := s.Status()
	assert.True(t, st.ContentAnalysis)
	resp, err := s.HandleSearch(context.Background(), SearchRequest{Query: "golang"})
	require.NoError(t, err)
	assert.Equal(t, "de", resp.Lang)
}

func TestResolveLang(t *testing.T) {
	st := &settings{lang: LangAuto, defaultLang: "en"}
	tests := []struct {
		lang, accept, want string
	}{
		{"", "", "en"},
		{"DE", "", "de"},
		{"auto", "fr-CH, fr;q=0.9, en;q=0.8", "fr"},
		{"auto", "en;q=0.2, ja;q=0.9", "ja"},
		{"", "!!!", "en"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resolveLang(tt.lang, tt.accept, st), "%q / %q", tt.lang, tt.accept)
	}
}
