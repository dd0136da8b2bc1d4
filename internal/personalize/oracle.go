package personalize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/result"
)

// Query is what the oracle is asked to personalize.
type Query struct {
	Text   string
	Lang   string
	Radius int
}

// Estimator assigns personalized ranks to Results. Ranks are keyed by
// Result id; Results absent from the map keep their base rank.
type Estimator interface {
	Estimate(results []*result.Result) map[int]float64
}

// Oracle produces an Estimator for a query. It may watch sig to consume
// partial fetch progress; sig is closed once every backend is done.
type Oracle interface {
	Personalize(ctx context.Context, q Query, sig *qcontext.Signal) (Estimator, error)
}

// Recorder accepts click captures.
type Recorder interface {
	RecordClick(ctx context.Context, query, lang, url string) error
}

// LocalOracle estimates ranks from the node's own capture store.
type LocalOracle struct {
	store            *CaptureStore
	domainNameWeight float64
	maxRadius        int

	mu      sync.Mutex
	records *lru.Cache[string, []QueryRecord]
	uris    map[string]int
}

// LocalOption configures a LocalOracle.
type LocalOption func(*LocalOracle)

// WithDomainNameWeight scales the host term of the estimate.
func WithDomainNameWeight(w float64) LocalOption {
	return func(o *LocalOracle) {
		if w > 0 {
			o.domainNameWeight = w
		}
	}
}

// WithMaxRadius caps the radius a request may ask for.
func WithMaxRadius(r int) LocalOption {
	return func(o *LocalOracle) {
		if r >= 0 {
			o.maxRadius = r
		}
	}
}

// NewLocalOracle returns an oracle over store, caching up to cacheSize
// related-query lookups.
func NewLocalOracle(store *CaptureStore, cacheSize int, opts ...LocalOption) (*LocalOracle, error) {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, []QueryRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	o := &LocalOracle{
		store:            store,
		domainNameWeight: 0.7,
		maxRadius:        5,
		records:          cache,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Personalize implements Oracle. The local store answers immediately, so
// sig is not consulted.
func (o *LocalOracle) Personalize(ctx context.Context, q Query, _ *qcontext.Signal) (Estimator, error) {
	radius := min(max(q.Radius, 0), o.maxRadius)

	records, err := o.related(ctx, q.Text, q.Lang, radius)
	if err != nil {
		return nil, err
	}
	uris, err := o.uriCaptures(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("personalize_records",
		slog.String("query", q.Text),
		slog.Int("radius", radius),
		slog.Int("related", len(records)),
		slog.Int("uris", len(uris)))

	return &SimpleEstimator{
		Records:          records,
		URIs:             uris,
		DomainNameWeight: o.domainNameWeight,
	}, nil
}

// RecordClick stores a capture and invalidates cached records.
func (o *LocalOracle) RecordClick(ctx context.Context, query, lang, url string) error {
	if err := o.store.RecordClick(ctx, query, lang, url); err != nil {
		return err
	}
	o.mu.Lock()
	o.records.Purge()
	o.uris = nil
	o.mu.Unlock()
	return nil
}

func (o *LocalOracle) related(ctx context.Context, query, lang string, radius int) ([]QueryRecord, error) {
	key := strings.Join([]string{lang, qcontext.NormalizeQuery(query), strconv.Itoa(radius)}, "\x00")
	if recs, ok := o.records.Get(key); ok {
		return recs, nil
	}
	recs, err := o.store.Related(ctx, query, lang, radius)
	if err != nil {
		return nil, err
	}
	o.records.Add(key, recs)
	return recs, nil
}

func (o *LocalOracle) uriCaptures(ctx context.Context) (map[string]int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uris != nil {
		return o.uris, nil
	}
	uris, err := o.store.URIs(ctx)
	if err != nil {
		return nil, err
	}
	o.uris = uris
	return uris, nil
}

// SimpleEstimator scores each Result by how often it, and its host, were
// picked for related queries, weighted by 1/(radius+1), times a prior from
// overall URI captures. Scores are normalized to sum to one.
type SimpleEstimator struct {
	Records          []QueryRecord
	URIs             map[string]int
	DomainNameWeight float64
}

// Estimate implements Estimator. It returns nil when nothing related was
// ever captured.
func (e *SimpleEstimator) Estimate(results []*result.Result) map[int]float64 {
	if len(e.Records) == 0 || len(results) == 0 {
		return nil
	}
	ns := float64(len(results))
	nuri := float64(len(e.URIs))

	scores := make(map[int]float64, len(results))
	var sum float64
	for _, r := range results {
		url, host := r.CanonicalURL, result.Host(r.URL)

		var posterior float64
		for _, rec := range e.Records {
			denom := math.Log(float64(rec.Total)+1) + ns
			p := 1 / denom
			if h := rec.URLs[url]; h > 0 {
				p = (math.Log(float64(h)+1) + 1) / denom
			}
			if h := rec.Hosts[host]; h > 0 {
				p *= e.DomainNameWeight * (math.Log(float64(h)+1) + 1) / denom
			} else {
				p *= e.DomainNameWeight / ns
			}
			posterior += p / float64(rec.Radius+1)
		}

		score := posterior
		if nuri > 0 {
			score *= e.prior(url) * e.prior(host)
		}
		scores[r.ID] = score
		sum += score
	}

	if sum == 0 {
		return nil
	}
	for id := range scores {
		scores[id] /= sum
	}
	return scores
}

func (e *SimpleEstimator) prior(uri string) float64 {
	denom := math.Log(float64(len(e.URIs)) + 1)
	if h := e.URIs[uri]; h > 0 {
		return (math.Log(float64(h)+1) + 1) / denom
	}
	return 1 / denom
}
