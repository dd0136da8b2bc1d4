// Package telemetry keeps node-local search telemetry: an in-memory summary
// of recent queries for the status command, and Prometheus collectors.
package telemetry

import (
	"cmp"
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LatencyBucket is a coarse search latency class.
type LatencyBucket string

const (
	BucketFast    LatencyBucket = "lt_250ms"
	BucketNormal  LatencyBucket = "lt_1s"
	BucketSlow    LatencyBucket = "lt_3s"
	BucketTimeout LatencyBucket = "ge_3s"
)

// LatencyToBucket classifies d.
func LatencyToBucket(d time.Duration) LatencyBucket {
	switch {
	case d < 250*time.Millisecond:
		return BucketFast
	case d < time.Second:
		return BucketNormal
	case d < 3*time.Second:
		return BucketSlow
	default:
		return BucketTimeout
	}
}

// QueryEvent is one served search.
type QueryEvent struct {
	Query        string
	Lang         string
	ResultCount  int
	Fetched      int
	Cached       bool
	Degraded     bool
	Personalized bool
	Latency      time.Duration
	Timestamp    time.Time
}

// IsZeroResult reports whether the search returned nothing.
func (e QueryEvent) IsZeroResult() bool { return e.ResultCount == 0 }

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int
	size     int
	capacity int
}

// NewCircularBuffer returns a buffer holding up to capacity items.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{items: make([]T, capacity), capacity: capacity}
}

// Add appends item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, 0, b.size)
	if b.size < b.capacity {
		return append(out, b.items[:b.size]...)
	}
	out = append(out, b.items[b.head:]...)
	return append(out, b.items[:b.head]...)
}

// Size returns the number of buffered items.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// TermCount is a query term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// QueryMetricsSnapshot is a point-in-time copy of QueryMetrics.
type QueryMetricsSnapshot struct {
	TotalQueries        int64                   `json:"total_queries"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	CachedCount         int64                   `json:"cached_count"`
	DegradedCount       int64                   `json:"degraded_count"`
	PersonalizedCount   int64                   `json:"personalized_count"`
	RepeatCount         int64                   `json:"repeat_count"`
	Languages           map[string]int64        `json:"languages"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	Since               time.Time               `json:"since"`
}

// RepeatRate is the share of searches for a recently seen query, the
// population a query context cache serves.
func (s *QueryMetricsSnapshot) RepeatRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.RepeatCount) / float64(s.TotalQueries)
}

// QueryMetricsConfig sizes the collector.
type QueryMetricsConfig struct {
	TopTermsCapacity      int
	ZeroResultsCapacity   int
	RecentQueriesCapacity int
}

// DefaultQueryMetricsConfig returns the default sizes.
func DefaultQueryMetricsConfig() QueryMetricsConfig {
	return QueryMetricsConfig{
		TopTermsCapacity:      100,
		ZeroResultsCapacity:   100,
		RecentQueriesCapacity: 500,
	}
}

// QueryMetrics aggregates QueryEvents in memory. Safe for concurrent use.
type QueryMetrics struct {
	mu sync.Mutex

	total        int64
	zero         int64
	cached       int64
	degraded     int64
	personalized int64
	repeats      int64
	langs        map[string]int64
	latencies    map[LatencyBucket]int64
	since        time.Time

	topTerms    *lru.Cache[string, int64]
	recent      *lru.Cache[string, struct{}]
	zeroResults *CircularBuffer[string]
}

// NewQueryMetrics returns an empty collector.
func NewQueryMetrics(cfg QueryMetricsConfig) *QueryMetrics {
	def := DefaultQueryMetricsConfig()
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = def.TopTermsCapacity
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = def.ZeroResultsCapacity
	}
	if cfg.RecentQueriesCapacity <= 0 {
		cfg.RecentQueriesCapacity = def.RecentQueriesCapacity
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)
	recent, _ := lru.New[string, struct{}](cfg.RecentQueriesCapacity)
	return &QueryMetrics{
		langs:       make(map[string]int64),
		latencies:   make(map[LatencyBucket]int64),
		since:       time.Now(),
		topTerms:    topTerms,
		recent:      recent,
		zeroResults: NewCircularBuffer[string](cfg.ZeroResultsCapacity),
	}
}

// Record adds one search.
func (m *QueryMetrics) Record(ev QueryEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.langs[ev.Lang]++
	m.latencies[LatencyToBucket(ev.Latency)]++
	if ev.Cached {
		m.cached++
	}
	if ev.Degraded {
		m.degraded++
	}
	if ev.Personalized {
		m.personalized++
	}
	if ev.IsZeroResult() {
		m.zero++
		m.zeroResults.Add(ev.Query)
	}

	for _, term := range ExtractTerms(ev.Query) {
		n, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, n+1)
	}

	key := ev.Lang + "\x00" + strings.Join(strings.Fields(strings.ToLower(ev.Query)), " ")
	if _, seen := m.recent.Get(key); seen {
		m.repeats++
	}
	m.recent.Add(key, struct{}{})
}

// Snapshot returns a copy of the current aggregates.
func (m *QueryMetrics) Snapshot() *QueryMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var terms []TermCount
	for _, k := range m.topTerms.Keys() {
		if n, ok := m.topTerms.Peek(k); ok {
			terms = append(terms, TermCount{Term: k, Count: n})
		}
	}
	slices.SortStableFunc(terms, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Term, b.Term)
	})

	langs := make(map[string]int64, len(m.langs))
	for k, v := range m.langs {
		langs[k] = v
	}
	lat := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		lat[k] = v
	}

	return &QueryMetricsSnapshot{
		TotalQueries:        m.total,
		ZeroResultCount:     m.zero,
		CachedCount:         m.cached,
		DegradedCount:       m.degraded,
		PersonalizedCount:   m.personalized,
		RepeatCount:         m.repeats,
		Languages:           langs,
		LatencyDistribution: lat,
		TopTerms:            terms,
		ZeroResultQueries:   m.zeroResults.Items(),
		Since:               m.since,
	}
}

// ExtractTerms returns the lowercased query words of three or more bytes.
func ExtractTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}
	return terms
}
