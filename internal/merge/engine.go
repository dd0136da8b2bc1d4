// Package merge folds freshly parsed Results into a query context's
// canonical Result set. Exact duplicates collapse on canonical URL; with
// content analysis enabled, near-duplicates collapse when a signature
// index proposes a candidate and the similarity oracle accepts it.
package merge

import (
	"log/slog"

	"github.com/Aman-CERP/seekr/internal/rank"
	"github.com/Aman-CERP/seekr/internal/result"
)

// Config tunes the merge pass.
type Config struct {
	// ContentAnalysis enables the near-duplicate path.
	ContentAnalysis bool
	// Threshold is handed to the similarity oracle.
	Threshold float64
	// Candidates bounds how many index neighbours are checked per Result.
	Candidates int
	// Dims is the signature vector width.
	Dims int
}

// DefaultConfig returns the merge settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		ContentAnalysis: false,
		Threshold:       0.6,
		Candidates:      8,
		Dims:            128,
	}
}

// Stats describes one Fold.
type Stats struct {
	Input    int
	Dropped  int
	Exact    int
	Near     int
	Inserted int
}

// Merged returns how many Results were folded into existing ones.
func (s Stats) Merged() int { return s.Exact + s.Near }

// Engine applies the merge algorithm. It holds no per-query state and is
// safe for concurrent use across contexts; each Set is guarded by its
// owning context's lock.
type Engine struct {
	cfg      Config
	newIndex func(dims int) SignatureIndex
	oracle   SimilarityOracle
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIndexFactory replaces the signature index implementation.
func WithIndexFactory(f func(dims int) SignatureIndex) Option {
	return func(e *Engine) {
		if f != nil {
			e.newIndex = f
		}
	}
}

// WithOracle replaces the similarity oracle.
func WithOracle(o SimilarityOracle) Option {
	return func(e *Engine) {
		if o != nil {
			e.oracle = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns a merge engine. When content analysis is enabled and
// no oracle is supplied, the English TokenOracle is loaded.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.Candidates <= 0 {
		cfg.Candidates = def.Candidates
	}
	if cfg.Dims <= 0 {
		cfg.Dims = def.Dims
	}

	e := &Engine{
		cfg:      cfg,
		newIndex: func(dims int) SignatureIndex { return NewHNSWIndex(dims) },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.ContentAnalysis && e.oracle == nil {
		o, err := NewTokenOracle()
		if err != nil {
			return nil, err
		}
		e.oracle = o
	}
	return e, nil
}

// Config returns the engine's settings.
func (e *Engine) Config() Config { return e.cfg }

// Fold merges batch into set and re-sorts set by descending base rank.
// Ties keep their previous relative order, so pagination over the same
// inputs is reproducible.
func (e *Engine) Fold(set *result.Set, batch []*result.Result) Stats {
	st := Stats{Input: len(batch)}

	var idx SignatureIndex
	if e.cfg.ContentAnalysis {
		idx = e.newIndex(e.cfg.Dims)
		for _, r := range set.All() {
			idx.Add(r)
		}
	}

	for _, r := range batch {
		if !r.Valid() {
			st.Dropped++
			continue
		}
		r.Pending = true

		if dst, ok := set.ByURL(r.CanonicalURL); ok {
			result.Merge(dst, r)
			st.Exact++
			continue
		}

		if idx != nil {
			if dst, ok := e.nearDuplicate(set, idx, r); ok {
				result.Merge(dst, r)
				st.Near++
				continue
			}
		}

		set.Insert(r)
		if idx != nil {
			idx.Add(r)
		}
		st.Inserted++
	}

	rank.SortBase(set)
	set.ResetSimScores()

	e.logger.Debug("merge_complete",
		slog.Int("input", st.Input),
		slog.Int("dropped", st.Dropped),
		slog.Int("exact", st.Exact),
		slog.Int("near", st.Near),
		slog.Int("inserted", st.Inserted),
		slog.Int("total", set.Len()))
	return st
}

func (e *Engine) nearDuplicate(set *result.Set, idx SignatureIndex, r *result.Result) (*result.Result, bool) {
	for _, id := range idx.Candidates(r, e.cfg.Candidates) {
		cand, ok := set.ByID(id)
		if !ok {
			continue
		}
		if e.oracle.AreSimilar(cand, r, e.cfg.Threshold) {
			return cand, true
		}
	}
	return nil, false
}
