package qcontext

import (
	"github.com/Aman-CERP/seekr/internal/engine"
)

// Mode captures request toggles orthogonal to the engine set. Each Mode
// keeps its own expansion horizons.
type Mode struct {
	SafeSearch bool   `json:"safe_search"`
	Filter     string `json:"filter,omitempty"`
}

// PageRange is the half-open page interval [Start, End).
type PageRange struct {
	Start int
	End   int
}

// Empty reports whether the range holds no pages.
func (p PageRange) Empty() bool { return p.End <= p.Start }

// Len returns the number of pages in the range.
func (p PageRange) Len() int { return max(0, p.End-p.Start) }

// Job is one unit of fetch work: these backends, these pages.
type Job struct {
	Engines engine.Set
	Pages   PageRange
}

// Empty reports whether the job fetches nothing.
func (j Job) Empty() bool { return j.Engines.IsEmpty() || j.Pages.Empty() }

// Plan is the outcome of planning a request against a context's horizons.
// It is applied with Expansion.Commit once the fetch has succeeded.
type Plan struct {
	Mode    Mode
	Engines engine.Set

	// CatchUp brings newly enabled backends up to the current horizon.
	CatchUp Job
	// Expand fetches the pages between the horizon and the request.
	Expand Job

	union        engine.Set
	unionHorizon int
	setHorizon   int
}

// Jobs returns the non-empty jobs of p, catch-up first.
func (p Plan) Jobs() []Job {
	var jobs []Job
	if !p.CatchUp.Empty() {
		jobs = append(jobs, p.CatchUp)
	}
	if !p.Expand.Empty() {
		jobs = append(jobs, p.Expand)
	}
	return jobs
}

// Empty reports whether the plan fetches nothing.
func (p Plan) Empty() bool { return len(p.Jobs()) == 0 }

// Horizon returns the horizon (Engines, Mode) will have after Commit.
func (p Plan) Horizon() int { return p.setHorizon }

type horizonKey struct {
	engines engine.Set
	mode    Mode
}

// Expansion tracks, per (engine set, mode), how many result pages have
// been fetched. Horizons never decrease. Not safe for concurrent use; the
// owning context's lock guards it.
type Expansion struct {
	maxHorizon int
	horizons   map[horizonKey]int
	current    map[Mode]engine.Set
}

// NewExpansion returns an empty controller clamping horizons to maxHorizon.
func NewExpansion(maxHorizon int) *Expansion {
	if maxHorizon < 1 {
		maxHorizon = 1
	}
	return &Expansion{
		maxHorizon: maxHorizon,
		horizons:   make(map[horizonKey]int),
		current:    make(map[Mode]engine.Set),
	}
}

// MaxHorizon returns the clamp applied to requested horizons.
func (e *Expansion) MaxHorizon() int { return e.maxHorizon }

// Horizon returns the recorded horizon for (set, mode).
func (e *Expansion) Horizon(set engine.Set, mode Mode) (int, bool) {
	h, ok := e.horizons[horizonKey{set, mode}]
	return h, ok
}

// Current returns the engine set the context reflects for mode.
func (e *Expansion) Current(mode Mode) engine.Set {
	return e.current[mode]
}

// Plan computes the minimal fetch needed to serve set at the requested
// horizon in mode. Backends added since the last request are first
// caught up to the current horizon; then the pages between the horizon
// and the request are fetched for the whole set.
func (e *Expansion) Plan(set engine.Set, mode Mode, requested int) Plan {
	requested = min(max(requested, 1), e.maxHorizon)

	cur := e.current[mode]
	hCur := e.horizons[horizonKey{cur, mode}]
	union := cur.Union(set)

	p := Plan{
		Mode:         mode,
		Engines:      set,
		union:        union,
		unionHorizon: hCur,
	}

	if newly := set.Difference(cur); !cur.IsEmpty() && !newly.IsEmpty() && hCur > 0 {
		p.CatchUp = Job{Engines: newly, Pages: PageRange{0, hCur}}
	}

	hSet := e.horizons[horizonKey{set, mode}]
	if !cur.IsEmpty() {
		// Every backend in union is fetched to hCur once the catch-up ran.
		hSet = max(hSet, hCur)
	}

	if requested > hSet {
		p.Expand = Job{Engines: set, Pages: PageRange{hSet, requested}}
	}
	p.setHorizon = max(hSet, requested)
	if set.Equal(union) {
		p.unionHorizon = p.setHorizon
	}
	return p
}

// Commit records the horizons reached by a successfully executed plan.
func (e *Expansion) Commit(p Plan) {
	e.current[p.Mode] = p.union
	e.raise(horizonKey{p.union, p.Mode}, p.unionHorizon)
	e.raise(horizonKey{p.Engines, p.Mode}, p.setHorizon)
}

func (e *Expansion) raise(k horizonKey, h int) {
	if h > e.horizons[k] {
		e.horizons[k] = h
	}
}
