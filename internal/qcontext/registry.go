package qcontext

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/seekr/internal/engine"
	"github.com/Aman-CERP/seekr/internal/sweeper"
)

// Tracker is notified when contexts enter and leave the registry, so an
// idle reclaimer can follow them. *sweeper.Sweeper implements it.
type Tracker interface {
	Register(r sweeper.Sweepable)
	Unregister(r sweeper.Sweepable)
}

var _ sweeper.Sweepable = (*Context)(nil)

// Registry maps fingerprints to their unique live Context. Its lock is
// held only for lookups and inserts, never across network I/O.
type Registry struct {
	pageSize   int
	backends   int
	maxHorizon int
	now        func() time.Time
	tracker    Tracker
	logger     *slog.Logger

	mu       sync.Mutex
	contexts map[Fingerprint]*Context
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPageSize sets the number of results per backend page, used to space
// result ids across expansion pages.
func WithPageSize(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithBackends sets how many backends can contribute to one page. With the
// page size it fixes each page's id stride.
func WithBackends(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.backends = n
		}
	}
}

// WithMaxHorizon sets the clamp applied to requested horizons.
func WithMaxHorizon(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxHorizon = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// WithTracker registers every new context with t.
func WithTracker(t Tracker) RegistryOption {
	return func(r *Registry) {
		r.tracker = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		pageSize:   10,
		backends:   engine.MaxBackends,
		maxHorizon: 10,
		now:        time.Now,
		logger:     slog.Default(),
		contexts:   make(map[Fingerprint]*Context),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetTracker sets the tracker after construction, for wiring cycles where
// the tracker needs the registry.
func (r *Registry) SetTracker(t Tracker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker = t
}

// LookupOrCreate returns the live context for (query, lang), creating and
// registering it on a miss. existed reports whether it was already live.
// The context's access time is refreshed under the registry lock, so an
// idle sweep cannot reclaim a context between its lookup and its use.
func (r *Registry) LookupOrCreate(query, lang string) (c *Context, existed bool) {
	fp := FingerprintOf(query, lang)
	now := r.now()

	r.mu.Lock()
	if c, ok := r.contexts[fp]; ok {
		c.Touch(now)
		r.mu.Unlock()
		return c, true
	}

	c = newContext(r, fp, query, lang, now)
	r.insertLocked(c)
	r.mu.Unlock()

	r.logger.Debug("query_context_created",
		slog.String("query", query),
		slog.String("lang", lang),
		slog.Uint64("fingerprint", uint64(fp)))
	return c, false
}

func (r *Registry) insertLocked(c *Context) {
	if _, dup := r.contexts[c.fp]; dup {
		panic(fmt.Sprintf("qcontext: duplicate registration of fingerprint %x", uint64(c.fp)))
	}
	r.contexts[c.fp] = c
	c.registered.Store(true)
	if r.tracker != nil {
		r.tracker.Register(c)
	}
}

// deleteLocked drops c from the registry and the tracker. The tracker is
// called under r.mu so a Register can never land after the matching
// Unregister; tracker locks are leaves.
func (r *Registry) deleteLocked(c *Context) {
	delete(r.contexts, c.fp)
	c.registered.Store(false)
	if r.tracker != nil {
		r.tracker.Unregister(c)
	}
}

// Acquire is LookupOrCreate followed by Lock. If the context was removed
// while the caller waited for its lock, the lookup is retried, so the
// returned context is always live and locked.
func (r *Registry) Acquire(query, lang string) (*Context, bool) {
	for {
		c, existed := r.LookupOrCreate(query, lang)
		c.Lock()
		if c.Registered() {
			c.Touch(r.now())
			return c, existed
		}
		c.Unlock()
	}
}

// Lookup returns the live context for fp without creating one.
func (r *Registry) Lookup(fp Fingerprint) (*Context, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contexts[fp]
	return c, ok
}

// Remove deregisters whatever context is live for fp. The caller must
// guarantee nobody is using it.
func (r *Registry) Remove(fp Fingerprint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contexts[fp]
	if ok {
		r.deleteLocked(c)
	}
	return ok
}

// Release deregisters c if it is still the live context for its
// fingerprint. The caller holds c's lock.
func (r *Registry) Release(c *Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ok := r.contexts[c.fp] == c
	if ok {
		r.deleteLocked(c)
	}
	return ok
}

// RemoveIfIdle atomically checks that c is still the live context for its
// fingerprint, that nobody holds its lock and that it has been idle for at
// least delay, and deregisters it if so. A concurrent LookupOrCreate either
// sees c before removal (and refreshes its access time, failing the idle
// check) or creates a fresh context after it.
func (r *Registry) RemoveIfIdle(c *Context, now time.Time, delay time.Duration) bool {
	r.mu.Lock()
	if r.contexts[c.fp] != c {
		r.mu.Unlock()
		return false
	}
	if !c.TryLock() {
		r.mu.Unlock()
		return false
	}
	if !c.IdleFor(now, delay) {
		c.Unlock()
		r.mu.Unlock()
		return false
	}

	r.deleteLocked(c)
	c.Unlock()
	r.mu.Unlock()

	r.logger.Debug("query_context_reclaimed",
		slog.String("query", c.query),
		slog.Duration("idle", now.Sub(c.LastAccess())))
	return true
}

// Len returns the number of live contexts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.contexts)
}

// Snapshot returns the live contexts in no particular order.
func (r *Registry) Snapshot() []*Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Context, 0, len(r.contexts))
	for _, c := range r.contexts {
		out = append(out, c)
	}
	return out
}

// idStride is the id range reserved for each page: one page of results
// from every backend.
func (r *Registry) idStride() int {
	return r.pageSize * r.backends
}
