// Package qcontext holds the per-query shared state of a search node and
// the process-wide registry that hands it out.
package qcontext

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/seekr/internal/result"
)

// Context is everything a node knows about one normalized (query, language)
// pair. All fields below mu are guarded by it; callers hold the lock for
// the whole plan, fetch, merge and rank of one request.
type Context struct {
	fp      Fingerprint
	query   string
	lang    string
	created time.Time

	lastAccess atomic.Int64
	registered atomic.Bool
	registry   *Registry

	mu sync.Mutex

	// Results is the arena of canonical Results in rank order.
	Results *result.Set
	// Expansion tracks pages fetched per (engine set, mode).
	Expansion *Expansion
	// Headers are sent with every backend request made for this query.
	Headers http.Header
	// Suggestions collects related queries proposed by backends.
	Suggestions []string

	signal *Signal
}

func newContext(r *Registry, fp Fingerprint, query, lang string, now time.Time) *Context {
	c := &Context{
		fp:        fp,
		query:     query,
		lang:      lang,
		created:   now,
		registry:  r,
		Results:   result.NewSet(r.idStride()),
		Expansion: NewExpansion(r.maxHorizon),
		Headers:   make(http.Header),
		signal:    NewSignal(),
	}
	c.lastAccess.Store(now.UnixNano())
	return c
}

// Fingerprint returns the context's identity.
func (c *Context) Fingerprint() Fingerprint { return c.fp }

// Key implements sweeper.Sweepable.
func (c *Context) Key() uint64 { return uint64(c.fp) }

// Query returns the query text the context was created for.
func (c *Context) Query() string { return c.query }

// Lang returns the context's language code.
func (c *Context) Lang() string { return c.lang }

// Created returns the creation time.
func (c *Context) Created() time.Time { return c.created }

// Lock acquires the context's exclusive lock.
func (c *Context) Lock() { c.mu.Lock() }

// TryLock acquires the lock only if it is free.
func (c *Context) TryLock() bool { return c.mu.TryLock() }

// Unlock releases the context's lock.
func (c *Context) Unlock() { c.mu.Unlock() }

// Touch records an access at now.
func (c *Context) Touch(now time.Time) {
	c.lastAccess.Store(now.UnixNano())
}

// LastAccess returns the time of the most recent access.
func (c *Context) LastAccess() time.Time {
	return time.Unix(0, c.lastAccess.Load())
}

// Registered reports whether the context is still the live instance for
// its fingerprint. A request that finds it false after locking must look
// the fingerprint up again.
func (c *Context) Registered() bool { return c.registered.Load() }

// IdleFor reports whether the context has not been accessed for at least
// delay as of now.
func (c *Context) IdleFor(now time.Time, delay time.Duration) bool {
	return now.Sub(c.LastAccess()) >= delay
}

// TryRelease implements sweeper.Sweepable: it deregisters the context if it
// is idle and nobody holds its lock.
func (c *Context) TryRelease(now time.Time, delay time.Duration) bool {
	return c.registry.RemoveIfIdle(c, now, delay)
}

// BeginRequest resets the personalization signal for a new request and
// returns it. Must be called with the lock held.
func (c *Context) BeginRequest() *Signal {
	c.signal = NewSignal()
	return c.signal
}

// Signal returns the signal of the request currently holding the lock.
func (c *Context) Signal() *Signal { return c.signal }

// AddSuggestions records backend query suggestions, skipping duplicates.
// Must be called with the lock held.
func (c *Context) AddSuggestions(s []string) {
	for _, q := range s {
		if q == "" {
			continue
		}
		dup := false
		for _, have := range c.Suggestions {
			if have == q {
				dup = true
				break
			}
		}
		if !dup {
			c.Suggestions = append(c.Suggestions, q)
		}
	}
}
