// Package sweeper reclaims cached resources that have gone idle.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweepable is a resource the sweeper may reclaim.
type Sweepable interface {
	// Key identifies the resource within the sweepable set.
	Key() uint64
	// TryRelease releases the resource if it has been idle for at least
	// delay as of now and nobody holds it. It reports whether it did.
	TryRelease(now time.Time, delay time.Duration) bool
}

// Config controls the background sweep loop.
type Config struct {
	// Delay is how long a resource must be idle before it is reclaimed.
	Delay time.Duration
	// Interval is the time between background sweep passes.
	Interval time.Duration
}

// DefaultConfig returns the default idle delay (5 minutes) and pass
// interval (30 seconds).
func DefaultConfig() Config {
	return Config{
		Delay:    300 * time.Second,
		Interval: 30 * time.Second,
	}
}

// Stats summarizes the sweeper's activity.
type Stats struct {
	Tracked  int       `json:"tracked"`
	Passes   uint64    `json:"passes"`
	Released uint64    `json:"released"`
	LastPass time.Time `json:"last_pass,omitzero"`
}

// Sweeper keeps the process-wide set of sweepable resources and releases
// idle ones on a timer.
type Sweeper struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
	onPass func(released int)

	mu       sync.Mutex
	items    map[uint64]Sweepable
	passes   uint64
	released uint64
	lastPass time.Time

	// Lifecycle
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPassHook is called after every pass with the number of released
// resources.
func WithPassHook(fn func(released int)) Option {
	return func(s *Sweeper) { s.onPass = fn }
}

// New returns a sweeper with an empty sweepable set.
func New(cfg Config, opts ...Option) *Sweeper {
	def := DefaultConfig()
	if cfg.Delay < 0 {
		cfg.Delay = def.Delay
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}

	s := &Sweeper{
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default(),
		items:  make(map[uint64]Sweepable),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Delay returns the configured idle delay.
func (s *Sweeper) Delay() time.Duration { return s.cfg.Delay }

// Register adds r to the sweepable set.
func (s *Sweeper) Register(r Sweepable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.Key()] = r
}

// Unregister removes r from the sweepable set. A different resource
// registered under the same key is left alone.
func (s *Sweeper) Unregister(r Sweepable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.items[r.Key()]; ok && cur == r {
		delete(s.items, r.Key())
	}
}

// Len returns the number of tracked resources.
func (s *Sweeper) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SweepPass offers every tracked resource for release once and returns the
// number released. Resources are released outside the sweeper's lock, so a
// resource may unregister itself while being released.
func (s *Sweeper) SweepPass() int {
	now := s.now()

	s.mu.Lock()
	snapshot := make([]Sweepable, 0, len(s.items))
	for _, r := range s.items {
		snapshot = append(snapshot, r)
	}
	s.mu.Unlock()

	released := 0
	for _, r := range snapshot {
		if r.TryRelease(now, s.cfg.Delay) {
			s.Unregister(r)
			released++
		}
	}

	s.mu.Lock()
	s.passes++
	s.released += uint64(released)
	s.lastPass = now
	s.mu.Unlock()

	if released > 0 {
		s.logger.Debug("sweep_pass",
			slog.Int("released", released),
			slog.Int("tracked", len(snapshot)-released))
	}
	if s.onPass != nil {
		s.onPass(released)
	}
	return released
}

// Stats returns a snapshot of the sweeper's counters.
func (s *Sweeper) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Tracked:  len(s.items),
		Passes:   s.passes,
		Released: s.released,
		LastPass: s.lastPass,
	}
}

// Start runs sweep passes every Interval until ctx is done or Stop is
// called.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SweepPass()
			}
		}
	}()

	s.logger.Debug("sweeper started",
		slog.Duration("delay", s.cfg.Delay),
		slog.Duration("interval", s.cfg.Interval))
}

// Stop halts the background loop and waits for an in-flight pass.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel := s.cancel
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		s.wg.Wait()
		s.logger.Debug("sweeper stopped")
	})
}
