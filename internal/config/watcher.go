package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Source hands out the configuration currently in effect. Readers must
// treat the returned value as immutable.
type Source interface {
	Current() *Config
}

// Static is a Source that never changes.
type Static struct{ cfg *Config }

// NewStatic wraps cfg as a Source.
func NewStatic(cfg *Config) *Static { return &Static{cfg: cfg} }

// Current returns the wrapped configuration.
func (s *Static) Current() *Config { return s.cfg }

// Watcher reloads configuration when one of its files changes and swaps
// the new value in atomically. A reload that fails to parse or validate
// keeps the previous configuration.
type Watcher struct {
	load     func() (*Config, error)
	files    map[string]bool
	debounce time.Duration
	logger   *slog.Logger

	current atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(*Config)

	fsw      *fsnotify.Watcher
	stopOnce sync.Once
	done     chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits for writes to settle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher returns a watcher seeded with initial. files are the paths
// whose changes trigger load; they need not exist yet.
func NewWatcher(initial *Config, load func() (*Config, error), files []string, opts ...WatcherOption) (*Watcher, error) {
	if initial == nil || load == nil {
		return nil, fmt.Errorf("config watcher: initial config and loader are required")
	}
	w := &Watcher{
		load:     load,
		files:    make(map[string]bool, len(files)),
		debounce: 200 * time.Millisecond,
		logger:   slog.Default(),
		done:     make(chan struct{}),
	}
	for _, f := range files {
		if abs, err := filepath.Abs(f); err == nil {
			w.files[abs] = true
		}
	}
	for _, opt := range opts {
		opt(w)
	}
	w.current.Store(initial)
	return w, nil
}

// WatchDir returns a watcher over the user config and the project config
// files of dir, reloading with Load(dir).
func WatchDir(dir string, initial *Config, opts ...WatcherOption) (*Watcher, error) {
	files := append([]string{GetUserConfigPath()}, ProjectConfigPaths(dir)...)
	return NewWatcher(initial, func() (*Config, error) { return Load(dir) }, files, opts...)
}

// WatchFile returns a watcher over a single explicit config file.
func WatchFile(path string, initial *Config, opts ...WatcherOption) (*Watcher, error) {
	return NewWatcher(initial, func() (*Config, error) { return LoadFile(path) }, []string{path}, opts...)
}

// Current returns the configuration in effect.
func (w *Watcher) Current() *Config { return w.current.Load() }

// OnChange registers fn to be called after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Reload loads the configuration now and publishes it on success.
func (w *Watcher) Reload() error {
	cfg, err := w.load()
	if err != nil {
		w.logger.Warn("config_reload_failed", slog.String("error", err.Error()))
		return err
	}
	w.current.Store(cfg)
	w.logger.Info("config_reloaded", slog.Int("backends", len(cfg.Backends)))

	w.mu.Lock()
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Start watches the parent directories of the config files until ctx is
// cancelled or Stop is called. Directories are watched rather than files
// so editors that replace the file on save are still seen.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	w.fsw = fsw

	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	watched := 0
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			w.logger.Debug("config_watch_skipped", slog.String("dir", d), slog.String("error", err.Error()))
			continue
		}
		watched++
	}
	w.logger.Debug("config_watch_started", slog.Int("dirs", watched))

	go w.loop(ctx)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			_ = w.Reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config_watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
	})
	return err
}
