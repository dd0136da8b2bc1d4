package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Service is what the daemon runs: a request handler with a background
// lifecycle. *websearch.Service implements it.
type Service interface {
	Handler
	Start(ctx context.Context)
	Close() error
}

// Daemon owns the PID file and the socket server of one node.
type Daemon struct {
	cfg     Config
	svc     Service
	pidFile *PIDFile
	logger  *slog.Logger
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.logger = l
		}
	}
}

// New returns a daemon serving svc.
func New(cfg Config, svc Service, opts ...Option) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon config: %w", err)
	}
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	d := &Daemon{
		cfg:     cfg,
		svc:     svc,
		pidFile: NewPIDFile(cfg.PIDPath),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run serves until ctx is cancelled. It refuses to start while another
// daemon holds the PID file.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.cfg.EnsureDir(); err != nil {
		return err
	}
	if err := d.pidFile.Acquire(); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			if pid, rerr := d.pidFile.Read(); rerr == nil {
				return fmt.Errorf("%w (pid %d)", err, pid)
			}
		}
		return err
	}
	defer func() {
		if err := d.pidFile.Release(); err != nil {
			d.logger.Warn("daemon_pidfile_release_failed", slog.String("error", err.Error()))
		}
	}()

	srv, err := NewServer(d.cfg.SocketPath, d.svc,
		WithRequestTimeout(d.cfg.Timeout),
		WithServerLogger(d.logger))
	if err != nil {
		return err
	}

	d.svc.Start(ctx)
	defer func() {
		if err := d.svc.Close(); err != nil {
			d.logger.Warn("daemon_service_close_failed", slog.String("error", err.Error()))
		}
	}()

	d.logger.Info("daemon_started",
		slog.String("socket", d.cfg.SocketPath),
		slog.String("pid_file", d.cfg.PIDPath))

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	var serveErr error
	select {
	case serveErr = <-done:
	case <-ctx.Done():
		// In-flight requests get the grace period, then the socket goes.
		select {
		case serveErr = <-done:
		case <-time.After(d.cfg.ShutdownGracePeriod):
			d.logger.Warn("daemon_shutdown_timeout", slog.Duration("grace", d.cfg.ShutdownGracePeriod))
		}
	}

	d.logger.Info("daemon_stopped")
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}

// PIDFile exposes the daemon's PID file.
func (d *Daemon) PIDFile() *PIDFile { return d.pidFile }
