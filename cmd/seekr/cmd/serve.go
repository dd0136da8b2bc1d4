package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/seekr/internal/config"
	"github.com/Aman-CERP/seekr/internal/daemon"
	"github.com/Aman-CERP/seekr/internal/logging"
	"github.com/Aman-CERP/seekr/internal/mcp"
	"github.com/Aman-CERP/seekr/internal/telemetry"
	"github.com/Aman-CERP/seekr/internal/websearch"
)

type serveOptions struct {
	mcp      bool
	noSocket bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a search node in the foreground",
		Long: `Run a search node: the daemon socket used by the CLI, the Prometheus
metrics endpoint when server.metrics_addr is set, and with --mcp an MCP
server on stdin/stdout.

The node reloads merge, language, personalization radius and timeout
settings when its config file changes.

Examples:
  seekr serve                   # daemon socket only
  seekr serve --mcp             # socket plus MCP over stdio
  seekr serve --mcp --no-socket # MCP only, e.g. launched by an AI client`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.mcp, "mcp", false, "Serve MCP over stdio")
	cmd.Flags().BoolVar(&opts.noSocket, "no-socket", false, "Do not listen on the daemon socket (requires --mcp)")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	if opts.noSocket && !opts.mcp {
		return errors.New("--no-socket requires --mcp")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout carries the MCP stream, so nothing may be written to it.
	logCfg := cfg.Logging
	if debugMode {
		logCfg.Level = "debug"
	}
	if opts.mcp {
		logCfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.NewMetrics()
	svc, err := websearch.New(cfg, websearch.WithMetrics(metrics), websearch.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if opts.noSocket {
		svc.Start(gctx)
		defer func() { _ = svc.Close() }()
	} else {
		d, err := daemon.New(daemon.FromConfig(cfg), svc, daemon.WithLogger(logger))
		if err != nil {
			_ = svc.Close()
			return err
		}
		g.Go(func() error { return d.Run(gctx) })
	}

	if addr := cfg.Server.MetricsAddr; addr != "" {
		srv := metrics.NewServer(addr)
		g.Go(func() error {
			logger.Info("metrics_listening", slog.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// A node without hot reload still serves.
	if w, err := newConfigWatcher(cfg, logger); err != nil {
		logger.Warn("config_watch_unavailable", slog.String("error", err.Error()))
	} else {
		w.OnChange(func(next *config.Config) {
			if err := svc.Reload(next); err != nil {
				logger.Warn("config_reload_rejected", slog.String("error", err.Error()))
				return
			}
			logger.Info("config_reloaded")
		})
		if err := w.Start(gctx); err != nil {
			logger.Warn("config_watch_unavailable", slog.String("error", err.Error()))
		} else {
			defer func() { _ = w.Stop() }()
		}
	}

	if opts.mcp {
		ms, err := mcp.NewServer(svc, mcp.WithLogger(logger))
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			// The client closing stdin ends the node.
			defer cancel()
			if err := ms.Serve(gctx, "stdio"); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	logger.Info("node_started", slog.String("node", svc.String()), slog.Bool("mcp", opts.mcp))
	err = g.Wait()
	logger.Info("node_stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newConfigWatcher watches the --config file, or the user and project
// config files when none was given.
func newConfigWatcher(cfg *config.Config, logger *slog.Logger) (*config.Watcher, error) {
	if configPath != "" {
		return config.WatchFile(configPath, cfg, config.WithWatchLogger(logger))
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.WatchDir(dir, cfg, config.WithWatchLogger(logger))
}
