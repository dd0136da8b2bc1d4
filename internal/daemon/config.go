// Package daemon runs a seekr node in the background and lets CLI
// invocations talk to it over a Unix socket. Query contexts live as long
// as the daemon, so follow-up searches and fetches reuse earlier work.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/seekr/internal/config"
)

// Config holds configuration for the daemon service.
type Config struct {
	// SocketPath is the Unix domain socket path for IPC.
	// Default: ~/.seekr/seekr.sock
	SocketPath string

	// PIDPath is the file path for storing the daemon's process ID.
	// Default: ~/.seekr/seekr.pid
	PIDPath string

	// Timeout is the maximum duration of one client request.
	// Default: 30s
	Timeout time.Duration

	// ShutdownGracePeriod is how long in-flight requests may run after
	// shutdown starts.
	// Default: 10s
	ShutdownGracePeriod time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dir := config.DataDir()
	return Config{
		SocketPath:          filepath.Join(dir, "seekr.sock"),
		PIDPath:             filepath.Join(dir, "seekr.pid"),
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// FromConfig derives the daemon settings from the node configuration.
func FromConfig(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg.Server.SocketPath != "" {
		c.SocketPath = cfg.Server.SocketPath
	}
	if cfg.Server.PIDFile != "" {
		c.PIDPath = cfg.Server.PIDFile
	}
	if cfg.Server.RequestTimeout > 0 {
		c.Timeout = cfg.Server.RequestTimeout
	}
	return c
}

// Validate checks that the configuration is valid.
func (c Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket path cannot be empty")
	}
	if c.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}

// EnsureDir creates the directories holding the socket and PID files.
func (c Config) EnsureDir() error {
	socketDir := filepath.Dir(c.SocketPath)
	if err := os.MkdirAll(socketDir, 0o755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}
	if pidDir := filepath.Dir(c.PIDPath); pidDir != socketDir {
		if err := os.MkdirAll(pidDir, 0o755); err != nil {
			return fmt.Errorf("failed to create PID directory: %w", err)
		}
	}
	return nil
}
