package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/seekr/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, filepath.Join(config.DataDir(), "seekr.sock"), cfg.SocketPath)
	assert.Equal(t, filepath.Join(config.DataDir(), "seekr.pid"), cfg.PIDPath)
	assert.Greater(t, cfg.Timeout, time.Duration(0))
	assert.Greater(t, cfg.ShutdownGracePeriod, time.Duration(0))
	assert.NoError(t, cfg.Validate())
}

func TestFromConfig(t *testing.T) {
	// Given: server settings in the node configuration
	nc := config.NewConfig()
	nc.Server.SocketPath = "/run/seekr/node.sock"
	nc.Server.PIDFile = "/run/seekr/node.pid"
	nc.Server.RequestTimeout = 5 * time.Second

	// When: deriving the daemon configuration
	cfg := FromConfig(nc)

	// Then: they win over the defaults
	assert.Equal(t, "/run/seekr/node.sock", cfg.SocketPath)
	assert.Equal(t, "/run/seekr/node.pid", cfg.PIDPath)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, DefaultConfig().ShutdownGracePeriod, cfg.ShutdownGracePeriod)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		SocketPath:          "/tmp/test.sock",
		PIDPath:             "/tmp/test.pid",
		Timeout:             30 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty socket path", func(c *Config) { c.SocketPath = "" }, "socket path"},
		{"empty PID path", func(c *Config) { c.PIDPath = "" }, "PID path"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative grace period", func(c *Config) { c.ShutdownGracePeriod = -time.Second }, "grace period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_EnsureDir(t *testing.T) {
	base := t.TempDir()
	cfg := Config{
		SocketPath: filepath.Join(base, "sock", "seekr.sock"),
		PIDPath:    filepath.Join(base, "run", "seekr.pid"),
	}

	require.NoError(t, cfg.EnsureDir())

	for _, dir := range []string{"sock", "run"} {
		info, err := os.Stat(filepath.Join(base, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
