package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daemonTestConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		SocketPath:          testSocketPath(t),
		PIDPath:             filepath.Join(t.TempDir(), "seekr.pid"),
		Timeout:             5 * time.Second,
		ShutdownGracePeriod: time.Second,
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, &fakeHandler{})
	assert.Error(t, err)

	_, err = New(daemonTestConfig(t), nil)
	assert.Error(t, err)
}

func TestDaemon_RunServesAndCleansUp(t *testing.T) {
	// Given: a running daemon
	cfg := daemonTestConfig(t)
	h := &fakeHandler{}
	d, err := New(cfg, h)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	c := NewClient(cfg)
	require.Eventually(t, c.IsRunning, 2*time.Second, 10*time.Millisecond)

	// Then: it answers and owns the PID file
	require.NoError(t, c.Ping(context.Background()))
	pid, err := d.PIDFile().Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	// When: stopped
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("daemon did not stop")
	}

	// Then: the service ran and everything was cleaned up
	h.mu.Lock()
	assert.True(t, h.started)
	assert.True(t, h.closed)
	h.mu.Unlock()
	_, err = os.Stat(cfg.PIDPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.SocketPath)
	assert.True(t, os.IsNotExist(err))
}

func TestDaemon_RefusesSecondInstance(t *testing.T) {
	cfg := daemonTestConfig(t)
	holder := NewPIDFile(cfg.PIDPath)
	require.NoError(t, holder.Acquire())
	t.Cleanup(func() { _ = holder.Release() })

	d, err := New(cfg, &fakeHandler{})
	require.NoError(t, err)
	err = d.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Contains(t, err.Error(), fmt.Sprintf("pid %d", os.Getpid()))
}
