package qcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_WaitWakesOnBroadcast(t *testing.T) {
	s := NewSignal()
	got := make(chan uint64, 1)

	go func() {
		gen, final, err := s.Wait(context.Background(), 0)
		if err == nil && !final {
			got <- gen
		}
	}()

	time.Sleep(5 * time.Millisecond)
	s.Broadcast()

	select {
	case gen := <-got:
		assert.Equal(t, uint64(1), gen)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestSignal_WaitReturnsImmediatelyForMissedBroadcasts(t *testing.T) {
	s := NewSignal()
	s.Broadcast()
	s.Broadcast()

	gen, final, err := s.Wait(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, uint64(2), gen)
	assert.False(t, final)
}

func TestSignal_CloseIsFinalAndIdempotent(t *testing.T) {
	s := NewSignal()
	s.Close()
	s.Close()
	s.Broadcast()

	gen, final, err := s.Wait(context.Background(), 99)

	require.NoError(t, err)
	assert.True(t, final)
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, uint64(1), s.Generation())
}

func TestSignal_WaitHonorsContext(t *testing.T) {
	s := NewSignal()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, _, err := s.Wait(ctx, 0)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
