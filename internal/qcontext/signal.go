package qcontext

import (
	"context"
	"sync"
)

// Signal is a multi-shot "new data arrived" notification. Each Broadcast
// bumps a generation counter and wakes every waiter; Close is the final
// broadcast after which Wait never blocks again.
type Signal struct {
	mu     sync.Mutex
	gen    uint64
	ch     chan struct{}
	closed bool
}

// NewSignal returns an open signal at generation zero.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Broadcast wakes all current waiters. No-op after Close.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.gen++
	close(s.ch)
	s.ch = make(chan struct{})
}

// Close performs the final broadcast. Safe to call more than once.
func (s *Signal) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.gen++
	s.closed = true
	close(s.ch)
}

// Generation returns the number of broadcasts so far.
func (s *Signal) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Wait blocks until a broadcast newer than seen has happened, the signal is
// closed, or ctx is done. It returns the current generation and whether the
// signal is closed.
func (s *Signal) Wait(ctx context.Context, seen uint64) (uint64, bool, error) {
	for {
		s.mu.Lock()
		gen, closed, ch := s.gen, s.closed, s.ch
		s.mu.Unlock()

		if gen > seen || closed {
			return gen, closed, nil
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return gen, false, ctx.Err()
		}
	}
}
