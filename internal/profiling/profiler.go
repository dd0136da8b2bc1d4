// Package profiling captures runtime profiles around one CLI run.
package profiling

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Options names the files to write. Empty paths are skipped.
type Options struct {
	CPU   string
	Heap  string
	Trace string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPU != "" || o.Heap != "" || o.Trace != ""
}

// Session is a set of running profiles.
type Session struct {
	heap  string
	stops []func() error
}

// Start begins the CPU profile and execution trace named in opts. If one
// fails to start, those already running are stopped.
func Start(opts Options) (*Session, error) {
	s := &Session{heap: opts.Heap}
	if opts.CPU != "" {
		if err := s.start(opts.CPU, pprof.StartCPUProfile, pprof.StopCPUProfile); err != nil {
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
	}
	if opts.Trace != "" {
		if err := s.start(opts.Trace, trace.Start, trace.Stop); err != nil {
			_ = s.Stop()
			return nil, fmt.Errorf("start trace: %w", err)
		}
	}
	return s, nil
}

func (s *Session) start(path string, begin func(w io.Writer) error, end func()) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := begin(f); err != nil {
		_ = f.Close()
		return err
	}
	s.stops = append(s.stops, func() error {
		end()
		return f.Close()
	})
	return nil
}

// Stop ends the running profiles in reverse start order, then writes the
// heap profile if one was requested. Stop is idempotent.
func (s *Session) Stop() error {
	var errs []error
	for i := len(s.stops) - 1; i >= 0; i-- {
		errs = append(errs, s.stops[i]())
	}
	s.stops = nil

	if s.heap != "" {
		errs = append(errs, writeHeap(s.heap))
		s.heap = ""
	}
	return errors.Join(errs...)
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("write heap profile: %w", err)
	}
	return nil
}
