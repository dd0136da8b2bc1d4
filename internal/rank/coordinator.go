package rank

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/personalize"
	"github.com/Aman-CERP/seekr/internal/qcontext"
)

// Coordinator starts personalization tasks, bounding how many run at once.
type Coordinator struct {
	oracle personalize.Oracle
	slots  *semaphore.Weighted
	logger *slog.Logger
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator returns a coordinator allowing maxConcurrent tasks.
func NewCoordinator(oracle personalize.Oracle, maxConcurrent int, opts ...CoordinatorOption) *Coordinator {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	c := &Coordinator{
		oracle: oracle,
		slots:  semaphore.NewWeighted(int64(maxConcurrent)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Task is one running personalization.
type Task struct {
	sig    *qcontext.Signal
	cancel context.CancelFunc
	done   chan struct{}
	logger *slog.Logger
	query  string

	est personalize.Estimator
	err error
}

// Start launches personalization for qc using the signal of the request
// that holds qc's lock. A node with no free slot, or no oracle, cannot
// start one; the request must then fail rather than return unpersonalized.
func (c *Coordinator) Start(ctx context.Context, qc *qcontext.Context, radius int) (*Task, error) {
	if c.oracle == nil {
		return nil, serrors.New(serrors.ErrCodeResourceExhausted, "personalization is not available", nil).
			WithSuggestion("enable personalize in the configuration")
	}
	if !c.slots.TryAcquire(1) {
		return nil, serrors.New(serrors.ErrCodeResourceExhausted, "too many personalization tasks running", nil)
	}

	tctx, cancel := context.WithCancel(ctx)
	t := &Task{
		sig:    qc.Signal(),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: c.logger,
		query:  qc.Query(),
	}
	q := personalize.Query{Text: qc.Query(), Lang: qc.Lang(), Radius: radius}

	go func() {
		defer close(t.done)
		defer c.slots.Release(1)
		t.est, t.err = c.oracle.Personalize(tctx, q, t.sig)
	}()
	return t, nil
}

// Join performs the final broadcast on the request's signal and waits for
// the task. Oracle failures degrade to base ranking: they are logged and
// Join returns a nil Estimator.
func (t *Task) Join(ctx context.Context) personalize.Estimator {
	start := time.Now()
	t.sig.Close()

	select {
	case <-t.done:
	case <-ctx.Done():
		t.cancel()
		<-t.done
	}
	t.cancel()

	if t.err != nil {
		err := serrors.Wrap(serrors.ErrCodeUpstreamDegraded, t.err)
		t.logger.Warn("personalization_degraded",
			append([]any{slog.String("query", t.query)}, serrors.LogAttrs(err)...)...)
		return nil
	}
	t.logger.Debug("personalization_joined",
		slog.String("query", t.query),
		slog.Duration("waited", time.Since(start)))
	return t.est
}
