// Package fetch fans a query out to search backends and parses their
// result pages, one concurrent task per (backend, page).
package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/seekr/internal/engine"
	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/parser"
	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/result"
)

// Request is one fan-out: every job's backends, for every page of the job.
type Request struct {
	Jobs    []qcontext.Job
	Query   string
	Lang    string
	Headers http.Header

	// OnParsed is called after each successful parse, from the task's
	// goroutine. Used to wake a personalization task waiting for data.
	OnParsed func(backend engine.ID, page int)
}

// Engines returns the union of backends across the request's jobs.
func (r Request) Engines() engine.Set {
	var s engine.Set
	for _, j := range r.Jobs {
		if !j.Pages.Empty() {
			s = s.Union(j.Engines)
		}
	}
	return s
}

// Outcome is what a Run produced.
type Outcome struct {
	// Results in task order: job, then page, then backend id, then the
	// backend's own ranking.
	Results     []*result.Result
	Suggestions []string

	// Succeeded holds backends that produced at least one valid Result;
	// Failed those that errored, timed out or parsed to nothing.
	Succeeded engine.Set
	Failed    engine.Set

	Tasks       int
	FailedTasks int
	Elapsed     time.Duration
}

// Degraded reports whether some but not all backends failed.
func (o *Outcome) Degraded() bool {
	return !o.Failed.IsEmpty() && !o.Succeeded.IsEmpty()
}

// Pipeline runs fetch-and-parse tasks.
type Pipeline struct {
	fetcher    Fetcher
	backends   map[engine.ID]*Backend
	serializer *parser.Serializer
	logger     *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSerializer shares a parse serializer between pipelines.
func WithSerializer(s *parser.Serializer) PipelineOption {
	return func(p *Pipeline) {
		if s != nil {
			p.serializer = s
		}
	}
}

// NewPipeline returns a pipeline over backends, fetching with f.
func NewPipeline(f Fetcher, backends []*Backend, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		fetcher:    f,
		backends:   make(map[engine.ID]*Backend, len(backends)),
		serializer: &parser.Serializer{},
		logger:     slog.Default(),
	}
	for _, b := range backends {
		p.backends[b.ID] = b
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type task struct {
	backend engine.ID
	page    int
}

type taskOutput struct {
	results     []*result.Result
	suggestions []string
	ok          bool
}

// Run executes req. An empty engine set fails with NoEngineEnabled before
// any network I/O. A backend failure only removes that backend's pages;
// when no task yields a valid Result the error is NoUsableEngineOutput.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Outcome, error) {
	delta := req.Engines()
	if delta.IsEmpty() {
		return nil, serrors.New(serrors.ErrCodeNoEngineEnabled, "no search engine enabled for this request", nil)
	}

	var tasks []task
	for _, j := range req.Jobs {
		for page := j.Pages.Start; page < j.Pages.End; page++ {
			for _, id := range j.Engines.IDs() {
				tasks = append(tasks, task{backend: id, page: page})
			}
		}
	}

	start := time.Now()
	outputs := make([]taskOutput, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(delta.Len())
	for i, t := range tasks {
		g.Go(func() error {
			outputs[i] = p.runTask(gctx, req, t)
			// A failed backend never fails the group.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{Tasks: len(tasks), Elapsed: time.Since(start)}
	for i, o := range outputs {
		id := engine.Of(tasks[i].backend)
		if !o.ok {
			out.FailedTasks++
			continue
		}
		out.Succeeded = out.Succeeded.Union(id)
		out.Results = append(out.Results, o.results...)
		out.Suggestions = append(out.Suggestions, o.suggestions...)
	}
	out.Failed = delta.Difference(out.Succeeded)

	p.logger.Debug("pipeline_complete",
		slog.Int("tasks", out.Tasks),
		slog.Int("failed_tasks", out.FailedTasks),
		slog.Int("results", len(out.Results)),
		slog.Duration("elapsed", out.Elapsed))

	if out.Succeeded.IsEmpty() {
		return nil, serrors.New(serrors.ErrCodeNoUsableEngineOutput,
			"no usable output from any search engine", nil).
			WithDetail("engines", delta.String())
	}
	return out, nil
}

func (p *Pipeline) runTask(ctx context.Context, req Request, t task) taskOutput {
	b, ok := p.backends[t.backend]
	if !ok {
		p.logger.Warn("pipeline_unknown_backend", slog.Int("backend", int(t.backend)))
		return taskOutput{}
	}

	url := b.Template.Build(req.Query, t.page, req.Lang)
	body, err := p.fetcher.Fetch(ctx, b.ID, url, req.Headers)
	if err != nil || len(body) == 0 {
		return taskOutput{}
	}

	results, suggestions, err := p.serializer.Parse(b.Parser, body, t.page)
	if err != nil {
		p.logger.Warn("parse_failed",
			slog.String("backend", b.Name),
			slog.Int("page", t.page),
			slog.String("error", err.Error()))
		return taskOutput{}
	}

	if req.OnParsed != nil {
		req.OnParsed(b.ID, t.page)
	}
	if !slices.ContainsFunc(results, (*result.Result).Valid) {
		p.logger.Debug("backend_empty_page",
			slog.String("backend", b.Name),
			slog.Int("page", t.page))
		return taskOutput{}
	}
	return taskOutput{results: results, suggestions: suggestions, ok: true}
}
