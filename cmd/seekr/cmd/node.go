package cmd

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/seekr/internal/daemon"
	"github.com/Aman-CERP/seekr/internal/websearch"
)

// node is what the query commands talk to: a running daemon, or a
// short-lived in-process service when none is running.
type node interface {
	Search(ctx context.Context, p daemon.SearchParams) (*websearch.SearchResponse, error)
	Fetch(ctx context.Context, p daemon.FetchParams) (*websearch.Hit, error)
	Click(ctx context.Context, p daemon.ClickParams) error
	Engines(ctx context.Context) ([]websearch.EngineInfo, error)
	Close() error
}

// openNode is replaced in tests.
var openNode = dialNode

// dialNode connects to the daemon unless local is set or none is running.
func dialNode(ctx context.Context, local bool) (node, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if !local {
		client := daemon.NewClient(daemon.FromConfig(cfg))
		if client.IsRunning() {
			slog.Debug("cli_using_daemon")
			return daemonNode{client}, nil
		}
		slog.Debug("cli_daemon_unavailable_running_local")
	}

	svc, err := websearch.New(cfg, websearch.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	svc.Start(ctx)
	return localNode{svc}, nil
}

type daemonNode struct{ *daemon.Client }

func (daemonNode) Close() error { return nil }

type localNode struct{ svc *websearch.Service }

func (n localNode) Search(ctx context.Context, p daemon.SearchParams) (*websearch.SearchResponse, error) {
	return n.svc.HandleSearch(ctx, p)
}

func (n localNode) Fetch(ctx context.Context, p daemon.FetchParams) (*websearch.Hit, error) {
	return n.svc.HandleFetchOne(ctx, p)
}

func (n localNode) Click(ctx context.Context, p daemon.ClickParams) error {
	return n.svc.RecordClick(ctx, p)
}

func (n localNode) Engines(context.Context) ([]websearch.EngineInfo, error) {
	return n.svc.Engines(), nil
}

func (n localNode) Close() error { return n.svc.Close() }
