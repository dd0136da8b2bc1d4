package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/seekr/internal/daemon"
	"github.com/Aman-CERP/seekr/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	page        int
	horizon     int
	engines     []string
	lang        string
	personalize bool
	radius      int
	format      string // "text", "json"
	local       bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the web through the configured engines",
		Long: `Search the web through several engines and print merged results.

Uses the running daemon when there is one, so repeated searches and later
pages reuse its query contexts. Otherwise the search runs in-process.

Examples:
  seekr search golang generics
  seekr search golang generics --page 1
  seekr search "rust async" -e duckduckgo -e mojeek
  seekr search kubernetes operators --personalize --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.page, "page", "p", 0, "Zero-based result page")
	cmd.Flags().IntVar(&opts.horizon, "horizon", 0, "Backend pages to expand to (default page+1)")
	cmd.Flags().StringSliceVarP(&opts.engines, "engine", "e", nil, "Engine to query (repeatable, default all enabled)")
	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "Query language code, or auto")
	cmd.Flags().BoolVar(&opts.personalize, "personalize", false, "Rerank with recorded clicks")
	cmd.Flags().IntVar(&opts.radius, "radius", -1, "Personalization query radius (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.local, "local", false, "Search in-process even if a daemon is running")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("invalid format %q: must be text or json", opts.format)
	}

	n, err := openNode(ctx, opts.local)
	if err != nil {
		return err
	}
	defer func() { _ = n.Close() }()

	req := daemon.SearchParams{
		Query:          query,
		Lang:           opts.lang,
		AcceptLanguage: acceptLanguage(),
		Engines:        opts.engines,
		Page:           opts.page,
		Horizon:        opts.horizon,
		Personalize:    opts.personalize,
	}
	if opts.radius >= 0 {
		r := opts.radius
		req.Radius = &r
	}

	slog.Info("cli_search_started", slog.String("query", query), slog.Int("page", opts.page))
	resp, err := n.Search(ctx, req)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeJSON(cmd, resp)
	}
	output.New(cmd.OutOrStdout()).SearchResults(resp)
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// acceptLanguage derives an Accept-Language value from the POSIX locale,
// e.g. "de_DE.UTF-8" becomes "de-DE".
func acceptLanguage() string {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(env)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return ""
}
