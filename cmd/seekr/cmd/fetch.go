package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/seekr/internal/daemon"
	"github.com/Aman-CERP/seekr/internal/output"
)

func newFetchCmd() *cobra.Command {
	var (
		lang   string
		format string
		local  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <id> <query>",
		Short: "Show one result of a query by id",
		Long: `Show one result of a query by the id printed next to it by 'seekr search'.

Ids are stable for a query as long as its context is alive on the daemon.

Examples:
  seekr fetch 3 golang generics`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 0 {
				return fmt.Errorf("invalid result id %q", args[0])
			}
			n, err := openNode(cmd.Context(), local)
			if err != nil {
				return err
			}
			defer func() { _ = n.Close() }()

			hit, err := n.Fetch(cmd.Context(), daemon.FetchParams{
				Query:          strings.Join(args[1:], " "),
				Lang:           lang,
				AcceptLanguage: acceptLanguage(),
				ID:             id,
			})
			if err != nil {
				return err
			}
			if format == "json" {
				return writeJSON(cmd, hit)
			}
			output.New(cmd.OutOrStdout()).Hit(hit)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Query language code, or auto")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&local, "local", false, "Run in-process even if a daemon is running")
	return cmd
}

func newClickCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "click <url> <query>",
		Short: "Record that a result was useful for a query",
		Long: `Record that a result URL was followed for a query. Personalized searches
for the same or similar queries rank recorded URLs and their sites higher.

Examples:
  seekr click https://go.dev/doc/tutorial/generics golang generics`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := openNode(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = n.Close() }()

			query := strings.Join(args[1:], " ")
			if err := n.Click(cmd.Context(), daemon.ClickParams{
				Query:          query,
				Lang:           lang,
				AcceptLanguage: acceptLanguage(),
				URL:            args[0],
			}); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Recorded %s for %q", args[0], query)
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Query language code, or auto")
	return cmd
}

func newEnginesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List the configured search engines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := openNode(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = n.Close() }()

			engines, err := n.Engines(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, engines)
			}
			output.New(cmd.OutOrStdout()).Engines(engines)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
