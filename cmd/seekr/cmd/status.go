package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/seekr/internal/daemon"
	"github.com/Aman-CERP/seekr/internal/output"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running node's status",
		Long: `Show whether a node is running, its process id and uptime, its live
query contexts, engines and circuit states, and query statistics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dcfg := daemon.FromConfig(cfg)
	client := daemon.NewClient(dcfg)
	out := output.New(cmd.OutOrStdout())

	if !client.IsRunning() {
		if jsonOutput {
			return writeJSON(cmd, daemon.StatusResult{Running: false, Socket: dcfg.SocketPath})
		}
		out.Status("", "Node is not running")
		out.Status("", "Run 'seekr daemon start' to start it")
		return nil
	}

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if jsonOutput {
		return writeJSON(cmd, status)
	}

	out.Successf("Node is running (pid %d, up %s)", status.PID, status.Uptime)
	out.Status("", "Socket: "+status.Socket)
	out.Newline()
	out.NodeStatus(status.Node)
	return nil
}
