// Package cmd provides the CLI commands for seekr.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/seekr/internal/config"
	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/logging"
	"github.com/Aman-CERP/seekr/internal/profiling"
	"github.com/Aman-CERP/seekr/pkg/version"
)

var (
	profileOpts profiling.Options
	profile     *profiling.Session
)

var (
	debugMode      bool
	configPath     string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the seekr CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seekr",
		Short: "Meta-search node aggregating several web search engines",
		Long: `seekr sends each query to several web search engines, merges their
results, and ranks them by how many engines agree. Queries are kept in
memory for a while so later pages are fetched incrementally.

Run 'seekr serve' to start a node, then search from the CLI or an
MCP client.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("seekr version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Use this config file instead of the user and project files")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to stderr and ~/.seekr/logs/")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write heap profile to file on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDaemonCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFetchCmd())
	cmd.AddCommand(newClickCmd())
	cmd.AddCommand(newEnginesCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig returns the --config file when given, otherwise the layered
// configuration for the working directory.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return config.Load(dir)
}

// startProfilingAndLogging sets up file logging and any requested profiles.
// CLI commands log to the file only; --debug mirrors to stderr.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg = logging.DebugConfig()
	}
	if logger, cleanup, err := logging.Setup(logCfg); err == nil {
		loggingCleanup = cleanup
		slog.SetDefault(logger)
	}

	if !profileOpts.Enabled() {
		return nil
	}
	s, err := profiling.Start(profileOpts)
	if err != nil {
		return err
	}
	profile = s
	return nil
}

// stopProfilingAndLogging ends the profiling session, which writes the
// heap profile, and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profile != nil {
		err = profile.Stop()
		profile = nil
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command, printing any error with its hint.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, serrors.FormatForCLI(err))
	}
	return err
}
