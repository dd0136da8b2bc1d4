package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/seekr/internal/daemon"
	"github.com/Aman-CERP/seekr/internal/output"
)

func newDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background search node",
		Long: `The daemon keeps query contexts in memory between CLI invocations, so
repeated searches and later pages do not re-query every engine.

Commands:
  start   Start the node in the background
  stop    Stop the running node
  status  Show node status`,
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())
	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the node in the background",
		Long:  `Start 'seekr serve' as a detached background process. Use 'seekr serve' directly to run in the foreground.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStart(cmd)
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running node",
		Long:  `Sends SIGTERM to the node for a graceful shutdown, then SIGKILL if it does not exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemonStop(cmd)
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show node status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func daemonConfig() (daemon.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return daemon.Config{}, err
	}
	return daemon.FromConfig(cfg), nil
}

func runDaemonStart(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	cfg, err := daemonConfig()
	if err != nil {
		return err
	}

	client := daemon.NewClient(cfg)
	if client.IsRunning() {
		out.Status("", "Node is already running")
		return nil
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	args := []string{"serve"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if debugMode {
		args = append(args, "--debug")
	}

	bg := exec.Command(execPath, args...)
	bg.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := bg.Start(); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}

	// Reap the child and notice if it dies before listening.
	done := make(chan error, 1)
	go func() { done <- bg.Wait() }()

	for i := 0; i < 30; i++ {
		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("node exited unexpectedly: %w", err)
			}
			return fmt.Errorf("node exited unexpectedly with code 0")
		default:
		}

		time.Sleep(100 * time.Millisecond)
		if client.IsRunning() {
			out.Successf("Node started (pid %d)", bg.Process.Pid)
			out.Status("", "Socket: "+cfg.SocketPath)
			return nil
		}
	}
	return fmt.Errorf("node failed to start within timeout")
}

func runDaemonStop(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())
	cfg, err := daemonConfig()
	if err != nil {
		return err
	}

	pidFile := daemon.NewPIDFile(cfg.PIDPath)
	if !pidFile.IsRunning() {
		out.Status("", "Node is not running")
		return nil
	}

	pid, err := pidFile.Read()
	if err != nil {
		return fmt.Errorf("failed to read PID: %w", err)
	}
	if err := pidFile.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to stop node: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if !pidFile.IsRunning() {
			out.Successf("Node stopped (was pid %d)", pid)
			return nil
		}
	}

	out.Warning("Node not responding, sending SIGKILL")
	if err := pidFile.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("failed to kill node: %w", err)
	}
	_ = pidFile.Remove()
	out.Success("Node killed")
	return nil
}
