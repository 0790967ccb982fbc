package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apresai/dialogcast/internal/config"
	"github.com/apresai/dialogcast/internal/observability"
	"github.com/apresai/dialogcast/internal/supervisor"
)

var (
	flagForeground bool
	flagForce      bool
	flagMonitor    bool
	flagNoMonitor  bool
	flagLogLines   int
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the server as a supervised background process",
	RunE:  runStart,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the supervised server",
	RunE:  runStop,
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the supervised server",
	RunE:  runRestart,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the supervised server is running",
	RunE:  runStatus,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the tail of today's server log",
	RunE:  runLogs,
}

func init() {
	startCmd.Flags().BoolVar(&flagForeground, "foreground", false, "Run the server in the foreground instead of detaching")
	startCmd.Flags().BoolVar(&flagForce, "force", false, "Kill whatever occupies the port before starting")
	startCmd.Flags().BoolVar(&flagMonitor, "monitor", false, "Stay attached and report when the server exits")
	startCmd.Flags().BoolVar(&flagNoMonitor, "no-monitor", false, "Detach after startup (default)")
	logsCmd.Flags().IntVarP(&flagLogLines, "lines", "n", 50, "Number of log lines to print")
}

func newSupervisor() (*supervisor.Supervisor, config.Config, error) {
	cfg := config.FromEnv()
	log := observability.InitLogger(flagVerbose)

	exe, err := os.Executable()
	if err != nil {
		return nil, cfg, fmt.Errorf("resolve executable: %w", err)
	}

	sup := supervisor.New(supervisor.Config{
		PIDFile: cfg.PIDFile(),
		Port:    cfg.Port,
		LogDir:  cfg.LogDir(),
		Command: []string{exe, "serve"},
	}, log)
	return sup, cfg, nil
}

func runStart(cmd *cobra.Command, args []string) error {
	if flagForeground {
		return runServe(cmd, args)
	}

	sup, cfg, err := newSupervisor()
	if err != nil {
		return err
	}

	result, err := sup.Start(flagForce)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if result.AlreadyRunning {
		fmt.Printf("Server already running (pid %d)\n  %s\n", result.PID, url)
		return nil
	}
	fmt.Printf("Server started (pid %d)\n  %s\n  log: %s\n", result.PID, url, sup.LogFile())

	if flagMonitor && !flagNoMonitor {
		fmt.Printf("Monitoring pid %d, Ctrl+C detaches\n", result.PID)
		for {
			state, _ := sup.Status()
			if state == supervisor.StateStopped {
				os.Remove(cfg.PIDFile())
				fmt.Printf("Server exited (pid %d)\n", result.PID)
				return nil
			}
			time.Sleep(time.Second)
		}
	}
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	sup, _, err := newSupervisor()
	if err != nil {
		return err
	}
	if err := sup.Stop(); err != nil {
		return err
	}
	fmt.Println("Server stopped")
	return nil
}

func runRestart(cmd *cobra.Command, args []string) error {
	sup, cfg, err := newSupervisor()
	if err != nil {
		return err
	}
	result, err := sup.Restart(flagForce)
	if err != nil {
		return err
	}
	fmt.Printf("Server restarted (pid %d)\n  http://localhost:%d\n", result.PID, cfg.Port)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	sup, cfg, err := newSupervisor()
	if err != nil {
		return err
	}
	state, pid := sup.Status()
	if state == supervisor.StateRunning {
		fmt.Printf("Server running (pid %d)\n  http://localhost:%d\n", pid, cfg.Port)
	} else {
		fmt.Println("Server not running")
	}
	return nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	sup, _, err := newSupervisor()
	if err != nil {
		return err
	}
	lines, err := sup.TailLog(flagLogLines)
	if err != nil {
		fmt.Println("No log file for today")
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
