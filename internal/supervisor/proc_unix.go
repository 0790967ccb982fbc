//go:build !windows

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// unixController implements ProcessController with POSIX signals and lsof.
type unixController struct{}

func newController() ProcessController { return unixController{} }

func (unixController) Alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes existence without delivering anything.
	return proc.Signal(syscall.Signal(0)) == nil
}

func (unixController) Terminate(pid int) error {
	// The child is started with Setsid, so pid doubles as the process
	// group id. Fall back to the single process when the group is gone.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		return syscall.Kill(pid, syscall.SIGTERM)
	}
	return nil
}

func (unixController) Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}

func (unixController) PortOwner(port int) (int, bool) {
	out, err := exec.Command("lsof", "-t", "-i", fmt.Sprintf(":%d", port), "-sTCP:LISTEN").Output()
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if pid, err := strconv.Atoi(strings.TrimSpace(line)); err == nil {
			return pid, true
		}
	}
	return 0, false
}

func (unixController) StartDetached(name string, args []string, logPath string) (int, error) {
	logfh, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open log file %s: %w", logPath, err)
	}
	defer logfh.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdout = logfh
	cmd.Stderr = logfh
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Detach: the supervisor exits shortly after, the child keeps running.
	_ = cmd.Process.Release()
	return pid, nil
}
