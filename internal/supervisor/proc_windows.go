//go:build windows

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

const detachedProcess = 0x00000008

// windowsController implements ProcessController with taskkill and netstat.
type windowsController struct{}

func newController() ProcessController { return windowsController{} }

func (windowsController) Alive(pid int) bool {
	out, err := exec.Command("tasklist", "/fi", fmt.Sprintf("PID eq %d", pid)).Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}

func (windowsController) Terminate(pid int) error {
	// Tree-kill; taskkill without /F asks processes to close.
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T").Run()
}

func (windowsController) Kill(pid int) error {
	return exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/F", "/T").Run()
}

func (windowsController) PortOwner(port int) (int, bool) {
	out, err := exec.Command("netstat", "-ano").Output()
	if err != nil {
		return 0, false
	}
	suffix := ":" + strconv.Itoa(port)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "TCP" {
			continue
		}
		if strings.HasSuffix(fields[1], suffix) {
			if pid, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				return pid, true
			}
		}
	}
	return 0, false
}

func (windowsController) StartDetached(name string, args []string, logPath string) (int, error) {
	logfh, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open log file %s: %w", logPath, err)
	}
	defer logfh.Close()

	cmd := exec.Command(name, args...)
	cmd.Stdout = logfh
	cmd.Stderr = logfh
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}
