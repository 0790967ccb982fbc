// Package supervisor manages the lifecycle of the background server
// process through a PID file and a port probe. The PID file is a hint, not
// a source of truth: every decision is corroborated with a liveness check.
package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// State of the supervised process as reported by Status.
type State string

const (
	StateRunning State = "running"
	StateStopped State = "stopped"
)

var (
	// ErrPortInUse means a live but unrecorded process owns the target
	// port and force was not set.
	ErrPortInUse = errors.New("port already in use")
	// ErrStartupTimeout means the child launched but never accepted
	// connections within the startup window. The PID file is left in
	// place for diagnosis.
	ErrStartupTimeout = errors.New("server did not become ready")
)

// ProcessController abstracts the platform-divergent process operations.
// There is one implementation per OS (signals+lsof on POSIX,
// taskkill+netstat on Windows).
type ProcessController interface {
	// Alive reports whether a process with the given pid exists.
	Alive(pid int) bool
	// Terminate asks the process to exit gracefully, process-group or
	// tree wide.
	Terminate(pid int) error
	// Kill force-terminates the process.
	Kill(pid int) error
	// PortOwner resolves the pid currently listening on the port.
	PortOwner(port int) (int, bool)
	// StartDetached launches the command as a detached child with
	// stdout/stderr appended to logPath, returning its pid.
	StartDetached(name string, args []string, logPath string) (int, error)
}

// Config for a Supervisor. Command is the full argv used to launch the
// server (typically this binary with the serve subcommand).
type Config struct {
	PIDFile string
	Port    int
	LogDir  string
	Command []string
}

// Supervisor is the start/stop/restart/status state machine. It assumes at
// most one supervised process system-wide, enforced only by the
// PID-file/port convention.
type Supervisor struct {
	cfg Config
	ctl ProcessController
	log *slog.Logger

	// Injection points for tests.
	probe     func(port int) bool
	sleep     func(time.Duration)
	now       func() time.Time
	startWait int // one-second port probes before ErrStartupTimeout
	stopWait  int // one-second probes while waiting for port release
	settle    time.Duration
}

func New(cfg Config, log *slog.Logger) *Supervisor {
	return NewWithController(cfg, newController(), log)
}

func NewWithController(cfg Config, ctl ProcessController, log *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		ctl:       ctl,
		log:       log,
		probe:     probePort,
		sleep:     time.Sleep,
		now:       time.Now,
		startWait: 30,
		stopWait:  10,
		settle:    2 * time.Second,
	}
}

// probePort reports whether something is accepting connections on the
// local port.
func probePort(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// readPID parses the PID file. A missing file returns false; a file with
// unparsable content is deleted and returns false.
func (s *Supervisor) readPID() (int, bool) {
	data, err := os.ReadFile(s.cfg.PIDFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		s.log.Info("removing invalid pid file", "path", s.cfg.PIDFile)
		os.Remove(s.cfg.PIDFile)
		return 0, false
	}
	return pid, true
}

// IsRunning reports liveness of the recorded process and opportunistically
// deletes a stale record (dead PID and free port).
func (s *Supervisor) IsRunning() bool {
	pid, ok := s.readPID()
	if !ok {
		return false
	}
	if s.ctl.Alive(pid) {
		return true
	}
	if !s.probe(s.cfg.Port) {
		s.log.Info("removing stale pid file", "pid", pid)
		os.Remove(s.cfg.PIDFile)
	}
	return false
}

// StartResult reports what Start did.
type StartResult struct {
	PID            int
	AlreadyRunning bool
}

// Start launches the server unless it is already running. With force set,
// a foreign port owner is killed first; without it, an occupied port is an
// error.
func (s *Supervisor) Start(force bool) (*StartResult, error) {
	if s.IsRunning() {
		pid, _ := s.readPID()
		s.log.Info("already running", "pid", pid, "port", s.cfg.Port)
		return &StartResult{PID: pid, AlreadyRunning: true}, nil
	}

	if s.probe(s.cfg.Port) {
		if !force {
			return nil, fmt.Errorf("port %d: %w", s.cfg.Port, ErrPortInUse)
		}
		owner, ok := s.ctl.PortOwner(s.cfg.Port)
		if !ok {
			return nil, fmt.Errorf("port %d occupied, owner not found: %w", s.cfg.Port, ErrPortInUse)
		}
		s.log.Info("killing port owner", "pid", owner, "port", s.cfg.Port)
		if err := s.ctl.Kill(owner); err != nil {
			return nil, fmt.Errorf("kill port owner %d: %w", owner, err)
		}
		s.sleep(time.Second)
	}

	if err := os.MkdirAll(s.cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.PIDFile), 0o755); err != nil {
		return nil, fmt.Errorf("create pid dir: %w", err)
	}

	pid, err := s.ctl.StartDetached(s.cfg.Command[0], s.cfg.Command[1:], s.LogFile())
	if err != nil {
		return nil, fmt.Errorf("launch server: %w", err)
	}
	if err := os.WriteFile(s.cfg.PIDFile, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return nil, fmt.Errorf("write pid file: %w", err)
	}
	s.log.Info("server launched", "pid", pid, "log", s.LogFile())

	for i := 0; i < s.startWait; i++ {
		if s.probe(s.cfg.Port) {
			s.log.Info("server ready", "pid", pid, "port", s.cfg.Port, "after", fmt.Sprintf("%ds", i+1))
			return &StartResult{PID: pid}, nil
		}
		s.sleep(time.Second)
	}

	// The PID file stays behind so the failed launch can be inspected.
	return nil, fmt.Errorf("after %ds: %w", s.startWait, ErrStartupTimeout)
}

// Stop terminates the recorded process gracefully, escalating to a forced
// kill of whatever owns the port if it does not release. Stopping an
// already stopped server is a successful no-op.
func (s *Supervisor) Stop() error {
	if pid, ok := s.readPID(); ok {
		s.log.Info("terminating", "pid", pid)
		if err := s.ctl.Terminate(pid); err != nil {
			s.log.Warn("graceful termination failed", "pid", pid, "error", err)
		}
	}

	released := s.waitPortFree(s.stopWait)
	if !released {
		if owner, ok := s.ctl.PortOwner(s.cfg.Port); ok {
			s.log.Info("force-killing port owner", "pid", owner, "port", s.cfg.Port)
			if err := s.ctl.Kill(owner); err != nil {
				s.log.Warn("force kill failed", "pid", owner, "error", err)
			}
			released = s.waitPortFree(s.stopWait)
		} else {
			s.log.Warn("port occupied but owner not found", "port", s.cfg.Port)
		}
	}

	os.Remove(s.cfg.PIDFile)

	if !released {
		return fmt.Errorf("port %d still occupied after stop", s.cfg.Port)
	}
	s.log.Info("stopped", "port", s.cfg.Port)
	return nil
}

func (s *Supervisor) waitPortFree(attempts int) bool {
	for i := 0; i < attempts; i++ {
		if !s.probe(s.cfg.Port) {
			return true
		}
		s.sleep(time.Second)
	}
	return !s.probe(s.cfg.Port)
}

// Restart is stop, a fixed settle delay, then start.
func (s *Supervisor) Restart(force bool) (*StartResult, error) {
	if err := s.Stop(); err != nil {
		return nil, err
	}
	s.sleep(s.settle)
	return s.Start(force)
}

// Status reports Running/Stopped from PID liveness alone. It may disagree
// with the port probe and never cleans up stale records.
func (s *Supervisor) Status() (State, int) {
	data, err := os.ReadFile(s.cfg.PIDFile)
	if err != nil {
		return StateStopped, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return StateStopped, 0
	}
	if s.ctl.Alive(pid) {
		return StateRunning, pid
	}
	return StateStopped, pid
}

// LogFile is today's log file path (one file per day).
func (s *Supervisor) LogFile() string {
	return filepath.Join(s.cfg.LogDir, "app-"+s.now().Format("20060102")+".log")
}

// TailLog returns the last n lines of today's log file.
func (s *Supervisor) TailLog(n int) ([]string, error) {
	data, err := os.ReadFile(s.LogFile())
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
