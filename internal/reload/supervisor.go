package reload

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"
)

// Run describes one completed supervised child run.
type Run struct {
	Command   string
	Strategy  string
	StartedAt time.Time
	EndedAt   time.Time
	ExitCode  int
	Restarted bool
}

// Recorder receives one record per supervised child run, on the launcher
// goroutine between spawns.
type Recorder interface {
	RecordRun(run Run) error
}

// Supervisor respawns the current command line while the child keeps
// exiting with the sentinel code.
type Supervisor struct {
	name     string
	args     []string
	env      []string
	log      *log.Logger
	recorder Recorder

	// spawn runs one child to completion and returns its exit code. Test
	// seam; defaults to spawnChild.
	spawn func(args, env []string) (int, error)

	// interrupt overrides the signal channel in tests.
	interrupt chan os.Signal
}

// NewSupervisor builds the launcher-side loop for the named strategy. The
// child command line is the launcher's own, with argv[0] resolved to the
// running executable, and its environment gains the run-main marker.
func NewSupervisor(name string, opts Options) *Supervisor {
	return &Supervisor{
		name:     name,
		args:     argsForReloading(),
		env:      childEnv(),
		log:      opts.logger(),
		recorder: opts.Recorder,
		spawn:    spawnChild,
	}
}

// childEnv copies the launcher environment with the run-main marker set
// exactly once, replacing any inherited value.
func childEnv() []string {
	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, EnvRunMain+"=") {
			env = append(env, kv)
		}
	}
	return append(env, EnvRunMain+"=true")
}

// Run spawns the child and respawns it while it keeps exiting with the
// sentinel code. The first non-sentinel exit code is returned unchanged.
// An interrupt ends supervision as a normal stop with code 0: the signal
// reaches the whole foreground group, so the child is already on its way
// down and its exit code reflects the interrupt, not the workload.
func (s *Supervisor) Run() (int, error) {
	sig := s.interrupt
	if sig == nil {
		sig = make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
	}

	command := strings.Join(s.args, " ")
	for {
		s.log.Printf("[INFO] restarting with %s reloader", s.name)
		started := time.Now()
		code, err := s.spawn(s.args, s.env)
		if err != nil {
			return 0, fmt.Errorf("failed to spawn %s: %w", s.args[0], err)
		}
		s.record(Run{
			Command:   command,
			Strategy:  s.name,
			StartedAt: started,
			EndedAt:   time.Now(),
			ExitCode:  code,
			Restarted: code == ExitCode,
		})

		select {
		case <-sig:
			return 0, nil
		default:
		}
		if code != ExitCode {
			return code, nil
		}
	}
}

func (s *Supervisor) record(run Run) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordRun(run); err != nil {
		s.log.Printf("[WARN] failed to record run: %v", err)
	}
}

// spawnChild runs one child to completion with inherited stdio and returns
// its exit code. A child killed by a signal maps to the shell convention
// of 128 plus the signal number.
func spawnChild(args, env []string) (int, error) {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = env

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitStatus(exitErr.ProcessState), nil
	}
	return 0, err
}

func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// argsForReloading rebuilds the current command line for the child. The
// resolved executable path stands in for argv[0]; if resolution fails the
// recorded argv[0] is used, with the Windows fixup for a path that lost
// its .exe suffix.
func argsForReloading() []string {
	argv0, err := os.Executable()
	if err != nil {
		argv0 = os.Args[0]
		if runtime.GOOS == "windows" {
			argv0 = windowsExecutable(argv0)
		}
	}
	args := make([]string, 0, len(os.Args))
	args = append(args, argv0)
	args = append(args, os.Args[1:]...)
	return args
}

// windowsExecutable substitutes the .exe variant of path when path itself
// does not exist but the variant does.
func windowsExecutable(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".exe") {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if _, err := os.Stat(path + ".exe"); err == nil {
		return path + ".exe"
	}
	return path
}
