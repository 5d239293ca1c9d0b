// Package runner starts the wrapped command and coordinates its shutdown.
//
// The supervised child runs the user's command here while a change
// detector watches the tree. When the detector wants a reload it calls
// Shutdown with the exit code to report; the runner stops the command's
// whole process group, waits, and Run returns that code so the launcher
// sees the sentinel instead of whatever the command died with.
package runner

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/samber/lo"
)

// DefaultGrace is the TERM-to-KILL window used when the caller supplies a
// non-positive one.
const DefaultGrace = 5 * time.Second

// Config describes one command invocation.
type Config struct {
	// Argv is the command and its arguments. Must not be empty.
	Argv []string

	// Dir is the working directory; empty means inherit.
	Dir string

	// Env supplies extra variables for the child. The real environment
	// wins on conflicts, matching the usual dotenv rule.
	Env map[string]string

	// Grace is how long a terminated command gets before it is killed.
	Grace time.Duration

	// PTY runs the command on a pseudo-terminal so it keeps emitting
	// color and progress output.
	PTY bool

	// Log receives runner lines. Nil uses the process-wide default.
	Log *log.Logger

	// Stdin, Stdout and Stderr default to the process's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Runner runs one command to completion.
type Runner struct {
	argv   []string
	dir    string
	env    map[string]string
	grace  time.Duration
	pty    bool
	log    *log.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	mu       sync.Mutex
	cmd      *exec.Cmd
	ptmx     *os.File
	override *int
	stopOnce sync.Once
	done     chan struct{}
}

// New builds a Runner from cfg.
func New(cfg Config) (*Runner, error) {
	if len(cfg.Argv) == 0 {
		return nil, errors.New("no command given")
	}
	r := &Runner{
		argv:   cfg.Argv,
		dir:    cfg.Dir,
		env:    cfg.Env,
		grace:  cfg.Grace,
		pty:    cfg.PTY,
		log:    cfg.Log,
		stdin:  cfg.Stdin,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		done:   make(chan struct{}),
	}
	if r.grace <= 0 {
		r.grace = DefaultGrace
	}
	if r.log == nil {
		r.log = log.Default()
	}
	if r.stdin == nil {
		r.stdin = os.Stdin
	}
	if r.stdout == nil {
		r.stdout = os.Stdout
	}
	if r.stderr == nil {
		r.stderr = os.Stderr
	}
	return r, nil
}

// Start spawns the command in its own process group (or on a fresh pty)
// without waiting for it.
func (r *Runner) Start() error {
	cmd := exec.Command(r.argv[0], r.argv[1:]...)
	cmd.Dir = r.dir
	cmd.Env = mergeEnv(os.Environ(), r.env)

	if r.pty {
		ptmx, err := startPTY(cmd, r.stdout, r.stdin)
		if err != nil {
			return fmt.Errorf("failed to start %s on a pty: %w", r.argv[0], err)
		}
		r.mu.Lock()
		r.cmd = cmd
		r.ptmx = ptmx
		r.mu.Unlock()
	} else {
		cmd.Stdin = r.stdin
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
		setProcessGroup(cmd)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start %s: %w", r.argv[0], err)
		}
		r.mu.Lock()
		r.cmd = cmd
		r.mu.Unlock()
	}

	r.log.Printf("[DEBUG] started %s (pid %d)", strings.Join(r.argv, " "), cmd.Process.Pid)
	return nil
}

// Wait blocks until the command exits and returns the code to report: the
// Shutdown override when one was set, the command's own exit code
// otherwise. A command killed by a signal maps to 128 plus the signal
// number.
func (r *Runner) Wait() (int, error) {
	r.mu.Lock()
	cmd, ptmx := r.cmd, r.ptmx
	r.mu.Unlock()
	if cmd == nil {
		return 0, errors.New("command not started")
	}

	err := cmd.Wait()
	close(r.done)
	if ptmx != nil {
		ptmx.Close()
	}

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return 0, fmt.Errorf("failed to wait for %s: %w", r.argv[0], err)
		}
		code = exitCode(exitErr.ProcessState)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.override != nil {
		return *r.override, nil
	}
	return code, nil
}

// Run starts the command and waits for it.
func (r *Runner) Run() (int, error) {
	if err := r.Start(); err != nil {
		return 0, err
	}
	return r.Wait()
}

// Shutdown stops the command and makes Wait report code instead of the
// command's own exit status. Safe to call from any goroutine; a detector
// uses this as its exit hook so the sentinel code survives the teardown.
func (r *Runner) Shutdown(code int) {
	r.mu.Lock()
	if r.override == nil {
		c := code
		r.override = &c
	}
	r.mu.Unlock()
	r.terminate()
}

// Stop stops the command without overriding its exit code.
func (r *Runner) Stop() {
	r.terminate()
}

// terminate asks the process group to stop and escalates to a kill after
// the grace period. The escalation goroutine stands down as soon as Wait
// observes the exit.
func (r *Runner) terminate() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		cmd := r.cmd
		r.mu.Unlock()
		if cmd == nil || cmd.Process == nil {
			return
		}
		if err := signalGroup(cmd, syscall.SIGTERM); err != nil {
			r.log.Printf("[WARN] failed to stop %s: %v", r.argv[0], err)
		}
		go func() {
			select {
			case <-r.done:
			case <-time.After(r.grace):
				r.log.Printf("[WARN] %s ignored termination for %s, killing", r.argv[0], r.grace)
				_ = signalGroup(cmd, syscall.SIGKILL)
			}
		}()
	})
}

func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// mergeEnv appends extra entries for keys the base environment does not
// already define. Extra keys are added in sorted order so child
// environments are reproducible.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	present := make(map[string]bool, len(base))
	for _, kv := range base {
		if i := strings.IndexByte(kv, '='); i > 0 {
			present[kv[:i]] = true
		}
	}
	out := append([]string(nil), base...)
	keys := lo.Keys(extra)
	sort.Strings(keys)
	for _, k := range keys {
		if !present[k] {
			out = append(out, k+"="+extra[k])
		}
	}
	return out
}
