//go:build unix

package runner

import (
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
)

// startPTY runs cmd on a fresh pseudo-terminal, mirrors terminal resizes
// to the child and copies its output to stdout. pty.Start puts the child
// in its own session, so group signaling keeps working.
func startPTY(cmd *exec.Cmd, stdout io.Writer, stdin io.Reader) (*os.File, error) {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	if f, ok := stdin.(*os.File); ok && f == os.Stdin {
		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		go func() {
			for range winch {
				_ = pty.InheritSize(os.Stdin, ptmx)
			}
		}()
		winch <- syscall.SIGWINCH
	}

	go func() {
		_, _ = io.Copy(stdout, ptmx)
	}()
	if stdin != nil {
		go func() {
			_, _ = io.Copy(ptmx, stdin)
		}()
	}
	return ptmx, nil
}
