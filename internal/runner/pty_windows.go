//go:build windows

package runner

import (
	"errors"
	"io"
	"os"
	"os/exec"
)

func startPTY(cmd *exec.Cmd, stdout io.Writer, stdin io.Reader) (*os.File, error) {
	return nil, errors.New("pty mode is not supported on windows")
}
