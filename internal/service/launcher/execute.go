package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"time"
)

// shutdownGracePeriod is how long the child may take to exit after an interrupt.
const shutdownGracePeriod = 10 * time.Second

// ErrChildProcess is returned when the server process cannot be started.
var ErrChildProcess = errors.New("server process failed")

// Streams are the standard streams handed to the child.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// StdStreams returns the launcher's own standard streams.
func StdStreams() Streams {
	return Streams{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute runs the command and blocks until it exits.
// It returns the child's exit code; the error is set only when the child could not run.
// Cancelling ctx interrupts the child and kills it after a grace period.
func Execute(ctx context.Context, cmd LaunchCommand, streams Streams) (int, error) {
	child := exec.CommandContext(ctx, cmd.Executable, cmd.Args...)
	child.Stdin = streams.Stdin
	child.Stdout = streams.Stdout
	child.Stderr = streams.Stderr
	child.WaitDelay = shutdownGracePeriod

	// Interrupts are not deliverable on Windows; the default kill applies there.
	if runtime.GOOS != "windows" {
		child.Cancel = func() error {
			return child.Process.Signal(os.Interrupt)
		}
	}

	err := child.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// Terminated by a signal.
			code = 1
		}

		return code, nil
	}

	return 1, fmt.Errorf("%w: %s: %w", ErrChildProcess, cmd.Executable, err)
}
