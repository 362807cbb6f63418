package worker

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result captures everything a finished command produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command exited zero.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// RunCommand executes one shell command via "sh -c", buffering stdout and
// stderr in full. A command that could not be started at all is not a
// distinct case: it comes back as a nonzero exit with the spawn error on
// stderr.
func RunCommand(ctx context.Context, command string) Result {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			if res.Stderr == "" {
				res.Stderr = err.Error()
			}
		}
	}
	return res
}
