// Package shell runs user commands in a subshell.
//
// Failures never surface as errors: a non-zero exit status, a command that
// could not start and a timeout all resolve to an empty string plus a log
// entry. A command still running when its timeout expires is abandoned, not
// killed, so long-lived daemons started from a module keep running.
package shell

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/rs/zerolog"
)

// Executor is the subprocess collaborator used by actions and templates.
type Executor interface {
	Run(command string, timeout time.Duration, workingDir string) string
}

// Runner executes commands with `sh -c`.
type Runner struct {
	shell  string
	logger zerolog.Logger
}

// NewRunner creates a Runner using /bin/sh.
func NewRunner() *Runner {
	return &Runner{
		shell:  "/bin/sh",
		logger: logging.GetLogger("shell"),
	}
}

// Run executes command in workingDir and returns its stdout. A non-positive
// timeout starts the command without waiting for it.
func (r *Runner) Run(command string, timeout time.Duration, workingDir string) string {
	cmd := exec.Command(r.shell, "-c", command)
	cmd.Dir = workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		r.logger.Error().
			Err(err).
			Str("command", command).
			Str("workingDir", workingDir).
			Msg("Could not start command")
		return ""
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if timeout <= 0 {
		r.logger.Info().
			Str("command", command).
			Msg("Started command without waiting for it to exit")
		return ""
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if stderr.Len() > 0 {
			r.logger.Error().
				Str("command", command).
				Str("stderr", strings.TrimSpace(stderr.String())).
				Msg("Command wrote to stderr")
		}
		if err != nil {
			var exitErr *exec.ExitError
			event := r.logger.Error().Err(err).Str("command", command)
			if errors.As(err, &exitErr) {
				event = event.Int("exitCode", exitErr.ExitCode())
			}
			event.Msg("Command exited with non-zero return code")
			return ""
		}
		r.logger.Debug().
			Str("command", command).
			Str("stdout", stdout.String()).
			Msg("Command finished")
		return stdout.String()

	case <-timer.C:
		r.logger.Warn().
			Str("command", command).
			Dur("timeout", timeout).
			Msg("Command did not finish in time; the exit code can not be verified. " +
				"This might be intentional for background processes and daemons.")
		return ""
	}
}
