package actions

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/shell"
)

// RunResult is the executed command and its stdout.
type RunResult struct {
	Command string
	Stdout  string
}

// RunAction runs a shell command in the action directory.
//
// Options: shell (required), timeout (seconds or a duration string).
type RunAction struct {
	optionResolver
	null      bool
	directory string
	shell     shell.Executor
	logger    zerolog.Logger
}

// NewRun builds a run action.
func NewRun(options Options, env *Env) *RunAction {
	env = env.withDefaults()
	return &RunAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		directory:      env.Directory,
		shell:          env.Shell,
		logger:         logging.GetLogger("actions").With().Str("action", string(KindRun)).Logger(),
	}
}

func (a *RunAction) Kind() Kind    { return KindRun }
func (a *RunAction) Priority() int { return KindRun.Priority() }
func (a *RunAction) IsNull() bool  { return a.null }

// Execute runs the command. defaultTimeout applies when the action has no
// timeout of its own. The boolean is false for null objects and
// misconfigured actions.
func (a *RunAction) Execute(defaultTimeout time.Duration) (RunResult, bool) {
	if a.null {
		return RunResult{}, false
	}

	command, ok := a.Option("shell", false)
	if !ok {
		a.logger.Error().Interface("options", a.options).Msg("run requires a shell command")
		return RunResult{}, false
	}

	timeout, set, err := a.duration("timeout")
	if err != nil {
		a.logger.Error().Err(err).Str("command", command).Msg("Invalid timeout, using default")
	}
	if !set || err != nil || timeout == 0 {
		timeout = defaultTimeout
	}

	a.logger.Info().Str("command", command).Dur("timeout", timeout).Msg("Running command")
	stdout := a.shell.Run(command, timeout, a.directory)
	return RunResult{Command: command, Stdout: stdout}, true
}
