package testutil

import (
	"sync"
	"time"
)

// ShellCall is one command received by a FakeShell.
type ShellCall struct {
	Command    string
	Timeout    time.Duration
	WorkingDir string
}

// FakeShell implements shell.Executor by returning canned output.
type FakeShell struct {
	// Output maps a command to its stdout; unknown commands print nothing.
	Output map[string]string

	mu    sync.Mutex
	calls []ShellCall
}

// NewFakeShell creates a FakeShell with the given canned output.
func NewFakeShell(output map[string]string) *FakeShell {
	if output == nil {
		output = map[string]string{}
	}
	return &FakeShell{Output: output}
}

// Run records the call and returns the canned output.
func (f *FakeShell) Run(command string, timeout time.Duration, workingDir string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ShellCall{Command: command, Timeout: timeout, WorkingDir: workingDir})
	return f.Output[command]
}

// Calls returns the recorded calls in order.
func (f *FakeShell) Calls() []ShellCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ShellCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// Commands returns just the recorded command strings.
func (f *FakeShell) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Command
	}
	return out
}
