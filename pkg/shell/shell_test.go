package shell

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Run(t *testing.T) {
	runner := NewRunner()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name    string
		command string
		timeout time.Duration
		want    string
	}{
		{"captures stdout", "echo hello", time.Second, "hello\n"},
		{"runs in working directory", "pwd", time.Second, dir + "\n"},
		{"non-zero exit yields empty", "echo partial; exit 3", time.Second, ""},
		{"stderr alone is not stdout", "echo oops 1>&2", time.Second, ""},
		{"timeout yields empty", "sleep 2; echo late", 50 * time.Millisecond, ""},
		{"non-positive timeout does not wait", "echo quick", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runner.Run(tt.command, tt.timeout, dir))
		})
	}
}

func TestRunner_MissingWorkingDirectory(t *testing.T) {
	runner := NewRunner()
	assert.Equal(t, "", runner.Run("echo hi", time.Second, "/does/not/exist"))
}

func TestRunner_SideEffectsHappen(t *testing.T) {
	runner := NewRunner()
	dir := t.TempDir()

	runner.Run("touch created", time.Second, dir)

	_, err := os.Stat(filepath.Join(dir, "created"))
	assert.NoError(t, err)
}
