// TEST TYPE: Integration Tests
// DEPENDENCIES: Temp directories, /bin/sh
// PURPOSE: Verify the commands end to end against a config directory

package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/astral/internal/cli"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/testutil"
)

func setupConfig(t *testing.T) string {
	t.Helper()
	root := testutil.TempDir(t)
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("ASTRAL_DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("TMPDIR", filepath.Join(root, "tmp"))

	configDir := filepath.Join(root, "config")
	testutil.WriteTree(t, filesystem.NewOS(), configDir, map[string]string{
		"context.yml":  "name: world\n",
		"template.txt": "hello {{ .name }}",
		"out/.keep":    "",
		"modules.yml": `
greeter:
  on_startup:
    compile:
      content: template.txt
      target: out/greeting.txt
  on_event:
    run:
      shell: echo {event} > out/event.txt
`,
	})
	return configDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCmd(t *testing.T) {
	configDir := setupConfig(t)

	_, err := execute(t, "--config-dir", configDir, "run", "--event", "night")
	require.NoError(t, err)

	greeting, err := os.ReadFile(filepath.Join(configDir, "out/greeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(greeting))

	event, err := os.ReadFile(filepath.Join(configDir, "out/event.txt"))
	require.NoError(t, err)
	assert.Equal(t, "night\n", string(event))
}

func TestRunCmd_UnknownBlock(t *testing.T) {
	configDir := setupConfig(t)

	_, err := execute(t, "--config-dir", configDir, "run", "--block", "on_sunrise")
	assert.True(t, errors.IsErrorCode(err, errors.ErrBlockNotFound))
}

func TestContextCmd(t *testing.T) {
	configDir := setupConfig(t)

	out, err := execute(t, "--config-dir", configDir, "context")
	require.NoError(t, err)
	assert.Equal(t, "name: world\n", out)
}

func TestCleanupCmd(t *testing.T) {
	configDir := setupConfig(t)
	greeting := filepath.Join(configDir, "out/greeting.txt")

	_, err := execute(t, "--config-dir", configDir, "run")
	require.NoError(t, err)
	require.FileExists(t, greeting)

	out, err := execute(t, "--config-dir", configDir, "cleanup", "greeter", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "Would remove 1 file(s) created by greeter\n", out)
	assert.FileExists(t, greeting)

	out, err = execute(t, "--config-dir", configDir, "cleanup", "greeter", "--setup")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 file(s) created by greeter\n", out)
	assert.NoFileExists(t, greeting)

	_, err = execute(t, "--config-dir", configDir, "cleanup")
	assert.Error(t, err, "module name is required")
}

func TestVersionCmd(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "astral version dev\n  commit: unknown\n  built:  unknown\n", out,
		"styles render as plain text when the output is not a terminal")
}

func TestRootCmd_NoCommand(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	_, err := execute(t)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
