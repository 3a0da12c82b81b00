// TEST TYPE: Unit Tests
// DEPENDENCIES: Temp directories
// PURPOSE: Verify module parsing, enabled flags and the event placeholder

package module_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/config"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/module"
	"github.com/arthur-debert/astral/pkg/testutil"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "unset", value: nil, want: true},
		{name: "true", value: true, want: true},
		{name: "false", value: false, want: false},
		{name: "off", value: "off", want: false},
		{name: "Disabled", value: "Disabled", want: false},
		{name: "not", value: "not", want: false},
		{name: "zero", value: 0, want: false},
		{name: "string zero", value: "0", want: false},
		{name: "yes", value: "yes", want: true},
		{name: "one", value: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string]any{}
			if tt.value != nil {
				raw["enabled"] = tt.value
			}
			assert.Equal(t, tt.want, module.Enabled(raw))
		})
	}
}

func TestParse(t *testing.T) {
	dir := testutil.TempDir(t)
	fsys := filesystem.NewOS()
	testutil.WriteTree(t, fsys, dir, map[string]string{
		"zeta/.keep":  "",
		"alpha/.keep": "",
	})

	store, err := config.ParseYAML([]byte(`
zeta:
  directory: zeta
alpha:
  directory: alpha
  on_modified:
    watched.txt:
      run:
        shell: echo changed
    "{event}.txt":
      run:
        shell: echo event
root: {}
disabled:
  enabled: off
missing:
  directory: nowhere
broken: just a string
`))
	require.NoError(t, err)

	modules := module.Parse(store, dir, actions.Env{FS: fsys, Shell: testutil.NewFakeShell(nil)})

	var names []string
	for _, m := range modules {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "root"}, names, "file order kept, unusable modules skipped")

	assert.Equal(t, filepath.Join(dir, "zeta"), modules[0].Directory)
	assert.Equal(t, dir, modules[2].Directory, "directory defaults to the config directory")

	alpha := modules[1]
	assert.Equal(t, []string{
		filepath.Join(dir, "alpha", ".txt"),
		filepath.Join(dir, "alpha", "watched.txt"),
	}, alpha.ModifiedPaths())
	_, ok := alpha.Modified(filepath.Join(dir, "alpha", "watched.txt"))
	assert.True(t, ok)
	assert.Len(t, alpha.PersistentBlocks(), 5)
}

func TestModule_Block(t *testing.T) {
	dir := testutil.TempDir(t)
	sh := testutil.NewFakeShell(nil)

	m, err := module.New("theme", map[string]any{
		"on_setup": map[string]any{
			"run": []any{
				map[string]any{"shell": "one"},
				map[string]any{"shell": "two"},
			},
		},
		"on_event": map[string]any{
			"run": map[string]any{"shell": "echo {event}"},
		},
	}, dir, actions.Env{Shell: sh})
	require.NoError(t, err)

	setup, err := m.Block(module.BlockOnSetup, func(_ actions.Kind, options actions.Options) bool {
		return options["shell"] == "two"
	})
	require.NoError(t, err)
	setup.Execute(0)
	assert.Equal(t, []string{"two"}, sh.Commands(), "setup actions are filtered")

	event, err := m.Block(module.BlockOnEvent, nil)
	require.NoError(t, err)
	m.SetEvent("night")
	assert.Equal(t, "night", m.Event())
	event.Execute(0)
	assert.Equal(t, []string{"two", "echo night"}, sh.Commands(), "{event} expands at execution time")

	startup, err := m.Block(module.BlockOnStartup, nil)
	require.NoError(t, err)
	assert.True(t, startup.Empty())

	_, err = m.Block("on_sunrise", nil)
	assert.True(t, errors.IsErrorCode(err, errors.ErrBlockNotFound))
}

func TestNew_EventListener(t *testing.T) {
	dir := testutil.TempDir(t)

	m, err := module.New("clock", map[string]any{"event_listener": "weekday"}, dir, actions.Env{})
	require.NoError(t, err)
	assert.Equal(t, module.ListenerWeekday, m.Listener().Type())
	assert.Equal(t, m.Listener().Event(), m.Event(), "the module starts at the listener's event")

	m, err = module.New("clock", map[string]any{
		"event_listener": map[string]any{"type": "static", "event": "night"},
	}, dir, actions.Env{})
	require.NoError(t, err)
	assert.Equal(t, "night", m.Event())

	m, err = module.New("clock", map[string]any{}, dir, actions.Env{})
	require.NoError(t, err)
	assert.Equal(t, module.ListenerStatic, m.Listener().Type())
	assert.Equal(t, "", m.Event())

	_, err = module.New("clock", map[string]any{"event_listener": "solar"}, dir, actions.Env{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestNew_MissingDirectory(t *testing.T) {
	dir := testutil.TempDir(t)
	_, err := module.New("theme", map[string]any{"directory": "nope"}, dir, actions.Env{})
	assert.True(t, errors.IsErrorCode(err, errors.ErrModuleNotFound))
}
