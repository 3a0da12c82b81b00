// TEST TYPE: Unit Tests
// DEPENDENCIES: Memory FS, fake shell executor, OS FS for permission bits
// PURPOSE: Verify template rendering, template funcs and permission handling

package compiler_test

import (
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/astral/pkg/compiler"
	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
)

type call struct {
	command    string
	timeout    time.Duration
	workingDir string
}

type fakeExecutor struct {
	output map[string]string
	calls  []call
}

func (f *fakeExecutor) Run(command string, timeout time.Duration, workingDir string) string {
	f.calls = append(f.calls, call{command, timeout, workingDir})
	return f.output[command]
}

func newStore() *contextstore.Store {
	store := contextstore.New()
	store.Set("colors", map[string]any{"primary": "#ff0000"})
	store.Set("fonts", map[int]any{1: "Fira", 3: "Hack"})
	return store
}

func TestCompiler_Render(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{
		"hostname": "box\n",
	}}
	c := compiler.New(filesystem.NewMemoryFS(), exec, 0)
	t.Setenv("ASTRAL_TEST_VALUE", "from-env")

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "one\ntwo\nthree", "one\ntwo\nthree"},
		{"field access", "{{ .colors.primary }}", "#ff0000"},
		{"exact integer lookup", `{{ get "fonts" 1 }}`, "Fira"},
		{"integer fallback", `{{ get "fonts" 2 }}`, "Fira"},
		{"integer above max", `{{ get "fonts" 9 }}`, "Hack"},
		{"lookup without lower index", `[{{ get "fonts" 0 }}]`, "[]"},
		{"shell trims stdout", `{{ "hostname" | shell }}`, "box"},
		{"shell fallback on empty output", `{{ shell 1 "none" "unknown-cmd" }}`, "none"},
		{"env", `{{ env "ASTRAL_TEST_VALUE" }}`, "from-env"},
		{"undefined key", "b={{ .missing }}", "b="},
		{"undefined nested key", "c={{ .nested.deep }}", "c="},
		{"undefined key below defined map", "d={{ .colors.missing.deeper }}", "d="},
		{"root variable", "{{ $.colors.primary }}", "#ff0000"},
		{"undefined key as argument", `{{ printf "[%s]" .missing }}`, "[]"},
		{"undefined key is false", "{{ if .missing }}set{{ else }}unset{{ end }}", "unset"},
		{"with scopes dot", "{{ with .colors }}{{ .primary }}{{ end }}", "#ff0000"},
		{"range over undefined key", "[{{ range .missing }}x{{ end }}]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Render("test", tt.template, newStore(), "/module")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompiler_ShellArguments(t *testing.T) {
	exec := &fakeExecutor{output: map[string]string{"date": "today"}}
	c := compiler.New(filesystem.NewMemoryFS(), exec, 3*time.Second)

	_, err := c.Render("t", `{{ shell "date" }}|{{ shell 2 "date" }}|{{ shell "500ms" "x" "date" }}`, nil, "/module")
	require.NoError(t, err)

	require.Len(t, exec.calls, 3)
	assert.Equal(t, 3*time.Second, exec.calls[0].timeout)
	assert.Equal(t, 2*time.Second, exec.calls[1].timeout)
	assert.Equal(t, 500*time.Millisecond, exec.calls[2].timeout)
	for _, got := range exec.calls {
		assert.Equal(t, "/module", got.workingDir)
	}

	_, err = c.Render("t", `{{ shell }}`, nil, "/module")
	assert.Error(t, err)
}

func TestCompiler_Compile(t *testing.T) {
	fsys := filesystem.NewMemoryFS()
	require.NoError(t, fsys.MkdirAll("/module", 0755))
	require.NoError(t, fsys.WriteFile("/module/template.conf", []byte("color={{ .colors.primary }}"), 0644))

	c := compiler.New(fsys, &fakeExecutor{}, 0)
	require.NoError(t, c.Compile("/module/template.conf", "/out/nested/app.conf", newStore(), "/module", ""))

	data, err := fsys.ReadFile("/out/nested/app.conf")
	require.NoError(t, err)
	assert.Equal(t, "color=#ff0000", string(data))
}

func TestCompiler_CompileUndefinedKeys(t *testing.T) {
	fsys := filesystem.NewMemoryFS()
	require.NoError(t, fsys.MkdirAll("/module", 0755))
	require.NoError(t, fsys.WriteFile("/module/template.conf",
		[]byte("a={{ .colors.primary }}\nb={{ .missing }}\nc={{ .nested.deep }}\n"), 0644))

	c := compiler.New(fsys, &fakeExecutor{}, 0)
	require.NoError(t, c.Compile("/module/template.conf", "/out/app.conf", newStore(), "/module", ""))

	data, err := fsys.ReadFile("/out/app.conf")
	require.NoError(t, err)
	assert.Equal(t, "a=#ff0000\nb=\nc=\n", string(data))
}

func TestCompiler_CompileReplacesSymlinkedTarget(t *testing.T) {
	dir := t.TempDir()
	fsys := filesystem.NewOS()
	template := filepath.Join(dir, "b.tpl")
	target := filepath.Join(dir, "b.out")
	require.NoError(t, fsys.WriteFile(template, []byte("color={{ .colors.primary }}"), 0644))
	require.NoError(t, fsys.Symlink(template, target))

	c := compiler.New(fsys, &fakeExecutor{}, 0)
	require.NoError(t, c.Compile(template, target, newStore(), dir, ""))

	source, err := fsys.ReadFile(template)
	require.NoError(t, err)
	assert.Equal(t, "color={{ .colors.primary }}", string(source))

	info, err := fsys.Lstat(target)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	data, err := fsys.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "color=#ff0000", string(data))
}

func TestCompiler_CompileErrors(t *testing.T) {
	fsys := filesystem.NewMemoryFS()
	require.NoError(t, fsys.MkdirAll("/module", 0755))
	require.NoError(t, fsys.WriteFile("/module/broken", []byte("{{ .unclosed"), 0644))
	c := compiler.New(fsys, &fakeExecutor{}, 0)

	err := c.Compile("/module/missing", "/out/x", newStore(), "/module", "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateNotFound))

	err = c.Compile("/module/broken", "/out/y", newStore(), "/module", "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateRender))
	assert.False(t, filesystem.Exists(fsys, "/out/y"))
}

func TestCompiler_Permissions(t *testing.T) {
	dir := t.TempDir()
	fsys := filesystem.NewOS()
	template := filepath.Join(dir, "template")
	target := filepath.Join(dir, "target")
	require.NoError(t, fsys.WriteFile(template, []byte("content"), 0644))

	c := compiler.New(fsys, &fakeExecutor{}, 0)
	require.NoError(t, c.Compile(template, target, contextstore.New(), dir, "707"))

	info, err := fsys.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o707), info.Mode().Perm())
}

func TestParsePermissions(t *testing.T) {
	tests := []struct {
		input   string
		want    fs.FileMode
		wantErr bool
	}{
		{"707", 0o707, false},
		{"0644", 0o644, false},
		{"4755", 0o755 | fs.ModeSetuid, false},
		{"999", 0, true},
		{"rwx", 0, true},
		{"77777", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := compiler.ParsePermissions(tt.input)
			if tt.wantErr {
				assert.True(t, errors.IsErrorCode(err, errors.ErrPermission))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
