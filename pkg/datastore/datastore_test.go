// TEST TYPE: DataStore Tests
// DEPENDENCIES: Real filesystem (ALLOWED for datastore package)
// PURPOSE: Verify the created-files and executed-actions ledgers

package datastore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/datastore"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/testutil"
)

func setup(t *testing.T) (filesystem.FS, string, string) {
	t.Helper()
	root := testutil.TempDir(t)
	fsys := filesystem.NewOS()
	testutil.WriteTree(t, fsys, root, map[string]string{
		"module/template": "source",
		"out/compiled":    "compiled content",
		"out/copied":      "copied content",
	})
	return fsys, root, filepath.Join(root, "data")
}

func TestCreatedFiles_Insert(t *testing.T) {
	fsys, root, dataDir := setup(t)
	created, err := datastore.NewCreatedFiles(fsys, dataDir)
	require.NoError(t, err)
	assert.Empty(t, created.By("theme"))

	content := filepath.Join(root, "module/template")
	compiled := filepath.Join(root, "out/compiled")
	copied := filepath.Join(root, "out/copied")

	require.NoError(t, created.Insert("theme", []actions.Creation{
		{Method: actions.MethodCompiled, Content: content, Target: compiled},
		{Method: actions.MethodCopied, Content: content, Target: copied},
		{Method: actions.MethodCopied, Content: content, Target: filepath.Join(root, "out/missing")},
	}))

	assert.Equal(t, []string{compiled, copied}, created.By("theme"), "missing targets are skipped")
	info, ok := created.Info("theme", compiled)
	require.True(t, ok)
	assert.Equal(t, datastore.CreationInfo{
		Content: content,
		Method:  actions.MethodCompiled,
		Hash:    testutil.MD5("compiled content"),
	}, info)

	reloaded, err := datastore.NewCreatedFiles(fsys, dataDir)
	require.NoError(t, err)
	assert.Equal(t, []string{compiled, copied}, reloaded.By("theme"), "ledger is persisted")
	assert.Equal(t, []string{"theme"}, reloaded.Modules())
}

func TestCreatedFiles_InsertUnchangedDoesNotRewrite(t *testing.T) {
	fsys, root, dataDir := setup(t)
	created, err := datastore.NewCreatedFiles(fsys, dataDir)
	require.NoError(t, err)

	creation := actions.Creation{
		Method:  actions.MethodCompiled,
		Content: filepath.Join(root, "module/template"),
		Target:  filepath.Join(root, "out/compiled"),
	}
	require.NoError(t, created.Insert("theme", []actions.Creation{creation}))
	require.NoError(t, os.Remove(created.Path()))

	require.NoError(t, created.Insert("theme", []actions.Creation{creation}))
	assert.NoFileExists(t, created.Path())

	require.NoError(t, created.Insert("theme", nil))
	assert.NoFileExists(t, created.Path())
}

func TestCreatedFiles_Cleanup(t *testing.T) {
	tests := []struct {
		name       string
		dryRun     bool
		wantExists bool
		wantByLen  int
	}{
		{name: "deletes files", dryRun: false, wantExists: false, wantByLen: 0},
		{name: "dry run keeps files", dryRun: true, wantExists: true, wantByLen: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys, root, dataDir := setup(t)
			created, err := datastore.NewCreatedFiles(fsys, dataDir)
			require.NoError(t, err)

			content := filepath.Join(root, "module/template")
			link := filepath.Join(root, "out/link")
			require.NoError(t, os.Symlink(content, link))
			require.NoError(t, created.Insert("theme", []actions.Creation{
				{Method: actions.MethodCompiled, Content: content, Target: filepath.Join(root, "out/compiled")},
				{Method: actions.MethodSymlinked, Content: content, Target: link},
			}))
			require.NoError(t, created.Insert("other", []actions.Creation{
				{Method: actions.MethodCopied, Content: content, Target: filepath.Join(root, "out/copied")},
			}))

			require.NoError(t, created.Cleanup("theme", tt.dryRun))

			assert.Equal(t, tt.wantExists, filesystem.Exists(fsys, filepath.Join(root, "out/compiled")))
			_, err = os.Lstat(link)
			assert.Equal(t, tt.wantExists, err == nil)
			assert.FileExists(t, content, "symlinked content is never deleted")
			assert.FileExists(t, filepath.Join(root, "out/copied"), "other modules are untouched")
			assert.Len(t, created.By("theme"), tt.wantByLen)
			assert.Len(t, created.By("other"), 1)
		})
	}
}

func TestCreatedFiles_CleanupMissingFile(t *testing.T) {
	fsys, root, dataDir := setup(t)
	created, err := datastore.NewCreatedFiles(fsys, dataDir)
	require.NoError(t, err)

	target := filepath.Join(root, "out/compiled")
	require.NoError(t, created.Insert("theme", []actions.Creation{
		{Method: actions.MethodCompiled, Content: filepath.Join(root, "module/template"), Target: target},
	}))
	require.NoError(t, os.Remove(target))

	require.NoError(t, created.Cleanup("theme", false))
	assert.Empty(t, created.By("theme"))
	require.NoError(t, created.Cleanup("unknown", false))
}

func TestExecutedActions(t *testing.T) {
	fsys, _, dataDir := setup(t)

	executed, err := datastore.NewExecutedActions(fsys, dataDir, "theme")
	require.NoError(t, err)

	install := actions.Options{"shell": "install.sh", "timeout": 10}
	assert.True(t, executed.IsNew(actions.KindRun, install))
	assert.False(t, executed.IsNew(actions.KindRun, install), "checked actions are remembered")
	assert.True(t, executed.IsNew(actions.KindCompile, actions.Options{"content": "a"}))
	assert.False(t, executed.IsNew(actions.KindRun, actions.Options{}), "empty actions are never new")
	require.NoError(t, executed.Write())

	reloaded, err := datastore.NewExecutedActions(fsys, dataDir, "theme")
	require.NoError(t, err)
	assert.False(t, reloaded.IsNew(actions.KindRun, actions.Options{"timeout": 10, "shell": "install.sh"}),
		"persisted actions compare by value")
	assert.True(t, reloaded.IsNew(actions.KindRun, actions.Options{"shell": "other.sh"}))

	other, err := datastore.NewExecutedActions(fsys, dataDir, "other")
	require.NoError(t, err)
	assert.True(t, other.IsNew(actions.KindRun, install), "modules are tracked separately")
	require.NoError(t, other.Write())

	require.NoError(t, reloaded.Reset())
	assert.True(t, reloaded.IsNew(actions.KindRun, install))

	afterReset, err := datastore.NewExecutedActions(fsys, dataDir, "theme")
	require.NoError(t, err)
	assert.True(t, afterReset.IsNew(actions.KindRun, install))

	stillOther, err := datastore.NewExecutedActions(fsys, dataDir, "other")
	require.NoError(t, err)
	assert.False(t, stillOther.IsNew(actions.KindRun, install), "reset only touches its module")
}

func TestExecutedActions_WriteWithoutNewActions(t *testing.T) {
	fsys, _, dataDir := setup(t)
	executed, err := datastore.NewExecutedActions(fsys, dataDir, "theme")
	require.NoError(t, err)

	require.NoError(t, executed.Write())
	assert.NoFileExists(t, executed.Path())
}

func TestLoad_BadYAML(t *testing.T) {
	fsys, _, dataDir := setup(t)
	testutil.WriteTree(t, fsys, dataDir, map[string]string{
		datastore.CreatedFilesName:    "[unclosed",
		datastore.ExecutedActionsName: "[unclosed",
	})

	_, err := datastore.NewCreatedFiles(fsys, dataDir)
	assert.Error(t, err)
	_, err = datastore.NewExecutedActions(fsys, dataDir, "theme")
	assert.Error(t, err)
}
