package resolver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/resolver"
)

func memTree(t *testing.T, files map[string]string) filesystem.FS {
	t.Helper()
	fsys := filesystem.NewMemoryFS()
	for path, content := range files {
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0644))
	}
	return fsys
}

func TestResolveTargets_SingleFile(t *testing.T) {
	fsys := memTree(t, map[string]string{"/module/template.conf": "x"})

	targets, err := resolver.ResolveTargets(fsys, "/module/template.conf", "/home/user/out.conf", `nothing`)
	require.NoError(t, err)
	assert.Equal(t, resolver.Targets{"/module/template.conf": "/home/user/out.conf"}, targets)
}

func TestResolveTargets_SingleFileIntoExistingDirectory(t *testing.T) {
	fsys := memTree(t, map[string]string{"/module/kitty.conf": "x"})
	require.NoError(t, fsys.MkdirAll("/home/user/.config", 0755))

	targets, err := resolver.ResolveTargets(fsys, "/module/kitty.conf", "/home/user/.config", "")
	require.NoError(t, err)
	assert.Equal(t, resolver.Targets{"/module/kitty.conf": "/home/user/.config/kitty.conf"}, targets)
}

func TestResolveTargets_DirectoryRecursive(t *testing.T) {
	fsys := memTree(t, map[string]string{
		"/module/content/a.conf":         "a",
		"/module/content/sub/b.conf":     "b",
		"/module/content/sub/deep/c.ini": "c",
	})

	targets, err := resolver.ResolveTargets(fsys, "/module/content", "/target", resolver.DefaultInclude)
	require.NoError(t, err)
	assert.Equal(t, resolver.Targets{
		"/module/content/a.conf":         "/target/a.conf",
		"/module/content/sub/b.conf":     "/target/sub/b.conf",
		"/module/content/sub/deep/c.ini": "/target/sub/deep/c.ini",
	}, targets)
}

func TestResolveTargets_IncludeRenamesWithFirstGroup(t *testing.T) {
	fsys := memTree(t, map[string]string{
		"/c/template.kitty.conf":     "t",
		"/c/sub/template.polybar":    "t",
		"/c/README.md":               "plain",
		"/c/sub/not-a-template.conf": "plain",
	})

	targets, err := resolver.ResolveTargets(fsys, "/c", "/t", `template\.(.+)`)
	require.NoError(t, err)
	assert.Equal(t, resolver.Targets{
		"/c/template.kitty.conf":  "/t/kitty.conf",
		"/c/sub/template.polybar": "/t/sub/polybar",
	}, targets)
}

func TestResolveTargets_PatternWithoutGroupKeepsName(t *testing.T) {
	fsys := memTree(t, map[string]string{
		"/c/a.conf": "a",
		"/c/b.ini":  "b",
	})

	targets, err := resolver.ResolveTargets(fsys, "/c", "/t", `.+\.conf`)
	require.NoError(t, err)
	assert.Equal(t, resolver.Targets{"/c/a.conf": "/t/a.conf"}, targets)
}

func TestResolveTargets_IncludeMustMatchWholeName(t *testing.T) {
	fsys := memTree(t, map[string]string{"/c/xtemplate.conf": "x"})

	targets, err := resolver.ResolveTargets(fsys, "/c", "/t", `template\.(.+)`)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestResolveTargets_ComplementPartitions(t *testing.T) {
	fsys := memTree(t, map[string]string{
		"/c/template.a": "t",
		"/c/b":          "n",
		"/c/sub/c":      "n",
	})
	pattern := `template\.(.+)`

	templates, err := resolver.ResolveTargets(fsys, "/c", "/t", pattern)
	require.NoError(t, err)
	others, err := resolver.ResolveTargets(fsys, "/c", "/t", resolver.Complement(pattern))
	require.NoError(t, err)

	assert.Equal(t, []string{"/c/template.a"}, templates.Sources())
	assert.Equal(t, []string{"/c/b", "/c/sub/c"}, others.Sources())
	assert.Equal(t, "/t/b", others["/c/b"])
}

func TestResolveTargets_MissingContent(t *testing.T) {
	fsys := filesystem.NewMemoryFS()

	targets, err := resolver.ResolveTargets(fsys, "/does/not/exist", "/t", "")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	assert.Empty(t, targets)
}

func TestResolveTargets_InvalidPattern(t *testing.T) {
	fsys := memTree(t, map[string]string{"/c/a": "a"})

	_, err := resolver.ResolveTargets(fsys, "/c", "/t", `(unclosed`)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestResolveTargets_SkipsSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	outside := filepath.Join(root, "outside")
	require.NoError(t, os.MkdirAll(content, 0755))
	require.NoError(t, os.MkdirAll(outside, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "x"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(content, "real"), nil, 0644))
	require.NoError(t, os.Symlink(outside, filepath.Join(content, "linked")))

	targets, err := resolver.ResolveTargets(filesystem.NewOS(), content, "/t", "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(content, "real")}, targets.Sources())
}

func TestTargetsMerge(t *testing.T) {
	a := resolver.Targets{"/a": "/x", "/b": "/y"}
	a.Merge(resolver.Targets{"/b": "/z", "/c": "/w"})
	assert.Equal(t, resolver.Targets{"/a": "/x", "/b": "/z", "/c": "/w"}, a)
}
