package testutil

import (
	"crypto/md5"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/astral/pkg/filesystem"
)

// WriteTree creates files below root. Keys are slash separated relative
// paths, values are file contents.
func WriteTree(t *testing.T, fsys filesystem.FS, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, fsys.WriteFile(path, []byte(content), 0644))
	}
}

// ReadString returns the content of path, failing the test on error.
func ReadString(t *testing.T, fsys filesystem.FS, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	return string(data)
}

// TempDir returns t.TempDir with symlinks resolved, so paths compare equal
// to what the OS reports back.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

// MD5 returns the hex MD5 digest of content.
func MD5(content string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(content)))
}

// CountingFS wraps a filesystem and counts calls to it.
type CountingFS struct {
	filesystem.FS
	calls atomic.Int64
}

// NewCountingFS wraps fsys. A nil fsys wraps the OS filesystem.
func NewCountingFS(fsys filesystem.FS) *CountingFS {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	return &CountingFS{FS: fsys}
}

// Calls returns how many filesystem calls were made.
func (c *CountingFS) Calls() int64 { return c.calls.Load() }

func (c *CountingFS) count() { c.calls.Add(1) }

func (c *CountingFS) Stat(name string) (fs.FileInfo, error) {
	c.count()
	return c.FS.Stat(name)
}

func (c *CountingFS) ReadFile(name string) ([]byte, error) {
	c.count()
	return c.FS.ReadFile(name)
}

func (c *CountingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	c.count()
	return c.FS.WriteFile(name, data, perm)
}

func (c *CountingFS) Chmod(name string, mode fs.FileMode) error {
	c.count()
	return c.FS.Chmod(name, mode)
}

func (c *CountingFS) Rename(oldpath, newpath string) error {
	c.count()
	return c.FS.Rename(oldpath, newpath)
}

func (c *CountingFS) MkdirAll(path string, perm fs.FileMode) error {
	c.count()
	return c.FS.MkdirAll(path, perm)
}

func (c *CountingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	c.count()
	return c.FS.ReadDir(name)
}

func (c *CountingFS) Symlink(oldname, newname string) error {
	c.count()
	return c.FS.Symlink(oldname, newname)
}

func (c *CountingFS) Readlink(name string) (string, error) {
	c.count()
	return c.FS.Readlink(name)
}

func (c *CountingFS) Remove(name string) error {
	c.count()
	return c.FS.Remove(name)
}

func (c *CountingFS) RemoveAll(path string) error {
	c.count()
	return c.FS.RemoveAll(path)
}

func (c *CountingFS) Lstat(name string) (fs.FileInfo, error) {
	c.count()
	return c.FS.Lstat(name)
}

// SetHome points HOME at a fresh directory for the duration of the test.
func SetHome(t *testing.T) string {
	t.Helper()
	home := TempDir(t)
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(home, 0755))
	return home
}
