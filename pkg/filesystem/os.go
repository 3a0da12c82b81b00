package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
)

// osFS is the production FS. Writes are atomic: programs reading a compiled
// target while astral recompiles it see the old or the new content, never a
// partial file.
type osFS struct{}

// NewOS returns the FS backed by the operating system.
func NewOS() FS {
	return &osFS{}
}

func (o *osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (o *osFS) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }

func (o *osFS) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// WriteFile writes data to a temporary file next to name and renames it
// into place. The result always has mode perm, and a symlink at name is
// replaced rather than followed.
func (o *osFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".astral-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(perm)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, name)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (o *osFS) Chmod(name string, mode fs.FileMode) error { return os.Chmod(name, mode) }

func (o *osFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (o *osFS) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }

// ReadDir returns the entries of name sorted by file name.
func (o *osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (o *osFS) Symlink(oldname, newname string) error { return os.Symlink(oldname, newname) }

func (o *osFS) Readlink(name string) (string, error) { return os.Readlink(name) }

func (o *osFS) Remove(name string) error { return os.Remove(name) }

func (o *osFS) RemoveAll(path string) error { return os.RemoveAll(path) }
