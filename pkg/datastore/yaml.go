package datastore

import (
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
)

// loadYAML decodes path into out. A missing or empty file leaves out untouched.
func loadYAML(fsys filesystem.FS, path string, out any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to parse %s", path)
	}
	return nil
}

func dumpYAML(fsys filesystem.FS, path string, data any) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to encode %s", path)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", filepath.Dir(path))
	}
	if err := fsys.WriteFile(path, out, fs.FileMode(0644)); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", path)
	}
	return nil
}
