package actions

import (
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
)

// TempFiles owns temporary compile targets for the duration of a run.
// The orchestrator that creates the registry calls Cleanup on teardown.
type TempFiles struct {
	fs  filesystem.FS
	dir string

	mu    sync.Mutex
	files []string
}

// NewTempFiles creates a registry placing files in dir.
func NewTempFiles(fsys filesystem.FS, dir string) *TempFiles {
	return &TempFiles{fs: fsys, dir: dir}
}

// Create makes a new empty file whose name starts with prefix.
func (t *TempFiles) Create(prefix string) (string, error) {
	if err := t.fs.MkdirAll(t.dir, 0700); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "could not create temp directory %s", t.dir)
	}

	path := filepath.Join(t.dir, prefix+"-"+uuid.NewString())
	if err := t.fs.WriteFile(path, nil, 0600); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "could not create temp file %s", path)
	}

	t.mu.Lock()
	t.files = append(t.files, path)
	t.mu.Unlock()
	return path, nil
}

// Paths returns the files created so far.
func (t *TempFiles) Paths() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.files))
	copy(out, t.files)
	return out
}

// Cleanup deletes every registered file. Files already gone are ignored.
func (t *TempFiles) Cleanup() {
	log := logging.GetLogger("actions")

	t.mu.Lock()
	files := t.files
	t.files = nil
	t.mu.Unlock()

	for _, path := range files {
		if !filesystem.Exists(t.fs, path) {
			continue
		}
		if err := t.fs.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Could not remove temporary file")
			continue
		}
		log.Debug().Str("path", path).Msg("Removed temporary file")
	}
}
