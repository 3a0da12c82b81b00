package datastore

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
)

// CreatedFilesName is the ledger file name inside the data directory.
const CreatedFilesName = "created_files.yml"

// CreationInfo is what the ledger stores for each created file.
type CreationInfo struct {
	Content string `yaml:"content"`
	Method  string `yaml:"method"`
	Hash    string `yaml:"hash"`
}

// CreatedFiles records the files modules have created, keyed by module name
// and then by target path.
type CreatedFiles struct {
	fs        filesystem.FS
	path      string
	mu        sync.Mutex
	creations map[string]map[string]CreationInfo
	logger    zerolog.Logger
}

// NewCreatedFiles loads the ledger from dataDir.
func NewCreatedFiles(fsys filesystem.FS, dataDir string) (*CreatedFiles, error) {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	c := &CreatedFiles{
		fs:        fsys,
		path:      filepath.Join(dataDir, CreatedFilesName),
		creations: map[string]map[string]CreationInfo{},
		logger:    logging.GetLogger("datastore.created_files"),
	}
	if err := loadYAML(fsys, c.path, &c.creations); err != nil {
		return nil, err
	}
	if c.creations == nil {
		c.creations = map[string]map[string]CreationInfo{}
	}
	return c, nil
}

// Path returns the location of the ledger file.
func (c *CreatedFiles) Path() string { return c.path }

// Insert records creations made by module. Targets that do not exist are
// skipped, and an entry is only rehashed when its content path changes. The
// file is rewritten only when the module section changed.
func (c *CreatedFiles) Insert(module string, creations []actions.Creation) error {
	if len(creations) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	section, ok := c.creations[module]
	if !ok {
		section = map[string]CreationInfo{}
	}

	changed := false
	for _, creation := range creations {
		if !filesystem.Exists(c.fs, creation.Target) {
			continue
		}
		info, known := section[creation.Target]
		if known && info.Content == creation.Content {
			continue
		}

		hash, err := c.hash(creation.Target)
		if err != nil {
			c.logger.Error().Err(err).Str("target", creation.Target).Msg("Could not hash created file")
			continue
		}
		section[creation.Target] = CreationInfo{
			Content: creation.Content,
			Method:  creation.Method,
			Hash:    hash,
		}
		changed = true
	}

	if !changed {
		return nil
	}
	c.creations[module] = section
	return dumpYAML(c.fs, c.path, c.creations)
}

// By returns the sorted target paths created by module.
func (c *CreatedFiles) By(module string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	targets := make([]string, 0, len(c.creations[module]))
	for target := range c.creations[module] {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

// Info returns the stored information for one target of module.
func (c *CreatedFiles) Info(module, target string) (CreationInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.creations[module][target]
	return info, ok
}

// Modules returns the sorted names of modules with recorded creations.
func (c *CreatedFiles) Modules() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.creations))
	for name := range c.creations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cleanup deletes every file created by module and forgets the module. With
// dryRun set, it only logs what would be deleted.
func (c *CreatedFiles) Cleanup(module string, dryRun bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	section := c.creations[module]
	targets := make([]string, 0, len(section))
	for target := range section {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		info := section[target]
		event := c.logger.Info().
			Str("module", module).
			Str("target", target).
			Str("method", info.Method).
			Str("content", info.Content)

		if dryRun {
			event.Msg("SKIPPED: would delete created file")
			continue
		}
		if _, err := c.fs.Lstat(target); err != nil {
			event.Msg("Created file no longer exists")
			continue
		}
		if err := c.fs.Remove(target); err != nil && !os.IsNotExist(err) {
			c.logger.Error().Err(err).Str("target", target).Msg("Could not delete created file")
			continue
		}
		event.Msg("Deleted created file")
	}

	if dryRun {
		return nil
	}
	delete(c.creations, module)
	return dumpYAML(c.fs, c.path, c.creations)
}

func (c *CreatedFiles) hash(path string) (string, error) {
	data, err := c.fs.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", path)
	}
	return fmt.Sprintf("%x", md5.Sum(data)), nil
}
