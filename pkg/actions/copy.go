package actions

import (
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/compiler"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/resolver"
)

// CopyAction copies content files to target paths.
//
// Options: content, target (both required), include, permissions.
type CopyAction struct {
	optionResolver
	null   bool
	fsys   filesystem.FS
	copied Ledger
	logger zerolog.Logger
}

// NewCopy builds a copy action.
func NewCopy(options Options, env *Env) *CopyAction {
	env = env.withDefaults()
	return &CopyAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		fsys:           env.FS,
		copied:         make(Ledger),
		logger:         logging.GetLogger("actions").With().Str("action", string(KindCopy)).Logger(),
	}
}

func (a *CopyAction) Kind() Kind    { return KindCopy }
func (a *CopyAction) Priority() int { return KindCopy.Priority() }
func (a *CopyAction) IsNull() bool  { return a.null }

// Execute copies every resolved file and returns content -> copy for the
// files that were written.
func (a *CopyAction) Execute() resolver.Targets {
	done := resolver.Targets{}
	if a.null {
		return done
	}

	content, okContent := a.Option("content", true)
	target, okTarget := a.Option("target", true)
	if !okContent || !okTarget {
		a.logger.Error().Interface("options", a.options).Msg("copy requires content and target")
		return done
	}

	copies, err := resolver.ResolveTargets(a.fsys, content, target, a.get("include", resolver.DefaultInclude))
	if err != nil {
		a.logger.Error().Err(err).Str("content", content).Msg("Could not resolve copy targets")
		return done
	}

	permissions, _ := a.Option("permissions", false)
	for _, source := range copies.Sources() {
		dest := copies[source]
		if err := a.copyFile(source, dest); err != nil {
			a.logger.Error().
				Err(err).
				Str("content", source).
				Str("target", dest).
				Msg("Could not copy file")
			continue
		}
		if permissions != "" {
			compiler.ApplyPermissions(a.fsys, dest, permissions, a.logger)
		}
		a.copied.add(source, dest)
		done[source] = dest
	}
	return done
}

func (a *CopyAction) copyFile(source, dest string) error {
	info, err := a.fsys.Stat(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileNotFound, "could not stat %s", source)
	}
	data, err := a.fsys.ReadFile(source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "could not read %s", source)
	}

	// Writing through an existing link would modify the link's destination.
	if existing, err := a.fsys.Lstat(dest); err == nil && existing.Mode()&fs.ModeSymlink != 0 {
		if err := a.fsys.Remove(dest); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "could not replace symlink %s", dest)
		}
	}

	if err := a.fsys.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "could not create parent of %s", dest)
	}
	mode := info.Mode().Perm()
	if err := a.fsys.WriteFile(dest, data, mode); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "could not write %s", dest)
	}
	if err := a.fsys.Chmod(dest, mode); err != nil {
		return errors.Wrapf(err, errors.ErrPermission, "could not preserve mode of %s", dest)
	}
	return nil
}

// Owns reports whether path has been copied from. It panics when path is
// not absolute.
func (a *CopyAction) Owns(path string) bool {
	mustAbsolute(path)
	return a.copied.Has(path)
}

// Copied returns every copy made so far, keyed by content file.
func (a *CopyAction) Copied() Ledger {
	return a.copied.Clone()
}

// Creations lists the copies as created files.
func (a *CopyAction) Creations() []Creation {
	return creationsFrom(MethodCopied, a.copied)
}
