package actions

import (
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/resolver"
)

// SymlinkAction links target paths to content files.
//
// Options: content, target (both required), include.
type SymlinkAction struct {
	optionResolver
	null   bool
	fsys   filesystem.FS
	links  Ledger
	logger zerolog.Logger
}

// NewSymlink builds a symlink action.
func NewSymlink(options Options, env *Env) *SymlinkAction {
	env = env.withDefaults()
	return &SymlinkAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		fsys:           env.FS,
		links:          make(Ledger),
		logger:         logging.GetLogger("actions").With().Str("action", string(KindSymlink)).Logger(),
	}
}

func (a *SymlinkAction) Kind() Kind    { return KindSymlink }
func (a *SymlinkAction) Priority() int { return KindSymlink.Priority() }
func (a *SymlinkAction) IsNull() bool  { return a.null }

// Execute creates the links and returns content -> link for each one that
// is in place afterwards.
func (a *SymlinkAction) Execute() resolver.Targets {
	done := resolver.Targets{}
	if a.null {
		return done
	}

	content, okContent := a.Option("content", true)
	target, okTarget := a.Option("target", true)
	if !okContent || !okTarget {
		a.logger.Error().Interface("options", a.options).Msg("symlink requires content and target")
		return done
	}

	links, err := resolver.ResolveTargets(a.fsys, content, target, a.get("include", resolver.DefaultInclude))
	if err != nil {
		a.logger.Error().Err(err).Str("content", content).Msg("Could not resolve symlink targets")
		return done
	}

	for _, source := range links.Sources() {
		link := links[source]
		if err := a.link(source, link); err != nil {
			a.logger.Error().
				Err(err).
				Str("content", source).
				Str("target", link).
				Msg("Could not create symlink")
			continue
		}
		a.links.add(source, link)
		done[source] = link
	}
	return done
}

func (a *SymlinkAction) link(content, link string) error {
	if info, err := a.fsys.Lstat(link); err == nil {
		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			if dest, err := a.fsys.Readlink(link); err == nil && dest == content {
				return nil
			}
			if err := a.fsys.Remove(link); err != nil {
				return errors.Wrapf(err, errors.ErrSymlinkCreate, "could not replace stale symlink %s", link)
			}
		case info.Mode().IsRegular():
			backup := link + ".bak"
			a.logger.Info().Str("target", link).Str("backup", backup).Msg("Backing up existing file")
			if err := a.fsys.Rename(link, backup); err != nil {
				return errors.Wrapf(err, errors.ErrSymlinkCreate, "could not back up %s", link)
			}
		default:
			return errors.Newf(errors.ErrSymlinkCreate, "%s already exists and is not a file", link)
		}
	}

	if err := a.fsys.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "could not create parent of %s", link)
	}
	a.logger.Debug().Str("content", content).Str("target", link).Msg("Creating symlink")
	if err := a.fsys.Symlink(content, link); err != nil {
		return errors.Wrapf(err, errors.ErrSymlinkCreate, "could not link %s to %s", link, content)
	}
	return nil
}

// Links returns every link created so far, keyed by content file.
func (a *SymlinkAction) Links() Ledger {
	return a.links.Clone()
}

// Creations lists the links as created files.
func (a *SymlinkAction) Creations() []Creation {
	return creationsFrom(MethodSymlinked, a.links)
}
