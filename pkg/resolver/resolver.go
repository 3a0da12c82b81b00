// Package resolver maps a content location onto a target location.
//
// A content file resolves to the target directly. A content directory is
// walked recursively and every file whose name fully matches the include
// pattern is mapped below the target directory, keeping its relative
// sub-directory. The first capture group of the match becomes the target
// file name, so `template\.(.+)` turns `template.kitty.conf` into
// `kitty.conf`. Patterns use the .NET-style dialect of regexp2 because the
// stow complement relies on negative lookahead.
package resolver

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
)

// DefaultInclude matches every file name and keeps it unchanged.
const DefaultInclude = `(.+)`

// matchTimeout bounds a single filename match against a user pattern.
const matchTimeout = time.Second

// Targets maps absolute content files to absolute target files.
type Targets map[string]string

// Sources returns the content files in lexical order.
func (t Targets) Sources() []string {
	out := make([]string, 0, len(t))
	for source := range t {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// Merge copies other into t, overwriting on collision.
func (t Targets) Merge(other Targets) {
	for source, target := range other {
		t[source] = target
	}
}

// Compile anchors pattern so that it must match a whole file name.
func Compile(pattern string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.None)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "invalid include pattern %q", pattern)
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// Complement returns a pattern intended to match the names pattern rejects.
// The lookahead only guards the start of the name, so an unanchored or
// partial pattern can leave names matched by both or neither.
func Complement(pattern string) string {
	return `(?!` + pattern + `).+`
}

// Rename returns the target file name for name, and false when name does
// not match re. Without a participating capture group the name is kept.
func Rename(re *regexp2.Regexp, name string) (string, bool) {
	m, err := re.FindStringMatch(name)
	if err != nil || m == nil {
		return "", false
	}
	if m.GroupCount() > 1 {
		if group := m.GroupByNumber(1); group != nil && group.Length > 0 {
			return group.String(), true
		}
	}
	return name, true
}

// ResolveTargets pairs content files with their targets. A missing content
// path yields an empty result and an ErrFileNotFound error for the caller to
// log; the include pattern is ignored when content is a single file.
func ResolveTargets(fsys filesystem.FS, content, target, include string) (Targets, error) {
	targets := Targets{}

	info, err := fsys.Stat(content)
	if err != nil {
		return targets, errors.Wrapf(err, errors.ErrFileNotFound, "content path %q does not exist", content).
			WithDetail("path", content)
	}

	if !info.IsDir() {
		if filesystem.IsDir(fsys, target) {
			targets[content] = filepath.Join(target, filepath.Base(content))
		} else {
			targets[content] = target
		}
		return targets, nil
	}

	if include == "" {
		include = DefaultInclude
	}
	re, err := Compile(include)
	if err != nil {
		return targets, err
	}

	err = walkFiles(fsys, content, func(path string) {
		renamed, ok := Rename(re, filepath.Base(path))
		if !ok {
			return
		}
		rel, relErr := filepath.Rel(content, filepath.Dir(path))
		if relErr != nil {
			return
		}
		targets[path] = filepath.Join(target, rel, renamed)
	})
	return targets, err
}

// walkFiles calls visit for every non-directory below root. Symlinked
// directories are not descended into.
func walkFiles(fsys filesystem.FS, root string, visit func(path string)) error {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read directory %q", root)
	}
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			if err := walkFiles(fsys, path, visit); err != nil {
				return err
			}
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 && filesystem.IsDir(fsys, path) {
			continue
		}
		visit(path)
	}
	return nil
}
