package actions

import (
	"path/filepath"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/resolver"
)

// DefaultTemplates matches template files inside a stowed directory.
const DefaultTemplates = `template\.(.+)`

// Non-template handling modes of a stow action.
const (
	NonTemplatesSymlink = "symlink"
	NonTemplatesCopy    = "copy"
	NonTemplatesIgnore  = "ignore"
)

// StowAction compiles the templates of a directory and copies or links
// every other file to the same target.
//
// Options: content, target (both required), templates, non_templates
// (copy, symlink or ignore), permissions.
//
// When content is a single file, only one sub-action handles it: compile if
// its name matches templates, the non-template mode otherwise.
type StowAction struct {
	optionResolver
	null bool

	fsys      filesystem.FS
	templates *regexp2.Regexp
	compile   *CompileAction
	copy    *CopyAction
	symlink *SymlinkAction
	logger  zerolog.Logger
}

// NewStow builds a stow action and its sub-actions. The non-template
// sub-action matches the complement of the templates pattern.
func NewStow(options Options, env *Env) *StowAction {
	env = env.withDefaults()
	a := &StowAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		fsys:           env.FS,
		logger:         logging.GetLogger("actions").With().Str("action", string(KindStow)).Logger(),
	}
	if a.null {
		return a
	}

	templates := DefaultTemplates
	if pattern, ok := options["templates"].(string); ok && pattern != "" {
		templates = pattern
	}
	if re, err := resolver.Compile(templates); err == nil {
		a.templates = re
	} else {
		a.logger.Error().Err(err).Str("templates", templates).Msg("Invalid stow templates pattern")
	}

	compileOptions := Options{
		"content": options["content"],
		"target":  options["target"],
		"include": templates,
	}
	if permissions, ok := options["permissions"]; ok {
		compileOptions["permissions"] = permissions
	}
	a.compile = NewCompile(compileOptions, env)

	mode := strings.ToLower(a.get("non_templates", NonTemplatesSymlink))
	nonTemplateOptions := Options{
		"content": options["content"],
		"target":  options["target"],
		"include": resolver.Complement(templates),
	}
	switch mode {
	case NonTemplatesIgnore:
	case NonTemplatesCopy:
		if permissions, ok := options["permissions"]; ok {
			nonTemplateOptions["permissions"] = permissions
		}
		a.copy = NewCopy(nonTemplateOptions, env)
	case NonTemplatesSymlink:
		a.symlink = NewSymlink(nonTemplateOptions, env)
	default:
		a.logger.Error().
			Str("non_templates", mode).
			Msg(`Invalid stow non_templates value, should be one of "symlink", "copy" or "ignore". Ignoring non-templates`)
	}
	return a
}

func (a *StowAction) Kind() Kind    { return KindStow }
func (a *StowAction) Priority() int { return KindStow.Priority() }
func (a *StowAction) IsNull() bool  { return a.null }

// NonTemplates returns the effective non-template mode.
func (a *StowAction) NonTemplates() string {
	switch {
	case a.copy != nil:
		return NonTemplatesCopy
	case a.symlink != nil:
		return NonTemplatesSymlink
	default:
		return NonTemplatesIgnore
	}
}

// Execute compiles templates first, then handles the remaining files, and
// returns the merged content -> target mapping.
func (a *StowAction) Execute() resolver.Targets {
	if a.null {
		return resolver.Targets{}
	}

	if isTemplate, single := a.singleFile(); single {
		if isTemplate {
			return a.compile.Execute()
		}
		return a.executeNonTemplates()
	}

	results := a.compile.Execute()
	results.Merge(a.executeNonTemplates())
	return results
}

func (a *StowAction) executeNonTemplates() resolver.Targets {
	switch {
	case a.copy != nil:
		return a.copy.Execute()
	case a.symlink != nil:
		return a.symlink.Execute()
	}
	return resolver.Targets{}
}

// singleFile reports whether content is a regular file and, if so, whether
// its name matches the templates pattern.
func (a *StowAction) singleFile() (isTemplate, single bool) {
	content, ok := a.Option("content", true)
	if !ok || !filesystem.IsFile(a.fsys, content) {
		return false, false
	}
	if a.templates == nil {
		return false, true
	}
	_, matched := resolver.Rename(a.templates, filepath.Base(content))
	return matched, true
}

// ManagedFiles returns compiled templates plus copied files. Symlinked
// files are not managed since edits reach the target without re-running.
func (a *StowAction) ManagedFiles() Ledger {
	managed := make(Ledger)
	if a.null {
		return managed
	}
	managed.Merge(a.compile.PerformedCompilations())
	if a.copy != nil {
		managed.Merge(a.copy.Copied())
	}
	return managed
}

// Owns reports whether stow must re-run when path changes. It panics when
// path is not absolute.
func (a *StowAction) Owns(path string) bool {
	mustAbsolute(path)
	return a.ManagedFiles().Has(path)
}

// PerformedCompilations returns the compilations of the template sub-action.
func (a *StowAction) PerformedCompilations() Ledger {
	if a.null {
		return make(Ledger)
	}
	return a.compile.PerformedCompilations()
}

// Creations lists every file produced by the sub-actions.
func (a *StowAction) Creations() []Creation {
	if a.null {
		return nil
	}
	out := a.compile.Creations()
	if a.copy != nil {
		out = append(out, a.copy.Creations()...)
	}
	if a.symlink != nil {
		out = append(out, a.symlink.Creations()...)
	}
	return out
}
