package actions

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/compiler"
	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/resolver"
)

// CompileAction renders templates against the context store.
//
// Options: content (alias template), target, include, permissions. Without
// a target the template is compiled to a temporary file that is reused by
// later executions of the same action.
type CompileAction struct {
	optionResolver
	null      bool
	directory string
	fsys      filesystem.FS
	compiler  *compiler.Compiler
	context   *contextstore.Store
	temp      *TempFiles

	tempTarget   string
	compilations Ledger
	logger       zerolog.Logger
}

// NewCompile builds a compile action.
func NewCompile(options Options, env *Env) *CompileAction {
	env = env.withDefaults()
	return &CompileAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		directory:      env.Directory,
		fsys:           env.FS,
		compiler:       env.Compiler,
		context:        env.Context,
		temp:           env.Temp,
		compilations:   make(Ledger),
		logger:         logging.GetLogger("actions").With().Str("action", string(KindCompile)).Logger(),
	}
}

func (a *CompileAction) Kind() Kind    { return KindCompile }
func (a *CompileAction) Priority() int { return KindCompile.Priority() }
func (a *CompileAction) IsNull() bool  { return a.null }

// Execute compiles every resolved template and returns template -> target
// for the ones that compiled.
func (a *CompileAction) Execute() resolver.Targets {
	done := resolver.Targets{}
	if a.null {
		return done
	}

	content, ok := a.content()
	if !ok {
		a.logger.Error().Interface("options", a.options).Msg("compile requires content")
		return done
	}
	if !filesystem.Exists(a.fsys, content) {
		a.logger.Error().Str("content", content).Msg("Could not compile template, no such path")
		return done
	}

	target, ok := a.target(content)
	if !ok {
		return done
	}

	pairs, err := resolver.ResolveTargets(a.fsys, content, target, a.get("include", resolver.DefaultInclude))
	if err != nil {
		a.logger.Error().Err(err).Str("content", content).Msg("Could not resolve compile targets")
		return done
	}

	permissions, _ := a.Option("permissions", false)
	for _, template := range pairs.Sources() {
		dest := pairs[template]
		if err := a.compiler.Compile(template, dest, a.context, a.directory, permissions); err != nil {
			event := a.logger.Error().Err(err).Str("template", template).Str("target", dest)
			if errors.IsErrorCode(err, errors.ErrTemplateNotFound) {
				event.Msg("Template not found, skipping")
			} else {
				event.Msg("Could not compile template")
			}
			continue
		}
		a.compilations.add(template, dest)
		done[template] = dest
	}
	return done
}

func (a *CompileAction) content() (string, bool) {
	if content, ok := a.Option("content", true); ok {
		return content, true
	}
	return a.Option("template", true)
}

func (a *CompileAction) target(content string) (string, bool) {
	if target, ok := a.Option("target", true); ok {
		return target, true
	}
	if a.tempTarget != "" {
		return a.tempTarget, true
	}
	if filesystem.IsDir(a.fsys, content) {
		a.logger.Error().Str("content", content).Msg("Compiling a directory requires a target")
		return "", false
	}

	path, err := a.temp.Create(filepath.Base(content))
	if err != nil {
		a.logger.Error().Err(err).Str("content", content).Msg("Could not create temporary target")
		return "", false
	}
	a.tempTarget = path
	return path, true
}

// Target returns the resolved target option, or the temporary target once
// one has been created.
func (a *CompileAction) Target() string {
	if target, ok := a.Option("target", true); ok {
		return target
	}
	return a.tempTarget
}

// Owns reports whether path is a template this action has compiled. It
// panics when path is not absolute.
func (a *CompileAction) Owns(path string) bool {
	mustAbsolute(path)
	return a.compilations.Has(path)
}

// PerformedCompilations returns every compilation so far.
func (a *CompileAction) PerformedCompilations() Ledger {
	return a.compilations.Clone()
}

// Creations lists compiled targets as created files. Temporary targets are
// left out since the registry removes them.
func (a *CompileAction) Creations() []Creation {
	all := creationsFrom(MethodCompiled, a.compilations)
	out := all[:0]
	for _, c := range all {
		if c.Target != a.tempTarget {
			out = append(out, c)
		}
	}
	return out
}
