package actions

import (
	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/config"
	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/logging"
)

// ImportContextAction merges a section of a context file into the store.
//
// Options: from_path (required), from_section, to_section.
type ImportContextAction struct {
	optionResolver
	null    bool
	context *contextstore.Store
	logger  zerolog.Logger
}

// NewImportContext builds an import_context action.
func NewImportContext(options Options, env *Env) *ImportContextAction {
	env = env.withDefaults()
	return &ImportContextAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		context:        env.Context,
		logger:         logging.GetLogger("actions").With().Str("action", string(KindImportContext)).Logger(),
	}
}

func (a *ImportContextAction) Kind() Kind    { return KindImportContext }
func (a *ImportContextAction) Priority() int { return KindImportContext.Priority() }
func (a *ImportContextAction) IsNull() bool  { return a.null }

// Execute performs the import. Failures are logged.
func (a *ImportContextAction) Execute() {
	if a.null {
		return
	}

	fromPath, ok := a.Option("from_path", true)
	if !ok {
		a.logger.Error().Interface("options", a.options).Msg("import_context requires from_path")
		return
	}
	toSection, _ := a.Option("to_section", false)
	fromSection, _ := a.Option("from_section", false)

	if err := config.InsertInto(a.context, fromPath, toSection, fromSection); err != nil {
		a.logger.Error().
			Err(err).
			Str("path", fromPath).
			Msg("Could not import context")
	}
}
