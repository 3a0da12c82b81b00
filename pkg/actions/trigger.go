package actions

import (
	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/logging"
)

// BlockOnModified is the only block name whose triggers carry a path.
const BlockOnModified = "on_modified"

// Trigger asks the scheduler to fire another block of the same module.
// The path fields are only set for on_modified.
type Trigger struct {
	Block         string
	SpecifiedPath string
	RelativePath  string
	AbsolutePath  string
}

// TriggerAction produces a Trigger.
//
// Options: block (required), path (required for on_modified).
type TriggerAction struct {
	optionResolver
	null   bool
	logger zerolog.Logger
}

// NewTrigger builds a trigger action.
func NewTrigger(options Options, env *Env) *TriggerAction {
	env = env.withDefaults()
	return &TriggerAction{
		optionResolver: newOptionResolver(options, env),
		null:           len(options) == 0,
		logger:         logging.GetLogger("actions").With().Str("action", string(KindTrigger)).Logger(),
	}
}

func (a *TriggerAction) Kind() Kind    { return KindTrigger }
func (a *TriggerAction) Priority() int { return KindTrigger.Priority() }
func (a *TriggerAction) IsNull() bool  { return a.null }

// Execute returns a fresh Trigger, or nil for null objects and
// misconfigured actions.
func (a *TriggerAction) Execute() *Trigger {
	if a.null {
		return nil
	}

	block, ok := a.Option("block", false)
	if !ok || block == "" {
		a.logger.Error().Interface("options", a.options).Msg("trigger requires a block")
		return nil
	}
	if block != BlockOnModified {
		return &Trigger{Block: block}
	}

	specified, ok := a.options["path"].(string)
	if !ok || specified == "" {
		a.logger.Error().Interface("options", a.options).Msg("on_modified trigger requires a path")
		return nil
	}
	relative, _ := a.Option("path", false)
	absolute, _ := a.Option("path", true)
	return &Trigger{
		Block:         block,
		SpecifiedPath: specified,
		RelativePath:  relative,
		AbsolutePath:  absolute,
	}
}
