package actions

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/logging"
)

// BlockConfig maps action kinds to their option mappings, in declaration
// order within each kind.
type BlockConfig map[Kind][]Options

// ParseBlock reads a decoded action block. Each kind maps to either one
// option mapping or a list of them. Unknown keys and malformed entries are
// logged and skipped.
func ParseBlock(raw any) BlockConfig {
	log := logging.GetLogger("actions")
	config := BlockConfig{}

	var entries map[string]any
	switch v := raw.(type) {
	case nil:
		return config
	case map[string]any:
		entries = v
	case Options:
		entries = v
	case *contextstore.Store:
		entries = v.Map()
	default:
		log.Error().Interface("block", raw).Msg("Action block must be a mapping")
		return config
	}

	for key, value := range entries {
		kind := Kind(key)
		if !kind.Valid() {
			log.Warn().Str("key", key).Msg("Unknown action type in block, ignoring")
			continue
		}

		var items []any
		if list, ok := value.([]any); ok {
			items = list
		} else {
			items = []any{value}
		}
		for _, item := range items {
			options, ok := ToOptions(item)
			if !ok {
				log.Error().Str("kind", key).Interface("options", item).Msg("Action options must be a mapping")
				continue
			}
			config[kind] = append(config[kind], options)
		}
	}
	return config
}

// ActionBlock is the set of actions bound to one lifecycle event.
type ActionBlock struct {
	importContexts []*ImportContextAction
	symlinks       []*SymlinkAction
	copies         []*CopyAction
	compiles       []*CompileAction
	stows          []*StowAction
	runs           []*RunAction
	triggers       []*TriggerAction

	logger zerolog.Logger
}

// NewActionBlock builds every action in config through the kind table.
// It panics when env.Directory is not absolute.
func NewActionBlock(config BlockConfig, env *Env) *ActionBlock {
	env = env.withDefaults()
	b := &ActionBlock{logger: logging.GetLogger("actions")}

	for _, kind := range Kinds {
		for _, options := range config[kind] {
			action, err := New(kind, options, env)
			if err != nil {
				b.logger.Error().Err(err).Msg("Could not build action")
				continue
			}
			switch a := action.(type) {
			case *ImportContextAction:
				b.importContexts = append(b.importContexts, a)
			case *SymlinkAction:
				b.symlinks = append(b.symlinks, a)
			case *CopyAction:
				b.copies = append(b.copies, a)
			case *CompileAction:
				b.compiles = append(b.compiles, a)
			case *StowAction:
				b.stows = append(b.stows, a)
			case *RunAction:
				b.runs = append(b.runs, a)
			case *TriggerAction:
				b.triggers = append(b.triggers, a)
			}
		}
	}
	return b
}

// Actions returns every action sorted by priority, declaration order kept
// within a kind.
func (b *ActionBlock) Actions() []Action {
	var out []Action
	for _, a := range b.importContexts {
		out = append(out, a)
	}
	for _, a := range b.symlinks {
		out = append(out, a)
	}
	for _, a := range b.copies {
		out = append(out, a)
	}
	for _, a := range b.compiles {
		out = append(out, a)
	}
	for _, a := range b.stows {
		out = append(out, a)
	}
	for _, a := range b.runs {
		out = append(out, a)
	}
	for _, a := range b.triggers {
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority() < out[j].Priority() })
	return out
}

// Execute runs context imports, then file actions, then shell commands, and
// returns the run results. Triggers are not executed.
func (b *ActionBlock) Execute(defaultTimeout time.Duration) []RunResult {
	b.ImportContext()
	b.Symlink()
	b.Copy()
	b.Compile()
	b.Stow()
	return b.Run(defaultTimeout)
}

// ImportContext executes the import_context actions.
func (b *ActionBlock) ImportContext() {
	for _, a := range b.importContexts {
		a.Execute()
	}
}

// Symlink executes the symlink actions.
func (b *ActionBlock) Symlink() {
	for _, a := range b.symlinks {
		a.Execute()
	}
}

// Copy executes the copy actions.
func (b *ActionBlock) Copy() {
	for _, a := range b.copies {
		a.Execute()
	}
}

// Compile executes the compile actions.
func (b *ActionBlock) Compile() {
	for _, a := range b.compiles {
		a.Execute()
	}
}

// Stow executes the stow actions.
func (b *ActionBlock) Stow() {
	for _, a := range b.stows {
		a.Execute()
	}
}

// Run executes the run actions and returns their results.
func (b *ActionBlock) Run(defaultTimeout time.Duration) []RunResult {
	var results []RunResult
	for _, a := range b.runs {
		if result, ok := a.Execute(defaultTimeout); ok {
			results = append(results, result)
		}
	}
	return results
}

// Triggers returns the trigger instructions of the block.
func (b *ActionBlock) Triggers() []Trigger {
	var out []Trigger
	for _, a := range b.triggers {
		if t := a.Execute(); t != nil {
			out = append(out, *t)
		}
	}
	return out
}

// PerformedCompilations merges the compilations of compile and stow actions.
func (b *ActionBlock) PerformedCompilations() Ledger {
	all := make(Ledger)
	for _, a := range b.compiles {
		all.Merge(a.PerformedCompilations())
	}
	for _, a := range b.stows {
		all.Merge(a.PerformedCompilations())
	}
	return all
}

// Owns reports whether any compile, copy or stow action of the block owns
// path. It panics when path is not absolute.
func (b *ActionBlock) Owns(path string) bool {
	mustAbsolute(path)
	for _, a := range b.compiles {
		if a.Owns(path) {
			return true
		}
	}
	for _, a := range b.copies {
		if a.Owns(path) {
			return true
		}
	}
	for _, a := range b.stows {
		if a.Owns(path) {
			return true
		}
	}
	return false
}

// Reprocess re-executes the file actions that own path and returns how
// many ran.
func (b *ActionBlock) Reprocess(path string) int {
	mustAbsolute(path)
	count := 0
	for _, a := range b.compiles {
		if a.Owns(path) {
			a.Execute()
			count++
		}
	}
	for _, a := range b.copies {
		if a.Owns(path) {
			a.Execute()
			count++
		}
	}
	for _, a := range b.stows {
		if a.Owns(path) {
			a.Execute()
			count++
		}
	}
	return count
}

// Creations lists every file produced by the block's file actions.
func (b *ActionBlock) Creations() []Creation {
	var out []Creation
	for _, a := range b.symlinks {
		out = append(out, a.Creations()...)
	}
	for _, a := range b.copies {
		out = append(out, a.Creations()...)
	}
	for _, a := range b.compiles {
		out = append(out, a.Creations()...)
	}
	for _, a := range b.stows {
		out = append(out, a.Creations()...)
	}
	return out
}

// Empty reports whether the block holds no configured action.
func (b *ActionBlock) Empty() bool {
	for _, a := range b.Actions() {
		if !a.IsNull() {
			return false
		}
	}
	return true
}
