package datastore

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
)

// ExecutedActionsName is the setup ledger file name inside the data directory.
const ExecutedActionsName = "setup.yml"

type actionsByKind map[string][]map[string]any

// ExecutedActions tracks which on_setup actions of one module have already
// run. Actions checked with IsNew are remembered until Write persists them.
type ExecutedActions struct {
	fs     filesystem.FS
	path   string
	module string
	old    actionsByKind
	new    actionsByKind
	logger zerolog.Logger
}

// NewExecutedActions loads the executed actions of module from dataDir.
func NewExecutedActions(fsys filesystem.FS, dataDir, module string) (*ExecutedActions, error) {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	e := &ExecutedActions{
		fs:     fsys,
		path:   filepath.Join(dataDir, ExecutedActionsName),
		module: module,
		new:    actionsByKind{},
		logger: logging.GetLogger("datastore.executed_actions"),
	}
	all, err := e.load()
	if err != nil {
		return nil, err
	}
	e.old = all[module]
	if e.old == nil {
		e.old = actionsByKind{}
	}
	return e, nil
}

// Path returns the location of the setup ledger file.
func (e *ExecutedActions) Path() string { return e.path }

// IsNew reports whether the action has not been executed before, neither in
// an earlier run nor earlier in this one. Empty options are never new.
func (e *ExecutedActions) IsNew(kind actions.Kind, options actions.Options) bool {
	if len(options) == 0 {
		return false
	}
	key := fingerprint(options)
	if key == "" {
		return false
	}
	for _, seen := range [][]map[string]any{e.old[string(kind)], e.new[string(kind)]} {
		for _, previous := range seen {
			if fingerprint(previous) == key {
				return false
			}
		}
	}
	e.new[string(kind)] = append(e.new[string(kind)], map[string]any(options.Clone()))
	return true
}

// Write persists the actions found new since construction.
func (e *ExecutedActions) Write() error {
	if len(e.new) == 0 {
		return nil
	}
	all, err := e.load()
	if err != nil {
		return err
	}
	section := all[e.module]
	if section == nil {
		section = actionsByKind{}
	}
	for kind, options := range e.new {
		section[kind] = append(section[kind], options...)
		e.old[kind] = append(e.old[kind], options...)
	}
	all[e.module] = section
	e.new = actionsByKind{}
	return dumpYAML(e.fs, e.path, all)
}

// Reset forgets every executed action of the module, so that on_setup runs
// again.
func (e *ExecutedActions) Reset() error {
	all, err := e.load()
	if err != nil {
		return err
	}
	if section, ok := all[e.module]; !ok || len(section) == 0 {
		e.logger.Error().Str("module", e.module).Msg("No saved executed on_setup actions for module")
	} else {
		e.logger.Info().Str("module", e.module).Int("kinds", len(section)).Msg("Reset executed on_setup actions")
	}
	delete(all, e.module)
	e.old = actionsByKind{}
	e.new = actionsByKind{}
	return dumpYAML(e.fs, e.path, all)
}

func (e *ExecutedActions) load() (map[string]actionsByKind, error) {
	all := map[string]actionsByKind{}
	if err := loadYAML(e.fs, e.path, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = map[string]actionsByKind{}
	}
	return all, nil
}

// fingerprint canonicalizes options through YAML, which sorts mapping keys,
// so that options read back from disk compare equal to freshly parsed ones.
func fingerprint(options map[string]any) string {
	out, err := yaml.Marshal(options)
	if err != nil {
		return ""
	}
	return string(out)
}
