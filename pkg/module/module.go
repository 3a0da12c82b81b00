package module

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/paths"
)

// Lifecycle block names.
const (
	BlockOnSetup    = "on_setup"
	BlockOnStartup  = "on_startup"
	BlockOnEvent    = "on_event"
	BlockOnExit     = "on_exit"
	BlockOnModified = actions.BlockOnModified
)

// EventPlaceholder is replaced by the current event name in string options.
const EventPlaceholder = "{event}"

// Blocks lists the lifecycle blocks that can be fired by name.
var Blocks = []string{BlockOnSetup, BlockOnStartup, BlockOnEvent, BlockOnExit}

// disabledValues are the enabled option values that switch a module off.
var disabledValues = map[string]bool{
	"false":    true,
	"off":      true,
	"disabled": true,
	"not":      true,
	"0":        true,
}

// Module is a named unit of lifecycle blocks anchored at one directory.
type Module struct {
	Name      string
	Directory string

	event    string
	listener EventListener
	listened string
	setup    actions.BlockConfig
	blocks   map[string]*actions.ActionBlock
	modified map[string]*actions.ActionBlock
	env      *actions.Env
}

// New builds a module from its decoded configuration. Relative directories
// are anchored at configDir; a missing directory option means configDir.
// The collaborators in env are shared; its Directory and Replace are set by
// the module.
func New(name string, raw map[string]any, configDir string, env actions.Env) (*Module, error) {
	directory := configDir
	if dir, ok := raw["directory"].(string); ok && dir != "" {
		directory = paths.Expand(dir, configDir)
	}

	fsys := env.FS
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	if !filesystem.IsDir(fsys, directory) {
		return nil, errors.Newf(errors.ErrModuleNotFound, "module %s: directory %s does not exist", name, directory).
			WithDetail("module", name)
	}

	listener, err := NewEventListener(raw["event_listener"], nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValid, "module %s: invalid event_listener", name).
			WithDetail("module", name)
	}

	m := &Module{
		Name:      name,
		Directory: directory,
		blocks:    map[string]*actions.ActionBlock{},
		modified:  map[string]*actions.ActionBlock{},
	}
	m.SetListener(listener)
	env.Directory = directory
	env.Replace = m.replace
	m.env = &env

	m.setup = actions.ParseBlock(raw[BlockOnSetup])
	for _, block := range []string{BlockOnStartup, BlockOnEvent, BlockOnExit} {
		m.blocks[block] = actions.NewActionBlock(actions.ParseBlock(raw[block]), m.env)
	}

	if rawModified, ok := actions.ToOptions(raw[BlockOnModified]); ok {
		for path, block := range rawModified {
			absolute := paths.Expand(m.replace(path), directory)
			m.modified[absolute] = actions.NewActionBlock(actions.ParseBlock(block), m.env)
		}
	}
	return m, nil
}

// Enabled reports whether the enabled option leaves the module switched on.
func Enabled(raw map[string]any) bool {
	value, ok := raw["enabled"]
	if !ok || value == nil {
		return true
	}
	if b, ok := value.(bool); ok {
		return b
	}
	return !disabledValues[strings.ToLower(fmt.Sprint(value))]
}

// Parse builds the enabled modules of a modules file, in file order.
// Modules that cannot be built are logged and skipped.
func Parse(store *contextstore.Store, configDir string, env actions.Env) []*Module {
	log := logging.GetLogger("module")
	decoded := store.Map()

	var modules []*Module
	for _, key := range store.Keys() {
		name := fmt.Sprint(key)
		raw, ok := actions.ToOptions(decoded[name])
		if !ok {
			log.Error().Str("module", name).Msg("Module configuration must be a mapping")
			continue
		}
		if !Enabled(raw) {
			log.Debug().Str("module", name).Msg("Module disabled, skipping")
			continue
		}

		m, err := New(name, raw, configDir, env)
		if err != nil {
			log.Error().Err(err).Str("module", name).Msg("Could not load module")
			continue
		}
		modules = append(modules, m)
	}
	return modules
}

// Event returns the event name substituted for {event}.
func (m *Module) Event() string { return m.event }

// SetEvent changes the event name substituted for {event}.
func (m *Module) SetEvent(event string) { m.event = event }

// Listener returns the event listener of the module.
func (m *Module) Listener() EventListener { return m.listener }

// SetListener replaces the event listener and adopts its current event.
func (m *Module) SetListener(listener EventListener) {
	m.listener = listener
	m.listened = listener.Event()
	m.event = m.listened
}

// pollListener returns the listener's event and whether it differs from
// the one seen last. A change becomes the module's event.
func (m *Module) pollListener() (string, bool) {
	event := m.listener.Event()
	if event == m.listened {
		return event, false
	}
	m.listened = event
	m.event = event
	return event, true
}

// Block returns the action block named block. on_setup is built from the
// actions accepted by filter; a nil filter accepts everything.
func (m *Module) Block(block string, filter func(actions.Kind, actions.Options) bool) (*actions.ActionBlock, error) {
	if block == BlockOnSetup {
		return actions.NewActionBlock(m.filterSetup(filter), m.env), nil
	}
	b, ok := m.blocks[block]
	if !ok {
		return nil, errors.Newf(errors.ErrBlockNotFound, "module %s has no block %s", m.Name, block).
			WithDetail("module", m.Name)
	}
	return b, nil
}

// Modified returns the on_modified block watching path, if any.
func (m *Module) Modified(path string) (*actions.ActionBlock, bool) {
	b, ok := m.modified[path]
	return b, ok
}

// ModifiedPaths returns the sorted absolute paths with on_modified blocks.
func (m *Module) ModifiedPaths() []string {
	out := make([]string, 0, len(m.modified))
	for path := range m.modified {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// PersistentBlocks returns the blocks that live for the whole run: startup,
// event, exit and every on_modified block.
func (m *Module) PersistentBlocks() []*actions.ActionBlock {
	out := []*actions.ActionBlock{
		m.blocks[BlockOnStartup],
		m.blocks[BlockOnEvent],
		m.blocks[BlockOnExit],
	}
	for _, path := range m.ModifiedPaths() {
		out = append(out, m.modified[path])
	}
	return out
}

func (m *Module) filterSetup(filter func(actions.Kind, actions.Options) bool) actions.BlockConfig {
	if filter == nil {
		return m.setup
	}
	filtered := actions.BlockConfig{}
	for _, kind := range actions.Kinds {
		for _, options := range m.setup[kind] {
			if filter(kind, options) {
				filtered[kind] = append(filtered[kind], options)
			}
		}
	}
	return filtered
}

func (m *Module) replace(s string) string {
	return strings.ReplaceAll(s, EventPlaceholder, m.event)
}
