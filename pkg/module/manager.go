package module

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/actions"
	"github.com/arthur-debert/astral/pkg/compiler"
	"github.com/arthur-debert/astral/pkg/config"
	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/datastore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/shell"
)

// TempDirName is the directory created below paths.temp_dir for compile
// targets without an explicit target.
const TempDirName = "astral"

// Manager fires lifecycle blocks for every loaded module and follows the
// triggers they return. All operations are serialized, so the shared
// context store sees one writer at a time.
type Manager struct {
	cfg     *config.Config
	fs      filesystem.FS
	context *contextstore.Store
	modules []*Module
	temp    *actions.TempFiles
	created *datastore.CreatedFiles

	mu     sync.Mutex
	logger zerolog.Logger
}

// NewManager loads the global context and the modules file described by
// cfg. A nil fsys or executor selects the OS filesystem and the system
// shell. A missing context or modules file is not an error.
func NewManager(cfg *config.Config, fsys filesystem.FS, executor shell.Executor) (*Manager, error) {
	if fsys == nil {
		fsys = filesystem.NewOS()
	}
	if executor == nil {
		executor = shell.NewRunner()
	}

	m := &Manager{
		cfg:     cfg,
		fs:      fsys,
		context: contextstore.New(),
		temp:    actions.NewTempFiles(fsys, filepath.Join(cfg.Paths.TempDir, TempDirName)),
		logger:  logging.GetLogger("module.manager"),
	}

	if err := m.loadContext(); err != nil {
		return nil, err
	}

	created, err := datastore.NewCreatedFiles(fsys, cfg.Paths.DataDir)
	if err != nil {
		return nil, err
	}
	m.created = created

	modules, err := m.loadModules(executor)
	if err != nil {
		return nil, err
	}
	m.modules = modules
	return m, nil
}

func (m *Manager) loadContext() error {
	path := m.cfg.ContextFile()
	if !filesystem.Exists(m.fs, path) {
		m.logger.Debug().Str("path", path).Msg("No global context file")
		return nil
	}
	store, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	m.context.Update(store)
	return nil
}

func (m *Manager) loadModules(executor shell.Executor) ([]*Module, error) {
	path := m.cfg.ModulesFile()
	if !filesystem.Exists(m.fs, path) {
		m.logger.Warn().Str("path", path).Msg("No modules file, nothing to manage")
		return nil, nil
	}
	store, err := config.ReadFile(path)
	if err != nil {
		return nil, err
	}

	env := actions.Env{
		Context:  m.context,
		FS:       m.fs,
		Shell:    executor,
		Compiler: compiler.New(m.fs, executor, m.cfg.Compile.ShellTimeout),
		Temp:     m.temp,
	}
	modules := Parse(store, m.cfg.ConfigDir, env)
	m.logger.Info().Int("modules", len(modules)).Str("path", path).Msg("Loaded modules")
	return modules, nil
}

// Context returns the global context store shared by every module.
func (m *Manager) Context() *contextstore.Store { return m.context }

// Modules returns the loaded modules in file order.
func (m *Manager) Modules() []*Module { return m.modules }

// Module returns the loaded module called name.
func (m *Manager) Module(name string) (*Module, error) {
	for _, mod := range m.modules {
		if mod.Name == name {
			return mod, nil
		}
	}
	return nil, errors.Newf(errors.ErrModuleNotFound, "module %s is not loaded", name).WithDetail("module", name)
}

// CreatedFiles returns the ledger of files created by modules.
func (m *Manager) CreatedFiles() *datastore.CreatedFiles { return m.created }

// Directories returns the directories of the loaded modules.
func (m *Manager) Directories() []string {
	seen := map[string]bool{}
	var out []string
	for _, mod := range m.modules {
		if !seen[mod.Directory] {
			seen[mod.Directory] = true
			out = append(out, mod.Directory)
		}
	}
	return out
}

// Setup executes the on_setup actions that no earlier run has executed.
func (m *Manager) Setup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mod := range m.modules {
		executed, err := datastore.NewExecutedActions(m.fs, m.cfg.Paths.DataDir, mod.Name)
		if err != nil {
			return err
		}
		block, _ := mod.Block(BlockOnSetup, executed.IsNew)
		m.fire(mod, BlockOnSetup, "", block, executed.IsNew)
		if err := executed.Write(); err != nil {
			return err
		}
	}
	return nil
}

// Startup fires on_startup for every module.
func (m *Manager) Startup() {
	m.fireAll(BlockOnStartup)
}

// Event sets the current event of every module and fires on_event.
func (m *Manager) Event(event string) {
	m.mu.Lock()
	for _, mod := range m.modules {
		mod.SetEvent(event)
	}
	m.mu.Unlock()
	m.fireAll(BlockOnEvent)
}

// CheckEvents fires on_event for every module whose event listener reports
// a new event, and returns how many modules fired.
func (m *Manager) CheckEvents() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, mod := range m.modules {
		event, changed := mod.pollListener()
		if !changed {
			continue
		}
		m.logger.Info().Str("module", mod.Name).Str("listener", mod.Listener().Type()).Str("event", event).
			Msg("Event changed")
		block, err := mod.Block(BlockOnEvent, nil)
		if err != nil {
			m.logger.Error().Err(err).Msg("Could not fire block")
			continue
		}
		m.fire(mod, BlockOnEvent, "", block, nil)
		count++
	}
	return count
}

// TimeUntilNextEvent returns the shortest time until any module's event
// listener changes event, or Never.
func (m *Manager) TimeUntilNextEvent() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := Never
	for _, mod := range m.modules {
		if wait := mod.Listener().TimeUntilNext(); wait < next {
			next = wait
		}
	}
	return next
}

// WatchEvents calls CheckEvents whenever an event listener is due, until
// ctx is done.
func (m *Manager) WatchEvents(ctx context.Context) {
	timer := time.NewTimer(Never)
	defer timer.Stop()

	for {
		timer.Reset(m.TimeUntilNextEvent())
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			m.CheckEvents()
		}
	}
}

// Exit fires on_exit for every module.
func (m *Manager) Exit() {
	m.fireAll(BlockOnExit)
}

// Fire runs the named lifecycle block. on_setup goes through Setup.
func (m *Manager) Fire(block string) error {
	switch block {
	case BlockOnSetup:
		return m.Setup()
	case BlockOnStartup, BlockOnEvent, BlockOnExit:
		m.fireAll(block)
		return nil
	}
	return errors.Newf(errors.ErrBlockNotFound, "unknown block %s", block).WithDetail("block", block)
}

// FileModified fires the on_modified blocks watching path. With
// modules.reprocess_modified_files set, file actions owning path are re-run
// as well. It returns the number of blocks fired plus actions reprocessed.
func (m *Manager) FileModified(path string) int {
	absolute, err := filepath.Abs(path)
	if err != nil {
		m.logger.Error().Err(err).Str("path", path).Msg("Could not resolve modified path")
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, mod := range m.modules {
		if block, ok := mod.Modified(absolute); ok {
			m.fire(mod, BlockOnModified, absolute, block, nil)
			count++
		}
	}

	if !m.cfg.Modules.ReprocessModifiedFiles {
		return count
	}
	for _, mod := range m.modules {
		reprocessed := 0
		for _, block := range mod.PersistentBlocks() {
			reprocessed += block.Reprocess(absolute)
		}
		if reprocessed > 0 {
			m.logger.Info().Str("module", mod.Name).Str("path", absolute).Int("actions", reprocessed).
				Msg("Reprocessed file actions for modified file")
			m.record(mod, mod.PersistentBlocks()...)
		}
		count += reprocessed
	}
	return count
}

// Close deletes the temporary files created during the run.
func (m *Manager) Close() error {
	m.temp.Cleanup()
	return nil
}

func (m *Manager) fireAll(block string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mod := range m.modules {
		b, err := mod.Block(block, nil)
		if err != nil {
			m.logger.Error().Err(err).Msg("Could not fire block")
			continue
		}
		m.fire(mod, block, "", b, nil)
	}
}

// fire executes one block of mod and then the blocks its triggers name,
// each at most once per call.
func (m *Manager) fire(mod *Module, name, path string, block *actions.ActionBlock, setupFilter func(actions.Kind, actions.Options) bool) {
	fired := map[string]bool{}
	queue := []pendingBlock{{name: name, path: path, block: block}}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		key := next.name + "\x00" + next.path
		if fired[key] {
			m.logger.Debug().Str("module", mod.Name).Str("block", next.name).Msg("Block already fired, skipping trigger")
			continue
		}
		fired[key] = true

		done := logging.LogOperationStart(m.logger.With().Str("module", mod.Name).Str("block", next.name).Logger(), "execute block")
		results := next.block.Execute(m.cfg.Run.DefaultTimeout)
		done()
		for _, result := range results {
			m.logger.Info().Str("module", mod.Name).Str("command", result.Command).Str("stdout", result.Stdout).
				Msg("Command finished")
		}
		m.record(mod, next.block)

		for _, trigger := range next.block.Triggers() {
			pending, ok := m.resolveTrigger(mod, trigger, setupFilter)
			if ok {
				queue = append(queue, pending)
			}
		}
	}
}

type pendingBlock struct {
	name  string
	path  string
	block *actions.ActionBlock
}

func (m *Manager) resolveTrigger(mod *Module, trigger actions.Trigger, setupFilter func(actions.Kind, actions.Options) bool) (pendingBlock, bool) {
	if trigger.Block == BlockOnModified {
		block, ok := mod.Modified(trigger.AbsolutePath)
		if !ok {
			m.logger.Warn().Str("module", mod.Name).Str("path", trigger.AbsolutePath).
				Msg("Trigger names an on_modified path without a block")
			return pendingBlock{}, false
		}
		return pendingBlock{name: trigger.Block, path: trigger.AbsolutePath, block: block}, true
	}
	if trigger.Block == BlockOnSetup && setupFilter == nil {
		m.logger.Warn().Str("module", mod.Name).Msg("on_setup can only be triggered during setup")
		return pendingBlock{}, false
	}

	block, err := mod.Block(trigger.Block, setupFilter)
	if err != nil {
		m.logger.Error().Err(err).Msg("Trigger names an unknown block")
		return pendingBlock{}, false
	}
	return pendingBlock{name: trigger.Block, block: block}, true
}

func (m *Manager) record(mod *Module, blocks ...*actions.ActionBlock) {
	var creations []actions.Creation
	for _, block := range blocks {
		creations = append(creations, block.Creations()...)
	}
	if err := m.created.Insert(mod.Name, creations); err != nil {
		m.logger.Error().Err(err).Str("module", mod.Name).Msg("Could not record created files")
	}
}
