package cli

// Command descriptions
const (
	MsgRootShort = "Module-driven dotfile compiler and action runner"
	MsgRootLong  = `astral reads modules from modules.yml in the config directory and runs
their lifecycle blocks: setup actions once, startup and event actions on
demand, on_modified actions when watched files change and exit actions on
shutdown. Blocks import context, compile templates, copy, symlink and stow
files, and run shell commands.`

	MsgVersionShort = "Print version information"
	MsgRunShort     = "Run setup and one lifecycle block"
	MsgRunLong      = `Run executes the on_setup actions no earlier run has executed, then the
block given by --block. With --event, on_event is fired afterwards with
{event} set to the given name.`
	MsgContextShort = "Print the global context as YAML"
	MsgCleanupShort = "Delete the files a module has created"
	MsgWatchShort   = "Run startup, then re-run actions when files change"
	MsgWatchLong    = `Watch runs setup and on_startup, then watches every module directory and
fires on_modified blocks for changed files until interrupted. Modules with an
event_listener fire on_event whenever their event changes. On exit the
on_exit blocks run and temporary files are removed.`

	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfigDir = "Config directory (default $ASTRAL_CONFIG_HOME or XDG config home)"
	MsgFlagBlock     = "Lifecycle block to fire after setup"
	MsgFlagEvent     = "Fire on_event with this event name"
	MsgFlagDryRun    = "Only log what would be deleted"
	MsgFlagSetup     = "Also forget the module's executed on_setup actions"

	MsgErrNoCommand = "no command specified"
	MsgCleanedUp    = "Removed %s file(s) created by %s\n"
	MsgWouldClean   = "Would remove %s file(s) created by %s\n"
)
