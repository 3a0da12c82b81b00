// Package module loads modules from the modules file and fires their
// lifecycle blocks.
//
// A module is a named mapping in modules.yml:
//
//	theme:
//	  enabled: true          # optional, "false", "off", "0"... disable it
//	  directory: theme       # relative to the config directory
//	  on_setup:   {...}      # run once across runs
//	  on_startup: {...}
//	  on_event:   {...}      # {event} expands to the current event name
//	  on_exit:    {...}
//	  on_modified:
//	    template.conf: {...} # fired when the file changes
//
// The Manager owns the global context, the temp-file registry and the
// created-files ledger, and follows the trigger actions each block returns.
package module
