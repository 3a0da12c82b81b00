// Package paths provides centralized path handling for astral.
//
// It handles two concerns:
//
//   - Anchoring user supplied paths: every relative path in an action option
//     is resolved against the directory of the module that declared it, never
//     against the process working directory. `~` and `$VAR` references are
//     expanded first.
//   - XDG locations for astral's own files (config, data, state).
//
// # Environment Variables
//
//   - ASTRAL_CONFIG_HOME: configuration directory (default: $XDG_CONFIG_HOME/astral)
//   - ASTRAL_DATA_DIR: data directory for persisted ledgers (default: $XDG_DATA_HOME/astral)
//   - XDG_STATE_HOME: base of the log file location
package paths
