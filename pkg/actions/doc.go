// Package actions implements the typed module actions and the action block
// that orders them.
//
// Every action kind is built from a user supplied option mapping plus a
// shared Env holding the anchor directory, the placeholder replacer and the
// context store. An action built from an empty mapping is a null object: its
// Execute performs no I/O and returns the empty result for its kind.
//
// Within an ActionBlock actions run in a fixed order: context imports, then
// symlinks, copies, compilations and stows, then shell commands. Triggers are
// collected and handed back to the caller instead of being executed.
//
// Recoverable failures (missing sources, bad option values, failing shell
// commands) are logged and skipped. A relative anchor directory or a
// relative path handed to an ownership query is a caller bug and panics.
package actions
