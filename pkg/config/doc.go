// Package config loads astral's application settings and reads the YAML and
// TOML files that feed the context store.
//
// Settings are layered with koanf, later layers overriding earlier ones:
//
//  1. embedded defaults (embedded/defaults.toml)
//  2. astral.toml, astral.yml or astral.yaml in the configuration directory
//  3. ASTRAL_ environment variables (ASTRAL_RUN__DEFAULT_TIMEOUT=5s)
//  4. explicit overrides passed by the caller, typically CLI flags
//
// Context files are read with ReadFile, which keeps mapping order for YAML
// and turns integer keys into int keys so positional fallback works on them.
package config
