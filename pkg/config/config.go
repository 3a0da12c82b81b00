package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/paths"
)

// EnvPrefix prefixes environment variables that override settings.
const EnvPrefix = "ASTRAL_"

// settingsFiles are probed in order; the first one found is loaded.
var settingsFiles = []string{"astral.toml", "astral.yml", "astral.yaml"}

// Config holds the application settings.
type Config struct {
	// ConfigDir is the directory settings and modules were loaded from.
	ConfigDir string `koanf:"-"`

	Run     RunConfig     `koanf:"run"`
	Compile CompileConfig `koanf:"compile"`
	Modules ModulesConfig `koanf:"modules"`
	Paths   PathsConfig   `koanf:"paths"`
	Logging LoggingConfig `koanf:"logging"`
}

// RunConfig configures run actions.
type RunConfig struct {
	// DefaultTimeout applies to run actions without their own timeout.
	DefaultTimeout time.Duration `koanf:"default_timeout"`
}

// CompileConfig configures template compilation.
type CompileConfig struct {
	ShellTimeout time.Duration `koanf:"shell_timeout"`
}

// ModulesConfig locates module definitions.
type ModulesConfig struct {
	ConfigFile             string `koanf:"config_file"`
	ContextFile            string `koanf:"context_file"`
	ReprocessModifiedFiles bool   `koanf:"reprocess_modified_files"`
}

// PathsConfig overrides where astral keeps files.
type PathsConfig struct {
	TempDir string `koanf:"temp_dir"`
	DataDir string `koanf:"data_dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Verbosity int `koanf:"verbosity"`
}

// ModulesFile returns the absolute path of the module definitions file.
func (c *Config) ModulesFile() string {
	return paths.Expand(c.Modules.ConfigFile, c.ConfigDir)
}

// ContextFile returns the absolute path of the global context file.
func (c *Config) ContextFile() string {
	return paths.Expand(c.Modules.ContextFile, c.ConfigDir)
}

// Load builds the layered configuration for configDir. An empty configDir
// selects the default location. overrides are flattened "section.key"
// values applied last.
func Load(configDir string, overrides map[string]interface{}) (*Config, error) {
	log := logging.GetLogger("config")
	locations := paths.New()
	if configDir == "" {
		configDir = locations.ConfigDir
	}

	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Settings file in the config directory
	for _, name := range settingsFiles {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		parser := koanf.Parser(toml.Parser())
		if filepath.Ext(name) != ".toml" {
			parser = yaml.Parser()
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load settings from %s", path)
		}
		log.Debug().Str("path", path).Msg("Loaded settings file")
		break
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
	}

	// 4. Overrides
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load overrides")
		}
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				secondsToDurationHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "failed to unmarshal configuration")
	}

	cfg.ConfigDir = configDir
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = locations.DataDir
	} else {
		cfg.Paths.DataDir = paths.Expand(cfg.Paths.DataDir, configDir)
	}
	if cfg.Paths.TempDir == "" {
		cfg.Paths.TempDir = os.TempDir()
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	log.Debug().
		Str("configDir", cfg.ConfigDir).
		Str("dataDir", cfg.Paths.DataDir).
		Dur("defaultTimeout", cfg.Run.DefaultTimeout).
		Msg("Configuration loaded")
	return &cfg, nil
}

// envKey maps ASTRAL_RUN__DEFAULT_TIMEOUT to run.default_timeout.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// secondsToDurationHookFunc lets numeric settings such as `default_timeout = 2`
// mean seconds rather than nanoseconds.
func secondsToDurationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		case string:
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return time.Duration(seconds * float64(time.Second)), nil
			}
		}
		return data, nil
	}
}

func validate(cfg *Config) error {
	if cfg.Run.DefaultTimeout < 0 {
		return errors.Newf(errors.ErrConfigValid, "run.default_timeout must not be negative, got %s", cfg.Run.DefaultTimeout)
	}
	if cfg.Compile.ShellTimeout < 0 {
		return errors.Newf(errors.ErrConfigValid, "compile.shell_timeout must not be negative, got %s", cfg.Compile.ShellTimeout)
	}
	if cfg.Modules.ConfigFile == "" {
		return errors.New(errors.ErrConfigValid, "modules.config_file must not be empty")
	}
	return nil
}
