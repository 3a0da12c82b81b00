package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigHome overrides the XDG config directory for astral
	EnvConfigHome = "ASTRAL_CONFIG_HOME"

	// EnvDataDir overrides the XDG data directory for astral
	EnvDataDir = "ASTRAL_DATA_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// AppDirName is the directory name used below each XDG base directory
const AppDirName = "astral"

// Paths holds the resolved XDG locations
type Paths struct {
	ConfigDir string
	DataDir   string
	StateDir  string
}

// New resolves XDG directories, respecting environment overrides
func New() Paths {
	p := Paths{}

	if configDir := os.Getenv(EnvConfigHome); configDir != "" {
		p.ConfigDir = ExpandHome(configDir)
	} else {
		p.ConfigDir = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.DataDir = ExpandHome(dataDir)
	} else if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		p.DataDir = filepath.Join(dataHome, AppDirName)
	} else {
		p.DataDir = filepath.Join(xdg.DataHome, AppDirName)
	}

	if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
		p.StateDir = filepath.Join(stateHome, AppDirName)
	} else {
		p.StateDir = filepath.Join(xdg.StateHome, AppDirName)
	}

	return p
}

// Expand returns an absolute, cleaned path for a user supplied path.
// Environment variables and a leading ~ are expanded; relative results are
// anchored at anchor.
func Expand(path, anchor string) string {
	expanded := ExpandHome(os.ExpandEnv(path))
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(anchor, expanded)
	}
	return filepath.Clean(expanded)
}

// ExpandHome expands ~ to the home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~something (not the user's home)
	return path
}
