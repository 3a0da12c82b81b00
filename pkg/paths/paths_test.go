package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	t.Setenv("HOME", "/home/user")
	t.Setenv("ASTRAL_TEST_DIR", "/opt/themes")

	tests := []struct {
		name   string
		path   string
		anchor string
		want   string
	}{
		{"relative anchored", "templates/bar.conf", "/cfg/module", "/cfg/module/templates/bar.conf"},
		{"absolute untouched", "/etc/hosts", "/cfg/module", "/etc/hosts"},
		{"tilde expanded", "~/.config/bar", "/cfg/module", "/home/user/.config/bar"},
		{"bare tilde", "~", "/cfg/module", "/home/user"},
		{"env var expanded", "$ASTRAL_TEST_DIR/dark", "/cfg/module", "/opt/themes/dark"},
		{"parent segments cleaned", "../shared/x", "/cfg/module", "/cfg/shared/x"},
		{"tilde user not expanded", "~other/x", "/cfg", "/cfg/~other/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.path, tt.anchor))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv(EnvConfigHome, "/custom/config")
		t.Setenv(EnvDataDir, "/custom/data")
		t.Setenv("XDG_STATE_HOME", "/custom/state")

		p := New()
		assert.Equal(t, "/custom/config", p.ConfigDir)
		assert.Equal(t, "/custom/data", p.DataDir)
		assert.Equal(t, filepath.Join("/custom/state", AppDirName), p.StateDir)
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv(EnvDataDir, "")
		t.Setenv("XDG_DATA_HOME", "/xdg/data")

		p := New()
		assert.Equal(t, filepath.Join("/xdg/data", AppDirName), p.DataDir)
	})
}
