package actions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/astral/pkg/compiler"
	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/shell"
)

// Replacer substitutes placeholders such as {event} in string options.
type Replacer func(string) string

// Env carries what actions borrow from their module. Context is shared and
// mutated by import_context actions; everything else is read-only.
type Env struct {
	// Directory anchors relative option paths. It must be absolute.
	Directory string
	Replace   Replacer
	Context   *contextstore.Store

	FS       filesystem.FS
	Shell    shell.Executor
	Compiler *compiler.Compiler
	Temp     *TempFiles
}

// withDefaults returns a copy of e with unset collaborators filled in.
// It panics when Directory is not absolute.
func (e *Env) withDefaults() *Env {
	if e == nil {
		panic("actions: nil Env")
	}
	if !filepath.IsAbs(e.Directory) {
		panic(fmt.Sprintf("actions: directory %q is not absolute", e.Directory))
	}

	env := *e
	if env.Replace == nil {
		env.Replace = func(s string) string { return s }
	}
	if env.Context == nil {
		env.Context = contextstore.New()
	}
	if env.FS == nil {
		env.FS = filesystem.NewOS()
	}
	if env.Shell == nil {
		env.Shell = shell.NewRunner()
	}
	if env.Compiler == nil {
		env.Compiler = compiler.New(env.FS, env.Shell, 0)
	}
	if env.Temp == nil {
		env.Temp = NewTempFiles(env.FS, os.TempDir())
	}
	return &env
}

func mustAbsolute(path string) {
	if !filepath.IsAbs(path) {
		panic(fmt.Sprintf("actions: ownership query for relative path %q", path))
	}
}
