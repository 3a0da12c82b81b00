// Package compiler renders templates against a context store.
//
// Templates use text/template syntax. The dot is a plain map view of the
// store, so `{{ .colors.primary }}` works for string keys. Positional lookups
// that should honour the store's integer fallback go through `get`:
//
//	{{ get "fonts" 2 }}             the third font, or the closest earlier one
//	{{ "date +%Y" | shell }}        trimmed stdout of a shell command
//	{{ shell 2 "n/a" "hostname" }}  with a timeout in seconds and a fallback
//	{{ env "HOME" }}
package compiler

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/filesystem"
	"github.com/arthur-debert/astral/pkg/logging"
	"github.com/arthur-debert/astral/pkg/shell"
	"github.com/rs/zerolog"
)

// DefaultShellTimeout bounds shell calls made from templates.
const DefaultShellTimeout = time.Second

// Compiler renders template files to target files.
type Compiler struct {
	fs           filesystem.FS
	executor     shell.Executor
	shellTimeout time.Duration
	logger       zerolog.Logger
}

// New creates a Compiler. A non-positive shellTimeout selects
// DefaultShellTimeout.
func New(fsys filesystem.FS, executor shell.Executor, shellTimeout time.Duration) *Compiler {
	if shellTimeout <= 0 {
		shellTimeout = DefaultShellTimeout
	}
	return &Compiler{
		fs:           fsys,
		executor:     executor,
		shellTimeout: shellTimeout,
		logger:       logging.GetLogger("compiler"),
	}
}

// Compile renders templatePath with store as context and writes the result
// to targetPath. Shell commands invoked by the template run in workingDir.
// permissions is an optional string of octal digits applied to the target;
// a failing chmod is logged and does not fail the compilation.
func (c *Compiler) Compile(templatePath, targetPath string, store *contextstore.Store, workingDir, permissions string) error {
	source, err := c.fs.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrTemplateNotFound,
				"template %s does not exist", templatePath).
				WithDetail("template", templatePath)
		}
		return errors.Wrapf(err, errors.ErrFileAccess,
			"could not read template %s", templatePath)
	}

	rendered, err := c.Render(filepath.Base(templatePath), string(source), store, workingDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrTemplateRender,
			"could not render template %s", templatePath).
			WithDetail("template", templatePath)
	}

	c.logger.Info().
		Str("template", templatePath).
		Str("target", targetPath).
		Msg("Compiling template")

	if err := c.fs.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate,
			"could not create parent directory of %s", targetPath)
	}

	mode := fs.FileMode(0644)
	if info, err := c.fs.Stat(templatePath); err == nil {
		mode = info.Mode().Perm()
	}
	// Replace a symlinked target instead of writing through it.
	if info, err := c.fs.Lstat(targetPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := c.fs.Remove(targetPath); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite,
				"could not remove symlink at %s", targetPath)
		}
	}
	if err := c.fs.WriteFile(targetPath, []byte(rendered), mode); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite,
			"could not write compiled template to %s", targetPath)
	}

	if permissions != "" {
		ApplyPermissions(c.fs, targetPath, permissions, c.logger)
	}
	return nil
}

// Render executes template text against store and returns the result.
// Undefined keys render as the empty string and are logged.
func (c *Compiler) Render(name, text string, store *contextstore.Store, workingDir string) (string, error) {
	tmpl, err := template.New(name).
		Option("missingkey=zero").
		Funcs(c.funcs(name, store, workingDir)).
		Parse(text)
	if err != nil {
		return "", err
	}
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			rewriteFields(t.Tree.Root)
		}
	}

	var data map[string]any
	if store != nil {
		data = store.Map()
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Compiler) funcs(name string, store *contextstore.Store, workingDir string) template.FuncMap {
	return template.FuncMap{
		fieldFunc: func(dot any, keys ...string) any {
			return lookupField(c.logger, name, "", dot, keys...)
		},
		rangeFieldFunc: func(dot any, keys ...string) any {
			return lookupField(c.logger, name, nil, dot, keys...)
		},
		"shell": func(args ...any) (string, error) {
			return c.shellFunc(workingDir, args...)
		},
		"get": func(path ...any) any {
			if store == nil {
				return ""
			}
			value, err := store.Lookup(path...)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Interface("path", path).
					Msg("Template lookup failed, substituting empty string")
				return ""
			}
			switch v := value.(type) {
			case *contextstore.Store:
				return v.Map()
			default:
				return v
			}
		},
		"env": os.Getenv,
	}
}

// shellFunc implements `shell [timeout [fallback]] command`. The command is
// the last argument so the function can terminate a pipeline.
func (c *Compiler) shellFunc(workingDir string, args ...any) (string, error) {
	if len(args) == 0 || len(args) > 3 {
		return "", fmt.Errorf("shell: expected 1 to 3 arguments, got %d", len(args))
	}

	command := fmt.Sprint(args[len(args)-1])
	timeout := c.shellTimeout
	fallback := ""

	if len(args) >= 2 {
		parsed, err := parseTimeout(args[0])
		if err != nil {
			return "", fmt.Errorf("shell: %w", err)
		}
		timeout = parsed
	}
	if len(args) == 3 {
		fallback = fmt.Sprint(args[1])
	}

	out := strings.TrimSpace(c.executor.Run(command, timeout, workingDir))
	if out == "" {
		return fallback, nil
	}
	return out, nil
}

// parseTimeout accepts seconds as a number or a Go duration string.
func parseTimeout(value any) (time.Duration, error) {
	switch v := value.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case time.Duration:
		return v, nil
	case string:
		if seconds, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(seconds * float64(time.Second)), nil
		}
		return time.ParseDuration(v)
	default:
		return 0, fmt.Errorf("invalid timeout %v", value)
	}
}

// ApplyPermissions chmods path to the octal mode in permissions. Failures are
// logged and reported through the return value.
func ApplyPermissions(fsys filesystem.FS, path, permissions string, logger zerolog.Logger) bool {
	mode, err := ParsePermissions(permissions)
	if err == nil {
		err = fsys.Chmod(path, mode)
	}
	if err != nil {
		logger.Error().
			Err(err).
			Str("permissions", permissions).
			Str("path", path).
			Msg("Could not set permissions")
		return false
	}
	return true
}

// ParsePermissions parses a string of octal digits such as "707".
func ParsePermissions(permissions string) (fs.FileMode, error) {
	bits, err := strconv.ParseUint(strings.TrimSpace(permissions), 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrPermission, "invalid permissions %q", permissions)
	}
	if bits > 0o7777 {
		return 0, errors.Newf(errors.ErrPermission, "permissions %q out of range", permissions)
	}
	return toFileMode(uint32(bits)), nil
}

// toFileMode maps unix setuid/setgid/sticky bits onto their fs.FileMode flags.
func toFileMode(bits uint32) fs.FileMode {
	mode := fs.FileMode(bits & 0o777)
	if bits&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if bits&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if bits&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}
