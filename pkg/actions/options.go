package actions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/arthur-debert/astral/pkg/contextstore"
	"github.com/arthur-debert/astral/pkg/paths"
)

// Options is the user configuration of one action.
type Options map[string]any

// ToOptions converts a decoded configuration value into Options.
func ToOptions(value any) (Options, bool) {
	switch v := value.(type) {
	case nil:
		return Options{}, true
	case Options:
		return v, true
	case map[string]any:
		return Options(v), true
	case *contextstore.Store:
		return Options(v.Map()), true
	default:
		return nil, false
	}
}

// Clone returns a shallow copy.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// OptionResolver reads options with placeholders substituted.
type OptionResolver interface {
	// Option returns the processed value of key, and whether it was set.
	// Path options are expanded and anchored at the action directory.
	Option(key string, asPath bool) (string, bool)
}

// optionResolver is composed into every action kind.
type optionResolver struct {
	options   Options
	directory string
	replace   Replacer
}

func newOptionResolver(options Options, env *Env) optionResolver {
	if options == nil {
		options = Options{}
	}
	return optionResolver{options: options, directory: env.Directory, replace: env.Replace}
}

func (r optionResolver) Option(key string, asPath bool) (string, bool) {
	raw, ok := r.options[key]
	if !ok || raw == nil {
		return "", false
	}

	value, isString := raw.(string)
	if !isString {
		value = fmt.Sprint(raw)
	}
	value = r.replace(value)

	if asPath {
		return paths.Expand(value, r.directory), true
	}
	return os.ExpandEnv(value), true
}

// get returns an option or def when unset.
func (r optionResolver) get(key, def string) string {
	if value, ok := r.Option(key, false); ok {
		return value
	}
	return def
}

func (r optionResolver) has(key string) bool {
	v, ok := r.options[key]
	return ok && v != nil
}

// Options returns a copy of the raw options.
func (r optionResolver) Options() Options {
	return r.options.Clone()
}

// duration reads a timeout option given in seconds or as a Go duration.
func (r optionResolver) duration(key string) (time.Duration, bool, error) {
	raw, ok := r.options[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return time.Duration(v) * time.Second, true, nil
	case int64:
		return time.Duration(v) * time.Second, true, nil
	case float64:
		return time.Duration(v * float64(time.Second)), true, nil
	case time.Duration:
		return v, true, nil
	}

	text, _ := r.Option(key, false)
	text = strings.TrimSpace(text)
	if seconds, err := strconv.ParseFloat(text, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), true, nil
	}
	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, true, err
	}
	return d, true, nil
}
