package actions

import (
	"github.com/arthur-debert/astral/pkg/errors"
)

// Kind identifies an action type by its configuration key.
type Kind string

const (
	KindImportContext Kind = "import_context"
	KindSymlink       Kind = "symlink"
	KindCopy          Kind = "copy"
	KindCompile       Kind = "compile"
	KindStow          Kind = "stow"
	KindRun           Kind = "run"
	KindTrigger       Kind = "trigger"
)

// Kinds lists every kind in block execution order.
var Kinds = []Kind{
	KindImportContext,
	KindSymlink,
	KindCopy,
	KindCompile,
	KindStow,
	KindRun,
	KindTrigger,
}

var priorities = map[Kind]int{
	KindImportContext: 100,
	KindSymlink:       200,
	KindCopy:          300,
	KindCompile:       400,
	KindStow:          500,
	KindRun:           600,
	KindTrigger:       0,
}

// Priority orders heterogeneous actions; lower runs first.
func (k Kind) Priority() int {
	return priorities[k]
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := priorities[k]
	return ok
}

// Action is the contract shared by every action kind. Execution is
// kind-specific, see the concrete types.
type Action interface {
	Kind() Kind
	Priority() int
	// IsNull reports whether the action was built from empty options.
	IsNull() bool
	Options() Options
}

var constructors = map[Kind]func(Options, *Env) Action{
	KindImportContext: func(o Options, e *Env) Action { return NewImportContext(o, e) },
	KindSymlink:       func(o Options, e *Env) Action { return NewSymlink(o, e) },
	KindCopy:          func(o Options, e *Env) Action { return NewCopy(o, e) },
	KindCompile:       func(o Options, e *Env) Action { return NewCompile(o, e) },
	KindStow:          func(o Options, e *Env) Action { return NewStow(o, e) },
	KindRun:           func(o Options, e *Env) Action { return NewRun(o, e) },
	KindTrigger:       func(o Options, e *Env) Action { return NewTrigger(o, e) },
}

// New builds an action of the given kind.
func New(kind Kind, options Options, env *Env) (Action, error) {
	construct, ok := constructors[kind]
	if !ok {
		return nil, errors.Newf(errors.ErrActionInvalid, "unknown action type %q", kind).
			WithDetail("kind", string(kind))
	}
	return construct(options, env), nil
}
