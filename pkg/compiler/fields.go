package compiler

import (
	"strconv"
	"strings"
	"text/template/parse"

	"github.com/rs/zerolog"
)

// Names of the lookup functions field chains are rewritten to.
const (
	fieldFunc      = "astralField"
	rangeFieldFunc = "astralRangeField"
)

// rewriteFields replaces field chains such as `.a.b` and `$.a.b` with calls
// to the lookup functions, so that undefined keys at any depth render as an
// empty string instead of "<no value>" or a nil pointer error. Chains in a
// range pipeline use the range variant, which yields an empty range.
func rewriteFields(node parse.Node) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			rewriteFields(child)
		}
	case *parse.ActionNode:
		rewritePipe(n.Pipe, fieldFunc)
	case *parse.IfNode:
		rewriteBranch(&n.BranchNode, fieldFunc)
	case *parse.WithNode:
		rewriteBranch(&n.BranchNode, fieldFunc)
	case *parse.RangeNode:
		rewriteBranch(&n.BranchNode, rangeFieldFunc)
	case *parse.TemplateNode:
		rewritePipe(n.Pipe, fieldFunc)
	}
}

func rewriteBranch(b *parse.BranchNode, fn string) {
	rewritePipe(b.Pipe, fn)
	rewriteFields(b.List)
	rewriteFields(b.ElseList)
}

func rewritePipe(pipe *parse.PipeNode, fn string) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for i, arg := range cmd.Args {
			switch a := arg.(type) {
			case *parse.PipeNode:
				rewritePipe(a, fieldFunc)
				continue
			case *parse.ChainNode:
				if p, ok := a.Node.(*parse.PipeNode); ok {
					rewritePipe(p, fieldFunc)
				}
				continue
			}

			call, ok := fieldCall(arg, fn)
			if !ok {
				continue
			}
			switch {
			case i == 0 && len(cmd.Args) == 1:
				cmd.Args = call
			case i == 0:
				// A field with arguments is a method call; leave it alone.
			default:
				cmd.Args[i] = &parse.PipeNode{
					NodeType: parse.NodePipe,
					Pos:      arg.Position(),
					Cmds: []*parse.CommandNode{{
						NodeType: parse.NodeCommand,
						Pos:      arg.Position(),
						Args:     call,
					}},
				}
			}
		}
	}
}

// fieldCall returns the arguments of `fn root "k1" "k2"...` for a field or
// variable chain.
func fieldCall(arg parse.Node, fn string) ([]parse.Node, bool) {
	var root parse.Node
	var keys []string

	switch a := arg.(type) {
	case *parse.FieldNode:
		root = &parse.DotNode{NodeType: parse.NodeDot, Pos: a.Pos}
		keys = a.Ident
	case *parse.VariableNode:
		if len(a.Ident) < 2 {
			return nil, false
		}
		root = &parse.VariableNode{NodeType: parse.NodeVariable, Pos: a.Pos, Ident: a.Ident[:1]}
		keys = a.Ident[1:]
	default:
		return nil, false
	}

	call := []parse.Node{parse.NewIdentifier(fn).SetPos(arg.Position()), root}
	for _, key := range keys {
		call = append(call, &parse.StringNode{
			NodeType: parse.NodeString,
			Pos:      arg.Position(),
			Quoted:   strconv.Quote(key),
			Text:     key,
		})
	}
	return call, true
}

// lookupField walks keys through nested maps starting at dot. Undefined or
// null values are logged and replaced by missing.
func lookupField(logger zerolog.Logger, name string, missing any, dot any, keys ...string) any {
	current := dot
	for i, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return undefinedField(logger, name, missing, keys[:i+1])
		}
		value, ok := m[key]
		if !ok || value == nil {
			return undefinedField(logger, name, missing, keys[:i+1])
		}
		current = value
	}
	return current
}

func undefinedField(logger zerolog.Logger, name string, missing any, path []string) any {
	logger.Warn().
		Str("template", name).
		Str("variable", "."+strings.Join(path, ".")).
		Msg("Undefined template variable, substituting empty string")
	return missing
}
