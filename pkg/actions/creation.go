package actions

// Creation methods recorded for files produced by actions.
const (
	MethodCompiled  = "compiled"
	MethodCopied    = "copied"
	MethodSymlinked = "symlinked"
)

// Creation describes one file an action has produced.
type Creation struct {
	Method  string
	Content string
	Target  string
}

func creationsFrom(method string, ledger Ledger) []Creation {
	var out []Creation
	for _, content := range ledger.Contents() {
		for _, target := range ledger.Targets(content) {
			out = append(out, Creation{Method: method, Content: content, Target: target})
		}
	}
	return out
}
