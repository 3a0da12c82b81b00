package actions

import "sort"

// Ledger maps each content file to the targets produced from it. Entries
// are only ever added.
type Ledger map[string]map[string]struct{}

func (l Ledger) add(content, target string) {
	targets, ok := l[content]
	if !ok {
		targets = make(map[string]struct{})
		l[content] = targets
	}
	targets[target] = struct{}{}
}

// Has reports whether content has produced at least one target.
func (l Ledger) Has(content string) bool {
	_, ok := l[content]
	return ok
}

// Targets returns the sorted targets produced from content.
func (l Ledger) Targets(content string) []string {
	out := make([]string, 0, len(l[content]))
	for target := range l[content] {
		out = append(out, target)
	}
	sort.Strings(out)
	return out
}

// Contents returns the sorted content files.
func (l Ledger) Contents() []string {
	out := make([]string, 0, len(l))
	for content := range l {
		out = append(out, content)
	}
	sort.Strings(out)
	return out
}

// Merge adds every entry of other to l.
func (l Ledger) Merge(other Ledger) {
	for content, targets := range other {
		for target := range targets {
			l.add(content, target)
		}
	}
}

// Clone returns a deep copy.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	out.Merge(l)
	return out
}
